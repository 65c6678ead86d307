package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/pbaille/coldstore/internal/domain"
)

// Key names a collection and the value a reader gets when it is missing or corrupt
type Key[T any] struct {
	Name    string
	Default func() T
}

// The four persisted collections
var (
	RoomsKey = Key[[]domain.Room]{
		Name:    "rooms",
		Default: func() []domain.Room { return []domain.Room{} },
	}
	ClientsKey = Key[[]domain.Client]{
		Name:    "clients",
		Default: func() []domain.Client { return []domain.Client{} },
	}
	EntriesKey = Key[[]domain.Entry]{
		Name:    "entries",
		Default: func() []domain.Entry { return []domain.Entry{} },
	}
	RoomLotsKey = Key[domain.RoomLots]{
		Name:    "roomLots",
		Default: func() domain.RoomLots { return domain.RoomLots{} },
	}
)

// CollectionNames lists every key the application owns
var CollectionNames = []string{RoomsKey.Name, ClientsKey.Name, EntriesKey.Name, RoomLotsKey.Name}

// Store reads and writes JSON-encoded collections on top of a Backend
type Store struct {
	backend Backend
	log     *zap.Logger
}

// New creates a Store. A nil logger discards output.
func New(b Backend, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{backend: b, log: log}
}

// Close closes the underlying backend
func (s *Store) Close() error {
	return s.backend.Close()
}

// Get decodes the value under key. A missing, null or undecodable value yields
// key.Default(); corruption is logged, not returned.
func Get[T any](ctx context.Context, s *Store, key Key[T]) (T, error) {
	raw, err := s.backend.Get(ctx, key.Name)
	if errors.Is(err, ErrMiss) {
		return key.Default(), nil
	}
	if err != nil {
		var zero T
		return zero, fmt.Errorf("get %s: %w", key.Name, err)
	}

	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return key.Default(), nil
	}

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		corrupt := &domain.StorageCorruptionError{Key: key.Name, Err: err}
		s.log.Warn("stored value is unreadable, using default",
			zap.String("key", key.Name),
			zap.Error(corrupt),
		)
		return key.Default(), nil
	}
	return v, nil
}

// Set encodes and stores v under key
func Set[T any](ctx context.Context, s *Store, key Key[T], v T) error {
	var b Batch
	if err := Stage(&b, key, v); err != nil {
		return err
	}
	return s.Commit(ctx, &b)
}

// Update applies fn to the current value and writes the result back
func Update[T any](ctx context.Context, s *Store, key Key[T], fn func(T) T) (T, error) {
	cur, err := Get(ctx, s, key)
	if err != nil {
		var zero T
		return zero, err
	}
	next := fn(cur)
	if err := Set(ctx, s, key, next); err != nil {
		var zero T
		return zero, err
	}
	return next, nil
}

// Batch collects writes to several collections so they land together
type Batch struct {
	writes []Write
}

// Stage encodes v and adds it to the batch, replacing an earlier write to the same key
func Stage[T any](b *Batch, key Key[T], v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key.Name, err)
	}
	for i := range b.writes {
		if b.writes[i].Key == key.Name {
			b.writes[i].Value = raw
			return nil
		}
	}
	b.writes = append(b.writes, Write{Key: key.Name, Value: raw})
	return nil
}

// Len returns the number of staged keys
func (b *Batch) Len() int { return len(b.writes) }

// Commit writes every staged key atomically
func (s *Store) Commit(ctx context.Context, b *Batch) error {
	if b.Len() == 0 {
		return nil
	}
	if err := s.backend.Commit(ctx, b.writes); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Reset deletes every collection so the next read returns defaults
func (s *Store) Reset(ctx context.Context) error {
	if err := s.backend.Delete(ctx, CollectionNames...); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	return nil
}
