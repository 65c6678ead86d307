package warehouse

import (
	"context"

	"github.com/pbaille/coldstore/internal/domain"
	"github.com/pbaille/coldstore/internal/store"
)

// snapshot is the in-memory copy of every collection for one call
type snapshot struct {
	rooms   []domain.Room
	clients []domain.Client
	entries []domain.Entry
	lots    domain.RoomLots
	dirty   map[string]bool
}

func (s *Service) load(ctx context.Context) (*snapshot, error) {
	rooms, err := store.Get(ctx, s.st, store.RoomsKey)
	if err != nil {
		return nil, err
	}
	clients, err := store.Get(ctx, s.st, store.ClientsKey)
	if err != nil {
		return nil, err
	}
	entries, err := store.Get(ctx, s.st, store.EntriesKey)
	if err != nil {
		return nil, err
	}
	lots, err := store.Get(ctx, s.st, store.RoomLotsKey)
	if err != nil {
		return nil, err
	}
	return &snapshot{
		rooms:   rooms,
		clients: clients,
		entries: entries,
		lots:    lots,
		dirty:   make(map[string]bool),
	}, nil
}

// Records is a consistent copy of every collection
type Records struct {
	Rooms   []domain.Room   `json:"rooms"`
	Clients []domain.Client `json:"clients"`
	Entries []domain.Entry  `json:"entries"`
	Lots    domain.RoomLots `json:"roomLots"`
}

// Records reads all four collections under one lock
func (s *Service) Records(ctx context.Context) (Records, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sn, err := s.load(ctx)
	if err != nil {
		return Records{}, err
	}
	return Records{Rooms: sn.rooms, Clients: sn.clients, Entries: sn.entries, Lots: sn.lots}, nil
}

func (sn *snapshot) touch(keys ...string) {
	for _, k := range keys {
		sn.dirty[k] = true
	}
}

// commit writes the touched collections in one batch
func (s *Service) commit(ctx context.Context, sn *snapshot) error {
	var b store.Batch
	if sn.dirty[store.RoomsKey.Name] {
		if err := store.Stage(&b, store.RoomsKey, sn.rooms); err != nil {
			return err
		}
	}
	if sn.dirty[store.ClientsKey.Name] {
		if err := store.Stage(&b, store.ClientsKey, sn.clients); err != nil {
			return err
		}
	}
	if sn.dirty[store.EntriesKey.Name] {
		if err := store.Stage(&b, store.EntriesKey, sn.entries); err != nil {
			return err
		}
	}
	if sn.dirty[store.RoomLotsKey.Name] {
		if err := store.Stage(&b, store.RoomLotsKey, sn.lots); err != nil {
			return err
		}
	}
	return s.st.Commit(ctx, &b)
}

// recompute runs the canonical rule for the given rooms and marks rooms dirty
func (s *Service) recompute(sn *snapshot, roomIDs ...string) {
	s.engine.Recompute(sn.rooms, sn.entries, sn.lots, roomIDs...)
	sn.touch(store.RoomsKey.Name)
}

func (sn *snapshot) roomIndex(id string) int {
	for i := range sn.rooms {
		if sn.rooms[i].ID == id {
			return i
		}
	}
	return -1
}

func (sn *snapshot) clientIndex(id string) int {
	for i := range sn.clients {
		if sn.clients[i].ID == id {
			return i
		}
	}
	return -1
}

func (sn *snapshot) entryIndex(id string) int {
	for i := range sn.entries {
		if sn.entries[i].ID == id {
			return i
		}
	}
	return -1
}
