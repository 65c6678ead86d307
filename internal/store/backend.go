package store

import (
	"context"
	"errors"
)

// ErrMiss is returned by a Backend when a key has never been written
var ErrMiss = errors.New("key not found")

// Write is one key/value pair of a Commit
type Write struct {
	Key   string
	Value []byte
}

// Backend is a raw persistent key-value mechanism.
// Commit must apply all writes or none.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Commit(ctx context.Context, writes []Write) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}
