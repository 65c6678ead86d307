package store

import (
	"context"
	"errors"

	"github.com/go-redis/redis/v8"
)

// Redis stores collections as plain string keys under a prefix
type Redis struct {
	c      *redis.Client
	prefix string
}

// NewRedis wraps an existing client. The client is closed by Close.
func NewRedis(c *redis.Client, prefix string) *Redis {
	return &Redis{c: c, prefix: prefix}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.c.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, err
	}
	return val, nil
}

// Commit writes all keys inside MULTI/EXEC
func (r *Redis) Commit(ctx context.Context, writes []Write) error {
	_, err := r.c.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, w := range writes {
			pipe.Set(ctx, r.prefix+w.Key, w.Value, 0)
		}
		return nil
	})
	return err
}

func (r *Redis) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = r.prefix + k
	}
	return r.c.Del(ctx, full...).Err()
}

func (r *Redis) Close() error {
	return r.c.Close()
}
