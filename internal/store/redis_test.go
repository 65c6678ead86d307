package store

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbaille/coldstore/internal/domain"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *Redis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	r := NewRedis(client, "coldstore:")
	t.Cleanup(func() { r.Close() })
	return mr, r
}

func TestRedisPrefixedKeys(t *testing.T) {
	ctx := context.Background()
	mr, r := setupTestRedis(t)

	_, err := r.Get(ctx, "rooms")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, r.Commit(ctx, []Write{
		{Key: "rooms", Value: []byte(`[]`)},
		{Key: "entries", Value: []byte(`[{"id":"e1"}]`)},
	}))

	raw, err := mr.Get("coldstore:entries")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"e1"}]`, raw)

	require.NoError(t, r.Delete(ctx, "rooms", "entries"))
	assert.False(t, mr.Exists("coldstore:rooms"))
	assert.False(t, mr.Exists("coldstore:entries"))
}

func TestRedisTypedStore(t *testing.T) {
	ctx := context.Background()
	mr, r := setupTestRedis(t)
	s := New(r, nil)

	clients := []domain.Client{{ID: "c1", Name: "Anwar", Phone1: "0100"}}
	require.NoError(t, Set(ctx, s, ClientsKey, clients))
	got, err := Get(ctx, s, ClientsKey)
	require.NoError(t, err)
	assert.Equal(t, clients, got)

	require.NoError(t, mr.Set("coldstore:clients", "garbage"))
	got, err = Get(ctx, s, ClientsKey)
	require.NoError(t, err)
	assert.Empty(t, got)
}
