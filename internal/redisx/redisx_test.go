package redisx

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getRedisClient(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := New(addr, os.Getenv("REDIS_PASSWORD"))
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestIdempotency(t *testing.T) {
	rdb := getRedisClient(t)
	ctx := context.Background()
	idem := NewIdempotency(rdb, time.Minute)
	key := uuid.NewString()

	_, started, err := idem.Begin(ctx, ScopeDirectSale, key)
	require.NoError(t, err)
	assert.True(t, started)

	_, _, err = idem.Begin(ctx, ScopeDirectSale, key)
	assert.ErrorIs(t, err, ErrInFlight)

	require.NoError(t, idem.Complete(ctx, ScopeDirectSale, key, "order-1"))
	id, started, err := idem.Begin(ctx, ScopeDirectSale, key)
	require.NoError(t, err)
	assert.False(t, started)
	assert.Equal(t, "order-1", id)

	other := uuid.NewString()
	_, started, err = idem.Begin(ctx, ScopeOnlineOrder, other)
	require.NoError(t, err)
	require.True(t, started)
	require.NoError(t, idem.Abort(ctx, ScopeOnlineOrder, other))
	_, started, err = idem.Begin(ctx, ScopeOnlineOrder, other)
	require.NoError(t, err)
	assert.True(t, started)
}

func TestStatusCache(t *testing.T) {
	rdb := getRedisClient(t)
	ctx := context.Background()
	cache := NewStatusCache(rdb, time.Minute)
	id := uuid.NewString()

	_, ok, err := cache.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, cache.Set(ctx, OrderStatus{OrderID: id, Status: "delivered", UpdatedAt: now}))
	st, ok, err := cache.Get(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "delivered", st.Status)
	assert.True(t, now.Equal(st.UpdatedAt))
}

func TestDedup(t *testing.T) {
	rdb := getRedisClient(t)
	ctx := context.Background()
	d := NewDedup(rdb, "test")
	ev := uuid.NewString()

	first, err := d.Mark(ctx, ev)
	require.NoError(t, err)
	assert.True(t, first)
	first, err = d.Mark(ctx, ev)
	require.NoError(t, err)
	assert.False(t, first)

	require.NoError(t, d.Forget(ctx, ev))
	ok, err := Exists(ctx, rdb, "dedup:test:"+ev)
	require.NoError(t, err)
	assert.False(t, ok)
}
