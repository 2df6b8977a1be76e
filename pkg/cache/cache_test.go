package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisCache(client), mr
}

func TestRedisCacheRoundtrip(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	require.NoError(t, c.Set(ctx, "leaderboard:10", []byte(`{"total_players":3}`), time.Minute))

	got, err := c.Get(ctx, "leaderboard:10")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"total_players":3}`), got)
}

func TestRedisCacheMissReturnsNil(t *testing.T) {
	c, _ := newTestCache(t)

	got, err := c.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisCacheTTLExpiry(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	require.NoError(t, c.Set(ctx, "stats", []byte("cached"), 30*time.Second))

	mr.FastForward(31 * time.Second)

	got, err := c.Get(ctx, "stats")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisCacheErrorPropagates(t *testing.T) {
	c, mr := newTestCache(t)
	mr.Close()

	_, err := c.Get(context.Background(), "any")
	assert.Error(t, err)
}

func TestDisabledCache(t *testing.T) {
	ctx := context.Background()
	var c Cache = Disabled{}

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, got)
}
