// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupMiniRedis creates a test Redis server using miniredis.
func setupMiniRedis(t *testing.T) (*miniredis.Miniredis, *RedisCache) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, newRedisCache(client, "", zerolog.Nop())
}

func TestRedisCache_SetGet(t *testing.T) {
	_, c := setupMiniRedis(t)
	ctx := context.Background()

	c.Set(ctx, "abc123", "https://example.com/a", 5*time.Minute)

	val, found := c.Get(ctx, "abc123")
	require.True(t, found)
	assert.Equal(t, "https://example.com/a", val)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Sets)
	assert.Equal(t, 1, stats.CurrentSize)
}

func TestRedisCache_StoresJSONUnderPrefix(t *testing.T) {
	mr, c := setupMiniRedis(t)
	c.Set(context.Background(), "k", "v", time.Minute)

	raw, err := mr.Get("eco:short:k")
	require.NoError(t, err)
	assert.Equal(t, `"v"`, raw)
}

func TestRedisCache_TTLExpiry(t *testing.T) {
	mr, c := setupMiniRedis(t)
	ctx := context.Background()

	c.Set(ctx, "k", "v", time.Second)
	mr.FastForward(2 * time.Second)

	_, found := c.Get(ctx, "k")
	assert.False(t, found)
	assert.Equal(t, int64(1), c.Stats().Misses)
}

func TestRedisCache_ClearKeepsForeignKeys(t *testing.T) {
	mr, c := setupMiniRedis(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("other:key", "keep"))
	c.Set(ctx, "a", "1", time.Minute)
	c.Set(ctx, "b", "2", time.Minute)

	c.Clear(ctx)

	assert.Equal(t, 0, c.Stats().CurrentSize)
	assert.True(t, mr.Exists("other:key"))
}

func TestRedisCache_InvalidJSONIsMiss(t *testing.T) {
	mr, c := setupMiniRedis(t)
	require.NoError(t, mr.Set("eco:short:bad", "{not json"))

	_, found := c.Get(context.Background(), "bad")
	assert.False(t, found)
}

func TestRedisCache_PingFailsWhenServerDown(t *testing.T) {
	mr, c := setupMiniRedis(t)
	require.NoError(t, c.Ping(context.Background()))

	mr.Close()
	assert.Error(t, c.Ping(context.Background()))

	_, found := c.Get(context.Background(), "k")
	assert.False(t, found)
}

func TestNewRedisCache_ConnectionError(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisCache(context.Background(), RedisConfig{Addr: addr}, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis connection failed")
}

func TestNewRedisCache_Connects(t *testing.T) {
	mr := miniredis.RunT(t)

	c, err := NewRedisCache(context.Background(), RedisConfig{Addr: mr.Addr(), Prefix: "t:"}, zerolog.Nop())
	require.NoError(t, err)
	defer c.Close()

	c.Set(context.Background(), "x", "y", time.Minute)
	assert.True(t, mr.Exists("t:x"))
}
