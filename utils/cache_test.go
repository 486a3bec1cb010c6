package utils

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	return NewCache(client, time.Minute)
}

func TestCacheReadThrough(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	type row struct {
		Name string `json:"name"`
	}

	var dest []row
	assert.False(t, cache.GetJSON(ctx, ProjectListKey(1, 2), &dest))

	cache.SetJSON(ctx, ProjectListKey(1, 2), []row{{Name: "Apollo"}})
	require.True(t, cache.GetJSON(ctx, ProjectListKey(1, 2), &dest))
	require.Len(t, dest, 1)
	assert.Equal(t, "Apollo", dest[0].Name)
}

func TestCacheInvalidatePrefix(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	cache.SetJSON(ctx, ProjectListKey(1, 2), "a")
	cache.SetJSON(ctx, ProjectListKey(1, 3), "b")
	cache.SetJSON(ctx, "departments:1", "c")

	cache.InvalidatePrefix(ctx, ProjectCachePrefix)

	var dest string
	assert.False(t, cache.GetJSON(ctx, ProjectListKey(1, 2), &dest))
	assert.False(t, cache.GetJSON(ctx, ProjectListKey(1, 3), &dest))
	assert.True(t, cache.GetJSON(ctx, "departments:1", &dest))
}

func TestNilCacheIsInert(t *testing.T) {
	var cache *Cache
	ctx := context.Background()

	var dest string
	assert.False(t, cache.GetJSON(ctx, "k", &dest))
	cache.SetJSON(ctx, "k", "v")
	cache.InvalidatePrefix(ctx, "k")
}
