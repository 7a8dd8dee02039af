// internal/cache/link_cache_test.go
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

func setupTestCache(t *testing.T) (*LinkCache, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewLinkCache(client, 5*time.Minute), mr
}

func TestLinkCache_SetGetTarget(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	err := cache.SetTarget(ctx, "ABCDEF0123456789", "https://shopvn.test/products/iphone-15")
	require.NoError(t, err)

	target, err := cache.GetTarget(ctx, "ABCDEF0123456789")
	require.NoError(t, err)
	assert.Equal(t, "https://shopvn.test/products/iphone-15", target)
}

func TestLinkCache_GetTarget_Miss(t *testing.T) {
	cache, _ := setupTestCache(t)

	target, err := cache.GetTarget(context.Background(), "UNKNOWN000000000")
	require.NoError(t, err)
	assert.Empty(t, target)
}

func TestLinkCache_InvalidateTarget(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.SetTarget(ctx, "ABCDEF0123456789", "https://shopvn.test/products/iphone-15"))
	require.NoError(t, cache.InvalidateTarget(ctx, "ABCDEF0123456789"))

	target, err := cache.GetTarget(ctx, "ABCDEF0123456789")
	require.NoError(t, err)
	assert.Empty(t, target)
}

func TestLinkCache_TargetExpires(t *testing.T) {
	cache, mr := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.SetTarget(ctx, "ABCDEF0123456789", "https://shopvn.test/products/iphone-15"))

	mr.FastForward(6 * time.Minute)

	target, err := cache.GetTarget(ctx, "ABCDEF0123456789")
	require.NoError(t, err)
	assert.Empty(t, target)
}
