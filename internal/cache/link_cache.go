// internal/cache/link_cache.go
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/javajoker/shopvn-backend/internal/config"
)

func NewClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// LinkCache caches link-code → target-URL resolutions for the public redirect
// path so hot links skip the database read.
type LinkCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewLinkCache(client *redis.Client, ttl time.Duration) *LinkCache {
	return &LinkCache{client: client, ttl: ttl}
}

func key(linkCode string) string {
	return "affiliate:link:target:" + linkCode
}

// GetTarget returns the cached target URL, or "" on a miss.
func (c *LinkCache) GetTarget(ctx context.Context, linkCode string) (string, error) {
	url, err := c.client.Get(ctx, key(linkCode)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis get: %w", err)
	}
	return url, nil
}

func (c *LinkCache) SetTarget(ctx context.Context, linkCode, url string) error {
	if err := c.client.Set(ctx, key(linkCode), url, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// InvalidateTarget drops a cached resolution, e.g. when a link is disabled.
func (c *LinkCache) InvalidateTarget(ctx context.Context, linkCode string) error {
	if err := c.client.Del(ctx, key(linkCode)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
