// Package cache holds an optional redis cache for rendered availability
// grids. The service runs fine without it; a nil *GridCache is a no-op.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const versionKey = "studyroom:grid:version"

// GridCache stores rendered grid pages keyed by (pool, resource) under a
// global version. Mutations bump the version instead of enumerating
// keys; stale entries age out via TTL.
type GridCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New creates a grid cache. ttl must be positive.
func New(rdb *redis.Client, ttl time.Duration) *GridCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &GridCache{rdb: rdb, ttl: ttl}
}

// Get returns the cached page for key, if present.
func (c *GridCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	full, err := c.versionedKey(ctx, key)
	if err != nil {
		return nil, false
	}
	data, err := c.rdb.Get(ctx, full).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

// Set stores the rendered page for key.
func (c *GridCache) Set(ctx context.Context, key string, body []byte) {
	if c == nil {
		return
	}
	full, err := c.versionedKey(ctx, key)
	if err != nil {
		return
	}
	c.rdb.Set(ctx, full, body, c.ttl)
}

// Invalidate drops every cached grid by bumping the version.
func (c *GridCache) Invalidate(ctx context.Context) {
	if c == nil {
		return
	}
	c.rdb.Incr(ctx, versionKey)
}

func (c *GridCache) versionedKey(ctx context.Context, key string) (string, error) {
	ver, err := c.rdb.Get(ctx, versionKey).Int64()
	if err != nil && err != redis.Nil {
		return "", err
	}
	return fmt.Sprintf("studyroom:grid:v%d:%s", ver, key), nil
}
