package server

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/vpetrenko/ranksearch/internal/engine"
	"github.com/vpetrenko/ranksearch/pkg/config"
	pkgredis "github.com/vpetrenko/ranksearch/pkg/redis"
)

const cacheKeyPrefix = "search:"

// QueryCache caches ranked results in Redis, keyed by query, status,
// and result cap. Concurrent lookups for the same key collapse into one
// engine execution via singleflight.
type QueryCache struct {
	client *pkgredis.Client
	cfg    config.RedisConfig
	group  singleflight.Group
	logger *slog.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

// NewQueryCache wraps a Redis client.
func NewQueryCache(client *pkgredis.Client, cfg config.RedisConfig) *QueryCache {
	return &QueryCache{
		client: client,
		cfg:    cfg,
		logger: slog.Default().With("component", "query-cache"),
	}
}

// GetOrCompute returns the cached result for the query or computes and
// stores it. The second return reports a cache hit.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	rawQuery string,
	st engine.Status,
	limit int,
	compute func() ([]engine.Document, error),
) ([]engine.Document, bool, error) {
	key := c.buildKey(rawQuery, st, limit)

	if docs, ok := c.get(ctx, key); ok {
		c.hits.Add(1)
		return docs, true, nil
	}
	c.misses.Add(1)

	result, err, _ := c.group.Do(key, func() (any, error) {
		docs, err := compute()
		if err != nil {
			return nil, err
		}
		c.set(ctx, key, docs)
		return docs, nil
	})
	if err != nil {
		return nil, false, err
	}
	return result.([]engine.Document), false, nil
}

// Invalidate drops every cached query result. Called whenever a
// document is added, since any cached ranking may now be stale.
func (c *QueryCache) Invalidate(ctx context.Context) {
	deleted, err := c.client.FlushByPattern(ctx, cacheKeyPrefix+"*")
	if err != nil {
		c.logger.Error("cache invalidation failed", "error", err)
		return
	}
	c.logger.Debug("cache invalidated", "keys", deleted)
}

// Stats returns hit and miss counts since startup.
func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *QueryCache) get(ctx context.Context, key string) ([]engine.Document, bool) {
	data, err := c.client.Get(ctx, key)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		return nil, false
	}
	var docs []engine.Document
	if err := json.Unmarshal([]byte(data), &docs); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		return nil, false
	}
	return docs, true
}

func (c *QueryCache) set(ctx context.Context, key string, docs []engine.Document) {
	data, err := json.Marshal(docs)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.cfg.CacheTTL); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

func (c *QueryCache) buildKey(rawQuery string, st engine.Status, limit int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%d", rawQuery, st, limit)))
	return fmt.Sprintf("%s%x", cacheKeyPrefix, sum[:16])
}
