// Package cache is a JSON read-through cache on top of Redis. A nil *Cache is
// valid and behaves as an always-missing cache, so callers never branch on
// whether Redis is configured.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/lk2023060901/perspectize-backend/internal/pkg/logger"
	"github.com/lk2023060901/perspectize-backend/internal/pkg/metrics"
	"go.uber.org/zap"
)

// Store is the subset of the redis client the cache needs
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPrefix(ctx context.Context, prefix string) (int64, error)
}

// Cache serializes values as JSON under hierarchical keys
type Cache struct {
	store   Store
	ttl     time.Duration
	metrics *metrics.Metrics
	logger  *logger.Logger
}

// New creates a cache. A non-positive ttl disables it.
func New(store Store, ttl time.Duration, m *metrics.Metrics, log *logger.Logger) *Cache {
	if store == nil || ttl <= 0 {
		return nil
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Cache{store: store, ttl: ttl, metrics: m, logger: log}
}

// Get decodes the value under key into dst and reports a hit. Store and
// decode failures count as misses.
func (c *Cache) Get(ctx context.Context, area, key string, dst interface{}) bool {
	if c == nil {
		return false
	}

	raw, err := c.store.Get(ctx, key)
	if err != nil || len(raw) == 0 {
		c.metrics.RecordCacheLookup(area, false)
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		c.logger.Warn("dropping undecodable cache entry", zap.String("key", key), zap.Error(err))
		c.metrics.RecordCacheLookup(area, false)
		return false
	}

	c.metrics.RecordCacheLookup(area, true)
	return true
}

// Set stores v under key. Failures are logged and otherwise ignored.
func (c *Cache) Set(ctx context.Context, key string, v interface{}) {
	if c == nil {
		return
	}

	raw, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("cache value not serializable", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.Set(ctx, key, raw, c.ttl); err != nil {
		c.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate drops every key under the given prefixes
func (c *Cache) Invalidate(ctx context.Context, prefixes ...string) {
	if c == nil {
		return
	}

	for _, p := range prefixes {
		n, err := c.store.DeleteByPrefix(ctx, p)
		if err != nil {
			c.logger.Warn("cache invalidation failed", zap.String("prefix", p), zap.Error(err))
			continue
		}
		c.logger.Debug("cache invalidated", zap.String("prefix", p), zap.Int64("keys", n))
	}
}

// Fetch returns the cached value under key or calls load and caches its
// result. Errors from load are returned as is and never cached.
func Fetch[T any](ctx context.Context, c *Cache, area, key string, load func(ctx context.Context) (T, error)) (T, error) {
	var cached T
	if c.Get(ctx, area, key, &cached) {
		return cached, nil
	}

	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	c.Set(ctx, key, v)
	return v, nil
}
