package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const reportCachePrefix = "reports:"

// ReportCache is a TTL-bounded Redis cache in front of the heavier report
// views. It is never a source of truth: every entry expires and the whole
// cache can be flushed explicitly. Cache failures degrade to a recompute,
// never to a caller error.
type ReportCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewReportCache constructs the cache. A nil client or non-positive TTL
// disables caching entirely.
func NewReportCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *ReportCache {
	if client == nil || ttl <= 0 {
		return nil
	}
	return &ReportCache{client: client, ttl: ttl, logger: logger}
}

// Get unmarshals the cached value into dest and reports whether it was
// present.
func (c *ReportCache) Get(ctx context.Context, key string, dest any) bool {
	if c == nil {
		return false
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		c.logger.Warn("corrupt report cache entry", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// Set stores value under key for the configured TTL.
func (c *ReportCache) Set(ctx context.Context, key string, value any) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("failed to marshal report cache entry", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("failed to write report cache entry", zap.String("key", key), zap.Error(err))
	}
}

// Flush drops every cached report entry.
func (c *ReportCache) Flush(ctx context.Context) {
	if c == nil {
		return
	}
	keys, err := c.client.Keys(ctx, reportCachePrefix+"*").Result()
	if err != nil {
		c.logger.Warn("failed to list report cache keys", zap.Error(err))
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("failed to flush report cache", zap.Error(err))
	}
}
