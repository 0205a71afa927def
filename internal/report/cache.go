package report

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// DefaultCacheTTL bounds how long a rendered report stays cached.
const DefaultCacheTTL = time.Hour

const cacheKeyPrefix = "report:"

// RedisCache caches rendered CSV reports in Redis. All operations are
// best-effort: a Redis failure degrades to regenerating the report.
type RedisCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRedisCache returns a cache using rdb with the given TTL; ttl <= 0 means
// DefaultCacheTTL.
func NewRedisCache(rdb *redis.Client, ttl time.Duration, logger zerolog.Logger) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RedisCache{rdb: rdb, ttl: ttl, logger: logger}
}

// Get returns the cached report for the session, if any.
func (c *RedisCache) Get(ctx context.Context, sessionID string) (string, bool) {
	val, err := c.rdb.Get(ctx, cacheKeyPrefix+sessionID).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn().Err(err).Str("sessionId", sessionID).Msg("report cache get failed")
		}
		return "", false
	}
	return val, true
}

// Set stores the rendered report for the session.
func (c *RedisCache) Set(ctx context.Context, sessionID, csv string) {
	if err := c.rdb.Set(ctx, cacheKeyPrefix+sessionID, csv, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("sessionId", sessionID).Msg("report cache set failed")
	}
}
