package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisCache implements ports.Cache on a Redis backend. Every backend
// failure is mapped to a miss or a no-op: an unreachable Redis must slow
// requests down at worst, never fail them.
type RedisCache struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisCache creates a Redis cache client and verifies the connection
// with a ping. A failed ping is logged, not fatal; the cache degrades to
// all-miss until the backend comes back.
func NewRedisCache(addr string, logger *zap.Logger) *RedisCache {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("Redis unreachable, cache degrades to miss",
			zap.String("addr", addr),
			zap.Error(err),
		)
	}

	return &RedisCache{client: client, logger: logger}
}

// Get returns the value for key, treating any backend error as a miss
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug("Cache get failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	return data, true
}

// Set stores value under key, best-effort
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		c.logger.Debug("Cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// Delete removes the given keys, best-effort
func (c *RedisCache) Delete(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Debug("Cache delete failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

// Close shuts down the underlying connection pool
func (c *RedisCache) Close() error {
	return c.client.Close()
}
