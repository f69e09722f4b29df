package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cache is a read-through cache over Redis. Redis failures degrade to
// the loader, never to an error: a cold cache is a latency problem, not
// an availability one.
type Cache struct {
	client redis.UniversalClient
	logger *zap.Logger
}

// New creates a Cache over an existing Redis client.
func New(client redis.UniversalClient, logger *zap.Logger) *Cache {
	return &Cache{
		client: client,
		logger: logger,
	}
}

// Remember returns the cached bytes for key, or runs load, stores the
// result with the given TTL, and returns it.
func (c *Cache) Remember(ctx context.Context, key string, ttl time.Duration, load func(context.Context) ([]byte, error)) ([]byte, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		return val, nil
	}
	if err != redis.Nil {
		c.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
	}

	val, err = load(ctx)
	if err != nil {
		return nil, err
	}

	if err := c.client.Set(ctx, key, val, ttl).Err(); err != nil {
		c.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}

	return val, nil
}
