package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache defines a byte-value cache for derived read queries
// (leaderboard pages and aggregate stats). Staleness is bounded
// by the TTL passed to Set; there is no write invalidation.
type Cache interface {
	// Get returns the cached value, or (nil, nil) on a miss
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores the value under key for at most ttl
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RedisCache implements Cache using Redis
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

// Disabled implements Cache as a no-op, used when no Redis address
// is configured. Every Get is a miss and every Set is dropped.
type Disabled struct{}

func (Disabled) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, nil
}

func (Disabled) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return nil
}
