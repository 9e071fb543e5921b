package storage

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "aws-cost/internal/errors"
)

// keyPrefix namespaces cache keys in a shared redis
const keyPrefix = "aws-cost:"

// RedisCache is a cache.Store on redis, for shared deployments
type RedisCache struct {
	rdb *redis.Client
}

// NewRedisCache connects and pings addr
func NewRedisCache(ctx context.Context, addr string) (*RedisCache, error) {
	if addr == "" {
		return nil, apperrors.Input("redis address is empty")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, apperrors.Unavailable("connect to redis", err)
	}
	return NewRedisCacheFromClient(rdb), nil
}

// NewRedisCacheFromClient wraps an existing client
func NewRedisCacheFromClient(rdb *redis.Client) *RedisCache {
	return &RedisCache{rdb: rdb}
}

// Get returns the stored value; redis.Nil is a miss
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.rdb.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, apperrors.Unavailable("redis get", err)
	}
	return data, true, nil
}

// Set stores value with ttl
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, keyPrefix+key, value, ttl).Err(); err != nil {
		return apperrors.Unavailable("redis set", err)
	}
	return nil
}

// Close releases the connection pool
func (c *RedisCache) Close() error {
	return c.rdb.Close()
}
