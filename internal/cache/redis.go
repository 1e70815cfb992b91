package cache

import (
	"context"

	"github.com/wonny/findash/backend/pkg/redis"
)

// RedisStore is a Store backed by Redis. Expiry is delegated to Redis,
// using the TTL of the category passed to Set.
type RedisStore struct {
	cache *redis.Cache
}

// NewRedisStore wraps a Redis cache helper
func NewRedisStore(c *redis.Cache) *RedisStore {
	return &RedisStore{cache: c}
}

func (s *RedisStore) Get(ctx context.Context, key string, cat Category, dest interface{}) (bool, error) {
	return s.cache.Get(ctx, key, dest)
}

func (s *RedisStore) Set(ctx context.Context, key string, cat Category, value interface{}) error {
	return s.cache.Set(ctx, key, value, cat.TTL())
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.cache.Delete(ctx, key)
}
