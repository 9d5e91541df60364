package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Store is the minimal cache-store contract. Implemented by Redis in
// production and by in-memory fakes in tests.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

type redisStore struct {
	client *redis.Client
}

// NewRedisStore wraps a Redis client as a Store.
func NewRedisStore(client *redis.Client) Store {
	return &redisStore{client: client}
}

func (s *redisStore) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (s *redisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

func (s *redisStore) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}

// Cache is a read-through side-cache. Mutating code paths must call
// Invalidate for every key that covers the mutated entity; there is no
// automatic invalidation.
type Cache struct {
	store  Store
	logger *zap.Logger
}

func New(store Store, logger *zap.Logger) *Cache {
	return &Cache{store: store, logger: logger}
}

// GetOrFetch returns the cached value for key, or invokes loader, caches the
// result for ttl and returns it. A cache outage or a corrupt entry degrades
// to a loader call rather than failing the request.
func (c *Cache) GetOrFetch(ctx context.Context, key string, ttl time.Duration, dest interface{}, loader func(ctx context.Context) (interface{}, error)) error {
	cached, found, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
	}
	if found {
		if err := json.Unmarshal([]byte(cached), dest); err == nil {
			return nil
		}
		c.logger.Warn("corrupt cache entry, refetching", zap.String("key", key))
	}

	value, err := loader(ctx)
	if err != nil {
		return err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := c.store.Set(ctx, key, string(data), ttl); err != nil {
		c.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}

	return json.Unmarshal(data, dest)
}

// Invalidate deletes the given cache keys.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if err := c.store.Del(ctx, keys...); err != nil {
		c.logger.Warn("cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}
