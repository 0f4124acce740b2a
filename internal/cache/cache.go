package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by Get when the key is absent or caching is disabled.
var ErrMiss = errors.New("cache miss")

// Cache stores JSON values in Redis under a common key prefix. A Cache
// built with a nil client is a no-op that always misses.
type Cache struct {
	redis  *redis.Client
	prefix string
}

func NewCache(client *redis.Client, prefix string) *Cache {
	return &Cache{
		redis:  client,
		prefix: prefix,
	}
}

// Connect parses a redis:// URL and pings the server. An empty URL yields
// a disabled cache.
func Connect(ctx context.Context, url, prefix string) (*Cache, error) {
	if url == "" {
		return NewCache(nil, prefix), nil
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "redis URL parsing failed")
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrap(err, "redis ping failed")
	}
	return NewCache(client, prefix), nil
}

func (c *Cache) Enabled() bool {
	return c != nil && c.redis != nil
}

func (c *Cache) Get(ctx context.Context, key string, dest interface{}) error {
	if !c.Enabled() {
		return ErrMiss
	}
	data, err := c.redis.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return ErrMiss
		}
		return errors.Wrap(err, "failed to get from cache")
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return errors.Wrap(err, "failed to unmarshal cached data")
	}
	return nil
}

func (c *Cache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if !c.Enabled() {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, "failed to marshal data for cache")
	}

	if err := c.redis.Set(ctx, c.prefix+key, data, expiration).Err(); err != nil {
		return errors.Wrap(err, "failed to set cache")
	}
	return nil
}

func (c *Cache) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.redis.Close()
}
