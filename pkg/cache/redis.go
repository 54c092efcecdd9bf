package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/transitmap/pkg/errors"
)

// DefaultNamespace prefixes every key written by the remote backends.
const DefaultNamespace = "transitmap:"

// RedisCache stores entries in Redis using native key expiry.
type RedisCache struct {
	client    *redis.Client
	namespace string
}

// NewRedisCache connects to the Redis server at url, e.g.
// "redis://localhost:6379/0", and checks that it responds.
func NewRedisCache(ctx context.Context, url string) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse redis url")
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrap(errors.ErrCodeIO, err, "connect to redis at %s", opts.Addr)
	}
	return NewRedisCacheFromClient(client, DefaultNamespace), nil
}

// NewRedisCacheFromClient wraps an existing client. The cache takes
// ownership and closes it on Close.
func NewRedisCacheFromClient(client *redis.Client, namespace string) *RedisCache {
	return &RedisCache{client: client, namespace: namespace}
}

// Get retrieves a value from the cache.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, c.namespace+key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeIO, err, "redis get")
	}
	return data, true, nil
}

// Set stores a value in the cache.
func (c *RedisCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.namespace+key, data, ttl).Err(); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "redis set")
	}
	return nil
}

// Delete removes a value from the cache.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.namespace+key).Err(); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "redis del")
	}
	return nil
}

// Clear deletes every key in the cache's namespace.
func (c *RedisCache) Clear(ctx context.Context) (int, error) {
	var (
		removed int
		batch   []string
	)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := c.client.Del(ctx, batch...).Result()
		removed += int(n)
		batch = batch[:0]
		return err
	}

	iter := c.client.Scan(ctx, 0, c.namespace+"*", 100).Iterator()
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 100 {
			if err := flush(); err != nil {
				return removed, errors.Wrap(errors.ErrCodeIO, err, "redis del")
			}
		}
	}
	if err := iter.Err(); err != nil {
		return removed, errors.Wrap(errors.ErrCodeIO, err, "redis scan")
	}
	if err := flush(); err != nil {
		return removed, errors.Wrap(errors.ErrCodeIO, err, "redis del")
	}
	return removed, nil
}

// Close closes the Redis client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

var (
	_ Cache   = (*RedisCache)(nil)
	_ Clearer = (*RedisCache)(nil)
)
