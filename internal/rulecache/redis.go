package rulecache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache stores entries in Redis. Values are opaque byte blobs; the
// engine decides the encoding.
type RedisCache struct {
	client redis.UniversalClient // Redis connection.
}

// NewRedisCache constructs a RedisCache around an existing client.
func NewRedisCache(client redis.UniversalClient) *RedisCache {
	return &RedisCache{client: client}
}

// Get reads one key. A missing key is not an error.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if c == nil || c.client == nil {
		return nil, false, fmt.Errorf("rulecache: nil redis client")
	}
	value, errGet := c.client.Get(ctx, key).Bytes()
	if errGet != nil {
		if errors.Is(errGet, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("rulecache: get %s: %w", key, errGet)
	}
	return value, true, nil
}

// Set writes one key with a TTL.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if c == nil || c.client == nil {
		return fmt.Errorf("rulecache: nil redis client")
	}
	if errSet := c.client.Set(ctx, key, value, ttl).Err(); errSet != nil {
		return fmt.Errorf("rulecache: set %s: %w", key, errSet)
	}
	return nil
}

// Delete removes the given keys. Deleting an absent key is not an error.
func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if c == nil || c.client == nil {
		return fmt.Errorf("rulecache: nil redis client")
	}
	if len(keys) == 0 {
		return nil
	}
	if errDel := c.client.Del(ctx, keys...).Err(); errDel != nil {
		return fmt.Errorf("rulecache: delete: %w", errDel)
	}
	return nil
}

// DeleteByPrefix scans for keys under prefix and removes them in batches.
func (c *RedisCache) DeleteByPrefix(ctx context.Context, prefix string) error {
	if c == nil || c.client == nil {
		return fmt.Errorf("rulecache: nil redis client")
	}

	iter := c.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	batch := make([]string, 0, 100)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			if errDel := c.client.Del(ctx, batch...).Err(); errDel != nil {
				return fmt.Errorf("rulecache: delete by prefix %s: %w", prefix, errDel)
			}
			batch = batch[:0]
		}
	}
	if errScan := iter.Err(); errScan != nil {
		return fmt.Errorf("rulecache: scan %s: %w", prefix, errScan)
	}
	if len(batch) > 0 {
		if errDel := c.client.Del(ctx, batch...).Err(); errDel != nil {
			return fmt.Errorf("rulecache: delete by prefix %s: %w", prefix, errDel)
		}
	}
	return nil
}
