package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/metaschema/pkg/types"
)

// RedisCache stores entries in a Redis keyspace shared by every process
// that resolves schemas.
type RedisCache struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

// NewRedisCache creates a Redis cache over an existing client.
func NewRedisCache(client *redis.Client, prefix string, logger *zap.Logger) *RedisCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisCache{
		client: client,
		prefix: prefix,
		logger: logger.Named("cache"),
	}
}

// Get retrieves a value from the cache.
func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, types.ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, nil
}

// Has checks if a key exists in the cache.
func (r *RedisCache) Has(ctx context.Context, key string) (bool, error) {
	count, err := r.client.Exists(ctx, r.prefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists %s: %w", key, err)
	}
	return count > 0, nil
}

// PutForever stores value with no TTL.
func (r *RedisCache) PutForever(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, r.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Forget removes a value from the cache.
func (r *RedisCache) Forget(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// Flush removes every entry under the prefix. It scans rather than calling
// FLUSHDB so other users of the database are untouched, and it skips build
// leases held under the lock namespace.
func (r *RedisCache) Flush(ctx context.Context) error {
	var removed int
	leases := r.prefix + types.LockNamespace
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if strings.HasPrefix(iter.Val(), leases) {
			continue
		}
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("redis del %s: %w", iter.Val(), err)
		}
		removed++
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan %s*: %w", r.prefix, err)
	}
	r.logger.Debug("flushed cache", zap.String("prefix", r.prefix), zap.Int("keys", removed))
	return nil
}
