// Package cache provides the types.Cache backends used to store resolved
// schemas: an in-process map and a shared Redis keyspace.
package cache

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/metaschema/pkg/types"
)

var (
	_ types.Cache = (*MemoryCache)(nil)
	_ types.Cache = (*RedisCache)(nil)
)

// New builds the cache selected by config. A Redis cache needs client; the
// memory cache ignores it.
func New(config types.CacheConfig, client *redis.Client, logger *zap.Logger) (types.Cache, error) {
	switch config.Driver {
	case "", types.CacheMemory:
		return NewMemoryCache(config.Prefix), nil
	case types.CacheRedis:
		if client == nil {
			return nil, fmt.Errorf("redis cache: %w", types.ErrRedisAddrEmpty)
		}
		return NewRedisCache(client, config.Prefix, logger), nil
	default:
		return nil, types.ErrCacheDriverUnknown
	}
}
