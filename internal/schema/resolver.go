// Package schema resolves the effective metadata field schema for a
// (tenant, brand, category, asset type) context by cascading field defaults
// with tenant, brand, and category overrides.
//
// Resolved schemas are cached with no expiry. A cache miss is rebuilt by
// exactly one caller per key: concurrent misses in one process collapse onto
// a single flight, and flights in different processes serialize on a named
// lock with a bounded wait, re-checking the cache once the lock is held.
package schema

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/mesh-intelligence/metaschema/pkg/types"
)

// DefaultLockWait bounds how long a miss waits for the build lock.
const DefaultLockWait = types.DefaultLockWait

// Resolver computes and caches resolved schemas. It is safe for concurrent
// use.
type Resolver struct {
	catalog types.Catalog
	cache   types.Cache
	locker  types.Locker
	wait    time.Duration
	flights singleflight.Group
	logger  *zap.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLockWait sets the bounded wait for the build lock. Zero keeps the
// default; a negative wait tries the lock once.
func WithLockWait(d time.Duration) Option {
	return func(r *Resolver) {
		if d != 0 {
			r.wait = d
		}
	}
}

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewResolver returns a resolver reading rows from catalog and caching
// results in cache under locks from locker.
func NewResolver(catalog types.Catalog, cache types.Cache, locker types.Locker, opts ...Option) *Resolver {
	r := &Resolver{
		catalog: catalog,
		cache:   cache,
		locker:  locker,
		wait:    DefaultLockWait,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.Named("schema")
	return r
}

// CacheKey returns the cache key for a context. The cache adds its own
// prefix.
func CacheKey(scope types.Scope, assetType string) string {
	return "schema:" + scope.String() + ":" + assetType
}

// LockKey returns the build lock key guarding cacheKey.
func LockKey(cacheKey string) string {
	return types.LockNamespace + cacheKey
}

// Validate checks resolution inputs.
func Validate(scope types.Scope, assetType string) error {
	if !types.IsValidAssetType(assetType) {
		return fmt.Errorf("%w: asset type %q", types.ErrInvalidArgument, assetType)
	}
	return scope.Validate()
}

// Resolve returns the effective schema for scope and assetType. Cache hits
// take no lock. An entry that fails to decode is treated as a miss and
// overwritten by the rebuild. Each call returns its own copy.
func (r *Resolver) Resolve(ctx context.Context, scope types.Scope, assetType string) (*types.ResolvedSchema, error) {
	if err := Validate(scope, assetType); err != nil {
		return nil, err
	}
	key := CacheKey(scope, assetType)

	data, err := r.cache.Get(ctx, key)
	switch {
	case err == nil:
		schema, derr := decode(data)
		if derr == nil {
			r.logger.Debug("cache hit", zap.String("key", key))
			return schema, nil
		}
		r.logger.Warn("discarding undecodable cache entry", zap.String("key", key), zap.Error(derr))
		if err := r.cache.Forget(ctx, key); err != nil {
			r.logger.Warn("cache forget failed", zap.String("key", key), zap.Error(err))
		}
	case errors.Is(err, types.ErrCacheMiss):
		r.logger.Debug("cache miss", zap.String("key", key))
	case ctx.Err() != nil:
		return nil, ctx.Err()
	default:
		r.logger.Warn("cache read failed, rebuilding", zap.String("key", key), zap.Error(err))
	}

	for {
		ch := r.flights.DoChan(key, func() (any, error) {
			return r.build(ctx, scope, assetType, key)
		})
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case res := <-ch:
			if res.Err != nil {
				// The flight belonged to a caller whose context ended; ours is
				// still live, so start a new one.
				if isContextError(res.Err) && ctx.Err() == nil {
					continue
				}
				return nil, res.Err
			}
			return decode(res.Val.([]byte))
		}
	}
}

// build runs under the flight for key: take the lock, re-check the cache,
// and compute on a confirmed miss.
func (r *Resolver) build(ctx context.Context, scope types.Scope, assetType, key string) ([]byte, error) {
	lockKey := LockKey(key)
	lease, err := r.locker.Acquire(ctx, lockKey, r.wait)
	if err != nil {
		if errors.Is(err, types.ErrLockTimeout) {
			r.logger.Debug("lock wait timed out", zap.String("key", lockKey), zap.Duration("wait", r.wait))
		}
		return nil, err
	}
	r.logger.Debug("lock acquired", zap.String("key", lockKey))
	defer func() {
		if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
			r.logger.Warn("lock release failed", zap.String("key", lockKey), zap.Error(err))
		}
	}()

	data, err := r.cache.Get(ctx, key)
	switch {
	case err == nil:
		if _, derr := decode(data); derr != nil {
			r.logger.Warn("rebuilding over undecodable cache entry", zap.String("key", key), zap.Error(derr))
			break
		}
		r.logger.Debug("cache filled while waiting", zap.String("key", key))
		return data, nil
	case errors.Is(err, types.ErrCacheMiss):
	case ctx.Err() != nil:
		return nil, ctx.Err()
	default:
		r.logger.Warn("cache re-check failed", zap.String("key", key), zap.Error(err))
	}

	schema, err := r.ResolveUncached(ctx, scope, assetType)
	if err != nil {
		return nil, err
	}
	data, err = json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("encoding resolved schema: %w", err)
	}
	if err := r.cache.PutForever(ctx, key, data); err != nil {
		r.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
	return data, nil
}

// Invalidate forgets the cached schema for one context.
func (r *Resolver) Invalidate(ctx context.Context, scope types.Scope, assetType string) error {
	if err := Validate(scope, assetType); err != nil {
		return err
	}
	if err := r.cache.Forget(ctx, CacheKey(scope, assetType)); err != nil {
		return fmt.Errorf("forgetting cached schema: %w", err)
	}
	return nil
}

// InvalidateAll forgets every cached schema.
func (r *Resolver) InvalidateAll(ctx context.Context) error {
	if err := r.cache.Flush(ctx); err != nil {
		return fmt.Errorf("flushing schema cache: %w", err)
	}
	return nil
}

func decode(data []byte) (*types.ResolvedSchema, error) {
	var schema types.ResolvedSchema
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("decoding cached schema: %w", err)
	}
	if schema.Fields == nil {
		schema.Fields = []types.ResolvedField{}
	}
	return &schema, nil
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
