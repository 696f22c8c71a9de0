// Package metaschema is the public entry point of the metadata schema
// engine. An Engine answers three questions for a (tenant, brand, category,
// asset type) context: which fields apply and how they are configured, which
// of them a role may edit, and how they lay out on the upload form.
//
// Example:
//
//	engine, err := metaschema.Open(ctx, types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: "/var/lib/metaschema",
//	}, logger)
//	if err != nil {
//	    return err
//	}
//	defer engine.Close()
//
//	schema, err := engine.Resolve(ctx, types.Scope{TenantID: 7}, types.AssetTypeImage)
package metaschema

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/metaschema/internal/cache"
	"github.com/mesh-intelligence/metaschema/internal/lock"
	"github.com/mesh-intelligence/metaschema/internal/memstore"
	"github.com/mesh-intelligence/metaschema/internal/permission"
	"github.com/mesh-intelligence/metaschema/internal/postgres"
	"github.com/mesh-intelligence/metaschema/internal/schema"
	"github.com/mesh-intelligence/metaschema/internal/sqlite"
	"github.com/mesh-intelligence/metaschema/internal/upload"
	"github.com/mesh-intelligence/metaschema/pkg/types"
)

// redisPingTimeout bounds the connectivity check in Open.
const redisPingTimeout = 5 * time.Second

// MemoryData holds the rows of an in-memory catalog.
type MemoryData = memstore.Data

// NewMemoryCatalog returns a catalog over rows held in process. Pass it to
// New to run the engine without a database.
func NewMemoryCatalog(data MemoryData) types.Catalog {
	return memstore.New(data)
}

// Engine resolves schemas, permissions, and upload forms. It is safe for
// concurrent use.
type Engine struct {
	store  types.Store
	redis  *redis.Client
	schema *schema.Resolver
	perms  *permission.Resolver
	upload *upload.Adapter
	logger *zap.Logger
}

// Open attaches the store named by config.Backend and builds an engine over
// it. Close releases the store and any Redis connection Open created.
func Open(ctx context.Context, config types.Config, logger *zap.Logger) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var store types.Store
	switch config.Backend {
	case types.BackendSQLite:
		store = sqlite.NewBackend(logger)
	case types.BackendPostgres:
		store = postgres.New(logger)
	default:
		return nil, types.ErrBackendUnknown
	}
	if err := store.Attach(config); err != nil {
		return nil, fmt.Errorf("attaching %s store: %w", config.Backend, err)
	}

	e, err := build(ctx, store, config, logger)
	if err != nil {
		if derr := store.Detach(); derr != nil {
			logger.Warn("detaching store after failed open", zap.Error(derr))
		}
		return nil, err
	}
	e.store = store
	return e, nil
}

// New builds an engine over a caller-owned catalog. Close does not touch
// the catalog.
func New(ctx context.Context, catalog types.Catalog, config types.Config, logger *zap.Logger) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if catalog == nil {
		return nil, fmt.Errorf("%w: nil catalog", types.ErrInvalidArgument)
	}
	if err := config.ValidateEngine(); err != nil {
		return nil, err
	}
	return build(ctx, catalog, config, logger)
}

func build(ctx context.Context, catalog types.Catalog, config types.Config, logger *zap.Logger) (*Engine, error) {
	config = config.WithDefaults()
	e := &Engine{logger: logger.Named("engine")}

	if config.Cache.Driver == types.CacheRedis {
		e.redis = redis.NewClient(&redis.Options{
			Addr:     config.Redis.Addr,
			Password: config.Redis.Password,
			DB:       config.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		err := e.redis.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			e.redis.Close()
			return nil, fmt.Errorf("connecting to redis at %s: %w", config.Redis.Addr, err)
		}
	}

	c, err := cache.New(config.Cache, e.redis, logger)
	if err != nil {
		e.closeRedis()
		return nil, err
	}
	l, err := lock.New(config, e.redis, logger)
	if err != nil {
		e.closeRedis()
		return nil, err
	}

	e.schema = schema.NewResolver(catalog, c, l,
		schema.WithLockWait(config.Lock.Wait),
		schema.WithLogger(logger))
	e.perms = permission.NewResolver(catalog, logger)
	e.upload = upload.NewAdapter(e.schema, e.perms, logger)
	e.logger.Info("engine ready",
		zap.String("backend", config.Backend),
		zap.String("cache", config.Cache.Driver),
		zap.Duration("lock_wait", config.Lock.Wait))
	return e, nil
}

// Resolve returns the effective field schema for scope and assetType.
func (e *Engine) Resolve(ctx context.Context, scope types.Scope, assetType string) (*types.ResolvedSchema, error) {
	return e.schema.Resolve(ctx, scope, assetType)
}

// ResolveUncached computes the schema from the catalog without touching the
// cache or the build lock.
func (e *Engine) ResolveUncached(ctx context.Context, scope types.Scope, assetType string) (*types.ResolvedSchema, error) {
	return e.schema.ResolveUncached(ctx, scope, assetType)
}

// CanEdit reports whether role may edit one field in scope.
func (e *Engine) CanEdit(ctx context.Context, fieldID int64, role string, scope types.Scope) (bool, error) {
	return e.perms.CanEdit(ctx, fieldID, role, scope)
}

// CanEditMultiple reports edit permission for every id in fieldIDs.
func (e *Engine) CanEditMultiple(ctx context.Context, fieldIDs []int64, role string, scope types.Scope) (map[int64]bool, error) {
	return e.perms.CanEditMultiple(ctx, fieldIDs, role, scope)
}

// UploadSchema returns the grouped upload form for a category. A non-empty
// role adds can_edit to every field.
func (e *Engine) UploadSchema(ctx context.Context, scope types.Scope, assetType, role string) (*types.UploadSchema, error) {
	return e.upload.Resolve(ctx, scope, assetType, role)
}

// Invalidate forgets the cached schema for one context.
func (e *Engine) Invalidate(ctx context.Context, scope types.Scope, assetType string) error {
	return e.schema.Invalidate(ctx, scope, assetType)
}

// InvalidateAll forgets every cached schema under the cache prefix.
func (e *Engine) InvalidateAll(ctx context.Context) error {
	return e.schema.InvalidateAll(ctx)
}

// Close releases what Open acquired. Calling Close more than once is safe.
func (e *Engine) Close() error {
	var errs []error
	if e.store != nil {
		if err := e.store.Detach(); err != nil {
			errs = append(errs, fmt.Errorf("detaching store: %w", err))
		}
	}
	if err := e.closeRedis(); err != nil {
		errs = append(errs, fmt.Errorf("closing redis: %w", err))
	}
	return errors.Join(errs...)
}

func (e *Engine) closeRedis() error {
	if e.redis == nil {
		return nil
	}
	err := e.redis.Close()
	e.redis = nil
	return err
}
