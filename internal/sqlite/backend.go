// Package sqlite implements the SQLite reference store. JSONL files in the
// data directory are the source of truth; SQLite is the query engine,
// rebuilt from them on every Attach.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/metaschema/internal/catalog"
	"github.com/mesh-intelligence/metaschema/pkg/types"
)

// DatabaseFile is the SQLite file created in the data directory.
const DatabaseFile = "metaschema.db"

// Compile-time interface check.
var _ types.Store = (*Backend)(nil)

// Backend implements types.Store over SQLite.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
	catalog  *catalog.SQL
	logger   *zap.Logger
}

// NewBackend creates a detached backend. A nil logger discards output.
func NewBackend(logger *zap.Logger) *Backend {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Backend{logger: logger.Named("sqlite")}
}

// Attach creates DataDir if needed, recreates the database, loads every
// JSONL file, and seeds the built-in fields on first use.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}
	if err := initJSONLFiles(dataDir); err != nil {
		return err
	}

	dbPath := filepath.Join(dataDir, DatabaseFile)
	// The database is derived state; start from the JSONL files every time.
	_ = os.Remove(dbPath)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", dbPath, err)
	}
	for _, ddl := range append(append([]string{}, schemaDDL...), indexDDL...) {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return fmt.Errorf("creating schema: %w", err)
		}
	}

	stats, err := loadAllJSONL(db, dataDir)
	if err != nil {
		db.Close()
		return fmt.Errorf("load JSONL: %w", err)
	}
	for _, name := range jsonlFiles {
		if n := stats.skipped[name]; n > 0 {
			b.logger.Debug("skipped malformed rows", zap.String("file", name), zap.Int("count", n))
		}
	}

	seeded, err := seedBuiltInFields(db, dataDir)
	if err != nil {
		db.Close()
		return fmt.Errorf("seed built-in fields: %w", err)
	}
	if seeded {
		b.logger.Info("seeded built-in fields", zap.Int("count", len(builtInFields)))
	}

	b.db = db
	b.config = config
	b.catalog = catalog.New(db, catalog.Question)
	b.attached = true
	b.logger.Info("attached", zap.String("data_dir", dataDir), zap.Int("fields", stats.loaded[fieldsJSONL]))
	return nil
}

// Detach closes the database. After Detach, reads return ErrStoreDetached.
// Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	b.attached = false
	b.catalog = nil
	db := b.db
	b.db = nil
	if err := db.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	b.logger.Info("detached")
	return nil
}

// read runs fn against the catalog while holding the attach lock.
func (b *Backend) read(fn func(c *catalog.SQL) error) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return types.ErrStoreDetached
	}
	return fn(b.catalog)
}

// LoadApplicableFields implements types.FieldCatalog.
func (b *Backend) LoadApplicableFields(ctx context.Context, assetType string, tenantID int64) (fields []*types.Field, err error) {
	err = b.read(func(c *catalog.SQL) error {
		fields, err = c.LoadApplicableFields(ctx, assetType, tenantID)
		return err
	})
	return fields, err
}

// LoadFieldsByID implements types.FieldCatalog.
func (b *Backend) LoadFieldsByID(ctx context.Context, ids []int64) (fields map[int64]*types.Field, err error) {
	err = b.read(func(c *catalog.SQL) error {
		fields, err = c.LoadFieldsByID(ctx, ids)
		return err
	})
	return fields, err
}

// LoadOptions implements types.OptionCatalog.
func (b *Backend) LoadOptions(ctx context.Context, fieldIDs []int64) (options map[int64][]*types.Option, err error) {
	err = b.read(func(c *catalog.SQL) error {
		options, err = c.LoadOptions(ctx, fieldIDs)
		return err
	})
	return options, err
}

// LoadVisibilityOverrides implements types.VisibilityStore.
func (b *Backend) LoadVisibilityOverrides(ctx context.Context, scope types.Scope, fieldIDs []int64) (rows []*types.VisibilityOverride, err error) {
	err = b.read(func(c *catalog.SQL) error {
		rows, err = c.LoadVisibilityOverrides(ctx, scope, fieldIDs)
		return err
	})
	return rows, err
}

// LoadOptionVisibilityOverrides implements types.VisibilityStore.
func (b *Backend) LoadOptionVisibilityOverrides(ctx context.Context, scope types.Scope) (hidden map[int64]bool, err error) {
	err = b.read(func(c *catalog.SQL) error {
		hidden, err = c.LoadOptionVisibilityOverrides(ctx, scope)
		return err
	})
	return hidden, err
}

// LoadPermissionOverrides implements types.PermissionStore.
func (b *Backend) LoadPermissionOverrides(ctx context.Context, fieldIDs []int64, role string, scope types.Scope) (perms map[int64]bool, err error) {
	err = b.read(func(c *catalog.SQL) error {
		perms, err = c.LoadPermissionOverrides(ctx, fieldIDs, role, scope)
		return err
	})
	return perms, err
}
