// Package postgres implements the production store over pgx's database/sql
// driver. The schema is owned by the platform; Migrate creates it for local
// and test databases.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	"go.uber.org/zap"

	"github.com/mesh-intelligence/metaschema/internal/catalog"
	"github.com/mesh-intelligence/metaschema/pkg/types"
)

// pingTimeout bounds the connectivity check in Attach.
const pingTimeout = 5 * time.Second

// Compile-time interface check.
var _ types.Store = (*Store)(nil)

// Store implements types.Store over Postgres.
type Store struct {
	mu       sync.RWMutex
	attached bool
	db       *sql.DB
	catalog  *catalog.SQL
	logger   *zap.Logger
}

// New creates a detached store. A nil logger discards output.
func New(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{logger: logger.Named("postgres")}
}

// NewWithDB returns a store attached to an existing handle. Detach closes db.
func NewWithDB(db *sql.DB, logger *zap.Logger) *Store {
	s := New(logger)
	s.db = db
	s.catalog = catalog.New(db, catalog.Dollar)
	s.attached = true
	return s
}

// Attach opens config.DSN and checks connectivity.
// Returns ErrAlreadyAttached if already attached.
func (s *Store) Attach(config types.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}
	if config.DSN == "" {
		return types.ErrDSNEmpty
	}

	db, err := sql.Open("pgx", config.DSN)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("database unreachable: %w", err)
	}

	s.db = db
	s.catalog = catalog.New(db, catalog.Dollar)
	s.attached = true
	s.logger.Info("attached")
	return nil
}

// Detach closes the connection pool. Detach is idempotent.
func (s *Store) Detach() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.attached {
		return nil
	}
	s.attached = false
	s.catalog = nil
	db := s.db
	s.db = nil
	if err := db.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	s.logger.Info("detached")
	return nil
}

// Migrate creates any missing catalog table and index.
func (s *Store) Migrate(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.attached {
		return types.ErrStoreDetached
	}
	for _, ddl := range schemaDDL {
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("migrating schema: %w", err)
		}
	}
	return nil
}

func (s *Store) read(fn func(c *catalog.SQL) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.attached {
		return types.ErrStoreDetached
	}
	return fn(s.catalog)
}

// LoadApplicableFields implements types.FieldCatalog.
func (s *Store) LoadApplicableFields(ctx context.Context, assetType string, tenantID int64) (fields []*types.Field, err error) {
	err = s.read(func(c *catalog.SQL) error {
		fields, err = c.LoadApplicableFields(ctx, assetType, tenantID)
		return err
	})
	return fields, err
}

// LoadFieldsByID implements types.FieldCatalog.
func (s *Store) LoadFieldsByID(ctx context.Context, ids []int64) (fields map[int64]*types.Field, err error) {
	err = s.read(func(c *catalog.SQL) error {
		fields, err = c.LoadFieldsByID(ctx, ids)
		return err
	})
	return fields, err
}

// LoadOptions implements types.OptionCatalog.
func (s *Store) LoadOptions(ctx context.Context, fieldIDs []int64) (options map[int64][]*types.Option, err error) {
	err = s.read(func(c *catalog.SQL) error {
		options, err = c.LoadOptions(ctx, fieldIDs)
		return err
	})
	return options, err
}

// LoadVisibilityOverrides implements types.VisibilityStore.
func (s *Store) LoadVisibilityOverrides(ctx context.Context, scope types.Scope, fieldIDs []int64) (rows []*types.VisibilityOverride, err error) {
	err = s.read(func(c *catalog.SQL) error {
		rows, err = c.LoadVisibilityOverrides(ctx, scope, fieldIDs)
		return err
	})
	return rows, err
}

// LoadOptionVisibilityOverrides implements types.VisibilityStore.
func (s *Store) LoadOptionVisibilityOverrides(ctx context.Context, scope types.Scope) (hidden map[int64]bool, err error) {
	err = s.read(func(c *catalog.SQL) error {
		hidden, err = c.LoadOptionVisibilityOverrides(ctx, scope)
		return err
	})
	return hidden, err
}

// LoadPermissionOverrides implements types.PermissionStore.
func (s *Store) LoadPermissionOverrides(ctx context.Context, fieldIDs []int64, role string, scope types.Scope) (perms map[int64]bool, err error) {
	err = s.read(func(c *catalog.SQL) error {
		perms, err = c.LoadPermissionOverrides(ctx, fieldIDs, role, scope)
		return err
	})
	return perms, err
}
