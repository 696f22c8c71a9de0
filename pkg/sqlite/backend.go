// Package sqlite exposes the SQLite reference store while keeping its
// implementation internal.
package sqlite

import (
	"go.uber.org/zap"

	"github.com/mesh-intelligence/metaschema/internal/sqlite"
	"github.com/mesh-intelligence/metaschema/pkg/types"
)

// NewBackend creates a detached SQLite store. Call Attach with a Config to
// load the data directory.
//
// Example:
//
//	store := sqlite.NewBackend(logger)
//	err := store.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: "/var/lib/metaschema",
//	})
//	defer store.Detach()
func NewBackend(logger *zap.Logger) types.Store {
	return sqlite.NewBackend(logger)
}
