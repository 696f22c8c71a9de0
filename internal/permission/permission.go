// Package permission decides whether a role may edit a field's value in a
// scope.
//
// Elevated roles may edit every field that is not system-locked. Other roles
// need an explicit grant; the most specific matching permission row wins and
// the absence of a row denies. A system-locked field (automatic population
// and read-only) is never editable by anyone.
package permission

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/metaschema/pkg/types"
)

// Elevated role names, compared case-insensitively.
const (
	RoleOwner = "owner"
	RoleAdmin = "admin"
)

// Catalog is the subset of types.Catalog the resolver reads.
type Catalog interface {
	types.FieldCatalog
	types.PermissionStore
}

// Resolver computes can_edit flags. It holds no state between calls.
type Resolver struct {
	catalog Catalog
	logger  *zap.Logger
}

// NewResolver returns a resolver over catalog. A nil logger discards output.
func NewResolver(catalog Catalog, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{catalog: catalog, logger: logger.Named("permission")}
}

// IsElevated reports whether role edits by default.
func IsElevated(role string) bool {
	return strings.EqualFold(role, RoleOwner) || strings.EqualFold(role, RoleAdmin)
}

// CanEdit reports whether role may edit fieldID in scope.
func (r *Resolver) CanEdit(ctx context.Context, fieldID int64, role string, scope types.Scope) (bool, error) {
	result, err := r.CanEditMultiple(ctx, []int64{fieldID}, role, scope)
	if err != nil {
		return false, err
	}
	return result[fieldID], nil
}

// CanEditMultiple returns a can_edit flag for every id in fieldIDs with one
// field read and at most one permission read. Unknown field ids map to false.
func (r *Resolver) CanEditMultiple(ctx context.Context, fieldIDs []int64, role string, scope types.Scope) (map[int64]bool, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	result := make(map[int64]bool, len(fieldIDs))
	if len(fieldIDs) == 0 {
		return result, nil
	}

	fields, err := r.catalog.LoadFieldsByID(ctx, fieldIDs)
	if err != nil {
		return nil, err
	}

	elevated := IsElevated(role)
	var grants map[int64]bool
	if !elevated && role != "" {
		grants, err = r.catalog.LoadPermissionOverrides(ctx, fieldIDs, role, scope)
		if err != nil {
			return nil, err
		}
	}

	for _, id := range fieldIDs {
		f, ok := fields[id]
		switch {
		case !ok:
			r.logger.Debug("unknown field denied", zap.Int64("field_id", id))
			result[id] = false
		case f.SystemLocked():
			result[id] = false
		case elevated:
			result[id] = true
		default:
			result[id] = grants[id]
		}
	}
	return result, nil
}
