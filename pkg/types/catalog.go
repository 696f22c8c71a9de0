package types

import "context"

// FieldCatalog returns metadata field definitions.
type FieldCatalog interface {
	// LoadApplicableFields returns every active, unarchived, non-deprecated
	// system field plus the tenant's own fields that apply to assetType or
	// to all asset types, ordered by field id.
	LoadApplicableFields(ctx context.Context, assetType string, tenantID int64) ([]*Field, error)

	// LoadFieldsByID returns the fields with the given ids regardless of
	// their lifecycle state. Unknown ids are absent from the result.
	LoadFieldsByID(ctx context.Context, ids []int64) (map[int64]*Field, error)
}

// OptionCatalog returns option lists for selectable fields.
type OptionCatalog interface {
	// LoadOptions returns the options of each field in fieldIDs. Fields
	// without options are absent from the result.
	LoadOptions(ctx context.Context, fieldIDs []int64) (map[int64][]*Option, error)
}

// VisibilityStore returns layered visibility override rows.
type VisibilityStore interface {
	// LoadVisibilityOverrides returns the tenant, brand, and category rows
	// for fieldIDs that match scope. Row order is unspecified.
	LoadVisibilityOverrides(ctx context.Context, scope Scope, fieldIDs []int64) ([]*VisibilityOverride, error)

	// LoadOptionVisibilityOverrides returns, for each option with a
	// matching row, whether it is hidden at the most specific shape.
	LoadOptionVisibilityOverrides(ctx context.Context, scope Scope) (map[int64]bool, error)
}

// PermissionStore returns role-scoped edit permission rows.
type PermissionStore interface {
	// LoadPermissionOverrides returns, for each field in fieldIDs with a
	// matching row for role, the can_edit value at the most specific shape.
	// Fields without any row are absent.
	LoadPermissionOverrides(ctx context.Context, fieldIDs []int64, role string, scope Scope) (map[int64]bool, error)
}

// Catalog combines every read contract the engine needs.
type Catalog interface {
	FieldCatalog
	OptionCatalog
	VisibilityStore
	PermissionStore
}

// Store is a Catalog with a backend lifecycle.
type Store interface {
	Catalog

	// Attach connects the store to the backend described by config.
	// Returns ErrAlreadyAttached if called while already attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent: multiple calls succeed.
	// After Detach, reads return ErrStoreDetached.
	Detach() error
}
