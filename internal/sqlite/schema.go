package sqlite

import "github.com/mesh-intelligence/metaschema/internal/catalog"

// Schema DDL for the catalog tables. Booleans are INTEGER 0/1; timestamps
// are RFC 3339 TEXT.
const (
	createFields = `CREATE TABLE ` + catalog.FieldsTable + ` (
    field_id INTEGER PRIMARY KEY,
    field_key TEXT NOT NULL,
    system_label TEXT NOT NULL,
    type TEXT NOT NULL,
    scope TEXT NOT NULL DEFAULT 'system',
    tenant_id INTEGER,
    applies_to TEXT NOT NULL DEFAULT 'all',
    group_key TEXT,
    display_widget TEXT,
    is_filterable INTEGER NOT NULL DEFAULT 1,
    is_user_editable INTEGER NOT NULL DEFAULT 1,
    is_ai_trainable INTEGER NOT NULL DEFAULT 0,
    is_upload_visible INTEGER NOT NULL DEFAULT 1,
    is_internal_only INTEGER NOT NULL DEFAULT 0,
    show_on_edit INTEGER NOT NULL DEFAULT 1,
    readonly INTEGER NOT NULL DEFAULT 0,
    is_primary INTEGER NOT NULL DEFAULT 0,
    is_active INTEGER NOT NULL DEFAULT 1,
    population_mode TEXT NOT NULL DEFAULT 'manual',
    deprecated_at TEXT,
    archived_at TEXT,
    CHECK (scope IN ('system', 'tenant')),
    CHECK (scope = 'system' OR tenant_id IS NOT NULL)
);`

	createOptions = `CREATE TABLE ` + catalog.OptionsTable + ` (
    option_id INTEGER PRIMARY KEY,
    field_id INTEGER NOT NULL,
    value TEXT NOT NULL,
    system_label TEXT NOT NULL,
    color TEXT,
    icon TEXT,
    is_system INTEGER NOT NULL DEFAULT 0,
    FOREIGN KEY (field_id) REFERENCES ` + catalog.FieldsTable + `(field_id)
);`

	createVisibility = `CREATE TABLE ` + catalog.VisibilityTable + ` (
    field_id INTEGER NOT NULL,
    tenant_id INTEGER NOT NULL,
    brand_id INTEGER,
    category_id INTEGER,
    is_hidden INTEGER,
    is_suppressed INTEGER NOT NULL DEFAULT 0,
    is_upload_hidden INTEGER,
    is_edit_hidden INTEGER,
    is_filter_hidden INTEGER,
    is_primary INTEGER,
    is_required INTEGER
);`

	createOptionVisibility = `CREATE TABLE ` + catalog.OptionVisibilityTable + ` (
    option_id INTEGER NOT NULL,
    tenant_id INTEGER NOT NULL,
    brand_id INTEGER,
    category_id INTEGER,
    is_hidden INTEGER NOT NULL DEFAULT 1
);`

	createPermissions = `CREATE TABLE ` + catalog.PermissionOverridesTable + ` (
    field_id INTEGER NOT NULL,
    tenant_id INTEGER NOT NULL,
    brand_id INTEGER,
    category_id INTEGER,
    role TEXT NOT NULL,
    can_edit INTEGER NOT NULL DEFAULT 0
);`
)

// Index DDL for the override lookups.
const (
	idxFieldsTenant     = `CREATE INDEX idx_fields_tenant ON ` + catalog.FieldsTable + `(scope, tenant_id);`
	idxOptionsField     = `CREATE INDEX idx_options_field ON ` + catalog.OptionsTable + `(field_id);`
	idxVisibilityScope  = `CREATE INDEX idx_visibility_scope ON ` + catalog.VisibilityTable + `(tenant_id, field_id, brand_id, category_id);`
	idxOptionVisibility = `CREATE INDEX idx_option_visibility_scope ON ` + catalog.OptionVisibilityTable + `(tenant_id, brand_id, category_id);`
	idxPermissionsScope = `CREATE INDEX idx_permissions_scope ON ` + catalog.PermissionOverridesTable + `(tenant_id, role, field_id);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createFields,
	createOptions,
	createVisibility,
	createOptionVisibility,
	createPermissions,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxFieldsTenant,
	idxOptionsField,
	idxVisibilityScope,
	idxOptionVisibility,
	idxPermissionsScope,
}
