package postgres

import "github.com/mesh-intelligence/metaschema/internal/catalog"

// schemaDDL creates the catalog tables when missing. Column names match the
// SQLite store so both share one query set.
var schemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS ` + catalog.FieldsTable + ` (
    field_id BIGINT PRIMARY KEY,
    field_key TEXT NOT NULL,
    system_label TEXT NOT NULL,
    type TEXT NOT NULL,
    scope TEXT NOT NULL DEFAULT 'system' CHECK (scope IN ('system', 'tenant')),
    tenant_id BIGINT,
    applies_to TEXT NOT NULL DEFAULT 'all',
    group_key TEXT,
    display_widget TEXT,
    is_filterable BOOLEAN NOT NULL DEFAULT TRUE,
    is_user_editable BOOLEAN NOT NULL DEFAULT TRUE,
    is_ai_trainable BOOLEAN NOT NULL DEFAULT FALSE,
    is_upload_visible BOOLEAN NOT NULL DEFAULT TRUE,
    is_internal_only BOOLEAN NOT NULL DEFAULT FALSE,
    show_on_edit BOOLEAN NOT NULL DEFAULT TRUE,
    readonly BOOLEAN NOT NULL DEFAULT FALSE,
    is_primary BOOLEAN NOT NULL DEFAULT FALSE,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    population_mode TEXT NOT NULL DEFAULT 'manual',
    deprecated_at TIMESTAMPTZ,
    archived_at TIMESTAMPTZ,
    CHECK (scope = 'system' OR tenant_id IS NOT NULL)
)`,
	`CREATE TABLE IF NOT EXISTS ` + catalog.OptionsTable + ` (
    option_id BIGINT PRIMARY KEY,
    field_id BIGINT NOT NULL REFERENCES ` + catalog.FieldsTable + `(field_id),
    value TEXT NOT NULL,
    system_label TEXT NOT NULL,
    color TEXT,
    icon TEXT,
    is_system BOOLEAN NOT NULL DEFAULT FALSE
)`,
	`CREATE TABLE IF NOT EXISTS ` + catalog.VisibilityTable + ` (
    field_id BIGINT NOT NULL,
    tenant_id BIGINT NOT NULL,
    brand_id BIGINT,
    category_id BIGINT,
    is_hidden BOOLEAN,
    is_suppressed BOOLEAN NOT NULL DEFAULT FALSE,
    is_upload_hidden BOOLEAN,
    is_edit_hidden BOOLEAN,
    is_filter_hidden BOOLEAN,
    is_primary BOOLEAN,
    is_required BOOLEAN
)`,
	`CREATE TABLE IF NOT EXISTS ` + catalog.OptionVisibilityTable + ` (
    option_id BIGINT NOT NULL,
    tenant_id BIGINT NOT NULL,
    brand_id BIGINT,
    category_id BIGINT,
    is_hidden BOOLEAN NOT NULL DEFAULT TRUE
)`,
	`CREATE TABLE IF NOT EXISTS ` + catalog.PermissionOverridesTable + ` (
    field_id BIGINT NOT NULL,
    tenant_id BIGINT NOT NULL,
    brand_id BIGINT,
    category_id BIGINT,
    role TEXT NOT NULL,
    can_edit BOOLEAN NOT NULL DEFAULT FALSE
)`,
	`CREATE INDEX IF NOT EXISTS idx_fields_tenant ON ` + catalog.FieldsTable + `(scope, tenant_id)`,
	`CREATE INDEX IF NOT EXISTS idx_options_field ON ` + catalog.OptionsTable + `(field_id)`,
	`CREATE INDEX IF NOT EXISTS idx_visibility_scope ON ` + catalog.VisibilityTable + `(tenant_id, field_id, brand_id, category_id)`,
	`CREATE INDEX IF NOT EXISTS idx_option_visibility_scope ON ` + catalog.OptionVisibilityTable + `(tenant_id, brand_id, category_id)`,
	`CREATE INDEX IF NOT EXISTS idx_permissions_scope ON ` + catalog.PermissionOverridesTable + `(tenant_id, role, field_id)`,
}
