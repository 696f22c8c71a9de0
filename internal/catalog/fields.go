package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/metaschema/pkg/types"
)

const fieldColumns = `field_id, field_key, system_label, type, scope, tenant_id, applies_to,
	group_key, display_widget, is_filterable, is_user_editable, is_ai_trainable,
	is_upload_visible, is_internal_only, show_on_edit, readonly, is_primary,
	is_active, population_mode, deprecated_at, archived_at`

// LoadApplicableFields returns available system fields plus the tenant's own
// fields for assetType, ordered by field id.
func (c *SQL) LoadApplicableFields(ctx context.Context, assetType string, tenantID int64) ([]*types.Field, error) {
	query := `SELECT ` + fieldColumns + ` FROM ` + FieldsTable + `
	WHERE is_active = ? AND archived_at IS NULL AND deprecated_at IS NULL
	AND applies_to IN (?, ?)
	AND (scope = ? OR (scope = ? AND tenant_id = ?))
	ORDER BY field_id`
	rows, err := c.db.QueryContext(ctx, c.rebind(query),
		true, assetType, types.AppliesToAll, types.ScopeSystem, types.ScopeTenant, tenantID)
	if err != nil {
		return nil, fmt.Errorf("query applicable fields: %w", err)
	}
	defer rows.Close()

	var fields []*types.Field
	for rows.Next() {
		f, err := scanField(rows)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applicable fields: %w", err)
	}
	return fields, nil
}

// LoadFieldsByID returns fields by id whatever their lifecycle state.
func (c *SQL) LoadFieldsByID(ctx context.Context, ids []int64) (map[int64]*types.Field, error) {
	result := make(map[int64]*types.Field, len(ids))
	ids = dedupe(ids)
	if len(ids) == 0 {
		return result, nil
	}
	in, args := inList(ids, nil)
	query := `SELECT ` + fieldColumns + ` FROM ` + FieldsTable + ` WHERE field_id IN (` + in + `)`
	rows, err := c.db.QueryContext(ctx, c.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query fields by id: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		f, err := scanField(rows)
		if err != nil {
			return nil, err
		}
		result[f.FieldID] = f
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fields by id: %w", err)
	}
	return result, nil
}

func scanField(rows *sql.Rows) (*types.Field, error) {
	var (
		f                        types.Field
		tenantID                 sql.NullInt64
		groupKey, widget         sql.NullString
		deprecatedAt, archivedAt nullTime
	)
	err := rows.Scan(
		&f.FieldID, &f.Key, &f.SystemLabel, &f.Type, &f.Scope, &tenantID, &f.AppliesTo,
		&groupKey, &widget, &f.IsFilterable, &f.IsUserEditable, &f.IsAITrainable,
		&f.IsUploadVisible, &f.IsInternalOnly, &f.ShowOnEdit, &f.Readonly, &f.IsPrimary,
		&f.IsActive, &f.PopulationMode, &deprecatedAt, &archivedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan field: %w", err)
	}
	f.TenantID = int64Ptr(tenantID)
	f.GroupKey = groupKey.String
	f.DisplayWidget = widget.String
	f.DeprecatedAt = deprecatedAt.ptr()
	f.ArchivedAt = archivedAt.ptr()
	return &f, nil
}

// LoadOptions groups the options of fieldIDs by field, in option id order.
func (c *SQL) LoadOptions(ctx context.Context, fieldIDs []int64) (map[int64][]*types.Option, error) {
	result := make(map[int64][]*types.Option)
	fieldIDs = dedupe(fieldIDs)
	if len(fieldIDs) == 0 {
		return result, nil
	}
	in, args := inList(fieldIDs, nil)
	query := `SELECT option_id, field_id, value, system_label, color, icon, is_system
	FROM ` + OptionsTable + ` WHERE field_id IN (` + in + `) ORDER BY field_id, option_id`
	rows, err := c.db.QueryContext(ctx, c.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query options: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			o           types.Option
			color, icon sql.NullString
		)
		if err := rows.Scan(&o.OptionID, &o.FieldID, &o.Value, &o.SystemLabel, &color, &icon, &o.IsSystem); err != nil {
			return nil, fmt.Errorf("scan option: %w", err)
		}
		o.Color = stringPtr(color)
		o.Icon = stringPtr(icon)
		result[o.FieldID] = append(result[o.FieldID], &o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate options: %w", err)
	}
	return result, nil
}
