package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/metaschema/pkg/types"
)

// LoadVisibilityOverrides returns every row for fieldIDs whose shape applies
// to scope.
func (c *SQL) LoadVisibilityOverrides(ctx context.Context, scope types.Scope, fieldIDs []int64) ([]*types.VisibilityOverride, error) {
	fieldIDs = dedupe(fieldIDs)
	if len(fieldIDs) == 0 {
		return nil, nil
	}
	in, args := inList(fieldIDs, []any{scope.TenantID})
	query := `SELECT field_id, tenant_id, brand_id, category_id, is_hidden, is_suppressed,
	is_upload_hidden, is_edit_hidden, is_filter_hidden, is_primary, is_required
	FROM ` + VisibilityTable + `
	WHERE tenant_id = ? AND field_id IN (` + in + `) AND ` + scopeClause
	rows, err := c.db.QueryContext(ctx, c.rebind(query), scopeArgs(scope, args)...)
	if err != nil {
		return nil, fmt.Errorf("query visibility overrides: %w", err)
	}
	defer rows.Close()

	var result []*types.VisibilityOverride
	for rows.Next() {
		var (
			o                            types.VisibilityOverride
			brandID, categoryID          sql.NullInt64
			hidden, upload, edit, filter sql.NullBool
			primary, required            sql.NullBool
		)
		err := rows.Scan(&o.FieldID, &o.TenantID, &brandID, &categoryID, &hidden, &o.Suppressed,
			&upload, &edit, &filter, &primary, &required)
		if err != nil {
			return nil, fmt.Errorf("scan visibility override: %w", err)
		}
		o.BrandID = int64Ptr(brandID)
		o.CategoryID = int64Ptr(categoryID)
		o.Hidden = boolPtr(hidden)
		o.IsUploadHidden = boolPtr(upload)
		o.IsEditHidden = boolPtr(edit)
		o.IsFilterHidden = boolPtr(filter)
		o.IsPrimary = boolPtr(primary)
		o.IsRequired = boolPtr(required)
		result = append(result, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate visibility overrides: %w", err)
	}
	return result, nil
}

// LoadOptionVisibilityOverrides returns the most specific hidden flag per
// option for scope.
func (c *SQL) LoadOptionVisibilityOverrides(ctx context.Context, scope types.Scope) (map[int64]bool, error) {
	query := `SELECT option_id, tenant_id, brand_id, category_id, is_hidden
	FROM ` + OptionVisibilityTable + ` WHERE tenant_id = ? AND ` + scopeClause
	rows, err := c.db.QueryContext(ctx, c.rebind(query), scopeArgs(scope, []any{scope.TenantID})...)
	if err != nil {
		return nil, fmt.Errorf("query option visibility overrides: %w", err)
	}
	defer rows.Close()

	byOption := make(map[int64][]*types.OptionVisibilityOverride)
	for rows.Next() {
		var (
			o                   types.OptionVisibilityOverride
			brandID, categoryID sql.NullInt64
		)
		if err := rows.Scan(&o.OptionID, &o.TenantID, &brandID, &categoryID, &o.IsHidden); err != nil {
			return nil, fmt.Errorf("scan option visibility override: %w", err)
		}
		o.BrandID = int64Ptr(brandID)
		o.CategoryID = int64Ptr(categoryID)
		byOption[o.OptionID] = append(byOption[o.OptionID], &o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate option visibility overrides: %w", err)
	}

	result := make(map[int64]bool, len(byOption))
	for id, rows := range byOption {
		if row, ok := types.MostSpecific(rows); ok {
			result[id] = row.IsHidden
		}
	}
	return result, nil
}

// LoadPermissionOverrides returns the most specific can_edit value per field
// for role in scope. Fields without a row are absent.
func (c *SQL) LoadPermissionOverrides(ctx context.Context, fieldIDs []int64, role string, scope types.Scope) (map[int64]bool, error) {
	result := make(map[int64]bool)
	fieldIDs = dedupe(fieldIDs)
	if len(fieldIDs) == 0 {
		return result, nil
	}
	in, args := inList(fieldIDs, []any{scope.TenantID, role})
	query := `SELECT field_id, tenant_id, brand_id, category_id, role, can_edit
	FROM ` + PermissionOverridesTable + `
	WHERE tenant_id = ? AND role = ? AND field_id IN (` + in + `) AND ` + scopeClause
	rows, err := c.db.QueryContext(ctx, c.rebind(query), scopeArgs(scope, args)...)
	if err != nil {
		return nil, fmt.Errorf("query permission overrides: %w", err)
	}
	defer rows.Close()

	byField := make(map[int64][]*types.PermissionOverride)
	for rows.Next() {
		var (
			o                   types.PermissionOverride
			brandID, categoryID sql.NullInt64
		)
		if err := rows.Scan(&o.FieldID, &o.TenantID, &brandID, &categoryID, &o.Role, &o.CanEdit); err != nil {
			return nil, fmt.Errorf("scan permission override: %w", err)
		}
		o.BrandID = int64Ptr(brandID)
		o.CategoryID = int64Ptr(categoryID)
		byField[o.FieldID] = append(byField[o.FieldID], &o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate permission overrides: %w", err)
	}

	for id, rows := range byField {
		if row, ok := types.MostSpecific(rows); ok {
			result[id] = row.CanEdit
		}
	}
	return result, nil
}
