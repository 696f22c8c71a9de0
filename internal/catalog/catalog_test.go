package catalog

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/metaschema/pkg/types"
)

func setupTestDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

var fieldCols = []string{
	"field_id", "field_key", "system_label", "type", "scope", "tenant_id", "applies_to",
	"group_key", "display_widget", "is_filterable", "is_user_editable", "is_ai_trainable",
	"is_upload_visible", "is_internal_only", "show_on_edit", "readonly", "is_primary",
	"is_active", "population_mode", "deprecated_at", "archived_at",
}

func TestRebind(t *testing.T) {
	q := "SELECT a FROM t WHERE x = ? AND y IN (?, ?)"
	assert.Equal(t, q, New(nil, Question).rebind(q))
	assert.Equal(t, "SELECT a FROM t WHERE x = $1 AND y IN ($2, $3)", New(nil, Dollar).rebind(q))
}

func TestLoadApplicableFields(t *testing.T) {
	db, mock := setupTestDB(t)
	c := New(db, Dollar)

	mock.ExpectQuery(`FROM metadata_fields WHERE is_active = \$1`).
		WithArgs(true, "image", "all", "system", "tenant", int64(7)).
		WillReturnRows(sqlmock.NewRows(fieldCols).
			AddRow(1, "photo_type", "Photo Type", "select", "system", nil, "all",
				"creative", nil, true, true, false, true, false, true, false, true,
				true, "manual", nil, nil).
			AddRow(10, "campaign", "Campaign", "text", "tenant", 7, "image",
				nil, "textarea", false, true, false, true, false, true, false, false,
				true, "manual", nil, nil))

	fields, err := c.LoadApplicableFields(context.Background(), "image", 7)
	require.NoError(t, err)
	require.Len(t, fields, 2)

	assert.Equal(t, "photo_type", fields[0].Key)
	assert.Nil(t, fields[0].TenantID)
	assert.Equal(t, "creative", fields[0].GroupKey)
	assert.Equal(t, "", fields[0].DisplayWidget)

	require.NotNil(t, fields[1].TenantID)
	assert.Equal(t, int64(7), *fields[1].TenantID)
	assert.Equal(t, "textarea", fields[1].DisplayWidget)
	assert.Equal(t, "", fields[1].GroupKey)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadApplicableFieldsQueryError(t *testing.T) {
	db, mock := setupTestDB(t)
	c := New(db, Question)

	mock.ExpectQuery(`FROM metadata_fields`).WillReturnError(errors.New("connection reset"))

	_, err := c.LoadApplicableFields(context.Background(), "image", 7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query applicable fields")
}

func TestLoadFieldsByID(t *testing.T) {
	db, mock := setupTestDB(t)
	c := New(db, Dollar)
	archived := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM metadata_fields WHERE field_id IN \(\$1, \$2\)`).
		WithArgs(int64(3), int64(4)).
		WillReturnRows(sqlmock.NewRows(fieldCols).
			AddRow(3, "orientation", "Orientation", "select", "system", nil, "image",
				"technical", nil, true, false, false, false, false, false, true, false,
				true, "automatic", nil, archived))

	fields, err := c.LoadFieldsByID(context.Background(), []int64{3, 4, 3})
	require.NoError(t, err)
	require.Contains(t, fields, int64(3))
	assert.NotContains(t, fields, int64(4))
	assert.True(t, fields[3].SystemLocked())
	require.NotNil(t, fields[3].ArchivedAt)
	assert.True(t, archived.Equal(*fields[3].ArchivedAt))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadFieldsByIDEmpty(t *testing.T) {
	db, mock := setupTestDB(t)
	fields, err := New(db, Dollar).LoadFieldsByID(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, fields)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadOptions(t *testing.T) {
	db, mock := setupTestDB(t)
	c := New(db, Dollar)

	mock.ExpectQuery(`FROM metadata_options WHERE field_id IN \(\$1\)`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"option_id", "field_id", "value", "system_label", "color", "icon", "is_system"}).
			AddRow(100, 1, "portrait", "Portrait", "#ff0000", nil, true).
			AddRow(101, 1, "landscape", "Landscape", nil, "image", true))

	opts, err := c.LoadOptions(context.Background(), []int64{1})
	require.NoError(t, err)
	require.Len(t, opts[1], 2)
	require.NotNil(t, opts[1][0].Color)
	assert.Equal(t, "#ff0000", *opts[1][0].Color)
	assert.Nil(t, opts[1][0].Icon)
	assert.Nil(t, opts[1][1].Color)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadVisibilityOverridesBindsScope(t *testing.T) {
	db, mock := setupTestDB(t)
	c := New(db, Dollar)
	scope := types.Scope{TenantID: 7, BrandID: types.Int64(2), CategoryID: types.Int64(5)}

	mock.ExpectQuery(`FROM metadata_field_visibility WHERE tenant_id = \$1 AND field_id IN \(\$2, \$3\)`).
		WithArgs(int64(7), int64(1), int64(2), int64(2), int64(2), int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"field_id", "tenant_id", "brand_id", "category_id",
			"is_hidden", "is_suppressed", "is_upload_hidden", "is_edit_hidden", "is_filter_hidden",
			"is_primary", "is_required"}).
			AddRow(1, 7, nil, nil, true, false, nil, nil, nil, nil, nil).
			AddRow(1, 7, 2, 5, nil, true, false, nil, nil, true, true))

	rows, err := c.LoadVisibilityOverrides(context.Background(), scope, []int64{1, 2})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, types.ShapeTenant, rows[0].Shape())
	require.NotNil(t, rows[0].Hidden)
	assert.True(t, *rows[0].Hidden)
	assert.Nil(t, rows[0].IsPrimary)

	assert.Equal(t, types.ShapeCategory, rows[1].Shape())
	assert.Nil(t, rows[1].Hidden)
	assert.True(t, rows[1].Suppressed)
	require.NotNil(t, rows[1].IsUploadHidden)
	assert.False(t, *rows[1].IsUploadHidden)
	require.NotNil(t, rows[1].IsRequired)
	assert.True(t, *rows[1].IsRequired)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadVisibilityOverridesTenantScopeBindsNull(t *testing.T) {
	db, mock := setupTestDB(t)
	c := New(db, Question)

	mock.ExpectQuery(`FROM metadata_field_visibility`).
		WithArgs(int64(7), int64(1), nil, nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"field_id", "tenant_id", "brand_id", "category_id",
			"is_hidden", "is_suppressed", "is_upload_hidden", "is_edit_hidden", "is_filter_hidden",
			"is_primary", "is_required"}))

	rows, err := c.LoadVisibilityOverrides(context.Background(), types.Scope{TenantID: 7}, []int64{1})
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadOptionVisibilityOverridesMostSpecificWins(t *testing.T) {
	db, mock := setupTestDB(t)
	c := New(db, Dollar)
	scope := types.Scope{TenantID: 7, BrandID: types.Int64(2)}

	mock.ExpectQuery(`FROM metadata_option_visibility WHERE tenant_id = \$1`).
		WithArgs(int64(7), int64(2), int64(2), nil).
		WillReturnRows(sqlmock.NewRows([]string{"option_id", "tenant_id", "brand_id", "category_id", "is_hidden"}).
			AddRow(100, 7, 2, nil, false).
			AddRow(100, 7, nil, nil, true).
			AddRow(101, 7, nil, nil, true))

	hidden, err := c.LoadOptionVisibilityOverrides(context.Background(), scope)
	require.NoError(t, err)
	assert.Equal(t, map[int64]bool{100: false, 101: true}, hidden)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadPermissionOverrides(t *testing.T) {
	db, mock := setupTestDB(t)
	c := New(db, Dollar)
	scope := types.Scope{TenantID: 7, BrandID: types.Int64(2), CategoryID: types.Int64(5)}

	mock.ExpectQuery(`FROM metadata_field_permissions WHERE tenant_id = \$1 AND role = \$2 AND field_id IN \(\$3\)`).
		WithArgs(int64(7), "editor", int64(1), int64(2), int64(2), int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"field_id", "tenant_id", "brand_id", "category_id", "role", "can_edit"}).
			AddRow(1, 7, nil, nil, "editor", false).
			AddRow(1, 7, 2, 5, "editor", true))

	perms, err := c.LoadPermissionOverrides(context.Background(), []int64{1}, "editor", scope)
	require.NoError(t, err)
	assert.Equal(t, map[int64]bool{1: true}, perms)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNullTimeScan(t *testing.T) {
	tests := []struct {
		name  string
		value any
		valid bool
		err   bool
	}{
		{"nil", nil, false, false},
		{"native", time.Now(), true, false},
		{"rfc3339", "2025-01-02T03:04:05Z", true, false},
		{"sqlite datetime", []byte("2025-01-02 03:04:05"), true, false},
		{"empty", "", false, false},
		{"garbage", "yesterday", false, true},
		{"int", 42, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var n nullTime
			err := n.Scan(tt.value)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.valid, n.Valid)
		})
	}
}
