package sqlite

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mesh-intelligence/metaschema/internal/catalog"
)

// jsonlTable maps a data file to its table. columns maps JSON keys to
// column names.
type jsonlTable struct {
	file    string
	table   string
	columns map[string]string
}

// identity maps each key to a column of the same name.
func identity(keys ...string) map[string]string {
	m := make(map[string]string, len(keys))
	for _, k := range keys {
		m[k] = k
	}
	return m
}

// jsonlTableMapping lists the data files in load order; options load after
// the fields they reference.
var jsonlTableMapping = []jsonlTable{
	{fieldsJSONL, catalog.FieldsTable, func() map[string]string {
		m := identity("field_id", "system_label", "type", "scope", "tenant_id", "applies_to",
			"group_key", "display_widget", "is_filterable", "is_user_editable", "is_ai_trainable",
			"is_upload_visible", "is_internal_only", "show_on_edit", "readonly", "is_primary",
			"is_active", "population_mode", "deprecated_at", "archived_at")
		m["key"] = "field_key"
		return m
	}()},
	{optionsJSONL, catalog.OptionsTable, identity("option_id", "field_id", "value", "system_label",
		"color", "icon", "is_system")},
	{visibilityJSONL, catalog.VisibilityTable, identity("field_id", "tenant_id", "brand_id", "category_id",
		"is_hidden", "is_suppressed", "is_upload_hidden", "is_edit_hidden", "is_filter_hidden",
		"is_primary", "is_required")},
	{optionVisibilityJSONL, catalog.OptionVisibilityTable, identity("option_id", "tenant_id", "brand_id",
		"category_id", "is_hidden")},
	{permissionsJSONL, catalog.PermissionOverridesTable, identity("field_id", "tenant_id", "brand_id",
		"category_id", "role", "can_edit")},
}

// loadStats counts rows loaded and skipped per file.
type loadStats struct {
	loaded  map[string]int
	skipped map[string]int
}

// loadAllJSONL reads every data file into its table in one transaction.
// Malformed lines and rows violating constraints are skipped; unknown keys
// are ignored; absent keys take the column default.
func loadAllJSONL(db *sql.DB, dataDir string) (loadStats, error) {
	stats := loadStats{loaded: map[string]int{}, skipped: map[string]int{}}

	tx, err := db.Begin()
	if err != nil {
		return stats, fmt.Errorf("beginning load transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("PRAGMA foreign_keys = OFF"); err != nil {
		return stats, fmt.Errorf("disabling foreign keys for load: %w", err)
	}

	for _, mapping := range jsonlTableMapping {
		records, err := readJSONL(filepath.Join(dataDir, mapping.file))
		if err != nil {
			return stats, fmt.Errorf("reading %s: %w", mapping.file, err)
		}
		loaded, skipped := insertRecords(tx, mapping, records)
		stats.loaded[mapping.file] = loaded
		stats.skipped[mapping.file] = skipped
	}

	if _, err := tx.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return stats, fmt.Errorf("re-enabling foreign keys: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return stats, fmt.Errorf("committing load transaction: %w", err)
	}
	return stats, nil
}

// insertRecords inserts each record with only the columns it carries.
func insertRecords(tx *sql.Tx, mapping jsonlTable, records []json.RawMessage) (loaded, skipped int) {
	for _, rec := range records {
		obj, err := decodeRecord(rec)
		if err != nil {
			skipped++
			continue
		}

		var columns []string
		byColumn := make(map[string]any)
		for key, val := range obj {
			col, ok := mapping.columns[key]
			if !ok || val == nil {
				continue
			}
			columns = append(columns, col)
			byColumn[col] = columnValue(val)
		}
		if len(columns) == 0 {
			skipped++
			continue
		}
		sort.Strings(columns)

		args := make([]any, len(columns))
		marks := make([]string, len(columns))
		for i, col := range columns {
			args[i] = byColumn[col]
			marks[i] = "?"
		}
		insertSQL := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			mapping.table, strings.Join(columns, ", "), strings.Join(marks, ", "))

		if _, err := tx.Exec(insertSQL, args...); err != nil {
			skipped++
			continue
		}
		loaded++
	}
	return loaded, skipped
}

func decodeRecord(rec json.RawMessage) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(rec))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// columnValue binds integral JSON numbers as int64 and nested values as JSON
// text.
func columnValue(val any) any {
	switch v := val.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}
		f, _ := v.Float64()
		return f
	case map[string]any, []any:
		b, err := json.Marshal(v)
		if err != nil {
			return nil
		}
		return string(b)
	default:
		return val
	}
}
