// Package catalog implements types.Catalog over database/sql. The same
// queries serve the SQLite and Postgres stores; only the placeholder style
// differs.
package catalog

import (
	"database/sql"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/metaschema/pkg/types"
)

// Compile-time interface check.
var _ types.Catalog = (*SQL)(nil)

// Dialect selects the bind parameter syntax.
type Dialect int

const (
	// Question binds with "?" (SQLite).
	Question Dialect = iota
	// Dollar binds with "$1", "$2", ... (Postgres).
	Dollar
)

// Table names.
const (
	FieldsTable              = "metadata_fields"
	OptionsTable             = "metadata_options"
	VisibilityTable          = "metadata_field_visibility"
	OptionVisibilityTable    = "metadata_option_visibility"
	PermissionOverridesTable = "metadata_field_permissions"
)

// SQL reads catalog rows from a database handle it does not own.
type SQL struct {
	db      *sql.DB
	dialect Dialect
}

// New returns a catalog over db.
func New(db *sql.DB, dialect Dialect) *SQL {
	return &SQL{db: db, dialect: dialect}
}

// rebind rewrites "?" placeholders for the catalog's dialect.
func (c *SQL) rebind(query string) string {
	if c.dialect != Dollar {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 16)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// inList returns "?, ?, ..." for ids and appends them to args.
func inList(ids []int64, args []any) (string, []any) {
	marks := make([]string, len(ids))
	for i, id := range ids {
		marks[i] = "?"
		args = append(args, id)
	}
	return strings.Join(marks, ", "), args
}

// scopeClause matches tenant, brand, and category rows that apply to scope.
// A nil brand or category binds NULL, which never compares equal, so those
// branches drop out.
const scopeClause = `((brand_id IS NULL AND category_id IS NULL)
	OR (brand_id = ? AND category_id IS NULL)
	OR (brand_id = ? AND category_id = ?))`

func scopeArgs(scope types.Scope, args []any) []any {
	return append(args, nullable(scope.BrandID), nullable(scope.BrandID), nullable(scope.CategoryID))
}

func nullable(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
