package types

import (
	"fmt"
	"sort"
)

// Shape is the specificity of an override row. Higher values are more
// specific and win over lower ones.
type Shape int

// Scope shapes, least specific first.
const (
	ShapeInvalid  Shape = iota // category set without brand
	ShapeTenant                // brand null, category null
	ShapeBrand                 // brand set, category null
	ShapeCategory              // brand set, category set
)

// String returns the shape name.
func (s Shape) String() string {
	switch s {
	case ShapeTenant:
		return "tenant"
	case ShapeBrand:
		return "brand"
	case ShapeCategory:
		return "category"
	default:
		return "invalid"
	}
}

// ShapeOf classifies a (brand, category) pair.
func ShapeOf(brandID, categoryID *int64) Shape {
	switch {
	case brandID == nil && categoryID == nil:
		return ShapeTenant
	case brandID != nil && categoryID == nil:
		return ShapeBrand
	case brandID != nil && categoryID != nil:
		return ShapeCategory
	default:
		return ShapeInvalid
	}
}

// Scope is the (tenant, brand, category) triple a resolution runs in.
type Scope struct {
	TenantID   int64
	BrandID    *int64
	CategoryID *int64
}

// Validate checks that the scope is well formed. A category is only
// meaningful together with its brand.
func (s Scope) Validate() error {
	if s.TenantID <= 0 {
		return fmt.Errorf("%w: tenant id must be positive", ErrInvalidArgument)
	}
	if s.Shape() == ShapeInvalid {
		return fmt.Errorf("%w: category %d requires a brand", ErrInvalidArgument, *s.CategoryID)
	}
	return nil
}

// Shape returns the most specific shape a row may have to apply to s.
func (s Scope) Shape() Shape {
	return ShapeOf(s.BrandID, s.CategoryID)
}

// Matches reports whether a row scoped to (tenantID, brandID, categoryID)
// applies to s. Malformed rows never match.
func (s Scope) Matches(tenantID int64, brandID, categoryID *int64) bool {
	if tenantID != s.TenantID {
		return false
	}
	switch ShapeOf(brandID, categoryID) {
	case ShapeTenant:
		return true
	case ShapeBrand:
		return s.BrandID != nil && *brandID == *s.BrandID
	case ShapeCategory:
		return s.BrandID != nil && s.CategoryID != nil &&
			*brandID == *s.BrandID && *categoryID == *s.CategoryID
	default:
		return false
	}
}

// String renders the scope for logs and cache keys.
func (s Scope) String() string {
	return fmt.Sprintf("%d:%s:%s", s.TenantID, idOrDash(s.BrandID), idOrDash(s.CategoryID))
}

func idOrDash(id *int64) string {
	if id == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *id)
}

// Scoped is implemented by every override row type.
type Scoped interface {
	Shape() Shape
}

// SortByShape orders rows from least to most specific, keeping the input
// order among rows of equal shape. Malformed rows sort first.
func SortByShape[T Scoped](rows []T) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Shape() < rows[j].Shape()
	})
}

// MostSpecific returns the most specific well-formed row. When several rows
// share the top shape, the last one wins.
func MostSpecific[T Scoped](rows []T) (T, bool) {
	var best T
	bestShape := ShapeInvalid
	for _, r := range rows {
		if sh := r.Shape(); sh != ShapeInvalid && sh >= bestShape {
			best, bestShape = r, sh
		}
	}
	return best, bestShape != ShapeInvalid
}

// Int64 returns a pointer to v.
func Int64(v int64) *int64 { return &v }

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }
