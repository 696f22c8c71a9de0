package types

// VisibilityOverride is a scoped exception to a field's default visibility.
// Every flag is optional; an unset flag leaves the value from the less
// specific scope (or the field default) in place.
//
// Hidden hides the field at any scope. Suppressed is the category-only hard
// suppress toggle and is ignored on tenant and brand rows.
type VisibilityOverride struct {
	FieldID        int64  `json:"field_id"`
	TenantID       int64  `json:"tenant_id"`
	BrandID        *int64 `json:"brand_id,omitempty"`
	CategoryID     *int64 `json:"category_id,omitempty"`
	Hidden         *bool  `json:"is_hidden,omitempty"`
	Suppressed     bool   `json:"is_suppressed"`
	IsUploadHidden *bool  `json:"is_upload_hidden,omitempty"`
	IsEditHidden   *bool  `json:"is_edit_hidden,omitempty"`
	IsFilterHidden *bool  `json:"is_filter_hidden,omitempty"`
	IsPrimary      *bool  `json:"is_primary,omitempty"`
	IsRequired     *bool  `json:"is_required,omitempty"`
}

// Shape returns the row's scope shape.
func (o *VisibilityOverride) Shape() Shape {
	return ShapeOf(o.BrandID, o.CategoryID)
}

// OptionVisibilityOverride hides a single option within a scope.
type OptionVisibilityOverride struct {
	OptionID   int64  `json:"option_id"`
	TenantID   int64  `json:"tenant_id"`
	BrandID    *int64 `json:"brand_id,omitempty"`
	CategoryID *int64 `json:"category_id,omitempty"`
	IsHidden   bool   `json:"is_hidden"`
}

// Shape returns the row's scope shape.
func (o *OptionVisibilityOverride) Shape() Shape {
	return ShapeOf(o.BrandID, o.CategoryID)
}

// PermissionOverride grants or denies a role the right to edit a field's
// value within a scope.
type PermissionOverride struct {
	FieldID    int64  `json:"field_id"`
	TenantID   int64  `json:"tenant_id"`
	BrandID    *int64 `json:"brand_id,omitempty"`
	CategoryID *int64 `json:"category_id,omitempty"`
	Role       string `json:"role"`
	CanEdit    bool   `json:"can_edit"`
}

// Shape returns the row's scope shape.
func (o *PermissionOverride) Shape() Shape {
	return ShapeOf(o.BrandID, o.CategoryID)
}
