package types

import "time"

// Field value types determine how a field is rendered and what values it accepts.
const (
	FieldTypeText        = "text"
	FieldTypeTextarea    = "textarea"
	FieldTypeSelect      = "select"
	FieldTypeMultiselect = "multiselect"
	FieldTypeNumber      = "number"
	FieldTypeBoolean     = "boolean"
	FieldTypeDate        = "date"
	FieldTypeRating      = "rating"
)

// validFieldTypes is the set of recognized field types.
var validFieldTypes = map[string]bool{
	FieldTypeText:        true,
	FieldTypeTextarea:    true,
	FieldTypeSelect:      true,
	FieldTypeMultiselect: true,
	FieldTypeNumber:      true,
	FieldTypeBoolean:     true,
	FieldTypeDate:        true,
	FieldTypeRating:      true,
}

// Field scopes. System fields have no owning tenant.
const (
	ScopeSystem = "system"
	ScopeTenant = "tenant"
)

// Asset types a field can apply to. AppliesToAll is only valid on a field
// definition, never as a resolution input.
const (
	AssetTypeImage    = "image"
	AssetTypeVideo    = "video"
	AssetTypeDocument = "document"
	AppliesToAll      = "all"
)

// validAssetTypes is the set of asset types accepted by resolution.
var validAssetTypes = map[string]bool{
	AssetTypeImage:    true,
	AssetTypeVideo:    true,
	AssetTypeDocument: true,
}

// Population modes.
const (
	PopulationManual    = "manual"
	PopulationAutomatic = "automatic"
)

// FilterOnlyFieldKey identifies the system field that only ever appears in
// asset filters. It is never shown on upload or edit surfaces and is never
// primary, whatever the overrides say.
const FilterOnlyFieldKey = "dominant_color_bucket"

// Field is a named, typed attribute that can be attached to assets.
type Field struct {
	FieldID         int64      `json:"field_id"`
	Key             string     `json:"key"`
	SystemLabel     string     `json:"system_label"`
	Type            string     `json:"type"`
	Scope           string     `json:"scope"`
	TenantID        *int64     `json:"tenant_id,omitempty"`
	AppliesTo       string     `json:"applies_to"`
	GroupKey        string     `json:"group_key,omitempty"`
	DisplayWidget   string     `json:"display_widget,omitempty"`
	IsFilterable    bool       `json:"is_filterable"`
	IsUserEditable  bool       `json:"is_user_editable"`
	IsAITrainable   bool       `json:"is_ai_trainable"`
	IsUploadVisible bool       `json:"is_upload_visible"`
	IsInternalOnly  bool       `json:"is_internal_only"`
	ShowOnEdit      bool       `json:"show_on_edit"`
	Readonly        bool       `json:"readonly"`
	IsPrimary       bool       `json:"is_primary"` // Legacy global flag; category overrides take precedence.
	IsActive        bool       `json:"is_active"`
	PopulationMode  string     `json:"population_mode"`
	DeprecatedAt    *time.Time `json:"deprecated_at,omitempty"`
	ArchivedAt      *time.Time `json:"archived_at,omitempty"`
}

// Option is one allowed value for a select or multiselect field.
type Option struct {
	OptionID    int64   `json:"option_id"`
	FieldID     int64   `json:"field_id"`
	Value       string  `json:"value"`
	SystemLabel string  `json:"system_label"`
	Color       *string `json:"color,omitempty"`
	Icon        *string `json:"icon,omitempty"`
	IsSystem    bool    `json:"is_system"`
}

// IsValidFieldType reports whether the given string is a recognized field type.
func IsValidFieldType(t string) bool {
	return validFieldTypes[t]
}

// IsValidAssetType reports whether the given string is accepted as a
// resolution asset type. "all" is not.
func IsValidAssetType(t string) bool {
	return validAssetTypes[t]
}

// HasOptions reports whether the field carries an option list.
func (f *Field) HasOptions() bool {
	return f.Type == FieldTypeSelect || f.Type == FieldTypeMultiselect
}

// SystemLocked reports whether the field is populated only by automation and
// marked read-only. System-locked fields are never editable by any role.
func (f *Field) SystemLocked() bool {
	return f.PopulationMode == PopulationAutomatic && f.Readonly
}

// IsSystem reports whether the field is system scoped.
func (f *Field) IsSystem() bool {
	return f.Scope == ScopeSystem
}

// Available reports whether the field is active and neither archived nor
// deprecated.
func (f *Field) Available() bool {
	return f.IsActive && f.ArchivedAt == nil && f.DeprecatedAt == nil
}

// AppliesToAsset reports whether the field applies to assetType.
func (f *Field) AppliesToAsset(assetType string) bool {
	return f.AppliesTo == AppliesToAll || f.AppliesTo == assetType
}
