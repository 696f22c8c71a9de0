package types

// ResolvedOption is an option as exposed to callers.
type ResolvedOption struct {
	OptionID     int64   `json:"option_id"`
	Value        string  `json:"value"`
	DisplayLabel string  `json:"display_label"`
	Color        *string `json:"color"`
	Icon         *string `json:"icon"`
}

// ResolvedField is the effective configuration of one visible field in one
// context. It carries both the legacy boolean shape (IsVisible,
// IsUploadVisible, IsFilterable) and the show/hide shape (ShowOnUpload,
// ShowOnEdit, ShowInFilters).
type ResolvedField struct {
	FieldID         int64            `json:"field_id"`
	Key             string           `json:"key"`
	DisplayLabel    string           `json:"display_label"`
	Type            string           `json:"type"`
	GroupKey        *string          `json:"group_key"`
	AppliesTo       string           `json:"applies_to"`
	DisplayWidget   *string          `json:"display_widget"`
	IsVisible       bool             `json:"is_visible"`
	IsUploadVisible bool             `json:"is_upload_visible"`
	IsFilterable    bool             `json:"is_filterable"`
	IsInternalOnly  bool             `json:"is_internal_only"`
	IsUserEditable  bool             `json:"is_user_editable"`
	PopulationMode  string           `json:"population_mode"`
	ShowOnUpload    bool             `json:"show_on_upload"`
	ShowOnEdit      bool             `json:"show_on_edit"`
	ShowInFilters   bool             `json:"show_in_filters"`
	Readonly        bool             `json:"readonly"`
	IsPrimary       bool             `json:"is_primary"`
	IsRequired      bool             `json:"is_required"`
	Options         []ResolvedOption `json:"options"`
}

// SystemLocked reports whether the resolved field is automation-only and
// read-only.
func (f *ResolvedField) SystemLocked() bool {
	return f.PopulationMode == PopulationAutomatic && f.Readonly
}

// ResolvedSchema is the engine's output for one context. It is a derived
// value and is safe to discard and recompute at any time.
type ResolvedSchema struct {
	Fields []ResolvedField `json:"fields"`
}

// FieldIDs returns the ids of the resolved fields in order.
func (s *ResolvedSchema) FieldIDs() []int64 {
	ids := make([]int64, len(s.Fields))
	for i := range s.Fields {
		ids[i] = s.Fields[i].FieldID
	}
	return ids
}

// Field returns the resolved field with the given key.
func (s *ResolvedSchema) Field(key string) (*ResolvedField, bool) {
	for i := range s.Fields {
		if s.Fields[i].Key == key {
			return &s.Fields[i], true
		}
	}
	return nil, false
}

// FormField is a field as rendered on an upload form.
type FormField struct {
	FieldID       int64            `json:"field_id"`
	Key           string           `json:"key"`
	DisplayLabel  string           `json:"display_label"`
	Type          string           `json:"type"`
	DisplayWidget *string          `json:"display_widget"`
	IsPrimary     bool             `json:"is_primary"`
	IsRequired    bool             `json:"is_required"`
	Readonly      bool             `json:"readonly"`
	Options       []ResolvedOption `json:"options"`
	CanEdit       *bool            `json:"can_edit,omitempty"`
}

// FormGroup is a labelled group of upload form fields.
type FormGroup struct {
	Key    string      `json:"key"`
	Label  string      `json:"label"`
	Fields []FormField `json:"fields"`
}

// UploadSchema is the upload form layout for one context.
type UploadSchema struct {
	Groups []FormGroup `json:"groups"`
}
