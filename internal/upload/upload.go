// Package upload shapes a resolved schema into the grouped field layout of
// the asset upload form.
package upload

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/metaschema/pkg/types"
)

// DefaultGroup collects fields without a group key.
const DefaultGroup = "general"

// groupLabels maps known group keys to display labels.
var groupLabels = map[string]string{
	"general":        "General",
	"creative":       "Creative",
	"rights":         "Rights & Licensing",
	"technical":      "Technical",
	"classification": "Classification",
	"custom":         "Custom Fields",
}

// SchemaResolver produces the canonical resolved schema.
type SchemaResolver interface {
	Resolve(ctx context.Context, scope types.Scope, assetType string) (*types.ResolvedSchema, error)
}

// PermissionResolver produces per-field edit flags.
type PermissionResolver interface {
	CanEditMultiple(ctx context.Context, fieldIDs []int64, role string, scope types.Scope) (map[int64]bool, error)
}

// Adapter builds upload form layouts. It never applies overrides itself.
type Adapter struct {
	schema      SchemaResolver
	permissions PermissionResolver
	logger      *zap.Logger
}

// NewAdapter returns an adapter over the two resolvers. A nil logger
// discards output.
func NewAdapter(schema SchemaResolver, permissions PermissionResolver, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{schema: schema, permissions: permissions, logger: logger.Named("upload")}
}

// Resolve returns the upload form for a category. When role is non-empty
// every field carries can_edit.
func (a *Adapter) Resolve(ctx context.Context, scope types.Scope, assetType, role string) (*types.UploadSchema, error) {
	if scope.CategoryID == nil {
		return nil, fmt.Errorf("%w: upload schema requires a category", types.ErrInvalidArgument)
	}
	schema, err := a.schema.Resolve(ctx, scope, assetType)
	if err != nil {
		return nil, err
	}

	var kept []*types.ResolvedField
	for i := range schema.Fields {
		if f := &schema.Fields[i]; Uploadable(f) {
			kept = append(kept, f)
		}
	}

	var grants map[int64]bool
	if role != "" && len(kept) > 0 {
		ids := make([]int64, len(kept))
		for i, f := range kept {
			ids[i] = f.FieldID
		}
		grants, err = a.permissions.CanEditMultiple(ctx, ids, role, scope)
		if err != nil {
			return nil, fmt.Errorf("resolving edit permissions: %w", err)
		}
	}

	groups := make(map[string]*types.FormGroup)
	for _, f := range kept {
		key := DefaultGroup
		if f.GroupKey != nil && *f.GroupKey != "" {
			key = *f.GroupKey
		}
		g, ok := groups[key]
		if !ok {
			g = &types.FormGroup{Key: key, Label: GroupLabel(key)}
			groups[key] = g
		}
		ff := types.FormField{
			FieldID:       f.FieldID,
			Key:           f.Key,
			DisplayLabel:  f.DisplayLabel,
			Type:          f.Type,
			DisplayWidget: f.DisplayWidget,
			IsPrimary:     f.IsPrimary,
			IsRequired:    f.IsRequired,
			Readonly:      f.Readonly,
			Options:       f.Options,
		}
		if role != "" {
			canEdit := grants[f.FieldID] && f.IsUserEditable && !f.SystemLocked()
			ff.CanEdit = &canEdit
		}
		g.Fields = append(g.Fields, ff)
	}

	out := &types.UploadSchema{Groups: make([]types.FormGroup, 0, len(groups))}
	for _, g := range groups {
		out.Groups = append(out.Groups, *g)
	}
	sort.Slice(out.Groups, func(i, j int) bool { return out.Groups[i].Key < out.Groups[j].Key })
	a.logger.Debug("built upload schema", zap.Stringer("scope", scope),
		zap.Int("fields", len(kept)), zap.Int("groups", len(out.Groups)))
	return out, nil
}

// Uploadable reports whether a resolved field belongs on the upload form.
func Uploadable(f *types.ResolvedField) bool {
	switch {
	case !f.IsVisible, !f.IsUploadVisible, !f.ShowOnUpload:
		return false
	case f.Type == types.FieldTypeRating:
		return false
	case f.IsInternalOnly:
		return false
	case f.PopulationMode == types.PopulationAutomatic:
		return false
	}
	return true
}

// GroupLabel returns the display label of a group key.
func GroupLabel(key string) string {
	if label, ok := groupLabels[key]; ok {
		return label
	}
	return humanize(key)
}

// humanize turns "brand_assets" or "brand-assets" into "Brand Assets".
func humanize(key string) string {
	words := strings.FieldsFunc(key, func(r rune) bool { return r == '_' || r == '-' || r == ' ' })
	for i, w := range words {
		r := []rune(w)
		words[i] = string(unicode.ToUpper(r[0])) + string(r[1:])
	}
	return strings.Join(words, " ")
}
