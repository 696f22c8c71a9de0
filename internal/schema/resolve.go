package schema

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mesh-intelligence/metaschema/pkg/types"
)

// ResolveUncached computes the schema straight from the catalog, bypassing
// the cache and the build lock.
func (r *Resolver) ResolveUncached(ctx context.Context, scope types.Scope, assetType string) (*types.ResolvedSchema, error) {
	if err := Validate(scope, assetType); err != nil {
		return nil, err
	}

	fields, err := r.catalog.LoadApplicableFields(ctx, assetType, scope.TenantID)
	if err != nil {
		return nil, fmt.Errorf("loading applicable fields: %w", err)
	}
	fields = r.dropShadowed(fields)
	sort.SliceStable(fields, func(i, j int) bool { return fields[i].FieldID < fields[j].FieldID })

	fieldIDs := make([]int64, 0, len(fields))
	var selectIDs []int64
	for _, f := range fields {
		fieldIDs = append(fieldIDs, f.FieldID)
		if f.HasOptions() {
			selectIDs = append(selectIDs, f.FieldID)
		}
	}

	var (
		overrides     []*types.VisibilityOverride
		options       map[int64][]*types.Option
		hiddenOptions map[int64]bool
	)
	if len(fieldIDs) > 0 {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			rows, err := r.catalog.LoadVisibilityOverrides(gctx, scope, fieldIDs)
			if err != nil {
				return fmt.Errorf("loading visibility overrides: %w", err)
			}
			overrides = rows
			return nil
		})
		if len(selectIDs) > 0 {
			g.Go(func() error {
				opts, err := r.catalog.LoadOptions(gctx, selectIDs)
				if err != nil {
					return fmt.Errorf("loading options: %w", err)
				}
				options = opts
				return nil
			})
			g.Go(func() error {
				hidden, err := r.catalog.LoadOptionVisibilityOverrides(gctx, scope)
				if err != nil {
					return fmt.Errorf("loading option visibility overrides: %w", err)
				}
				hiddenOptions = hidden
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	byField := make(map[int64][]*types.VisibilityOverride, len(overrides))
	for _, o := range overrides {
		if o.Shape() == types.ShapeInvalid {
			r.logger.Debug("ignoring malformed visibility override",
				zap.Int64("field_id", o.FieldID), zap.Int64("category_id", *o.CategoryID))
			continue
		}
		byField[o.FieldID] = append(byField[o.FieldID], o)
	}

	resolved := &types.ResolvedSchema{Fields: make([]types.ResolvedField, 0, len(fields))}
	for _, f := range fields {
		rf, visible := resolveField(f, byField[f.FieldID], options[f.FieldID], hiddenOptions)
		if visible {
			resolved.Fields = append(resolved.Fields, rf)
		}
	}
	return resolved, nil
}

// dropShadowed removes tenant fields whose key collides with a system field.
func (r *Resolver) dropShadowed(fields []*types.Field) []*types.Field {
	systemKeys := make(map[string]bool)
	for _, f := range fields {
		if f.IsSystem() {
			systemKeys[f.Key] = true
		}
	}
	kept := fields[:0:0]
	for _, f := range fields {
		if !f.IsSystem() && systemKeys[f.Key] {
			r.logger.Debug("tenant field shadowed by system field",
				zap.String("key", f.Key), zap.Int64("field_id", f.FieldID))
			continue
		}
		kept = append(kept, f)
	}
	return kept
}

// resolveField merges f's defaults with its override rows, least specific
// first, and reports whether the field is visible in this context.
func resolveField(f *types.Field, rows []*types.VisibilityOverride, options []*types.Option, hiddenOptions map[int64]bool) (types.ResolvedField, bool) {
	var (
		hidden       = false
		suppressed   = false
		uploadHidden = !f.IsUploadVisible
		editHidden   = !f.ShowOnEdit
		filterHidden = !f.IsFilterable
		primary      *bool
		required     *bool
	)

	rows = append([]*types.VisibilityOverride(nil), rows...)
	types.SortByShape(rows)
	for _, o := range rows {
		shape := o.Shape()
		if shape == types.ShapeInvalid {
			continue
		}
		overlay(&hidden, o.Hidden)
		overlay(&uploadHidden, o.IsUploadHidden)
		overlay(&editHidden, o.IsEditHidden)
		overlay(&filterHidden, o.IsFilterHidden)
		if shape == types.ShapeCategory {
			suppressed = o.Suppressed
			if o.IsPrimary != nil {
				primary = o.IsPrimary
			}
			if o.IsRequired != nil {
				required = o.IsRequired
			}
		}
	}

	if hidden || suppressed {
		return types.ResolvedField{}, false
	}

	isPrimary := f.IsPrimary
	if primary != nil {
		isPrimary = *primary
	}
	if f.Key == types.FilterOnlyFieldKey {
		editHidden = true
		uploadHidden = true
		isPrimary = false
	}

	return types.ResolvedField{
		FieldID:         f.FieldID,
		Key:             f.Key,
		DisplayLabel:    f.SystemLabel,
		Type:            f.Type,
		GroupKey:        optional(f.GroupKey),
		AppliesTo:       f.AppliesTo,
		DisplayWidget:   optional(f.DisplayWidget),
		IsVisible:       true,
		IsUploadVisible: !uploadHidden,
		IsFilterable:    !filterHidden,
		IsInternalOnly:  f.IsInternalOnly,
		IsUserEditable:  f.IsUserEditable,
		PopulationMode:  f.PopulationMode,
		ShowOnUpload:    !uploadHidden,
		ShowOnEdit:      !editHidden,
		ShowInFilters:   !filterHidden,
		Readonly:        f.Readonly,
		IsPrimary:       isPrimary,
		IsRequired:      required != nil && *required,
		Options:         resolveOptions(f, options, hiddenOptions),
	}, true
}

// resolveOptions returns the visible options of a select field in label
// order. Other field types get an empty list.
func resolveOptions(f *types.Field, options []*types.Option, hidden map[int64]bool) []types.ResolvedOption {
	out := []types.ResolvedOption{}
	if !f.HasOptions() {
		return out
	}
	for _, o := range options {
		if hidden[o.OptionID] {
			continue
		}
		out = append(out, types.ResolvedOption{
			OptionID:     o.OptionID,
			Value:        o.Value,
			DisplayLabel: o.SystemLabel,
			Color:        o.Color,
			Icon:         o.Icon,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayLabel != out[j].DisplayLabel {
			return out[i].DisplayLabel < out[j].DisplayLabel
		}
		return out[i].OptionID < out[j].OptionID
	})
	return out
}

func overlay(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
