// Package memstore implements types.Catalog over in-memory rows. It backs
// tests and embedders that keep field configuration in process.
package memstore

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/mesh-intelligence/metaschema/pkg/types"
)

// Compile-time interface check.
var _ types.Catalog = (*Store)(nil)

// Data is the full row set held by a Store.
type Data struct {
	Fields              []*types.Field
	Options             []*types.Option
	VisibilityOverrides []*types.VisibilityOverride
	OptionOverrides     []*types.OptionVisibilityOverride
	PermissionOverrides []*types.PermissionOverride
}

// Calls counts catalog reads by method.
type Calls struct {
	ApplicableFields    int64
	FieldsByID          int64
	Options             int64
	VisibilityOverrides int64
	OptionOverrides     int64
	PermissionOverrides int64
}

// Store is an in-memory catalog. Returned rows are copies; callers may
// modify them freely.
type Store struct {
	mu   sync.RWMutex
	data Data

	applicableFields    atomic.Int64
	fieldsByID          atomic.Int64
	options             atomic.Int64
	visibilityOverrides atomic.Int64
	optionOverrides     atomic.Int64
	permissionOverrides atomic.Int64
}

// New returns a store holding data.
func New(data Data) *Store {
	s := &Store{}
	s.Replace(data)
	return s
}

// Replace swaps the row set. Resolved schemas cached from the old rows are
// not invalidated here.
func (s *Store) Replace(data Data) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = data
}

// Calls returns the read counters.
func (s *Store) Calls() Calls {
	return Calls{
		ApplicableFields:    s.applicableFields.Load(),
		FieldsByID:          s.fieldsByID.Load(),
		Options:             s.options.Load(),
		VisibilityOverrides: s.visibilityOverrides.Load(),
		OptionOverrides:     s.optionOverrides.Load(),
		PermissionOverrides: s.permissionOverrides.Load(),
	}
}

// LoadApplicableFields returns available system fields and the tenant's own
// fields that apply to assetType, ordered by id.
func (s *Store) LoadApplicableFields(ctx context.Context, assetType string, tenantID int64) ([]*types.Field, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	s.applicableFields.Add(1)
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*types.Field
	for _, f := range s.data.Fields {
		if !f.Available() || !f.AppliesToAsset(assetType) {
			continue
		}
		switch f.Scope {
		case types.ScopeSystem:
		case types.ScopeTenant:
			if f.TenantID == nil || *f.TenantID != tenantID {
				continue
			}
		default:
			continue
		}
		c := *f
		result = append(result, &c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].FieldID < result[j].FieldID })
	return result, nil
}

// LoadFieldsByID returns the fields with the given ids in any lifecycle state.
func (s *Store) LoadFieldsByID(ctx context.Context, ids []int64) (map[int64]*types.Field, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	s.fieldsByID.Add(1)
	s.mu.RLock()
	defer s.mu.RUnlock()

	want := idSet(ids)
	result := make(map[int64]*types.Field, len(ids))
	for _, f := range s.data.Fields {
		if want[f.FieldID] {
			c := *f
			result[f.FieldID] = &c
		}
	}
	return result, nil
}

// LoadOptions groups the options of fieldIDs by field.
func (s *Store) LoadOptions(ctx context.Context, fieldIDs []int64) (map[int64][]*types.Option, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	s.options.Add(1)
	s.mu.RLock()
	defer s.mu.RUnlock()

	want := idSet(fieldIDs)
	result := make(map[int64][]*types.Option)
	for _, o := range s.data.Options {
		if want[o.FieldID] {
			c := *o
			result[o.FieldID] = append(result[o.FieldID], &c)
		}
	}
	return result, nil
}

// LoadVisibilityOverrides returns the rows for fieldIDs that apply to scope.
func (s *Store) LoadVisibilityOverrides(ctx context.Context, scope types.Scope, fieldIDs []int64) ([]*types.VisibilityOverride, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	s.visibilityOverrides.Add(1)
	s.mu.RLock()
	defer s.mu.RUnlock()

	want := idSet(fieldIDs)
	var result []*types.VisibilityOverride
	for _, o := range s.data.VisibilityOverrides {
		if want[o.FieldID] && scope.Matches(o.TenantID, o.BrandID, o.CategoryID) {
			c := *o
			result = append(result, &c)
		}
	}
	return result, nil
}

// LoadOptionVisibilityOverrides returns the most specific hidden flag per
// option for scope.
func (s *Store) LoadOptionVisibilityOverrides(ctx context.Context, scope types.Scope) (map[int64]bool, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	s.optionOverrides.Add(1)
	s.mu.RLock()
	defer s.mu.RUnlock()

	byOption := make(map[int64][]*types.OptionVisibilityOverride)
	for _, o := range s.data.OptionOverrides {
		if scope.Matches(o.TenantID, o.BrandID, o.CategoryID) {
			byOption[o.OptionID] = append(byOption[o.OptionID], o)
		}
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
// for role in scope.
func (s *Store) LoadPermissionOverrides(ctx context.Context, fieldIDs []int64, role string, scope types.Scope) (map[int64]bool, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	s.permissionOverrides.Add(1)
	s.mu.RLock()
	defer s.mu.RUnlock()

	want := idSet(fieldIDs)
	byField := make(map[int64][]*types.PermissionOverride)
	for _, o := range s.data.PermissionOverrides {
		if want[o.FieldID] && o.Role == role && scope.Matches(o.TenantID, o.BrandID, o.CategoryID) {
			byField[o.FieldID] = append(byField[o.FieldID], o)
		}
	}
	result := make(map[int64]bool, len(byField))
	for id, rows := range byField {
		if row, ok := types.MostSpecific(rows); ok {
			result[id] = row.CanEdit
		}
	}
	return result, nil
}

func idSet(ids []int64) map[int64]bool {
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
