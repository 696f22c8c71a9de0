package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/mesh-intelligence/metaschema/internal/catalog"
	"github.com/mesh-intelligence/metaschema/pkg/types"
)

// builtInField describes a system field seeded on first attach.
type builtInField struct {
	field   types.Field
	options []builtInOption
}

// builtInOption describes one option of a built-in select field.
type builtInOption struct {
	value string
	label string
	color string
}

func system(id int64, key, label, fieldType, appliesTo, group string) types.Field {
	return types.Field{
		FieldID:         id,
		Key:             key,
		SystemLabel:     label,
		Type:            fieldType,
		Scope:           types.ScopeSystem,
		AppliesTo:       appliesTo,
		GroupKey:        group,
		IsFilterable:    true,
		IsUserEditable:  true,
		IsUploadVisible: true,
		ShowOnEdit:      true,
		IsActive:        true,
		PopulationMode:  types.PopulationManual,
	}
}

// automatic marks f as populated by the pipeline and locked for users.
func automatic(f types.Field) types.Field {
	f.PopulationMode = types.PopulationAutomatic
	f.Readonly = true
	f.IsUserEditable = false
	f.IsUploadVisible = false
	return f
}

// builtInFields lists the system fields, in field id order.
var builtInFields = []builtInField{
	{
		field: func() types.Field {
			f := system(1, "photo_type", "Photo Type", types.FieldTypeSelect, types.AssetTypeImage, "creative")
			f.IsPrimary = true
			f.IsAITrainable = true
			return f
		}(),
		options: []builtInOption{
			{"product", "Product", ""},
			{"lifestyle", "Lifestyle", ""},
			{"studio", "Studio", ""},
			{"action", "Action", ""},
		},
	},
	{
		field: system(2, "usage_rights", "Usage Rights", types.FieldTypeSelect, types.AppliesToAll, "rights"),
		options: []builtInOption{
			{"unrestricted", "Unrestricted", ""},
			{"editorial", "Editorial Only", ""},
			{"internal", "Internal Use", ""},
			{"licensed", "Licensed", ""},
		},
	},
	{
		field: system(3, "expiration_date", "Expiration Date", types.FieldTypeDate, types.AppliesToAll, "rights"),
	},
	{
		field: automatic(system(4, "orientation", "Orientation", types.FieldTypeSelect, types.AssetTypeImage, "technical")),
		options: []builtInOption{
			{"landscape", "Landscape", ""},
			{"portrait", "Portrait", ""},
			{"square", "Square", ""},
		},
	},
	{
		field: func() types.Field {
			f := automatic(system(5, types.FilterOnlyFieldKey, "Dominant Color", types.FieldTypeSelect, types.AssetTypeImage, "technical"))
			f.ShowOnEdit = false
			f.DisplayWidget = "color_swatch"
			return f
		}(),
		options: []builtInOption{
			{"red", "Red", "#d64545"},
			{"orange", "Orange", "#e8833a"},
			{"yellow", "Yellow", "#f2c94c"},
			{"green", "Green", "#3fa66b"},
			{"blue", "Blue", "#3b7dd8"},
			{"purple", "Purple", "#8a5cc7"},
			{"neutral", "Neutral", "#9e9e9e"},
		},
	},
	{
		field: func() types.Field {
			f := system(6, "quality_rating", "Quality Rating", types.FieldTypeRating, types.AppliesToAll, "classification")
			f.IsUploadVisible = false
			return f
		}(),
	},
	{
		field: func() types.Field {
			f := system(7, "caption", "Caption", types.FieldTypeTextarea, types.AppliesToAll, "general")
			f.IsFilterable = false
			f.IsAITrainable = true
			return f
		}(),
	},
}

// builtInRows expands builtInFields into rows. Option ids are field id * 100
// plus the option's position.
func builtInRows() ([]*types.Field, []*types.Option) {
	var (
		fields  []*types.Field
		options []*types.Option
	)
	for _, bf := range builtInFields {
		f := bf.field
		fields = append(fields, &f)
		for i, bo := range bf.options {
			o := &types.Option{
				OptionID:    f.FieldID*100 + int64(i) + 1,
				FieldID:     f.FieldID,
				Value:       bo.value,
				SystemLabel: bo.label,
				IsSystem:    true,
			}
			if bo.color != "" {
				color := bo.color
				o.Color = &color
			}
			options = append(options, o)
		}
	}
	return fields, options
}

// seedBuiltInFields inserts the built-in system fields and their options
// when the fields table is empty, then writes them back to the data files.
// It reports whether seeding ran.
func seedBuiltInFields(db *sql.DB, dataDir string) (bool, error) {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM " + catalog.FieldsTable).Scan(&count); err != nil {
		return false, fmt.Errorf("counting fields: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	fields, options := builtInRows()
	fieldRecords, err := marshalJSONL(fields)
	if err != nil {
		return false, fmt.Errorf("marshaling built-in fields: %w", err)
	}
	optionRecords, err := marshalJSONL(options)
	if err != nil {
		return false, fmt.Errorf("marshaling built-in options: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return false, fmt.Errorf("beginning seed transaction: %w", err)
	}
	defer tx.Rollback()

	for _, batch := range []struct {
		mapping jsonlTable
		records []json.RawMessage
	}{
		{jsonlTableMapping[0], fieldRecords},
		{jsonlTableMapping[1], optionRecords},
	} {
		if _, skipped := insertRecords(tx, batch.mapping, batch.records); skipped > 0 {
			return false, fmt.Errorf("seeding %s: %d rows rejected", batch.mapping.table, skipped)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing seed transaction: %w", err)
	}

	if err := writeJSONL(filepath.Join(dataDir, fieldsJSONL), fieldRecords); err != nil {
		return true, fmt.Errorf("writing %s: %w", fieldsJSONL, err)
	}
	if err := writeJSONL(filepath.Join(dataDir, optionsJSONL), optionRecords); err != nil {
		return true, fmt.Errorf("writing %s: %w", optionsJSONL, err)
	}
	return true, nil
}
