package entity

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/aretw0/ubrain/pkg/core"
	"github.com/aretw0/ubrain/pkg/property"
)

// SchemaSource resolves the column types of a table.
type SchemaSource interface {
	ColumnTypes(ctx context.Context, tableID string) (core.Schema, error)
}

// Build produces the property payload for a create or a partial update of
// entity e. Fields without a mapped column are skipped, except required
// fields in create mode, which fail as missing. An empty result means there
// is nothing to write.
func Build(ctx context.Context, schemas SchemaSource, e core.EntityName, tableID string, columns core.ColumnMap, input map[string]any, mode core.Mode) (core.Properties, error) {
	spec, ok := Lookup(e)
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownEntity, e)
	}

	schema, err := schemas.ColumnTypes(ctx, tableID)
	if err != nil {
		return nil, err
	}

	out := core.Properties{}
	for _, f := range spec.Fields {
		if f.ReadOnly {
			continue
		}

		column := columns[f.Alias]
		if column == "" {
			if mode == core.ModeCreate && f.Required {
				return nil, core.Missing(f.inputKey())
			}
			continue
		}

		declared, known := schema[column]
		t := f.EffectiveType(declared, known)

		key, raw, present := lookupInput(input, f, t)
		if !present {
			if mode == core.ModeCreate && f.Required {
				return nil, core.Missing(key)
			}
			continue
		}

		prepared := raw
		if f.Prepare != nil {
			prepared = f.Prepare(raw, t)
		}
		if mode == core.ModeCreate && f.Required && isEmpty(prepared) {
			return nil, core.Missing(key)
		}

		value, err := property.Build(key, prepared, t)
		if err != nil {
			return nil, err
		}
		out[column] = value
	}
	return out, nil
}

// lookupInput finds the input value of f. Fields that accept relations may
// also be supplied as "<alias>_ids", the key they are read back under.
func lookupInput(input map[string]any, f FieldSpec, t core.DeclaredType) (key string, v any, ok bool) {
	key = f.inputKey()
	if v, ok = input[key]; ok {
		return key, v, true
	}
	if t == core.TypeRelation && key == f.Alias {
		idsKey := f.Alias + "_ids"
		if v, ok = input[idsKey]; ok {
			return idsKey, v, true
		}
	}
	return key, nil, false
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface, reflect.Map:
		return rv.IsNil()
	}
	return false
}
