package entity

import (
	"time"

	"github.com/aretw0/ubrain/pkg/core"
	"github.com/aretw0/ubrain/pkg/property"
)

// Transform projects a raw record of entity e into its normalized shape.
// Every field of the entity is present in the result. Relation values are
// stored under "<alias>_ids". It returns nil for unknown entities.
func Transform(e core.EntityName, rec core.Record, columns core.ColumnMap) core.Normalized {
	spec, ok := Lookup(e)
	if !ok {
		return nil
	}

	out := core.Normalized{"id": rec.ID}
	for _, f := range spec.Fields {
		raw := rec.Properties[columns[f.Alias]]
		declared, known := property.TypeOf(raw)
		t := f.EffectiveType(declared, known)

		value := property.Extract(raw, t)
		if t == core.TypeRelation {
			out[f.Alias+"_ids"] = value
			continue
		}
		if f.Default != nil && isEmpty(value) {
			value = f.Default
		}
		out[f.Alias] = value
	}

	if spec.Stamped {
		out["updated"] = timestamp(rec.LastEdited)
	}
	return out
}

// Relations returns the aliases of e whose values in n are relation IDs.
func Relations(e core.EntityName, n core.Normalized) []string {
	spec, ok := Lookup(e)
	if !ok {
		return nil
	}
	var out []string
	for _, f := range spec.Fields {
		if _, ok := n[f.Alias+"_ids"]; ok {
			out = append(out, f.Alias)
		}
	}
	return out
}

func timestamp(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}
