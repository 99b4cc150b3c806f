// Package entity declares the field specifications of every entity and
// study collection, and uses them to build write payloads and to project
// raw records into normalized ones.
package entity

import (
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/aretw0/ubrain/pkg/core"
	"github.com/aretw0/ubrain/pkg/property"
)

// PrepareFunc normalizes a raw input value before coercion. t is the
// effective column type the value will be coerced to.
type PrepareFunc func(v any, t core.DeclaredType) any

// FieldSpec describes one logical field of an entity.
type FieldSpec struct {
	// Alias is the key of the field in a column map.
	Alias string
	// Input is the key of the field in write payloads. Defaults to Alias.
	Input string
	// Accepts lists the column types the field can be written as.
	// The first entry is used when the column type is unknown or not accepted.
	Accepts  []core.DeclaredType
	Required bool
	Prepare  PrepareFunc
	// Default replaces an empty value on read.
	Default any
	// ReadOnly fields are projected on read but never written.
	ReadOnly bool
}

func (f FieldSpec) inputKey() string {
	if f.Input != "" {
		return f.Input
	}
	return f.Alias
}

// EffectiveType picks the type a value for f is coerced to, given the
// declared type of its column.
func (f FieldSpec) EffectiveType(declared core.DeclaredType, known bool) core.DeclaredType {
	if known && slices.Contains(f.Accepts, declared) {
		return declared
	}
	return f.Accepts[0]
}

// Spec is the ordered field list of one entity.
type Spec struct {
	Entity core.EntityName
	Fields []FieldSpec
	// Stamped entities expose the record's last edit time as "updated".
	Stamped bool
}

// Aliases lists the aliases of s in declaration order.
func (s Spec) Aliases() []string {
	out := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		out = append(out, f.Alias)
	}
	return out
}

// Field returns the field with the given alias.
func (s Spec) Field(alias string) (FieldSpec, bool) {
	for _, f := range s.Fields {
		if f.Alias == alias {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// Fragments shared across entities.

var (
	choiceTypes = []core.DeclaredType{core.TypeSelect, core.TypeStatus}
	linkedTypes = []core.DeclaredType{core.TypeSelect, core.TypeStatus, core.TypeRelation}
	textTypes   = []core.DeclaredType{core.TypeRichText, core.TypeTitle}
)

func titled() FieldSpec {
	return FieldSpec{Alias: "title", Accepts: []core.DeclaredType{core.TypeTitle}, Required: true}
}

func choice(alias string) FieldSpec {
	return FieldSpec{Alias: alias, Accepts: choiceTypes}
}

func dated(alias string) FieldSpec {
	return FieldSpec{Alias: alias, Accepts: []core.DeclaredType{core.TypeDate}}
}

func numeric(alias string) FieldSpec {
	return FieldSpec{Alias: alias, Accepts: []core.DeclaredType{core.TypeNumber}, Prepare: numberOrNull}
}

func text(alias string) FieldSpec {
	return FieldSpec{Alias: alias, Accepts: textTypes}
}

func taggable(alias string) FieldSpec {
	return FieldSpec{Alias: alias, Accepts: []core.DeclaredType{core.TypeMultiSelect}, Prepare: listFrom}
}

func flag(alias string) FieldSpec {
	return FieldSpec{Alias: alias, Accepts: []core.DeclaredType{core.TypeCheckbox}}
}

func link(alias string) FieldSpec {
	return FieldSpec{Alias: alias, Accepts: []core.DeclaredType{core.TypeURL, core.TypeRichText}}
}

// relation is written from "<alias>_ids".
func relation(alias string) FieldSpec {
	return FieldSpec{
		Alias:   alias,
		Input:   alias + "_ids",
		Accepts: []core.DeclaredType{core.TypeRelation},
		Prepare: listFrom,
	}
}

// linked is a field modelled as either an option or a relation,
// depending on the column.
func linked(alias string) FieldSpec {
	return FieldSpec{Alias: alias, Accepts: linkedTypes, Prepare: optionOrList}
}

func required(f FieldSpec) FieldSpec {
	f.Required = true
	return f
}

func fallback(f FieldSpec, v any) FieldSpec {
	f.Default = v
	return f
}

func readOnly(f FieldSpec) FieldSpec {
	f.ReadOnly = true
	return f
}

// Traits are reusable groups of fields.

func areaTagged() []FieldSpec {
	return []FieldSpec{choice("area"), taggable("tags")}
}

func ordered(parent string) []FieldSpec {
	return []FieldSpec{titled(), choice("status"), numeric("order"), relation(parent)}
}

// specBuilder assembles a Spec from fields and traits.
type specBuilder struct {
	spec Spec
}

func define(e core.EntityName) *specBuilder {
	return &specBuilder{spec: Spec{Entity: e}}
}

func (b *specBuilder) with(fields ...FieldSpec) *specBuilder {
	b.spec.Fields = append(b.spec.Fields, fields...)
	return b
}

func (b *specBuilder) trait(fields []FieldSpec) *specBuilder {
	return b.with(fields...)
}

func (b *specBuilder) stamped() *specBuilder {
	b.spec.Stamped = true
	return b
}

func (b *specBuilder) build() Spec {
	return b.spec
}

// Prepare functions.

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// listFrom accepts a list or a comma-separated string.
func listFrom(v any, _ core.DeclaredType) any {
	if s, ok := v.(string); ok {
		return splitList(s)
	}
	if list, ok := property.Strings(v); ok {
		return list
	}
	return []string{}
}

// numberOrNull maps empty and non-finite input to nil and parses numeric
// strings. Other non-numeric values pass through for the builder to reject.
func numberOrNull(v any, _ core.DeclaredType) any {
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return nil
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil || !finite(n) {
			return nil
		}
		return n
	}
	if n, ok := property.Float(v); ok {
		if !finite(n) {
			return nil
		}
		return n
	}
	return v
}

func optionOrList(v any, t core.DeclaredType) any {
	if t == core.TypeRelation {
		return listFrom(v, t)
	}
	return v
}

func finite(n float64) bool {
	return !math.IsNaN(n) && !math.IsInf(n, 0)
}
