// Package property converts application values into typed property-write
// payloads and extracts plain values back out of raw external properties.
//
// Dispatch is a fixed table indexed by core.DeclaredType. Adding a declared
// type without a builder and an extractor fails to compile.
package property

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/aretw0/ubrain/pkg/core"
)

type builderFunc func(alias string, v any) (core.PropertyValue, error)

var builders = [...]builderFunc{
	core.TypeTitle:       buildTitle,
	core.TypeRichText:    buildRichText,
	core.TypeSelect:      optionBuilder(core.TypeSelect, "an option name (text)"),
	core.TypeStatus:      optionBuilder(core.TypeStatus, "a valid status name"),
	core.TypeMultiSelect: buildMultiSelect,
	core.TypeRelation:    referenceBuilder(core.TypeRelation, "a list of relation IDs"),
	core.TypePeople:      referenceBuilder(core.TypePeople, "a list of person IDs"),
	core.TypeNumber:      buildNumber,
	core.TypeCheckbox:    buildCheckbox,
	core.TypeDate:        buildDate,
	core.TypeURL:         scalarBuilder(core.TypeURL, "a URL"),
	core.TypeEmail:       scalarBuilder(core.TypeEmail, "an email address"),
	core.TypePhoneNumber: scalarBuilder(core.TypePhoneNumber, "a phone number"),
}

var _ = [1]struct{}{}[len(builders)-int(core.NumDeclaredTypes)]

// Build coerces v into the payload for a column of type t. alias names the
// field in validation errors.
func Build(alias string, v any, t core.DeclaredType) (core.PropertyValue, error) {
	if !t.Valid() || builders[t] == nil {
		return nil, core.Unsupported(alias, t.String())
	}
	return builders[t](alias, v)
}

// BuildNamed is Build for a type given by its wire name.
func BuildNamed(alias string, v any, typ string) (core.PropertyValue, error) {
	t, err := core.ParseDeclaredType(typ)
	if err != nil {
		return nil, core.Unsupported(alias, typ)
	}
	return Build(alias, v, t)
}

func buildTitle(alias string, v any) (core.PropertyValue, error) {
	s, ok := v.(string)
	if !ok {
		return nil, core.Invalid(alias, "text")
	}
	return core.PropertyValue{"title": []core.TextRun{core.NewTextRun(s)}}, nil
}

func buildRichText(alias string, v any) (core.PropertyValue, error) {
	s, ok := v.(string)
	if !ok {
		return nil, core.Invalid(alias, "rich text")
	}
	runs := []core.TextRun{}
	if s != "" {
		runs = append(runs, core.NewTextRun(s))
	}
	return core.PropertyValue{"rich_text": runs}, nil
}

func optionBuilder(t core.DeclaredType, expected string) builderFunc {
	key := t.String()
	return func(alias string, v any) (core.PropertyValue, error) {
		if v == nil || v == "" {
			return core.PropertyValue{key: nil}, nil
		}
		s, ok := v.(string)
		if !ok {
			return nil, core.Invalid(alias, expected)
		}
		return core.PropertyValue{key: core.NamedOption{Name: s}}, nil
	}
}

func buildMultiSelect(alias string, v any) (core.PropertyValue, error) {
	names, ok := Strings(v)
	if !ok {
		return nil, core.Invalid(alias, "a list of option names")
	}
	opts := make([]core.NamedOption, 0, len(names))
	for _, n := range names {
		opts = append(opts, core.NamedOption{Name: n})
	}
	return core.PropertyValue{"multi_select": opts}, nil
}

func referenceBuilder(t core.DeclaredType, expected string) builderFunc {
	key := t.String()
	return func(alias string, v any) (core.PropertyValue, error) {
		ids, ok := Strings(v)
		if !ok {
			return nil, core.Invalid(alias, expected)
		}
		refs := make([]core.Reference, 0, len(ids))
		for _, id := range ids {
			refs = append(refs, core.Reference{ID: id})
		}
		return core.PropertyValue{key: refs}, nil
	}
}

func buildNumber(alias string, v any) (core.PropertyValue, error) {
	if v == nil || v == "" {
		return core.PropertyValue{"number": nil}, nil
	}
	n, ok := Float(v)
	if !ok || math.IsNaN(n) || math.IsInf(n, 0) {
		return nil, core.Invalid(alias, "a valid number")
	}
	return core.PropertyValue{"number": n}, nil
}

func buildCheckbox(alias string, v any) (core.PropertyValue, error) {
	b, ok := v.(bool)
	if !ok {
		return nil, core.Invalid(alias, "a boolean")
	}
	return core.PropertyValue{"checkbox": b}, nil
}

const expectedDate = "an ISO date (YYYY-MM-DD) or {start, end}"

func buildDate(alias string, v any) (core.PropertyValue, error) {
	if Falsy(v) {
		return core.PropertyValue{"date": nil}, nil
	}
	switch d := v.(type) {
	case string:
		return core.PropertyValue{"date": &core.DateRange{Start: &d}}, nil
	case time.Time:
		s := formatTime(d)
		return core.PropertyValue{"date": &core.DateRange{Start: &s}}, nil
	case core.DateRange:
		return dateRange(d.Start, d.End), nil
	case *core.DateRange:
		return dateRange(d.Start, d.End), nil
	case map[string]any:
		start, okStart := optionalString(rangeEnd(d, "start", "from"))
		end, okEnd := optionalString(rangeEnd(d, "end", "to"))
		if !okStart || !okEnd {
			return nil, core.Invalid(alias, expectedDate)
		}
		return dateRange(start, end), nil
	case map[string]string:
		return dateRange(nonEmpty(firstSet(d["start"], d["from"])), nonEmpty(firstSet(d["end"], d["to"]))), nil
	}
	return nil, core.Invalid(alias, expectedDate)
}

// dateRange clears the column when both ends are empty.
func dateRange(start, end *string) core.PropertyValue {
	if start == nil && end == nil {
		return core.PropertyValue{"date": nil}
	}
	return core.PropertyValue{"date": &core.DateRange{Start: start, End: end}}
}

func scalarBuilder(t core.DeclaredType, expected string) builderFunc {
	key := t.String()
	return func(alias string, v any) (core.PropertyValue, error) {
		if v == nil || v == "" {
			return core.PropertyValue{key: nil}, nil
		}
		s, ok := v.(string)
		if !ok {
			return nil, core.Invalid(alias, expected)
		}
		return core.PropertyValue{key: s}, nil
	}
}

// Falsy reports whether v is nil, "", false, zero or an empty collection.
func Falsy(v any) bool {
	if v == nil {
		return true
	}
	switch x := v.(type) {
	case string:
		return x == ""
	case bool:
		return !x
	case json.Number:
		f, err := x.Float64()
		return err == nil && f == 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return rv.IsZero()
	}
	return false
}

// Strings converts a slice of scalars into its non-empty string entries.
// ok is false when v is not a slice.
func Strings(v any) (out []string, ok bool) {
	switch list := v.(type) {
	case []string:
		out = make([]string, 0, len(list))
		for _, s := range list {
			if s != "" {
				out = append(out, s)
			}
		}
		return out, true
	case []any:
		out = make([]string, 0, len(list))
		for _, item := range list {
			if Falsy(item) {
				continue
			}
			if s, isStr := item.(string); isStr {
				out = append(out, s)
				continue
			}
			out = append(out, fmt.Sprint(item))
		}
		return out, true
	}
	return nil, false
}

// Float converts Go numeric kinds and json.Number to float64.
func Float(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

func optionalString(v any) (*string, bool) {
	switch s := v.(type) {
	case nil:
		return nil, true
	case string:
		return nonEmpty(s), true
	}
	return nil, false
}

// rangeEnd reads key from m, falling back to alt when key is absent.
func rangeEnd(m map[string]any, key, alt string) any {
	if v, ok := m[key]; ok {
		return v
	}
	return m[alt]
}

func firstSet(s, alt string) string {
	if s != "" {
		return s
	}
	return alt
}

func nonEmpty(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func formatTime(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format(time.DateOnly)
	}
	return t.Format(time.RFC3339)
}
