package property

import (
	"encoding/json"

	"github.com/aretw0/ubrain/pkg/core"
)

type extractorFunc func(raw json.RawMessage) any

var extractors = [...]extractorFunc{
	core.TypeTitle:       textExtractor(core.TypeTitle),
	core.TypeRichText:    textExtractor(core.TypeRichText),
	core.TypeSelect:      optionExtractor,
	core.TypeStatus:      optionExtractor,
	core.TypeMultiSelect: multiExtractor,
	core.TypeRelation:    refExtractor(core.TypeRelation),
	core.TypePeople:      refExtractor(core.TypePeople),
	core.TypeNumber:      numberExtractor,
	core.TypeCheckbox:    checkboxExtractor,
	core.TypeDate:        dateExtractor,
	core.TypeURL:         scalarExtractor(core.TypeURL),
	core.TypeEmail:       scalarExtractor(core.TypeEmail),
	core.TypePhoneNumber: scalarExtractor(core.TypePhoneNumber),
}

var _ = [1]struct{}{}[len(extractors)-int(core.NumDeclaredTypes)]

// Extract reads the plain value of a raw property as type t.
// Missing or mistyped properties yield the zero value of the type:
// "" for text, empty slices for lists, false for checkboxes and nil otherwise.
func Extract(raw json.RawMessage, t core.DeclaredType) any {
	if !t.Valid() {
		return nil
	}
	return extractors[t](raw)
}

// TypeOf returns the declared type recorded in a raw property.
func TypeOf(raw json.RawMessage) (core.DeclaredType, bool) {
	t, err := core.ParseDeclaredType(core.PropertyType(raw))
	return t, err == nil
}

func decode(raw json.RawMessage) map[string]json.RawMessage {
	if len(raw) == 0 {
		return nil
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}

func textExtractor(t core.DeclaredType) extractorFunc {
	key := t.String()
	return func(raw json.RawMessage) any {
		return core.PlainText(raw, key)
	}
}

// optionExtractor reads either a select or a status value, whichever is set.
func optionExtractor(raw json.RawMessage) any {
	m := decode(raw)
	for _, key := range []string{"select", "status"} {
		var opt *core.NamedOption
		if err := json.Unmarshal(m[key], &opt); err == nil && opt != nil && opt.Name != "" {
			return opt.Name
		}
	}
	return nil
}

func multiExtractor(raw json.RawMessage) any {
	var opts []core.NamedOption
	_ = json.Unmarshal(decode(raw)["multi_select"], &opts)
	names := make([]string, 0, len(opts))
	for _, o := range opts {
		if o.Name != "" {
			names = append(names, o.Name)
		}
	}
	return names
}

func refExtractor(t core.DeclaredType) extractorFunc {
	key := t.String()
	return func(raw json.RawMessage) any {
		var refs []core.Reference
		_ = json.Unmarshal(decode(raw)[key], &refs)
		ids := make([]string, 0, len(refs))
		for _, r := range refs {
			if r.ID != "" {
				ids = append(ids, r.ID)
			}
		}
		return ids
	}
}

func numberExtractor(raw json.RawMessage) any {
	var n *float64
	if err := json.Unmarshal(decode(raw)["number"], &n); err != nil || n == nil {
		return nil
	}
	return *n
}

func checkboxExtractor(raw json.RawMessage) any {
	var b bool
	_ = json.Unmarshal(decode(raw)["checkbox"], &b)
	return b
}

func dateExtractor(raw json.RawMessage) any {
	m := decode(raw)
	var d *core.DateRange
	if err := json.Unmarshal(m["date"], &d); err == nil && d != nil && d.Start != nil {
		return *d.Start
	}
	// created_time and last_edited_time columns carry a bare timestamp.
	for _, key := range []string{"created_time", "last_edited_time"} {
		var s string
		if err := json.Unmarshal(m[key], &s); err == nil && s != "" {
			return s
		}
	}
	return nil
}

func scalarExtractor(t core.DeclaredType) extractorFunc {
	key := t.String()
	return func(raw json.RawMessage) any {
		var s *string
		if err := json.Unmarshal(decode(raw)[key], &s); err != nil || s == nil || *s == "" {
			return nil
		}
		return *s
	}
}
