package notion

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jomei/notionapi"

	"github.com/aretw0/ubrain/pkg/core"
)

// toFilter converts a conjunction into the API filter shape. A single
// condition is sent bare; several are wrapped in an "and" compound.
func toFilter(f *core.Filter) notionapi.Filter {
	if f.Empty() {
		return nil
	}
	var parts []notionapi.Filter
	for _, c := range f.And {
		parts = append(parts, conditionFilters(c)...)
	}
	switch len(parts) {
	case 0:
		return nil
	case 1:
		return parts[0]
	}
	return notionapi.AndCompoundFilter(parts)
}

// conditionFilters expands one condition. Date ranges become two filters
// because a date condition object carries exactly one operator.
func conditionFilters(c core.Condition) []notionapi.Filter {
	switch {
	case c.Contains != "":
		return []notionapi.Filter{notionapi.PropertyFilter{
			Property: c.Property,
			RichText: &notionapi.TextFilterCondition{Contains: c.Contains},
		}}
	case c.Equals != "":
		pf := notionapi.PropertyFilter{Property: c.Property}
		switch c.Type {
		case core.TypeStatus:
			pf.Status = &notionapi.StatusFilterCondition{Equals: c.Equals}
		case core.TypeTitle, core.TypeRichText:
			pf.RichText = &notionapi.TextFilterCondition{Equals: c.Equals}
		default:
			pf.Select = &notionapi.SelectFilterCondition{Equals: c.Equals}
		}
		return []notionapi.Filter{pf}
	}

	var out []notionapi.Filter
	if d, ok := parseDate(c.OnOrAfter); ok {
		out = append(out, notionapi.PropertyFilter{
			Property: c.Property,
			Date:     &notionapi.DateFilterCondition{OnOrAfter: d},
		})
	}
	if d, ok := parseDate(c.OnOrBefore); ok {
		out = append(out, notionapi.PropertyFilter{
			Property: c.Property,
			Date:     &notionapi.DateFilterCondition{OnOrBefore: d},
		})
	}
	return out
}

func parseDate(s string) (*notionapi.Date, bool) {
	if s == "" {
		return nil, false
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			d := notionapi.Date(t)
			return &d, true
		}
	}
	return nil, false
}

func toSorts(sorts []core.Sort) []notionapi.SortObject {
	if len(sorts) == 0 {
		return nil
	}
	out := make([]notionapi.SortObject, 0, len(sorts))
	for _, s := range sorts {
		dir := notionapi.SortOrder("ascending")
		if s.Descending {
			dir = notionapi.SortOrder("descending")
		}
		obj := notionapi.SortObject{Direction: dir}
		if s.Timestamp != "" {
			obj.Timestamp = notionapi.TimestampType(s.Timestamp)
		} else {
			obj.Property = s.Property
		}
		out = append(out, obj)
	}
	return out
}

func toRecord(p *notionapi.Page) (core.Record, error) {
	rec := core.Record{
		ID:          core.NormalizeID(string(p.ID)),
		CreatedTime: p.CreatedTime,
		LastEdited:  p.LastEditedTime,
		Archived:    p.Archived,
		Properties:  make(map[string]json.RawMessage, len(p.Properties)),
	}
	for name, prop := range p.Properties {
		raw, err := json.Marshal(prop)
		if err != nil {
			return core.Record{}, fmt.Errorf("encode property %s of %s: %w", name, rec.ID, err)
		}
		if prop.GetType() == notionapi.PropertyType("date") {
			raw = restoreDates(raw)
		}
		rec.Properties[name] = raw
	}
	return rec, nil
}

// restoreDates turns midnight-UTC timestamps back into calendar dates.
// The client library decodes "2024-01-05" into a time.Time and re-encodes
// it as RFC 3339, which would otherwise leak a time of day that was never
// entered.
func restoreDates(raw json.RawMessage) json.RawMessage {
	var prop map[string]any
	if err := json.Unmarshal(raw, &prop); err != nil {
		return raw
	}
	date, ok := prop["date"].(map[string]any)
	if !ok {
		return raw
	}
	for _, key := range []string{"start", "end"} {
		s, ok := date[key].(string)
		if !ok {
			continue
		}
		if t, err := time.Parse(time.RFC3339, s); err == nil && isCalendarDate(t) {
			date[key] = t.Format(time.DateOnly)
		}
	}
	out, err := json.Marshal(prop)
	if err != nil {
		return raw
	}
	return out
}

func isCalendarDate(t time.Time) bool {
	_, offset := t.Zone()
	return offset == 0 && t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0
}
