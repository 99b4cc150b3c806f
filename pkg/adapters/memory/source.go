// Package memory provides an in-memory record source. It mimics the
// external service closely enough for tests, demos and offline development:
// typed raw properties, pagination cursors, filters, sorts and soft deletes.
package memory

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/ubrain/pkg/core"
	"github.com/aretw0/ubrain/pkg/property"
)

// DefaultPageSize is the page size used when a query does not set one.
const DefaultPageSize = 100

type table struct {
	id     string
	title  string
	schema core.Schema
	rows   []string
}

// Source is a concurrency-safe in-memory core.RecordSource.
type Source struct {
	mu      sync.RWMutex
	tables  map[string]*table
	records map[string]core.Record
	failing map[string]error
	now     func() time.Time
	last    time.Time

	// PageSize caps query pages. Zero means DefaultPageSize.
	PageSize int

	queries     int
	schemaCalls int
}

// New creates an empty source.
func New() *Source {
	return &Source{
		tables:  make(map[string]*table),
		records: make(map[string]core.Record),
		failing: make(map[string]error),
		now:     time.Now,
	}
}

// AddTable registers a table with its schema.
func (s *Source) AddTable(id, title string, schema core.Schema) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[id] = &table{id: id, title: title, schema: schema}
}

// FailPage makes RetrievePage return err for id.
func (s *Source) FailPage(id string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing[id] = err
}

// Calls returns the number of Query and RetrieveSchema calls served.
func (s *Source) Calls() (queries, schemas int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queries, s.schemaCalls
}

func (s *Source) RetrieveSchema(ctx context.Context, tableID string) (core.Schema, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schemaCalls++
	t, ok := s.tables[tableID]
	if !ok {
		return nil, fmt.Errorf("table %s: %w", tableID, core.ErrNotFound)
	}
	out := make(core.Schema, len(t.schema))
	for k, v := range t.schema {
		out[k] = v
	}
	return out, nil
}

func (s *Source) RetrievePage(ctx context.Context, id string) (core.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err, ok := s.failing[id]; ok {
		return core.Record{}, err
	}
	rec, ok := s.records[id]
	if !ok {
		return core.Record{}, fmt.Errorf("page %s: %w", id, core.ErrNotFound)
	}
	return rec, nil
}

func (s *Source) Create(ctx context.Context, tableID string, props core.Properties) (core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[tableID]
	if !ok {
		return core.Record{}, fmt.Errorf("table %s: %w", tableID, core.ErrNotFound)
	}

	now := s.tick()
	rec := core.Record{
		ID:          uuid.NewString(),
		CreatedTime: now,
		LastEdited:  now,
		Properties:  make(map[string]json.RawMessage, len(props)),
	}
	if err := s.apply(t, &rec, props); err != nil {
		return core.Record{}, err
	}
	s.records[rec.ID] = rec
	t.rows = append(t.rows, rec.ID)
	return rec, nil
}

func (s *Source) Update(ctx context.Context, id string, props core.Properties) (core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, t, err := s.lookup(id)
	if err != nil {
		return core.Record{}, err
	}
	if err := s.apply(t, &rec, props); err != nil {
		return core.Record{}, err
	}
	rec.LastEdited = s.tick()
	s.records[id] = rec
	return rec, nil
}

func (s *Source) Archive(ctx context.Context, id string) (core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, _, err := s.lookup(id)
	if err != nil {
		return core.Record{}, err
	}
	rec.Archived = true
	rec.LastEdited = s.tick()
	s.records[id] = rec
	return rec, nil
}

// tick returns the current time, strictly after the previous tick.
// Callers hold s.mu.
func (s *Source) tick() time.Time {
	now := s.now().UTC()
	if !now.After(s.last) {
		now = s.last.Add(time.Microsecond)
	}
	s.last = now
	return now
}

func (s *Source) lookup(id string) (core.Record, *table, error) {
	rec, ok := s.records[id]
	if !ok {
		return core.Record{}, nil, fmt.Errorf("page %s: %w", id, core.ErrNotFound)
	}
	for _, t := range s.tables {
		if slices.Contains(t.rows, id) {
			return cloneRecord(rec), t, nil
		}
	}
	return core.Record{}, nil, fmt.Errorf("page %s has no table: %w", id, core.ErrNotFound)
}

// apply validates props against the table schema and stores them as raw
// typed properties.
func (s *Source) apply(t *table, rec *core.Record, props core.Properties) error {
	for col, value := range props {
		declared, ok := t.schema[col]
		if !ok {
			return fmt.Errorf("%s is not a property that exists: %w", col, core.ErrInvalidValue)
		}
		if _, ok := value[declared.String()]; !ok {
			return fmt.Errorf("%s is expected to be %s: %w", col, declared, core.ErrInvalidValue)
		}
		raw, err := toRaw(declared, value)
		if err != nil {
			return err
		}
		rec.Properties[col] = raw
	}
	return nil
}

// toRaw renders a write payload the way the service echoes it back:
// with a "type" key and plain_text on text runs.
func toRaw(t core.DeclaredType, value core.PropertyValue) (json.RawMessage, error) {
	b, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	m["type"] = t.String()
	if t == core.TypeTitle || t == core.TypeRichText {
		if runs, ok := m[t.String()].([]any); ok {
			for _, r := range runs {
				run, ok := r.(map[string]any)
				if !ok {
					continue
				}
				if text, ok := run["text"].(map[string]any); ok {
					run["plain_text"] = text["content"]
				}
			}
		}
	}
	return json.Marshal(m)
}

func cloneRecord(r core.Record) core.Record {
	props := make(map[string]json.RawMessage, len(r.Properties))
	for k, v := range r.Properties {
		props[k] = v
	}
	r.Properties = props
	return r
}

func (s *Source) Query(ctx context.Context, tableID string, q core.Query) (core.Page, error) {
	s.mu.Lock()
	s.queries++
	t, ok := s.tables[tableID]
	if !ok {
		s.mu.Unlock()
		return core.Page{}, fmt.Errorf("table %s: %w", tableID, core.ErrNotFound)
	}
	var matched []core.Record
	for _, id := range t.rows {
		rec := s.records[id]
		if rec.Archived || !matches(rec, q.Filter) {
			continue
		}
		matched = append(matched, rec)
	}
	size := cmp.Or(q.PageSize, s.PageSize, DefaultPageSize)
	s.mu.Unlock()

	sortRecords(matched, q.Sorts)

	start := 0
	if q.StartCursor != "" {
		n, err := strconv.Atoi(q.StartCursor)
		if err != nil || n < 0 || n > len(matched) {
			return core.Page{}, fmt.Errorf("invalid start_cursor %q: %w", q.StartCursor, core.ErrInvalidValue)
		}
		start = n
	}
	end := min(start+size, len(matched))
	page := core.Page{Records: matched[start:end]}
	if end < len(matched) {
		page.HasMore = true
		page.NextCursor = strconv.Itoa(end)
	}
	return page, nil
}

func matches(rec core.Record, f *core.Filter) bool {
	if f.Empty() {
		return true
	}
	for _, c := range f.And {
		raw := rec.Properties[c.Property]
		switch {
		case c.Contains != "":
			text, _ := property.Extract(raw, c.Type).(string)
			if !strings.Contains(strings.ToLower(text), strings.ToLower(c.Contains)) {
				return false
			}
		case c.Equals != "":
			if v, _ := property.Extract(raw, c.Type).(string); v != c.Equals {
				return false
			}
		case c.OnOrAfter != "" || c.OnOrBefore != "":
			start, _ := property.Extract(raw, core.TypeDate).(string)
			if start == "" {
				return false
			}
			day := start[:min(len(start), 10)]
			if c.OnOrAfter != "" && day < c.OnOrAfter {
				return false
			}
			if c.OnOrBefore != "" && day > c.OnOrBefore {
				return false
			}
		}
	}
	return true
}

func sortRecords(records []core.Record, sorts []core.Sort) {
	if len(sorts) == 0 {
		return
	}
	slices.SortStableFunc(records, func(a, b core.Record) int {
		for _, srt := range sorts {
			c := cmp.Compare(sortKey(a, srt), sortKey(b, srt))
			if srt.Descending {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return 0
	})
}

func sortKey(r core.Record, srt core.Sort) string {
	switch srt.Timestamp {
	case core.CreatedTime:
		return r.CreatedTime.Format(time.RFC3339Nano)
	case core.LastEditedTime:
		return r.LastEdited.Format(time.RFC3339Nano)
	}
	raw := r.Properties[srt.Property]
	t, ok := property.TypeOf(raw)
	if !ok {
		return ""
	}
	switch v := property.Extract(raw, t).(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%020.6f", v)
	}
	return ""
}

// Discover implements core.Discoverer.
func (s *Source) Discover(ctx context.Context, query string) ([]core.TableInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.TableInfo
	for _, t := range s.tables {
		if query != "" && !strings.Contains(strings.ToLower(t.title), strings.ToLower(query)) {
			continue
		}
		out = append(out, core.TableInfo{ID: t.id, Title: t.title})
	}
	slices.SortFunc(out, func(a, b core.TableInfo) int { return cmp.Compare(a.Title, b.Title) })
	return out, nil
}

var (
	_ core.RecordSource = (*Source)(nil)
	_ core.Discoverer   = (*Source)(nil)
)

// ComponentType implements introspection.Component.
func (s *Source) ComponentType() string { return "memory_source" }
