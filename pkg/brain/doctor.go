package brain

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/aretw0/ubrain/pkg/core"
	"github.com/aretw0/ubrain/pkg/entity"
)

// TypeMismatch is a mapped column whose live type no field type accepts.
type TypeMismatch struct {
	Alias    string   `json:"alias"`
	Column   string   `json:"column"`
	Declared string   `json:"declared"`
	Accepts  []string `json:"accepts"`
}

// EntityReport is the health of one entity mapping.
type EntityReport struct {
	Entity         core.EntityName `json:"entity"`
	TableID        string          `json:"table_id,omitempty"`
	Configured     bool            `json:"configured"`
	Unmapped       []string        `json:"unmapped,omitempty"`
	MissingColumns []string        `json:"missing_columns,omitempty"`
	Mismatches     []TypeMismatch  `json:"mismatches,omitempty"`
	Error          string          `json:"error,omitempty"`
}

// Healthy reports whether a configured entity matches its live schema.
func (r EntityReport) Healthy() bool {
	return r.Configured && r.Error == "" && len(r.MissingColumns) == 0 && len(r.Mismatches) == 0
}

// Report is the result of Doctor.
type Report struct {
	Entities []EntityReport `json:"entities"`
}

// Healthy reports whether every configured entity is healthy.
func (r Report) Healthy() bool {
	for _, e := range r.Entities {
		if e.Configured && !e.Healthy() {
			return false
		}
	}
	return true
}

// Doctor compares the mapping of every entity whose path matches pattern
// (for example "tasks" or "studies/*") with the live schema of its table.
// An empty pattern selects every entity. Schemas are fetched fresh.
func (s *Service) Doctor(ctx context.Context, pattern string) (Report, error) {
	if pattern == "" {
		pattern = "**"
	}
	if !doublestar.ValidatePattern(pattern) {
		return Report{}, fmt.Errorf("%w: bad entity pattern %q", core.ErrInvalidValue, pattern)
	}
	m, err := s.store.Read(ctx)
	if err != nil && !errors.Is(err, core.ErrMappingNotFound) {
		return Report{}, fmt.Errorf("read mapping: %w", err)
	}

	var report Report
	for _, e := range core.AllEntities() {
		if ok, _ := doublestar.Match(pattern, e.Path()); !ok {
			continue
		}
		report.Entities = append(report.Entities, s.diagnose(ctx, e, m.Entity(e)))
	}
	return report, nil
}

func (s *Service) diagnose(ctx context.Context, e core.EntityName, em core.EntityMapping) EntityReport {
	r := EntityReport{Entity: e, TableID: em.TableID, Configured: em.Usable()}
	spec, _ := entity.Lookup(e)
	for _, f := range spec.Fields {
		if em.Columns[f.Alias] == "" {
			r.Unmapped = append(r.Unmapped, f.Alias)
		}
	}
	if !r.Configured {
		return r
	}

	tableID := core.NormalizeID(em.TableID)
	s.schemas.Invalidate(tableID)
	schema, err := s.schemas.ColumnTypes(ctx, tableID)
	if err != nil {
		r.Error = err.Error()
		return r
	}

	for _, f := range spec.Fields {
		col := em.Columns[f.Alias]
		if col == "" {
			continue
		}
		declared, ok := schema[col]
		switch {
		case !ok && f.ReadOnly:
		case !ok:
			r.MissingColumns = append(r.MissingColumns, col)
		case !slices.Contains(f.Accepts, declared):
			mm := TypeMismatch{Alias: f.Alias, Column: col, Declared: declared.String()}
			for _, t := range f.Accepts {
				mm.Accepts = append(mm.Accepts, t.String())
			}
			r.Mismatches = append(r.Mismatches, mm)
		}
	}
	return r
}
