package brain

import (
	"context"

	"github.com/aretw0/ubrain/pkg/core"
)

// buildQuery translates list options into a source query. The free-text
// query applies to every entity with a mapped title; the remaining filters
// and the due-date ordering apply to tasks. Sessions list newest first.
func (s *Service) buildQuery(ctx context.Context, e core.EntityName, em core.EntityMapping, opts ListOptions) (core.Query, error) {
	q := core.Query{StartCursor: opts.StartCursor}
	cols := em.Columns
	var and []core.Condition

	if title := cols["title"]; opts.Query != "" && title != "" {
		and = append(and, core.Condition{Property: title, Type: core.TypeTitle, Contains: opts.Query})
	}

	switch e {
	case core.Tasks:
		for _, f := range []struct{ alias, value string }{{"status", opts.Status}, {"area", opts.Area}} {
			col := cols[f.alias]
			if f.value == "" || col == "" {
				continue
			}
			t, err := s.optionType(ctx, em.TableID, col)
			if err != nil {
				return core.Query{}, err
			}
			and = append(and, core.Condition{Property: col, Type: t, Equals: f.value})
		}
		if due := cols["due"]; due != "" {
			if opts.DueFrom != "" || opts.DueTo != "" {
				and = append(and, core.Condition{Property: due, Type: core.TypeDate, OnOrAfter: opts.DueFrom, OnOrBefore: opts.DueTo})
			}
			q.Sorts = append(q.Sorts, core.Sort{Property: due})
		}
	case core.Sessions:
		q.Sorts = append(q.Sorts, core.Sort{Timestamp: core.CreatedTime, Descending: true})
	}

	if len(and) > 0 {
		q.Filter = &core.Filter{And: and}
	}
	return q, nil
}

// optionType reports whether an option column is a select or a status
// column, defaulting to select when the column is not in the schema.
func (s *Service) optionType(ctx context.Context, tableID, column string) (core.DeclaredType, error) {
	schema, err := s.schemas.ColumnTypes(ctx, tableID)
	if err != nil {
		return 0, err
	}
	if schema[column] == core.TypeStatus {
		return core.TypeStatus, nil
	}
	return core.TypeSelect, nil
}
