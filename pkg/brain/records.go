package brain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/aretw0/ubrain/pkg/core"
	"github.com/aretw0/ubrain/pkg/entity"
)

// ListOptions narrows a list call.
type ListOptions struct {
	// Query is matched with "contains" against the title column.
	Query string
	// Status, Area, DueFrom and DueTo apply to tasks only.
	Status  string
	Area    string
	DueFrom string
	DueTo   string
	// Expand resolves relation IDs into comma-joined titles.
	Expand bool
	// StartCursor resumes a previous scan.
	StartCursor string
}

// List returns every record of e matching opts. An entity that is not
// configured yields an empty list.
func (s *Service) List(ctx context.Context, e core.EntityName, opts ListOptions) ([]core.Normalized, error) {
	em, err := s.resolve(ctx, e)
	if errors.Is(err, core.ErrNotConfigured) {
		return []core.Normalized{}, nil
	}
	if err != nil {
		return nil, err
	}

	q, err := s.buildQuery(ctx, e, em, opts)
	if err != nil {
		return nil, err
	}
	records, err := core.QueryAll(ctx, s.source, em.TableID, q)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", e, err)
	}

	rows := make([]core.Normalized, 0, len(records))
	for _, rec := range records {
		if n := entity.Transform(e, rec, em.Columns); n != nil {
			rows = append(rows, n)
		}
	}
	if opts.Expand {
		s.expand(ctx, e, rows)
	}
	s.logger.Debug("listed records", "entity", e, "table_id", em.TableID, "count", len(rows))
	return rows, nil
}

// expand adds, for each relation alias, the comma-joined titles of its
// targets. Targets that cannot be fetched are left out.
func (s *Service) expand(ctx context.Context, e core.EntityName, rows []core.Normalized) {
	if len(rows) == 0 {
		return
	}
	aliases := entity.Relations(e, rows[0])
	if len(aliases) == 0 {
		return
	}

	var ids []string
	for _, row := range rows {
		for _, alias := range aliases {
			ids = append(ids, relationIDs(row, alias)...)
		}
	}
	titles := s.titles.Resolve(ctx, ids)

	for _, row := range rows {
		for _, alias := range aliases {
			var names []string
			for _, id := range relationIDs(row, alias) {
				if t := titles[id]; t != "" {
					names = append(names, t)
				}
			}
			row[alias] = strings.Join(names, ", ")
		}
	}
}

func relationIDs(row core.Normalized, alias string) []string {
	ids, _ := row[alias+"_ids"].([]string)
	return ids
}

// Get returns one record of e by ID.
func (s *Service) Get(ctx context.Context, e core.EntityName, id string) (core.Normalized, error) {
	em, err := s.resolve(ctx, e)
	if err != nil {
		return nil, err
	}
	rec, err := s.source.RetrievePage(ctx, core.NormalizeID(id))
	if err != nil {
		return nil, fmt.Errorf("get %s %s: %w", e, id, err)
	}
	return entity.Transform(e, rec, em.Columns), nil
}

// Create builds and stores a new record of e from input.
func (s *Service) Create(ctx context.Context, e core.EntityName, input map[string]any) (core.Normalized, error) {
	if err := s.writable(e); err != nil {
		return nil, err
	}
	em, err := s.resolve(ctx, e)
	if err != nil {
		return nil, err
	}
	props, err := entity.Build(ctx, s.schemas, e, em.TableID, em.Columns, input, core.ModeCreate)
	if err != nil {
		return nil, err
	}
	rec, err := s.source.Create(ctx, em.TableID, props)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", e, err)
	}
	s.logger.Info("record created", "entity", e, "id", rec.ID)
	return entity.Transform(e, rec, em.Columns), nil
}

// Update patches the aliases present in input on record id of e.
// An input that touches no mapped column fails with ErrNothingToWrite.
func (s *Service) Update(ctx context.Context, e core.EntityName, id string, input map[string]any) (core.Normalized, error) {
	if err := s.writable(e); err != nil {
		return nil, err
	}
	if strings.TrimSpace(id) == "" {
		return nil, core.Missing("id")
	}
	em, err := s.resolve(ctx, e)
	if err != nil {
		return nil, err
	}
	props, err := entity.Build(ctx, s.schemas, e, em.TableID, em.Columns, input, core.ModeUpdate)
	if err != nil {
		return nil, err
	}
	if len(props) == 0 {
		return nil, fmt.Errorf("update %s %s: %w", e, id, core.ErrNothingToWrite)
	}
	rec, err := s.source.Update(ctx, core.NormalizeID(id), props)
	if err != nil {
		return nil, fmt.Errorf("update %s %s: %w", e, id, err)
	}
	s.logger.Info("record updated", "entity", e, "id", rec.ID, "columns", len(props))
	return entity.Transform(e, rec, em.Columns), nil
}

// Archive soft-deletes record id. The record's table is not checked
// against the mapping of e.
func (s *Service) Archive(ctx context.Context, e core.EntityName, id string) error {
	if err := s.writable(e); err != nil {
		return err
	}
	if !e.Known() {
		return fmt.Errorf("%w: %q", core.ErrUnknownEntity, e)
	}
	if strings.TrimSpace(id) == "" {
		return core.Missing("id")
	}
	if _, err := s.source.Archive(ctx, core.NormalizeID(id)); err != nil {
		return fmt.Errorf("archive %s %s: %w", e, id, err)
	}
	s.logger.Info("record archived", "entity", e, "id", id)
	return nil
}

func (s *Service) writable(e core.EntityName) error {
	if s.offline && e.IsStudy() {
		return ErrOffline
	}
	return nil
}

// Studies holds the records of every study collection.
type Studies map[core.EntityName][]core.Normalized

// ListStudies lists every study collection concurrently. Collections that
// are not configured, and every collection in offline mode, are empty.
func (s *Service) ListStudies(ctx context.Context, opts ListOptions) (Studies, error) {
	out := make(Studies, len(core.StudyCollections))
	for _, e := range core.StudyCollections {
		out[e] = []core.Normalized{}
	}
	if s.offline {
		return out, nil
	}

	results := make([][]core.Normalized, len(core.StudyCollections))
	g, gctx := errgroup.WithContext(ctx)
	for i, e := range core.StudyCollections {
		g.Go(func() error {
			rows, err := s.List(gctx, e, ListOptions{Query: opts.Query, Expand: opts.Expand})
			if err != nil {
				return err
			}
			results[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for i, e := range core.StudyCollections {
		out[e] = results[i]
	}
	return out, nil
}
