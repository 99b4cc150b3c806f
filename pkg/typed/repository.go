// Package typed offers type-safe access to entity collections.
//
// Records are converted through JSON, so the json tags of T must use the
// entity aliases ("title", "due", "project_ids", …).
package typed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aretw0/ubrain/pkg/brain"
	"github.com/aretw0/ubrain/pkg/core"
	"github.com/aretw0/ubrain/pkg/entity"
)

// Backend is the subset of brain.Service a Collection needs.
type Backend interface {
	List(ctx context.Context, e core.EntityName, opts brain.ListOptions) ([]core.Normalized, error)
	Get(ctx context.Context, e core.EntityName, id string) (core.Normalized, error)
	Create(ctx context.Context, e core.EntityName, input map[string]any) (core.Normalized, error)
	Update(ctx context.Context, e core.EntityName, id string, input map[string]any) (core.Normalized, error)
	Archive(ctx context.Context, e core.EntityName, id string) error
}

// Record is a typed view of a normalized record.
type Record[T any] struct {
	ID    string
	Data  T
	Saver Saver[T] // Active Record reference
}

// Saver persists a record. Collections implement it.
type Saver[T any] interface {
	Save(ctx context.Context, rec *Record[T]) error
}

// Save persists the record using the attached saver.
func (r *Record[T]) Save(ctx context.Context) error {
	if r.Saver == nil {
		return fmt.Errorf("record is detached (missing Saver)")
	}
	return r.Saver.Save(ctx, r)
}

// Collection gives typed access to the records of one entity.
type Collection[T any] struct {
	backend Backend
	entity  core.EntityName
}

// NewCollection creates a typed collection of entity e.
func NewCollection[T any](backend Backend, e core.EntityName) *Collection[T] {
	return &Collection[T]{backend: backend, entity: e}
}

// Entity returns the entity the collection serves.
func (c *Collection[T]) Entity() core.EntityName { return c.entity }

// List returns the records matching opts.
func (c *Collection[T]) List(ctx context.Context, opts brain.ListOptions) ([]*Record[T], error) {
	rows, err := c.backend.List(ctx, c.entity, opts)
	if err != nil {
		return nil, err
	}

	result := make([]*Record[T], 0, len(rows))
	for _, row := range rows {
		rec, err := fromNormalized[T](row, c)
		if err != nil {
			return nil, fmt.Errorf("failed to process record %s: %w", row.ID(), err)
		}
		result = append(result, rec)
	}
	return result, nil
}

// Get retrieves a record by ID.
func (c *Collection[T]) Get(ctx context.Context, id string) (*Record[T], error) {
	row, err := c.backend.Get(ctx, c.entity, id)
	if err != nil {
		return nil, err
	}
	return fromNormalized[T](row, c)
}

// Create inserts data as a new record.
func (c *Collection[T]) Create(ctx context.Context, data T) (*Record[T], error) {
	rec := &Record[T]{Data: data}
	if err := c.Save(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Save creates the record when it has no ID and updates it otherwise.
// rec is refreshed with the stored values.
func (c *Collection[T]) Save(ctx context.Context, rec *Record[T]) error {
	input, err := c.toInput(rec.Data)
	if err != nil {
		return err
	}

	var row core.Normalized
	if rec.ID == "" {
		row, err = c.backend.Create(ctx, c.entity, input)
	} else {
		row, err = c.backend.Update(ctx, c.entity, rec.ID, input)
	}
	if err != nil {
		return err
	}

	stored, err := fromNormalized[T](row, c)
	if err != nil {
		return err
	}
	*rec = *stored
	return nil
}

// Archive soft-deletes a record by ID.
func (c *Collection[T]) Archive(ctx context.Context, id string) error {
	return c.backend.Archive(ctx, c.entity, id)
}

// toInput marshals data into a write payload. The record ID, timestamps
// and read-only fields are never sent.
func (c *Collection[T]) toInput(data T) (map[string]any, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal typed data: %w", err)
	}
	var input map[string]any
	if err := json.Unmarshal(b, &input); err != nil {
		return nil, fmt.Errorf("failed to convert typed data to map: %w", err)
	}

	delete(input, "id")
	delete(input, "updated")
	if spec, ok := entity.Lookup(c.entity); ok {
		for _, f := range spec.Fields {
			if f.ReadOnly {
				delete(input, f.Alias)
			}
		}
	}
	return input, nil
}

func fromNormalized[T any](row core.Normalized, saver Saver[T]) (*Record[T], error) {
	b, err := json.Marshal(row)
	if err != nil {
		return nil, fmt.Errorf("record marshal failed: %w", err)
	}

	var data T
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, fmt.Errorf("unmarshal to %T failed: %w", data, err)
	}

	return &Record[T]{
		ID:    row.ID(),
		Data:  data,
		Saver: saver,
	}, nil
}
