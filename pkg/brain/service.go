// Package brain is the CRUD façade over the mapped workspace.
//
// A Service resolves an entity to its table and column mapping, builds
// write payloads against the live schema, and normalizes records on the
// way out. Authentication and rate limiting belong to the caller.
package brain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/ubrain/pkg/core"
	"github.com/aretw0/ubrain/pkg/mapping"
)

// MappingStore loads and persists the mapping document.
type MappingStore interface {
	Read(ctx context.Context) (*core.Mapping, error)
	Write(ctx context.Context, m *core.Mapping) error
}

// Service orchestrates the mapping store, the schema cache, the property
// builder and the record transformer.
type Service struct {
	source  core.RecordSource
	store   MappingStore
	schemas *core.SchemaCache
	titles  *core.TitleResolver
	logger  *slog.Logger
	offline bool
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithSchemaCache shares a schema cache between services.
func WithSchemaCache(c *core.SchemaCache) Option {
	return func(s *Service) { s.schemas = c }
}

// WithTitleResolver shares a relation title memo between services.
func WithTitleResolver(r *core.TitleResolver) Option {
	return func(s *Service) { s.titles = r }
}

// WithOffline puts study collections in offline mode: reads return empty
// collections and writes fail with ErrOffline.
func WithOffline(offline bool) Option {
	return func(s *Service) { s.offline = offline }
}

// ErrOffline is returned by study writes while offline mode is on.
var ErrOffline = errors.New("offline mode")

// New creates a Service reading records from source and the mapping from store.
func New(source core.RecordSource, store MappingStore, opts ...Option) *Service {
	s := &Service{source: source, store: store}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	if s.schemas == nil {
		s.schemas = core.NewSchemaCache(source)
	}
	if s.titles == nil {
		s.titles = core.NewTitleResolver(source, s.logger)
	}
	return s
}

// Offline reports whether offline mode is on.
func (s *Service) Offline() bool { return s.offline }

// Schemas returns the schema cache.
func (s *Service) Schemas() *core.SchemaCache { return s.schemas }

// resolve returns the usable mapping of e. An entity without a table or
// without columns yields ErrNotConfigured.
func (s *Service) resolve(ctx context.Context, e core.EntityName) (core.EntityMapping, error) {
	if !e.Known() {
		return core.EntityMapping{}, fmt.Errorf("%w: %q", core.ErrUnknownEntity, e)
	}
	m, err := s.store.Read(ctx)
	if err != nil {
		return core.EntityMapping{}, fmt.Errorf("read mapping: %w", err)
	}
	em := m.Entity(e)
	if !em.Usable() {
		return core.EntityMapping{}, fmt.Errorf("%w: %s", core.ErrNotConfigured, e.Path())
	}
	em.TableID = core.NormalizeID(em.TableID)
	return em, nil
}

// Mapping returns the current mapping document. When no provider holds one,
// the built-in default is returned.
func (s *Service) Mapping(ctx context.Context) (*core.Mapping, error) {
	m, err := s.store.Read(ctx)
	if errors.Is(err, core.ErrMappingNotFound) {
		return mapping.Default(), nil
	}
	return m, err
}

// SaveMapping replaces the mapping document. Cached schemas are dropped
// because table IDs may have moved.
func (s *Service) SaveMapping(ctx context.Context, m *core.Mapping) error {
	if m == nil {
		return fmt.Errorf("%w: empty mapping document", core.ErrInvalidValue)
	}
	if err := s.store.Write(ctx, m); err != nil {
		return fmt.Errorf("save mapping: %w", err)
	}
	s.schemas.Flush()
	s.logger.Info("mapping saved", "configured", len(m.Configured()))
	return nil
}

// Schema returns the live column types of the table mapped to e.
func (s *Service) Schema(ctx context.Context, e core.EntityName) (core.Schema, error) {
	em, err := s.resolve(ctx, e)
	if err != nil {
		return nil, err
	}
	return s.schemas.ColumnTypes(ctx, em.TableID)
}

// InvalidateSchemas drops cached schemas. With no arguments every entry
// is dropped; otherwise only the tables mapped to the given entities.
func (s *Service) InvalidateSchemas(ctx context.Context, entities ...core.EntityName) error {
	if len(entities) == 0 {
		s.schemas.Flush()
		return nil
	}
	m, err := s.store.Read(ctx)
	if err != nil {
		return fmt.Errorf("read mapping: %w", err)
	}
	for _, e := range entities {
		if id := m.Entity(e).TableID; id != "" {
			s.schemas.Invalidate(core.NormalizeID(id))
		}
	}
	return nil
}

// Discover lists the tables visible to the source's credentials.
func (s *Service) Discover(ctx context.Context, query string) ([]core.TableInfo, error) {
	d, ok := s.source.(core.Discoverer)
	if !ok {
		return nil, fmt.Errorf("discover: %w", core.ErrUnsupported)
	}
	return d.Discover(ctx, query)
}

// WatchMapping flushes the schema cache whenever the local mapping file
// changes. It returns immediately; watching stops when ctx is done.
func (s *Service) WatchMapping(ctx context.Context) error {
	lp, ok := s.store.(interface{ LocalPath() string })
	if !ok || lp.LocalPath() == "" {
		return fmt.Errorf("watch mapping: %w: no local mapping file", core.ErrUnsupported)
	}
	path := lp.LocalPath()
	return mapping.Watch(ctx, path, func() {
		s.logger.Info("mapping file changed, flushing schema cache", "path", path)
		s.schemas.Flush()
	}, s.logger)
}
