// Package mapping persists the entity mapping document.
//
// A Store composes an ordered list of providers. Reads return the first
// document found; writes go to the first writable provider and are then
// mirrored, best effort, to the remaining writable ones.
package mapping

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/ubrain/pkg/core"
)

// Provider is one backend of the mapping document.
type Provider interface {
	// Name identifies the provider in logs and state.
	Name() string
	// TryRead returns the stored document. found is false when the backend
	// is reachable but holds no document.
	TryRead(ctx context.Context) (m *core.Mapping, found bool, err error)
	// TryWrite replaces the stored document.
	TryWrite(ctx context.Context, m *core.Mapping) error
	// Writable reports whether TryWrite can succeed at all.
	Writable() bool
}

// Store resolves the mapping document through its providers.
type Store struct {
	providers []Provider
	logger    *slog.Logger

	mu       sync.RWMutex
	lastRead string
	lastErr  string
}

// NewStore creates a store reading providers in the given order.
func NewStore(logger *slog.Logger, providers ...Provider) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{providers: providers, logger: logger}
}

// Read returns the first document found. Provider failures are logged and
// the next provider is tried. ErrMappingNotFound is returned when no
// provider holds a document.
func (s *Store) Read(ctx context.Context) (*core.Mapping, error) {
	for _, p := range s.providers {
		m, found, err := p.TryRead(ctx)
		if err != nil {
			s.logger.Warn("mapping provider read failed", "provider", p.Name(), "error", err)
			s.setLast("", err)
			continue
		}
		if !found {
			continue
		}
		s.setLast(p.Name(), nil)
		return m, nil
	}
	return nil, core.ErrMappingNotFound
}

// Write replaces the document in the primary provider and mirrors it to the
// other writable providers. Only primary failures are returned.
func (s *Store) Write(ctx context.Context, m *core.Mapping) error {
	var primary Provider
	var mirrors []Provider
	for _, p := range s.providers {
		if !p.Writable() {
			continue
		}
		if primary == nil {
			primary = p
			continue
		}
		mirrors = append(mirrors, p)
	}
	if primary == nil {
		return fmt.Errorf("write mapping: %w", core.ErrReadOnly)
	}

	if err := primary.TryWrite(ctx, m); err != nil {
		s.setLast("", err)
		return fmt.Errorf("write mapping to %s: %w", primary.Name(), err)
	}
	s.logger.Info("mapping saved", "provider", primary.Name())

	for _, p := range mirrors {
		if err := p.TryWrite(ctx, m); err != nil {
			s.logger.Warn("mapping mirror failed", "provider", p.Name(), "error", err)
		}
	}
	return nil
}

// Providers returns the providers in resolution order.
func (s *Store) Providers() []Provider {
	return s.providers
}

// LocalPath returns the path of the first file provider, if any.
func (s *Store) LocalPath() string {
	for _, p := range s.providers {
		if fp, ok := p.(*FileProvider); ok {
			return fp.Path()
		}
	}
	return ""
}

func (s *Store) setLast(source string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if source != "" {
		s.lastRead = source
	}
	if err != nil {
		s.lastErr = err.Error()
	} else {
		s.lastErr = ""
	}
}
