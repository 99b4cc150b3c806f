package mapping

import (
	"github.com/aretw0/introspection"
)

// StoreState exposes provider resolution for observability.
type StoreState struct {
	Providers []string `json:"providers"`
	Primary   string   `json:"primary,omitempty"`
	LocalPath string   `json:"local_path,omitempty"`
	LastRead  string   `json:"last_read_from,omitempty"`
	LastError string   `json:"last_error,omitempty"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state := StoreState{
		LocalPath: s.LocalPath(),
		LastRead:  s.lastRead,
		LastError: s.lastErr,
	}
	for _, p := range s.providers {
		state.Providers = append(state.Providers, p.Name())
		if state.Primary == "" && p.Writable() {
			state.Primary = p.Name()
		}
	}
	return state
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "mapping_store"
}

var _ introspection.Introspectable = (*Store)(nil)
var _ introspection.Component = (*Store)(nil)
