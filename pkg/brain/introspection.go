package brain

import (
	"github.com/aretw0/introspection"
)

// ServiceState exposes internal state for observability.
type ServiceState struct {
	SourceType string `json:"source_type"`
	Offline    bool   `json:"offline"`
	Schemas    any    `json:"schemas"`
	Titles     any    `json:"titles"`
	Mapping    any    `json:"mapping,omitempty"`
}

// State implements introspection.Introspectable.
func (s *Service) State() any {
	sourceType := "unknown"
	if s.source != nil {
		sourceType = "record_source"
		if comp, ok := s.source.(introspection.Component); ok {
			sourceType = comp.ComponentType()
		}
	}

	state := ServiceState{
		SourceType: sourceType,
		Offline:    s.offline,
		Schemas:    s.schemas.State(),
		Titles:     s.titles.State(),
	}
	if intro, ok := s.store.(introspection.Introspectable); ok {
		state.Mapping = intro.State()
	}
	return state
}

// ComponentType implements introspection.Component.
func (s *Service) ComponentType() string {
	return "brain_service"
}

var _ introspection.Introspectable = (*Service)(nil)
var _ introspection.Component = (*Service)(nil)
