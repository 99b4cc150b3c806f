package core

import (
	"encoding/json"
	"fmt"
	"maps"

	"gopkg.in/yaml.v3"
)

const studiesKey = "studies"

// ColumnMap maps aliases to external column names.
type ColumnMap map[string]string

// Section holds one value per entity. It is stored flat in memory and
// serialized with study collections nested under "studies".
type Section[T any] map[EntityName]T

func (s Section[T]) nested() map[string]any {
	out := make(map[string]any, len(s)+1)
	studies := make(map[string]T)
	for e, v := range s {
		if e.IsStudy() {
			studies[string(e)] = v
			continue
		}
		out[string(e)] = v
	}
	if len(studies) > 0 {
		out[studiesKey] = studies
	}
	return out
}

func (s Section[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.nested())
}

func (s *Section[T]) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make(Section[T], len(raw))
	for key, msg := range raw {
		if key == studiesKey {
			var studies map[string]T
			if err := json.Unmarshal(msg, &studies); err != nil {
				return fmt.Errorf("studies: %w", err)
			}
			for name, v := range studies {
				if e := EntityName(name); e.IsStudy() {
					out[e] = v
				}
			}
			continue
		}
		e := EntityName(key)
		if !e.Known() || e.IsStudy() {
			continue
		}
		var v T
		if err := json.Unmarshal(msg, &v); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		out[e] = v
	}
	*s = out
	return nil
}

func (s Section[T]) MarshalYAML() (any, error) {
	return s.nested(), nil
}

func (s *Section[T]) UnmarshalYAML(node *yaml.Node) error {
	var raw map[string]yaml.Node
	if err := node.Decode(&raw); err != nil {
		return err
	}
	out := make(Section[T], len(raw))
	for key, n := range raw {
		if key == studiesKey {
			var studies map[string]T
			if err := n.Decode(&studies); err != nil {
				return fmt.Errorf("studies: %w", err)
			}
			for name, v := range studies {
				if e := EntityName(name); e.IsStudy() {
					out[e] = v
				}
			}
			continue
		}
		e := EntityName(key)
		if !e.Known() || e.IsStudy() {
			continue
		}
		var v T
		if err := n.Decode(&v); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		out[e] = v
	}
	*s = out
	return nil
}

// Mapping binds entities to external table IDs and aliases to column names.
// It is always persisted as a whole document.
type Mapping struct {
	DB    Section[string]    `json:"db" yaml:"db"`
	Props Section[ColumnMap] `json:"props" yaml:"props"`
}

// NewMapping returns an empty mapping.
func NewMapping() *Mapping {
	return &Mapping{DB: Section[string]{}, Props: Section[ColumnMap]{}}
}

// EntityMapping is the configuration of a single entity.
type EntityMapping struct {
	TableID string    `json:"table_id"`
	Columns ColumnMap `json:"columns"`
}

// Usable reports whether the entity has both a table and at least one column.
func (em EntityMapping) Usable() bool {
	return em.TableID != "" && len(em.Columns) > 0
}

// Entity returns the configuration of e. A nil mapping yields an unusable entry.
func (m *Mapping) Entity(e EntityName) EntityMapping {
	if m == nil {
		return EntityMapping{}
	}
	return EntityMapping{TableID: m.DB[e], Columns: m.Props[e]}
}

// SetEntity replaces the configuration of e.
func (m *Mapping) SetEntity(e EntityName, em EntityMapping) {
	if m.DB == nil {
		m.DB = Section[string]{}
	}
	if m.Props == nil {
		m.Props = Section[ColumnMap]{}
	}
	m.DB[e] = em.TableID
	m.Props[e] = maps.Clone(em.Columns)
}

// Clone returns a deep copy of m.
func (m *Mapping) Clone() *Mapping {
	if m == nil {
		return nil
	}
	out := NewMapping()
	maps.Copy(out.DB, m.DB)
	for e, cols := range m.Props {
		out.Props[e] = maps.Clone(cols)
	}
	return out
}

// Configured lists the entities that are usable in m.
func (m *Mapping) Configured() []EntityName {
	var out []EntityName
	for _, e := range AllEntities() {
		if m.Entity(e).Usable() {
			out = append(out, e)
		}
	}
	return out
}
