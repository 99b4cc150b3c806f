package core

import (
	"slices"

	"github.com/aretw0/introspection"
)

// SchemaCacheState exposes cache occupancy for observability.
type SchemaCacheState struct {
	Tables []string `json:"tables"`
	Hits   uint64   `json:"hits"`
	Misses uint64   `json:"misses"`
}

// State implements introspection.Introspectable.
func (c *SchemaCache) State() any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tables := make([]string, 0, len(c.entries))
	for id := range c.entries {
		tables = append(tables, id)
	}
	slices.Sort(tables)

	return SchemaCacheState{
		Tables: tables,
		Hits:   c.hits,
		Misses: c.misses,
	}
}

// ComponentType implements introspection.Component.
func (c *SchemaCache) ComponentType() string {
	return "schema_cache"
}

// TitleResolverState exposes the relation memo size.
type TitleResolverState struct {
	Memoized int `json:"memoized"`
}

// State implements introspection.Introspectable.
func (r *TitleResolver) State() any {
	return TitleResolverState{Memoized: r.Len()}
}

// ComponentType implements introspection.Component.
func (r *TitleResolver) ComponentType() string {
	return "title_resolver"
}

var _ introspection.Introspectable = (*SchemaCache)(nil)
var _ introspection.Component = (*SchemaCache)(nil)
var _ introspection.Introspectable = (*TitleResolver)(nil)
var _ introspection.Component = (*TitleResolver)(nil)
