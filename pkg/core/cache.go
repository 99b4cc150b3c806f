package core

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"golang.org/x/sync/singleflight"
)

// SchemaFetcher retrieves the declared column types of a table.
type SchemaFetcher interface {
	RetrieveSchema(ctx context.Context, tableID string) (Schema, error)
}

// SchemaCache memoizes table schemas for the lifetime of its owner.
// Entries are never evicted on their own; callers drop them with
// Invalidate or Flush. Concurrent misses for the same table share one fetch,
// which outlives the cancellation of any single caller.
type SchemaCache struct {
	fetcher SchemaFetcher
	mu      sync.RWMutex
	entries map[string]Schema
	// gen is bumped by Invalidate and Flush. A fetch that started under an
	// older generation returns its result but does not store it.
	gen    uint64
	group  singleflight.Group
	hits   uint64
	misses uint64
}

// NewSchemaCache creates an empty cache backed by fetcher.
func NewSchemaCache(fetcher SchemaFetcher) *SchemaCache {
	return &SchemaCache{
		fetcher: fetcher,
		entries: make(map[string]Schema),
	}
}

// ColumnTypes returns the schema of tableID, fetching it on first use.
// Fetch failures are returned wrapped in ErrSchemaLookup and are not cached.
func (c *SchemaCache) ColumnTypes(ctx context.Context, tableID string) (Schema, error) {
	c.mu.Lock()
	if s, ok := c.entries[tableID]; ok {
		c.hits++
		c.mu.Unlock()
		return s, nil
	}
	c.misses++
	gen := c.gen
	c.mu.Unlock()

	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(tableID, func() (any, error) {
		s, err := c.fetcher.RetrieveSchema(fetchCtx, tableID)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if c.gen == gen {
			c.entries[tableID] = s
		}
		c.mu.Unlock()
		return s, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: table %s: %w", ErrSchemaLookup, tableID, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("%w: table %s: %w", ErrSchemaLookup, tableID, res.Err)
		}
		return res.Val.(Schema), nil
	}
}

// Invalidate drops the cached schema of one table.
func (c *SchemaCache) Invalidate(tableID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	delete(c.entries, tableID)
	c.group.Forget(tableID)
}

// Flush drops every cached schema.
func (c *SchemaCache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	clear(c.entries)
}

// Len returns the number of cached tables.
func (c *SchemaCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Snapshot returns a copy of the cached entries.
func (c *SchemaCache) Snapshot() map[string]Schema {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.entries)
}
