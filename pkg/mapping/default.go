package mapping

import (
	"context"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/aretw0/ubrain/pkg/core"
	"github.com/aretw0/ubrain/pkg/entity"
)

// DefaultProvider serves the built-in mapping: every entity is unconfigured
// and every alias points at a conventionally named column.
type DefaultProvider struct{}

func (DefaultProvider) Name() string { return "default" }

func (DefaultProvider) Writable() bool { return false }

func (DefaultProvider) TryRead(ctx context.Context) (*core.Mapping, bool, error) {
	return Default(), true, nil
}

func (DefaultProvider) TryWrite(ctx context.Context, m *core.Mapping) error {
	return core.ErrReadOnly
}

// Default builds the built-in mapping.
func Default() *core.Mapping {
	m := core.NewMapping()
	for _, e := range core.AllEntities() {
		cols := core.ColumnMap{}
		for _, alias := range entity.Aliases(e) {
			cols[alias] = DefaultColumn(alias)
		}
		m.SetEntity(e, core.EntityMapping{Columns: cols})
	}
	return m
}

// DefaultColumn is the conventional column name of an alias:
// "Name" for titles, otherwise the alias in title case.
func DefaultColumn(alias string) string {
	if alias == "title" {
		return "Name"
	}
	return cases.Title(language.Und).String(strings.ReplaceAll(alias, "_", " "))
}
