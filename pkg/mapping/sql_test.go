package mapping_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/ubrain/pkg/core"
	"github.com/aretw0/ubrain/pkg/mapping"
)

func TestParseKVURL(t *testing.T) {
	cases := []struct {
		url, driver, dsn string
	}{
		{"postgres://u:p@localhost/ub", "pgx", "postgres://u:p@localhost/ub"},
		{"postgresql://localhost/ub", "pgx", "postgresql://localhost/ub"},
		{"sqlite:///var/lib/ub.db", "sqlite", "/var/lib/ub.db"},
		{"sqlite:ub.db", "sqlite", "ub.db"},
		{"file:ub.db?cache=shared", "sqlite", "file:ub.db?cache=shared"},
	}
	for _, tc := range cases {
		driver, dsn, err := mapping.ParseKVURL(tc.url)
		require.NoError(t, err, tc.url)
		assert.Equal(t, tc.driver, driver, tc.url)
		assert.Equal(t, tc.dsn, dsn, tc.url)
	}

	_, _, err := mapping.ParseKVURL("redis://localhost:6379")
	assert.Error(t, err)
}

func TestSQLProvider_SQLite(t *testing.T) {
	ctx := context.Background()
	url := "sqlite://" + filepath.Join(t.TempDir(), "kv.db")

	p, err := mapping.OpenSQL(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	assert.Equal(t, "kv:sqlite", p.Name())

	_, found, err := p.TryRead(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, p.TryWrite(ctx, tasksMapping("first")))
	require.NoError(t, p.TryWrite(ctx, tasksMapping("second")), "writes replace the whole document")

	m, found, err := p.TryRead(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "second", m.Entity(core.Tasks).TableID)

	// Reopening sees the persisted row.
	again, err := mapping.OpenSQL(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = again.Close() })
	m, found, err = again.TryRead(ctx)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "second", m.Entity(core.Tasks).TableID)
}

func TestStore_RemoteThenFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	remote, err := mapping.OpenSQL(ctx, "sqlite://"+filepath.Join(dir, "kv.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = remote.Close() })
	file := mapping.NewFileProvider(mapping.FileOptions{Path: filepath.Join(dir, "mapping.json")})

	store := mapping.NewStore(nil, remote, file, mapping.DefaultProvider{})
	require.NoError(t, store.Write(ctx, tasksMapping("shared")))

	mirrored, found, err := file.TryRead(ctx)
	require.NoError(t, err)
	require.True(t, found, "file mirror written")
	assert.Equal(t, "shared", mirrored.Entity(core.Tasks).TableID)
	assert.Equal(t, file.Path(), store.LocalPath())
}
