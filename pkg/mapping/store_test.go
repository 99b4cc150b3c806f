package mapping_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/ubrain/pkg/core"
	"github.com/aretw0/ubrain/pkg/mapping"
)

// fakeProvider is a scripted in-memory provider.
type fakeProvider struct {
	name     string
	doc      *core.Mapping
	readErr  error
	writeErr error
	readOnly bool
	writes   int
}

func (f *fakeProvider) Name() string   { return f.name }
func (f *fakeProvider) Writable() bool { return !f.readOnly }

func (f *fakeProvider) TryRead(ctx context.Context) (*core.Mapping, bool, error) {
	if f.readErr != nil {
		return nil, false, f.readErr
	}
	return f.doc, f.doc != nil, nil
}

func (f *fakeProvider) TryWrite(ctx context.Context, m *core.Mapping) error {
	f.writes++
	if f.writeErr != nil {
		return f.writeErr
	}
	f.doc = m.Clone()
	return nil
}

func tasksMapping(table string) *core.Mapping {
	m := core.NewMapping()
	m.SetEntity(core.Tasks, core.EntityMapping{TableID: table, Columns: core.ColumnMap{"title": "Name"}})
	return m
}

func TestStore_ReadOrder(t *testing.T) {
	ctx := context.Background()
	remote := &fakeProvider{name: "remote", readErr: errors.New("connection refused")}
	file := &fakeProvider{name: "file", doc: tasksMapping("from-file")}
	store := mapping.NewStore(nil, remote, file, mapping.DefaultProvider{})

	m, err := store.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "from-file", m.Entity(core.Tasks).TableID)

	remote.readErr = nil
	remote.doc = tasksMapping("from-remote")
	m, err = store.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "from-remote", m.Entity(core.Tasks).TableID)

	state := store.State().(mapping.StoreState)
	assert.Equal(t, "remote", state.LastRead)
	assert.Equal(t, "remote", state.Primary)
	assert.Equal(t, []string{"remote", "file", "default"}, state.Providers)
}

func TestStore_FallsBackToDefault(t *testing.T) {
	store := mapping.NewStore(nil, &fakeProvider{name: "file"}, mapping.DefaultProvider{})

	m, err := store.Read(context.Background())
	require.NoError(t, err)
	for _, e := range core.AllEntities() {
		assert.Empty(t, m.Entity(e).TableID, e)
		assert.False(t, m.Entity(e).Usable(), e)
	}
	assert.Equal(t, "Name", m.Entity(core.Tasks).Columns["title"])
	assert.Equal(t, "Study Notes", mapping.DefaultColumn("study_notes"))
}

func TestStore_NotFound(t *testing.T) {
	store := mapping.NewStore(nil, &fakeProvider{name: "file"})
	_, err := store.Read(context.Background())
	assert.ErrorIs(t, err, core.ErrMappingNotFound)
}

func TestStore_WriteMirrors(t *testing.T) {
	ctx := context.Background()
	remote := &fakeProvider{name: "remote"}
	file := &fakeProvider{name: "file", writeErr: errors.New("read-only file system")}
	store := mapping.NewStore(nil, remote, file, mapping.DefaultProvider{})

	require.NoError(t, store.Write(ctx, tasksMapping("t1")), "mirror failures are not surfaced")
	assert.Equal(t, 1, remote.writes)
	assert.Equal(t, 1, file.writes)
	assert.Equal(t, "t1", remote.doc.Entity(core.Tasks).TableID)
}

func TestStore_WritePrimaryFailure(t *testing.T) {
	ctx := context.Background()

	remote := &fakeProvider{name: "remote", writeErr: errors.New("timeout")}
	file := &fakeProvider{name: "file"}
	store := mapping.NewStore(nil, remote, file)
	err := store.Write(ctx, tasksMapping("t1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "remote")
	assert.Equal(t, 0, file.writes, "no mirror after a failed primary write")

	onlyFile := &fakeProvider{name: "file", writeErr: errors.New("disk full")}
	err = mapping.NewStore(nil, onlyFile, mapping.DefaultProvider{}).Write(ctx, tasksMapping("t1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	err = mapping.NewStore(nil, mapping.DefaultProvider{}).Write(ctx, tasksMapping("t1"))
	assert.ErrorIs(t, err, core.ErrReadOnly)
}
