package core_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/ubrain/pkg/core"
)

// MockSource implements core.RecordSource with scripted pages.
type MockSource struct {
	mu          sync.Mutex
	pages       []core.Page
	cursors     []string
	schemaCalls atomic.Int32
	schemaErr   error
	titles      map[string]string
	failing     map[string]bool
}

func (m *MockSource) Query(ctx context.Context, tableID string, q core.Query) (core.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cursors = append(m.cursors, q.StartCursor)
	if len(m.cursors) > len(m.pages) {
		return core.Page{}, errors.New("unexpected query")
	}
	return m.pages[len(m.cursors)-1], nil
}

func (m *MockSource) RetrieveSchema(ctx context.Context, tableID string) (core.Schema, error) {
	m.schemaCalls.Add(1)
	if m.schemaErr != nil {
		return nil, m.schemaErr
	}
	return core.Schema{"Name": core.TypeTitle, "Due": core.TypeDate}, nil
}

func (m *MockSource) RetrievePage(ctx context.Context, id string) (core.Record, error) {
	if m.failing[id] {
		return core.Record{}, fmt.Errorf("retrieve %s: boom", id)
	}
	title, ok := m.titles[id]
	if !ok {
		return core.Record{}, core.ErrNotFound
	}
	return titledRecord(id, title), nil
}

func (m *MockSource) Create(ctx context.Context, tableID string, props core.Properties) (core.Record, error) {
	return core.Record{}, core.ErrUnsupported
}

func (m *MockSource) Update(ctx context.Context, id string, props core.Properties) (core.Record, error) {
	return core.Record{}, core.ErrUnsupported
}

func (m *MockSource) Archive(ctx context.Context, id string) (core.Record, error) {
	return core.Record{}, core.ErrUnsupported
}

func titledRecord(id, title string) core.Record {
	raw, _ := json.Marshal(map[string]any{
		"type":  "title",
		"title": []map[string]any{{"plain_text": title}},
	})
	return core.Record{ID: id, Properties: map[string]json.RawMessage{"Name": raw}}
}

func TestQueryAll_FollowsCursors(t *testing.T) {
	src := &MockSource{pages: []core.Page{
		{Records: []core.Record{{ID: "1"}, {ID: "2"}}, HasMore: true, NextCursor: "c1"},
		{Records: []core.Record{{ID: "3"}}, HasMore: true, NextCursor: "c2"},
		{Records: []core.Record{{ID: "4"}}, HasMore: false},
	}}

	records, err := core.QueryAll(context.Background(), src, "db", core.Query{})
	require.NoError(t, err)

	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids)
	assert.Equal(t, []string{"", "c1", "c2"}, src.cursors)
}

func TestQueryAll_HonoursStartCursor(t *testing.T) {
	src := &MockSource{pages: []core.Page{
		{Records: []core.Record{{ID: "a"}}, HasMore: true, NextCursor: "next"},
		{Records: []core.Record{{ID: "b"}}},
	}}

	records, err := core.QueryAll(context.Background(), src, "db", core.Query{StartCursor: "start"})
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, []string{"start", "next"}, src.cursors)
}

func TestQueryAll_StopsOnEmptyCursor(t *testing.T) {
	src := &MockSource{pages: []core.Page{
		{Records: []core.Record{{ID: "a"}}, HasMore: true},
	}}

	records, err := core.QueryAll(context.Background(), src, "db", core.Query{})
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Len(t, src.cursors, 1)
}

func TestSchemaCache_FetchesOnce(t *testing.T) {
	src := &MockSource{}
	cache := core.NewSchemaCache(src)
	ctx := context.Background()

	first, err := cache.ColumnTypes(ctx, "db")
	require.NoError(t, err)
	second, err := cache.ColumnTypes(ctx, "db")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, src.schemaCalls.Load())
	assert.Equal(t, 1, cache.Len())

	cache.Invalidate("db")
	_, err = cache.ColumnTypes(ctx, "db")
	require.NoError(t, err)
	assert.EqualValues(t, 2, src.schemaCalls.Load())

	state := cache.State().(core.SchemaCacheState)
	assert.Equal(t, []string{"db"}, state.Tables)
	assert.EqualValues(t, 1, state.Hits)
}

func TestSchemaCache_ErrorsAreNotCached(t *testing.T) {
	src := &MockSource{schemaErr: errors.New("permission denied")}
	cache := core.NewSchemaCache(src)

	_, err := cache.ColumnTypes(context.Background(), "db")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrSchemaLookup)
	assert.Equal(t, 0, cache.Len())

	src.schemaErr = nil
	_, err = cache.ColumnTypes(context.Background(), "db")
	require.NoError(t, err)
	assert.EqualValues(t, 2, src.schemaCalls.Load())
}

// gatedFetcher blocks every schema fetch until release is closed or the
// fetch context is done.
type gatedFetcher struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
}

func newGatedFetcher() *gatedFetcher {
	return &gatedFetcher{started: make(chan struct{}, 8), release: make(chan struct{})}
}

func (f *gatedFetcher) RetrieveSchema(ctx context.Context, tableID string) (core.Schema, error) {
	f.calls.Add(1)
	f.started <- struct{}{}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-f.release:
		return core.Schema{"Name": core.TypeTitle}, nil
	}
}

func TestSchemaCache_CancelledCallerLeavesFlightRunning(t *testing.T) {
	f := newGatedFetcher()
	cache := core.NewSchemaCache(f)

	cancelled, cancel := context.WithCancel(context.Background())
	cancelledErr := make(chan error, 1)
	go func() {
		_, err := cache.ColumnTypes(cancelled, "db")
		cancelledErr <- err
	}()
	<-f.started

	type result struct {
		schema core.Schema
		err    error
	}
	healthy := make(chan result, 1)
	go func() {
		s, err := cache.ColumnTypes(context.Background(), "db")
		healthy <- result{s, err}
	}()
	require.Eventually(t, func() bool {
		return cache.State().(core.SchemaCacheState).Misses == 2
	}, time.Second, time.Millisecond)

	cancel()
	err := <-cancelledErr
	assert.ErrorIs(t, err, core.ErrSchemaLookup)
	assert.ErrorIs(t, err, context.Canceled)

	close(f.release)
	res := <-healthy
	require.NoError(t, res.err)
	assert.Equal(t, core.TypeTitle, res.schema["Name"])
	assert.EqualValues(t, 1, f.calls.Load())
	assert.Equal(t, 1, cache.Len())
}

func TestSchemaCache_FlushDuringFetchIsNotOverwritten(t *testing.T) {
	f := newGatedFetcher()
	cache := core.NewSchemaCache(f)

	done := make(chan error, 1)
	go func() {
		_, err := cache.ColumnTypes(context.Background(), "db")
		done <- err
	}()
	<-f.started

	cache.Flush()
	close(f.release)
	require.NoError(t, <-done, "the in-flight caller still gets its schema")
	assert.Equal(t, 0, cache.Len(), "a schema fetched before the flush must not be stored")

	_, err := cache.ColumnTypes(context.Background(), "db")
	require.NoError(t, err)
	assert.EqualValues(t, 2, f.calls.Load())
	assert.Equal(t, 1, cache.Len())
}

func TestSchemaCache_InvalidateDuringFetchIsNotOverwritten(t *testing.T) {
	f := newGatedFetcher()
	cache := core.NewSchemaCache(f)

	done := make(chan error, 1)
	go func() {
		_, err := cache.ColumnTypes(context.Background(), "db")
		done <- err
	}()
	<-f.started

	cache.Invalidate("db")
	close(f.release)
	require.NoError(t, <-done)
	assert.Equal(t, 0, cache.Len())
}

func TestTitleResolver_ToleratesFailures(t *testing.T) {
	src := &MockSource{
		titles:  map[string]string{"A": "Launch site"},
		failing: map[string]bool{"B": true},
	}
	r := core.NewTitleResolver(src, nil)

	got := r.Resolve(context.Background(), []string{"A", "B", "", "A"})
	assert.Equal(t, map[string]string{"A": "Launch site", "B": ""}, got)
	assert.Equal(t, 1, r.Len(), "failed lookups are not memoized")
}

func TestTitleResolver_Batches(t *testing.T) {
	titles := make(map[string]string)
	var ids []string
	for i := range 25 {
		id := fmt.Sprintf("id-%02d", i)
		titles[id] = "Title " + id
		ids = append(ids, id)
	}
	r := core.NewTitleResolver(&MockSource{titles: titles}, nil)

	got := r.Resolve(context.Background(), ids)
	require.Len(t, got, 25)
	assert.Equal(t, "Title id-07", got["id-07"])
	assert.Equal(t, 25, r.Len())
}

// slowPages records the peak number of concurrent RetrievePage calls.
type slowPages struct {
	inFlight atomic.Int32
	peak     atomic.Int32
	calls    atomic.Int32
}

func (s *slowPages) RetrievePage(ctx context.Context, id string) (core.Record, error) {
	s.calls.Add(1)
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(25 * time.Millisecond)
	return titledRecord(id, "Title "+id), nil
}

func TestTitleResolver_BoundedConcurrency(t *testing.T) {
	var ids []string
	for i := range 25 {
		ids = append(ids, fmt.Sprintf("id-%02d", i))
	}
	src := &slowPages{}
	r := core.NewTitleResolver(src, nil)

	got := r.Resolve(context.Background(), ids)
	require.Len(t, got, 25)
	assert.EqualValues(t, 25, src.calls.Load())
	assert.EqualValues(t, core.TitleBatchSize, src.peak.Load(), "each batch runs concurrently and batches run one after another")
}
