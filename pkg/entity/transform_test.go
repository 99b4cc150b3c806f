package entity_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/ubrain/pkg/core"
	"github.com/aretw0/ubrain/pkg/entity"
)

func rawRecord(t *testing.T, id string, props map[string]string) core.Record {
	t.Helper()
	rec := core.Record{
		ID:         id,
		LastEdited: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Properties: map[string]json.RawMessage{},
	}
	for col, raw := range props {
		require.True(t, json.Valid([]byte(raw)), col)
		rec.Properties[col] = json.RawMessage(raw)
	}
	return rec
}

func TestTransform_Task(t *testing.T) {
	rec := rawRecord(t, "page-1", map[string]string{
		"Name":    `{"type":"title","title":[{"plain_text":"Pay rent"}]}`,
		"Status":  `{"type":"status","status":null}`,
		"Project": `{"type":"relation","relation":[{"id":"p1"},{"id":"p2"}]}`,
		"Due":     `{"type":"date","date":{"start":"2024-01-05","end":null}}`,
		"Tags":    `{"type":"multi_select","multi_select":[{"name":"home"}]}`,
		"Created": `{"type":"created_time","created_time":"2024-01-01T09:00:00.000Z"}`,
	})

	got := entity.Transform(core.Tasks, rec, taskColumns)
	require.NotNil(t, got)

	assert.Equal(t, "page-1", got.ID())
	assert.Equal(t, "Pay rent", got["title"])
	assert.Equal(t, entity.DefaultTaskStatus, got["status"])
	assert.Equal(t, entity.DefaultTaskPriority, got["priority"])
	assert.Equal(t, []string{"p1", "p2"}, got["project_ids"])
	assert.NotContains(t, got, "project")
	assert.Equal(t, "2024-01-05", got["due"])
	assert.Equal(t, []string{"home"}, got["tags"])
	assert.Equal(t, "2024-01-01T09:00:00.000Z", got["created"])
	assert.Nil(t, got["area"])
	assert.Equal(t, "2024-03-01T12:00:00Z", got["updated"])

	assert.Equal(t, []string{"project"}, entity.Relations(core.Tasks, got))
}

func TestTransform_UnknownEntity(t *testing.T) {
	assert.Nil(t, entity.Transform("unknown_entity", core.Record{ID: "x"}, core.ColumnMap{}))
}

func TestTransform_Defaults(t *testing.T) {
	empty := core.Record{ID: "r"}

	flash := entity.Transform(core.Flashcards, empty, core.ColumnMap{})
	assert.Equal(t, entity.DefaultFlashcardEase, flash["ease"])
	assert.Equal(t, 0.0, flash["interval"])
	assert.Equal(t, "", flash["front"])

	course := entity.Transform(core.Courses, empty, core.ColumnMap{})
	assert.Equal(t, entity.DefaultCourseStatus, course["status"])
	assert.Equal(t, 0.0, course["progress"])

	project := entity.Transform(core.Projects, empty, core.ColumnMap{})
	assert.Equal(t, entity.DefaultProjectStatus, project["status"])
	assert.NotContains(t, project, "updated")
}

func TestTransform_TypeDirected(t *testing.T) {
	cols := core.ColumnMap{"front": "Q", "back": "A"}
	rec := rawRecord(t, "f", map[string]string{
		"Q": `{"type":"title","title":[{"plain_text":"2+2"}]}`,
		"A": `{"type":"rich_text","rich_text":[{"plain_text":"4"}]}`,
	})
	got := entity.Transform(core.Flashcards, rec, cols)
	assert.Equal(t, "2+2", got["front"])
	assert.Equal(t, "4", got["back"])

	res := entity.Transform(core.Resources, rawRecord(t, "r", map[string]string{
		"Link":   `{"type":"rich_text","rich_text":[{"plain_text":"see notes"}]}`,
		"Course": `{"type":"relation","relation":[{"id":"c1"}]}`,
	}), core.ColumnMap{"link": "Link", "course": "Course"})
	assert.Equal(t, "see notes", res["link"])
	assert.Equal(t, []string{"c1"}, res["course_ids"])
}

// Transform followed by an update build reproduces the same property values.
func TestTransform_RoundTrip(t *testing.T) {
	input := map[string]any{
		"title":    "Pay rent",
		"status":   "Doing",
		"priority": "Alta",
		"due":      "2024-01-05",
		"tags":     []string{"home", "money"},
	}
	props, err := buildTask(t, input, core.ModeCreate)
	require.NoError(t, err)

	rec := core.Record{ID: "p", Properties: map[string]json.RawMessage{}}
	for col, v := range props {
		schemaType := taskSchemas["tasks-db"][col]
		m := map[string]any{"type": schemaType.String()}
		for k, val := range v {
			m[k] = val
		}
		raw, err := json.Marshal(m)
		require.NoError(t, err)
		rec.Properties[col] = raw
	}

	normalized := entity.Transform(core.Tasks, rec, taskColumns)
	for alias, want := range input {
		assert.Equal(t, want, normalized[alias], alias)
	}

	subset := map[string]any{}
	for alias := range input {
		subset[alias] = normalized[alias]
	}
	again, err := entity.Build(context.Background(), taskSchemas, core.Tasks, "tasks-db", taskColumns, subset, core.ModeUpdate)
	require.NoError(t, err)

	first, _ := json.Marshal(props)
	second, _ := json.Marshal(again)
	assert.JSONEq(t, string(first), string(second))
}
