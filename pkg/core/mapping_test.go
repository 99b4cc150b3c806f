package core_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/ubrain/pkg/core"
)

const sampleMapping = `{
  "db": {"tasks": "tbl-tasks", "bogus": "x", "studies": {"courses": "tbl-courses"}},
  "props": {
    "tasks": {"title": "Name", "due": "Due"},
    "studies": {"courses": {"title": "Course"}}
  }
}`

func TestMapping_JSONNestsStudies(t *testing.T) {
	var m core.Mapping
	require.NoError(t, json.Unmarshal([]byte(sampleMapping), &m))

	tasks := m.Entity(core.Tasks)
	assert.Equal(t, "tbl-tasks", tasks.TableID)
	assert.Equal(t, "Due", tasks.Columns["due"])
	assert.True(t, tasks.Usable())

	courses := m.Entity(core.Courses)
	assert.Equal(t, "tbl-courses", courses.TableID)
	assert.Equal(t, "Course", courses.Columns["title"])

	assert.False(t, m.Entity(core.Notes).Usable())
	assert.NotContains(t, m.DB, core.EntityName("bogus"))

	out, err := json.Marshal(m)
	require.NoError(t, err)

	var generic map[string]map[string]any
	require.NoError(t, json.Unmarshal(out, &generic))
	studies, ok := generic["db"]["studies"].(map[string]any)
	require.True(t, ok, "study tables must be nested under studies")
	assert.Equal(t, "tbl-courses", studies["courses"])
	assert.NotContains(t, generic["db"], "courses")
}

func TestMapping_YAMLRoundTrip(t *testing.T) {
	var m core.Mapping
	require.NoError(t, json.Unmarshal([]byte(sampleMapping), &m))

	out, err := yaml.Marshal(m)
	require.NoError(t, err)
	assert.Contains(t, string(out), "studies:")

	var back core.Mapping
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.Equal(t, m.Entity(core.Courses), back.Entity(core.Courses))
	assert.Equal(t, m.Entity(core.Tasks), back.Entity(core.Tasks))
}

func TestMapping_CloneIsDeep(t *testing.T) {
	m := core.NewMapping()
	m.SetEntity(core.Tasks, core.EntityMapping{TableID: "t", Columns: core.ColumnMap{"title": "Name"}})

	c := m.Clone()
	c.Props[core.Tasks]["title"] = "Changed"

	assert.Equal(t, "Name", m.Entity(core.Tasks).Columns["title"])
	assert.Equal(t, []core.EntityName{core.Tasks}, m.Configured())
}

func TestDeclaredType_Text(t *testing.T) {
	for i := core.DeclaredType(0); i < core.NumDeclaredTypes; i++ {
		parsed, err := core.ParseDeclaredType(i.String())
		require.NoError(t, err)
		assert.Equal(t, i, parsed)
	}

	_, err := core.ParseDeclaredType("formula")
	assert.ErrorIs(t, err, core.ErrUnsupportedType)

	var s core.Schema
	require.NoError(t, json.Unmarshal([]byte(`{"Due":"date","Tags":"multi_select"}`), &s))
	assert.Equal(t, core.TypeMultiSelect, s["Tags"])
}

func TestParseEntity(t *testing.T) {
	e, err := core.ParseEntity("study_notes")
	require.NoError(t, err)
	assert.True(t, e.IsStudy())
	assert.Equal(t, "studies/study_notes", e.Path())

	_, err = core.ParseEntity("sprints")
	assert.ErrorIs(t, err, core.ErrUnknownEntity)

	e, err = core.ParseEntity("studies/courses")
	require.NoError(t, err)
	assert.Equal(t, core.Courses, e)

	_, err = core.ParseEntity("studies/tasks")
	assert.ErrorIs(t, err, core.ErrUnknownEntity)
}

func TestValidationError_Messages(t *testing.T) {
	assert.Equal(t, "missing required field: title", core.Missing("title").Error())
	assert.Equal(t, "tags must be an array of strings", core.Invalid("tags", "an array of strings").Error())
	assert.ErrorIs(t, core.Unsupported("due", "formula"), core.ErrUnsupportedType)
	assert.True(t, core.IsValidation(core.Missing("x")))
}
