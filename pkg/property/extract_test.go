package property_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/ubrain/pkg/core"
	"github.com/aretw0/ubrain/pkg/property"
)

func TestExtract(t *testing.T) {
	cases := []struct {
		name string
		typ  core.DeclaredType
		raw  string
		want any
	}{
		{"title plain text", core.TypeTitle, `{"type":"title","title":[{"plain_text":"Pay "},{"plain_text":"rent"}]}`, "Pay rent"},
		{"title falls back to content", core.TypeTitle, `{"title":[{"text":{"content":"Draft"}}]}`, "Draft"},
		{"rich text", core.TypeRichText, `{"rich_text":[{"plain_text":"hello"}]}`, "hello"},
		{"select", core.TypeSelect, `{"type":"select","select":{"name":"Done"}}`, "Done"},
		{"select reads status", core.TypeSelect, `{"type":"status","status":{"name":"Doing"}}`, "Doing"},
		{"select null", core.TypeSelect, `{"select":null}`, nil},
		{"multi", core.TypeMultiSelect, `{"multi_select":[{"name":"a"},{"name":"b"}]}`, []string{"a", "b"}},
		{"multi missing", core.TypeMultiSelect, ``, []string{}},
		{"relation", core.TypeRelation, `{"relation":[{"id":"p1"},{"id":"p2"}]}`, []string{"p1", "p2"}},
		{"people", core.TypePeople, `{"people":[{"id":"u1","object":"user"}]}`, []string{"u1"}},
		{"number", core.TypeNumber, `{"number":42}`, 42.0},
		{"number null", core.TypeNumber, `{"number":null}`, nil},
		{"checkbox", core.TypeCheckbox, `{"checkbox":true}`, true},
		{"date", core.TypeDate, `{"date":{"start":"2024-01-05","end":null}}`, "2024-01-05"},
		{"date null", core.TypeDate, `{"date":null}`, nil},
		{"created time", core.TypeDate, `{"type":"created_time","created_time":"2024-02-01T10:00:00.000Z"}`, "2024-02-01T10:00:00.000Z"},
		{"url", core.TypeURL, `{"url":"https://example.com"}`, "https://example.com"},
		{"email null", core.TypeEmail, `{"email":null}`, nil},
		{"malformed", core.TypeURL, `not json`, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, property.Extract(json.RawMessage(tc.raw), tc.typ))
		})
	}
}

func TestTypeOf(t *testing.T) {
	typ, ok := property.TypeOf(json.RawMessage(`{"type":"status","status":null}`))
	assert.True(t, ok)
	assert.Equal(t, core.TypeStatus, typ)

	_, ok = property.TypeOf(json.RawMessage(`{"type":"formula"}`))
	assert.False(t, ok)
}
