// Package core holds the domain types of ubrain: entities, declared column
// types, raw and normalized records, and the contracts adapters implement.
package core

import (
	"encoding/json"
	"fmt"
	"time"
)

// DeclaredType is the type tag an external table assigns to a column.
// It governs which payload shape a property write must take.
type DeclaredType uint8

const (
	TypeTitle DeclaredType = iota
	TypeRichText
	TypeSelect
	TypeStatus
	TypeMultiSelect
	TypeRelation
	TypePeople
	TypeNumber
	TypeCheckbox
	TypeDate
	TypeURL
	TypeEmail
	TypePhoneNumber

	// NumDeclaredTypes is the number of supported declared types.
	// Tables indexed by DeclaredType must have exactly this length.
	NumDeclaredTypes
)

var declaredTypeNames = [...]string{
	TypeTitle:       "title",
	TypeRichText:    "rich_text",
	TypeSelect:      "select",
	TypeStatus:      "status",
	TypeMultiSelect: "multi_select",
	TypeRelation:    "relation",
	TypePeople:      "people",
	TypeNumber:      "number",
	TypeCheckbox:    "checkbox",
	TypeDate:        "date",
	TypeURL:         "url",
	TypeEmail:       "email",
	TypePhoneNumber: "phone_number",
}

// Fails to compile when a declared type is added without a name.
var _ = [1]struct{}{}[len(declaredTypeNames)-int(NumDeclaredTypes)]

// String returns the wire name of the type.
func (t DeclaredType) String() string {
	if t < NumDeclaredTypes {
		return declaredTypeNames[t]
	}
	return fmt.Sprintf("declared_type(%d)", uint8(t))
}

// Valid reports whether t is one of the supported declared types.
func (t DeclaredType) Valid() bool {
	return t < NumDeclaredTypes
}

// ParseDeclaredType maps a wire name to its DeclaredType.
func ParseDeclaredType(s string) (DeclaredType, error) {
	for i, name := range declaredTypeNames {
		if name == s {
			return DeclaredType(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedType, s)
}

func (t DeclaredType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedType, uint8(t))
	}
	return []byte(t.String()), nil
}

func (t *DeclaredType) UnmarshalText(b []byte) error {
	parsed, err := ParseDeclaredType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Schema maps column names to their declared types for one table.
// Columns whose type is not a DeclaredType are omitted.
type Schema map[string]DeclaredType

// PropertyValue is one typed property-write payload, e.g.
// {"select": {"name": "Done"}} or {"number": nil}.
type PropertyValue map[string]any

// Properties is a write payload keyed by column name.
type Properties map[string]PropertyValue

// TextRun is a single rich-text run of a title or rich_text property.
type TextRun struct {
	Type string      `json:"type"`
	Text TextContent `json:"text"`
}

// TextContent is the content of a TextRun.
type TextContent struct {
	Content string `json:"content"`
}

// NewTextRun returns a plain text run.
func NewTextRun(content string) TextRun {
	return TextRun{Type: "text", Text: TextContent{Content: content}}
}

// NamedOption references a select, status or multi_select option by name.
type NamedOption struct {
	Name string `json:"name"`
}

// Reference points at another record or a user by ID.
type Reference struct {
	ID string `json:"id"`
}

// DateRange is the value of a date property. End is nil for single dates.
type DateRange struct {
	Start *string `json:"start"`
	End   *string `json:"end"`
}

// Record is a raw external record. Each property keeps the external JSON
// object as received, including its "type" key.
type Record struct {
	ID          string                     `json:"id"`
	CreatedTime time.Time                  `json:"created_time"`
	LastEdited  time.Time                  `json:"last_edited_time"`
	Archived    bool                       `json:"archived"`
	Properties  map[string]json.RawMessage `json:"properties"`
}

// Normalized is the flat alias-keyed projection of a Record.
type Normalized map[string]any

// ID returns the record ID of a normalized record, if any.
func (n Normalized) ID() string {
	s, _ := n["id"].(string)
	return s
}

// Mode selects create or partial-update semantics when building payloads.
type Mode uint8

const (
	ModeCreate Mode = iota
	ModeUpdate
)

func (m Mode) String() string {
	if m == ModeUpdate {
		return "update"
	}
	return "create"
}
