package core

import "context"

// RecordSource is the contract for the external workspace service.
// Adhering to this interface keeps the mapping layer independent of the
// concrete API client.
type RecordSource interface {
	// Query returns one page of records of a table.
	Query(ctx context.Context, tableID string, q Query) (Page, error)

	// RetrieveSchema returns the declared column types of a table.
	RetrieveSchema(ctx context.Context, tableID string) (Schema, error)

	// RetrievePage returns a single record by ID.
	RetrievePage(ctx context.Context, id string) (Record, error)

	// Create inserts a record into a table and returns the stored record.
	Create(ctx context.Context, tableID string, props Properties) (Record, error)

	// Update patches the given properties of a record.
	Update(ctx context.Context, id string, props Properties) (Record, error)

	// Archive soft-deletes a record.
	Archive(ctx context.Context, id string) (Record, error)
}

// Discoverer is implemented by sources that can list the tables visible
// to the current credentials.
type Discoverer interface {
	Discover(ctx context.Context, query string) ([]TableInfo, error)
}

// TableInfo describes a table found through discovery.
type TableInfo struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url,omitempty"`
}

// Query narrows and orders a table query.
type Query struct {
	Filter      *Filter
	Sorts       []Sort
	StartCursor string
	PageSize    int
}

// Filter is a conjunction of property conditions.
type Filter struct {
	And []Condition
}

// Empty reports whether the filter has no conditions.
func (f *Filter) Empty() bool {
	return f == nil || len(f.And) == 0
}

// Condition tests one property. Exactly one operand should be set.
type Condition struct {
	Property   string
	Type       DeclaredType
	Contains   string
	Equals     string
	OnOrAfter  string
	OnOrBefore string
}

// Timestamp names a record timestamp usable for sorting.
type Timestamp string

const (
	CreatedTime    Timestamp = "created_time"
	LastEditedTime Timestamp = "last_edited_time"
)

// Sort orders by a property or by a record timestamp.
type Sort struct {
	Property   string
	Timestamp  Timestamp
	Descending bool
}

// Page is one page of a query result.
type Page struct {
	Records    []Record
	HasMore    bool
	NextCursor string
}

// QueryAll follows pagination cursors until the source reports no more
// pages. Pages are requested strictly one after another. q.StartCursor is
// honoured on the first request.
func QueryAll(ctx context.Context, src RecordSource, tableID string, q Query) ([]Record, error) {
	var out []Record
	for {
		page, err := src.Query(ctx, tableID, q)
		if err != nil {
			return nil, err
		}
		out = append(out, page.Records...)
		if !page.HasMore || page.NextCursor == "" {
			return out, nil
		}
		q.StartCursor = page.NextCursor
	}
}
