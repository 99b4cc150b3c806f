// Package notion implements core.RecordSource on top of the Notion REST API
// through github.com/jomei/notionapi.
package notion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jomei/notionapi"

	"github.com/aretw0/ubrain/pkg/core"
)

// DefaultPageSize is the maximum page size accepted by the API.
const DefaultPageSize = 100

// Option configures a Source.
type Option func(*options)

type options struct {
	logger        *slog.Logger
	pageSize      int
	clientOptions []notionapi.ClientOption
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithPageSize sets the page size of table queries.
func WithPageSize(n int) Option {
	return func(o *options) {
		if n > 0 && n <= DefaultPageSize {
			o.pageSize = n
		}
	}
}

// WithClientOptions forwards options to the underlying notionapi client.
func WithClientOptions(opts ...notionapi.ClientOption) Option {
	return func(o *options) { o.clientOptions = append(o.clientOptions, opts...) }
}

// Source talks to a Notion workspace using an integration token.
type Source struct {
	client   *notionapi.Client
	logger   *slog.Logger
	pageSize int
}

// New creates a Source authenticated with token.
func New(token string, opts ...Option) *Source {
	o := options{pageSize: DefaultPageSize}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	return &Source{
		client:   notionapi.NewClient(notionapi.Token(token), o.clientOptions...),
		logger:   o.logger,
		pageSize: o.pageSize,
	}
}

func (s *Source) Query(ctx context.Context, tableID string, q core.Query) (core.Page, error) {
	req := &notionapi.DatabaseQueryRequest{
		Filter:   toFilter(q.Filter),
		Sorts:    toSorts(q.Sorts),
		PageSize: q.PageSize,
	}
	if req.PageSize <= 0 {
		req.PageSize = s.pageSize
	}
	if q.StartCursor != "" {
		req.StartCursor = notionapi.Cursor(q.StartCursor)
	}

	s.logger.Debug("querying table", "table_id", tableID, "cursor", q.StartCursor)
	resp, err := s.client.Database.Query(ctx, notionapi.DatabaseID(tableID), req)
	if err != nil {
		return core.Page{}, wrap(err, "query table %s", tableID)
	}

	page := core.Page{
		HasMore:    resp.HasMore,
		NextCursor: string(resp.NextCursor),
		Records:    make([]core.Record, 0, len(resp.Results)),
	}
	for i := range resp.Results {
		rec, err := toRecord(&resp.Results[i])
		if err != nil {
			return core.Page{}, err
		}
		page.Records = append(page.Records, rec)
	}
	return page, nil
}

func (s *Source) RetrieveSchema(ctx context.Context, tableID string) (core.Schema, error) {
	db, err := s.client.Database.Get(ctx, notionapi.DatabaseID(tableID))
	if err != nil {
		return nil, wrap(err, "retrieve table %s", tableID)
	}
	schema := make(core.Schema, len(db.Properties))
	for name, cfg := range db.Properties {
		t, err := core.ParseDeclaredType(string(cfg.GetType()))
		if err != nil {
			// Formulas, rollups and other computed columns are not writable.
			continue
		}
		schema[name] = t
	}
	return schema, nil
}

func (s *Source) RetrievePage(ctx context.Context, id string) (core.Record, error) {
	p, err := s.client.Page.Get(ctx, notionapi.PageID(id))
	if err != nil {
		return core.Record{}, wrap(err, "retrieve page %s", id)
	}
	return toRecord(p)
}

func (s *Source) Create(ctx context.Context, tableID string, props core.Properties) (core.Record, error) {
	req := &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentType("database_id"),
			DatabaseID: notionapi.DatabaseID(tableID),
		},
		Properties: toProperties(props),
	}
	p, err := s.client.Page.Create(ctx, req)
	if err != nil {
		return core.Record{}, wrap(err, "create page in %s", tableID)
	}
	return toRecord(p)
}

func (s *Source) Update(ctx context.Context, id string, props core.Properties) (core.Record, error) {
	p, err := s.client.Page.Update(ctx, notionapi.PageID(id), &notionapi.PageUpdateRequest{
		Properties: toProperties(props),
	})
	if err != nil {
		return core.Record{}, wrap(err, "update page %s", id)
	}
	return toRecord(p)
}

func (s *Source) Archive(ctx context.Context, id string) (core.Record, error) {
	p, err := s.client.Page.Update(ctx, notionapi.PageID(id), &notionapi.PageUpdateRequest{
		Archived:   true,
		Properties: notionapi.Properties{},
	})
	if err != nil {
		return core.Record{}, wrap(err, "archive page %s", id)
	}
	return toRecord(p)
}

// Discover lists databases shared with the integration whose title matches query.
func (s *Source) Discover(ctx context.Context, query string) ([]core.TableInfo, error) {
	req := &notionapi.SearchRequest{
		Query: query,
		Filter: notionapi.SearchFilter{
			Property: "object",
			Value:    "database",
		},
		PageSize: DefaultPageSize,
	}

	var out []core.TableInfo
	for {
		resp, err := s.client.Search.Do(ctx, req)
		if err != nil {
			return nil, wrap(err, "search databases")
		}
		for _, obj := range resp.Results {
			db, ok := obj.(*notionapi.Database)
			if !ok {
				continue
			}
			out = append(out, core.TableInfo{
				ID:    core.NormalizeID(string(db.ID)),
				Title: plainText(db.Title),
				URL:   db.URL,
			})
		}
		if !resp.HasMore || resp.NextCursor == "" {
			return out, nil
		}
		req.StartCursor = resp.NextCursor
	}
}

func plainText(runs []notionapi.RichText) string {
	var s string
	for _, r := range runs {
		s += r.PlainText
	}
	return s
}

// wrap classifies API failures into core sentinels.
func wrap(err error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	var apiErr *notionapi.Error
	if errors.As(err, &apiErr) {
		kind := core.ErrUpstream
		switch {
		case apiErr.Status == http.StatusNotFound || apiErr.Code == "object_not_found":
			kind = core.ErrNotFound
		case apiErr.Code == "validation_error":
			kind = core.ErrInvalidValue
		}
		return fmt.Errorf("%s: %w: %s (%s)", msg, kind, apiErr.Message, apiErr.Code)
	}
	return fmt.Errorf("%s: %w: %w", msg, core.ErrUpstream, err)
}

var (
	_ core.RecordSource = (*Source)(nil)
	_ core.Discoverer   = (*Source)(nil)
)

// rawProperty adapts an already-shaped property payload to notionapi.Property.
type rawProperty struct {
	typ   string
	value core.PropertyValue
}

func (p rawProperty) GetID() string                   { return "" }
func (p rawProperty) GetType() notionapi.PropertyType { return notionapi.PropertyType(p.typ) }
func (p rawProperty) MarshalJSON() ([]byte, error)    { return json.Marshal(p.value) }

func toProperties(props core.Properties) notionapi.Properties {
	out := make(notionapi.Properties, len(props))
	for col, value := range props {
		var typ string
		for k := range value {
			typ = k
		}
		out[col] = rawProperty{typ: typ, value: value}
	}
	return out
}

// ComponentType implements introspection.Component.
func (s *Source) ComponentType() string { return "notion_source" }
