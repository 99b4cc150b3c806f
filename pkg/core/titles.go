package core

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// TitleBatchSize is the number of relation targets fetched concurrently.
const TitleBatchSize = 10

// PageFetcher retrieves a single record by ID.
type PageFetcher interface {
	RetrievePage(ctx context.Context, id string) (Record, error)
}

// TitleResolver resolves record IDs to their titles and memoizes results.
// A failed lookup resolves to "" and is retried on the next call.
type TitleResolver struct {
	fetcher PageFetcher
	logger  *slog.Logger
	mu      sync.Mutex
	memo    map[string]string
}

// NewTitleResolver creates a resolver backed by fetcher. logger may be nil.
func NewTitleResolver(fetcher PageFetcher, logger *slog.Logger) *TitleResolver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &TitleResolver{
		fetcher: fetcher,
		logger:  logger,
		memo:    make(map[string]string),
	}
}

// Resolve returns a title for every non-empty ID in ids. It never fails:
// targets that cannot be fetched map to "".
func (r *TitleResolver) Resolve(ctx context.Context, ids []string) map[string]string {
	out := make(map[string]string, len(ids))
	var pending []string
	seen := make(map[string]struct{}, len(ids))

	r.mu.Lock()
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if title, ok := r.memo[id]; ok {
			out[id] = title
			continue
		}
		pending = append(pending, id)
	}
	r.mu.Unlock()

	for start := 0; start < len(pending); start += TitleBatchSize {
		end := min(start+TitleBatchSize, len(pending))
		chunk := pending[start:end]
		titles := make([]string, len(chunk))
		ok := make([]bool, len(chunk))

		var g errgroup.Group
		for i, id := range chunk {
			g.Go(func() error {
				rec, err := r.fetcher.RetrievePage(ctx, id)
				if err != nil {
					r.logger.Debug("relation title lookup failed", "id", id, "error", err)
					return nil
				}
				titles[i] = rec.Title()
				ok[i] = true
				return nil
			})
		}
		_ = g.Wait()

		r.mu.Lock()
		for i, id := range chunk {
			out[id] = titles[i]
			if ok[i] {
				r.memo[id] = titles[i]
			}
		}
		r.mu.Unlock()
	}
	return out
}

// Len returns the number of memoized titles.
func (r *TitleResolver) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.memo)
}

// Forget clears the memo.
func (r *TitleResolver) Forget() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.memo)
}

type richRun struct {
	PlainText *string      `json:"plain_text"`
	Text      *TextContent `json:"text"`
}

// PlainText concatenates the runs stored under key in a raw property.
// Runs without plain_text fall back to their text content.
func PlainText(raw json.RawMessage, key string) string {
	var prop map[string]json.RawMessage
	if err := json.Unmarshal(raw, &prop); err != nil {
		return ""
	}
	var runs []richRun
	if err := json.Unmarshal(prop[key], &runs); err != nil {
		return ""
	}
	var b strings.Builder
	for _, run := range runs {
		switch {
		case run.PlainText != nil:
			b.WriteString(*run.PlainText)
		case run.Text != nil:
			b.WriteString(run.Text.Content)
		}
	}
	return b.String()
}

// PropertyType returns the "type" key of a raw property.
func PropertyType(raw json.RawMessage) string {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return ""
	}
	return head.Type
}

// Title returns the text of the record's title property.
func (r Record) Title() string {
	for _, raw := range r.Properties {
		if PropertyType(raw) == TypeTitle.String() {
			return PlainText(raw, TypeTitle.String())
		}
	}
	return ""
}
