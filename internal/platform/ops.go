package platform

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/jomei/notionapi"

	"github.com/aretw0/ubrain/pkg/adapters/notion"
	"github.com/aretw0/ubrain/pkg/core"
	"github.com/aretw0/ubrain/pkg/mapping"
)

// ErrNoToken is returned when no record source is injected and no API
// token is configured.
var ErrNoToken = errors.New("no API token configured (set NOTION_TOKEN)")

// OpenStore builds the mapping store only: remote key-value first when
// configured, then the local file, then the built-in default. The returned
// closers release provider connections.
func OpenStore(ctx context.Context, opts ...Option) (*mapping.Store, []io.Closer, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return openStore(ctx, o)
}

func openStore(ctx context.Context, o *options) (*mapping.Store, []io.Closer, error) {
	logger := o.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if len(o.providers) > 0 {
		return mapping.NewStore(logger, o.providers...), nil, nil
	}

	var (
		providers []mapping.Provider
		closers   []io.Closer
	)
	if o.kvURL != "" {
		kv, err := mapping.OpenSQL(ctx, o.kvURL)
		if err != nil {
			return nil, nil, fmt.Errorf("open mapping kv: %w", err)
		}
		logger.Debug("mapping kv enabled", "provider", kv.Name())
		providers = append(providers, kv)
		closers = append(closers, kv)
	}

	file := mapping.NewFileProvider(mapping.FileOptions{
		Path:               o.mappingPath,
		WorkDir:            o.workDir,
		ReadOnlyDeployment: o.readOnlyDeployment,
	})
	logger.Debug("mapping file resolved", "path", file.Path(), "read_only_deployment", o.readOnlyDeployment)
	providers = append(providers, file, mapping.DefaultProvider{})

	return mapping.NewStore(logger, providers...), closers, nil
}

// openSource returns the injected source, or an API-backed one.
func openSource(o *options) (core.RecordSource, error) {
	if o.source != nil {
		return o.source, nil
	}
	if o.token == "" {
		return nil, ErrNoToken
	}

	var clientOpts []notionapi.ClientOption
	if o.notionVersion != "" {
		clientOpts = append(clientOpts, notionapi.WithVersion(o.notionVersion))
	}
	nopts := []notion.Option{
		notion.WithLogger(o.logger),
		notion.WithClientOptions(clientOpts...),
	}
	if o.pageSize > 0 {
		nopts = append(nopts, notion.WithPageSize(o.pageSize))
	}
	return notion.New(o.token, nopts...), nil
}
