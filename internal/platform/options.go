package platform

import (
	"log/slog"

	"github.com/aretw0/ubrain/pkg/core"
	"github.com/aretw0/ubrain/pkg/mapping"
)

// options holds the internal configuration of a Runtime.
type options struct {
	source             core.RecordSource
	providers          []mapping.Provider
	logger             *slog.Logger
	token              string
	notionVersion      string
	mappingPath        string
	workDir            string
	kvURL              string
	readOnlyDeployment bool
	offline            bool
	pageSize           int
}

// Option defines a functional option for configuring ubrain.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{}
}

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithSource injects a record source (e.g. the in-memory one).
// If provided, no API client is created and the token is ignored.
func WithSource(src core.RecordSource) Option {
	return func(o *options) {
		o.source = src
	}
}

// WithToken sets the integration token of the workspace API.
func WithToken(token string) Option {
	return func(o *options) {
		o.token = token
	}
}

// WithNotionVersion pins the API version header. Empty keeps the client default.
func WithNotionVersion(version string) Option {
	return func(o *options) {
		o.notionVersion = version
	}
}

// WithMappingPath sets an explicit mapping file. The extension selects
// JSON or YAML.
func WithMappingPath(path string) Option {
	return func(o *options) {
		o.mappingPath = path
	}
}

// WithWorkDir sets the directory the default mapping file is created in.
func WithWorkDir(dir string) Option {
	return func(o *options) {
		o.workDir = dir
	}
}

// WithKVURL adds a remote key-value provider ahead of the file, e.g.
// "postgres://…" or "sqlite:///var/lib/ubrain/kv.db".
func WithKVURL(url string) Option {
	return func(o *options) {
		o.kvURL = url
	}
}

// WithReadOnlyDeployment moves the mapping file to the temp directory,
// for hosts whose working directory is immutable.
func WithReadOnlyDeployment(enabled bool) Option {
	return func(o *options) {
		o.readOnlyDeployment = enabled
	}
}

// WithOffline serves empty study collections and rejects study writes.
func WithOffline(enabled bool) Option {
	return func(o *options) {
		o.offline = enabled
	}
}

// WithPageSize sets the page size of source queries. Zero keeps the default.
func WithPageSize(n int) Option {
	return func(o *options) {
		o.pageSize = n
	}
}

// WithProviders replaces the mapping provider chain entirely.
func WithProviders(providers ...mapping.Provider) Option {
	return func(o *options) {
		o.providers = providers
	}
}
