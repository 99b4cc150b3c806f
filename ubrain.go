package ubrain

import (
	"context"
	"log/slog"

	"github.com/aretw0/ubrain/internal/platform"
	"github.com/aretw0/ubrain/pkg/core"
	"github.com/aretw0/ubrain/pkg/mapping"
	"github.com/aretw0/ubrain/pkg/typed"
)

// --- Types ---

// Runtime is a wired brain service and the resources it owns.
type Runtime = platform.Runtime

// Config is the process configuration read from flags, environment and file.
type Config = platform.Config

// Collection is a public alias for typed entity collections.
type Collection[T any] = typed.Collection[T]

// Record is a public alias for typed records.
type Record[T any] = typed.Record[T]

// --- Configuration ---

// Option defines a functional option for configuring ubrain.
type Option = platform.Option

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithSource injects a record source instead of the API client.
func WithSource(src core.RecordSource) Option {
	return platform.WithSource(src)
}

// WithToken sets the integration token of the workspace API.
func WithToken(token string) Option {
	return platform.WithToken(token)
}

// WithNotionVersion pins the API version header.
func WithNotionVersion(version string) Option {
	return platform.WithNotionVersion(version)
}

// WithMappingPath sets an explicit mapping file.
func WithMappingPath(path string) Option {
	return platform.WithMappingPath(path)
}

// WithWorkDir sets the directory of the default mapping file.
func WithWorkDir(dir string) Option {
	return platform.WithWorkDir(dir)
}

// WithKVURL adds a remote key-value mapping provider.
func WithKVURL(url string) Option {
	return platform.WithKVURL(url)
}

// WithReadOnlyDeployment keeps the mapping file out of the working directory.
func WithReadOnlyDeployment(enabled bool) Option {
	return platform.WithReadOnlyDeployment(enabled)
}

// WithOffline serves empty study collections and rejects study writes.
func WithOffline(enabled bool) Option {
	return platform.WithOffline(enabled)
}

// WithPageSize sets the page size of source queries.
func WithPageSize(n int) Option {
	return platform.WithPageSize(n)
}

// WithProviders replaces the mapping provider chain.
func WithProviders(providers ...mapping.Provider) Option {
	return platform.WithProviders(providers...)
}

// --- Factory ---

// New wires a brain service.
func New(ctx context.Context, opts ...Option) (*Runtime, error) {
	return platform.New(ctx, opts...)
}

// --- Typed Factories ---

// NewCollection creates a typed collection of entity e.
func NewCollection[T any](backend typed.Backend, e core.EntityName) *typed.Collection[T] {
	return typed.NewCollection[T](backend, e)
}

// --- Utils ---

// FindRoot looks upwards for a project root holding a mapping or config file.
func FindRoot(startDir string) (string, error) {
	return platform.FindRoot(startDir)
}
