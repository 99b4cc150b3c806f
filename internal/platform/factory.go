package platform

import (
	"context"
	"errors"
	"io"

	"github.com/aretw0/ubrain/pkg/brain"
	"github.com/aretw0/ubrain/pkg/mapping"
)

// Runtime is a wired brain service together with the resources it owns.
type Runtime struct {
	Service *brain.Service
	Store   *mapping.Store

	closers []io.Closer
}

// New wires a brain service from the given options.
//
//	rt, err := ubrain.New(ctx, ubrain.WithToken(token))
//	defer rt.Close()
func New(ctx context.Context, opts ...Option) (*Runtime, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	source, err := openSource(o)
	if err != nil {
		return nil, err
	}

	store, closers, err := openStore(ctx, o)
	if err != nil {
		return nil, err
	}

	svc := brain.New(source, store,
		brain.WithLogger(o.logger),
		brain.WithOffline(o.offline),
	)
	return &Runtime{Service: svc, Store: store, closers: closers}, nil
}

// Close releases provider connections.
func (r *Runtime) Close() error {
	var errs []error
	for _, c := range r.closers {
		errs = append(errs, c.Close())
	}
	r.closers = nil
	return errors.Join(errs...)
}
