package mapping

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces bursts of filesystem events for one file.
const DefaultDebounce = 100 * time.Millisecond

// Watch calls onChange whenever the file at path is written, replaced or
// removed, until ctx is cancelled. The parent directory is watched so that
// atomic renames are observed.
func Watch(ctx context.Context, path string, onChange func(), logger *slog.Logger) error {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	target := filepath.Base(path)
	d := &debouncer{delay: DefaultDebounce}

	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer watcher.Close()
		defer d.stop()
		for {
			select {
			case <-ctx.Done():
				return nil

			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if filepath.Base(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
					!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
					continue
				}
				logger.Debug("mapping file changed", "path", event.Name, "op", event.Op.String())
				d.trigger(onChange)

			case wErr, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				logger.Error("fsnotify error", "error", wErr)
			}
		}
	}, lifecycle.WithErrorHandler(func(err error) {
		logger.Error("mapping watcher panic", "error", err)
	}))

	return nil
}

type debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	timer *time.Timer
}

func (d *debouncer) trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, fn)
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
}
