// Package watch reloads the passage index when another process rewrites
// the passage database, so a running server picks up "parable index" runs.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/parable/internal/logger"
)

// DefaultDebounce collapses the burst of writes one ingestion produces.
const DefaultDebounce = 500 * time.Millisecond

// Reloader rebuilds the index snapshot. IngestService satisfies it.
type Reloader interface {
	Reload(ctx context.Context) error
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets how long the database must stay quiet before a reload.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// Watcher watches a sqlite database file and its WAL companions.
type Watcher struct {
	fs       *fsnotify.Watcher
	reloader Reloader
	names    map[string]bool
	debounce time.Duration
	reloads  atomic.Int64
}

// New watches the directory holding dbPath. Only events for the database
// and its -wal and -shm files trigger a reload.
func New(dbPath string, reloader Reloader, opts ...Option) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	dir := filepath.Dir(dbPath)
	if err := fs.Add(dir); err != nil {
		fs.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	base := filepath.Base(dbPath)
	w := &Watcher{
		fs:       fs,
		reloader: reloader,
		names:    map[string]bool{base: true, base + "-wal": true, base + "-shm": true},
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Reloads returns how many reloads have succeeded.
func (w *Watcher) Reloads() int64 {
	return w.reloads.Load()
}

// Run blocks until ctx is cancelled, reloading after each quiet period
// that follows a change. Reload failures are logged and the previous
// snapshot stays in place. Run closes the underlying watcher on return.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fs.Close()

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Index watcher: %v", err)

		case <-fire:
			fire = nil
			if err := w.reloader.Reload(ctx); err != nil {
				logger.Warn("Index reload failed, keeping previous snapshot: %v", err)
				continue
			}
			w.reloads.Add(1)
			logger.Debug("Index reloaded after database change")
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
		return false
	}
	return w.names[filepath.Base(ev.Name)]
}
