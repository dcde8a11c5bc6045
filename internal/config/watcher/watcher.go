// Package watcher reloads configuration when its file changes.
//
// The directory holding the file is watched rather than the file itself, so
// editors that save by writing a temp file and renaming it over the original
// are handled. Bursts of events are coalesced by a debounce timer; each burst
// triggers one reload through config.Load. Reloads run on the goroutine
// calling Run, one at a time.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/dshills/marginalia/internal/config"
)

// DefaultDebounce is used when no debounce is configured.
const DefaultDebounce = 100 * time.Millisecond

// ErrWatcherClosed is returned by Run on a watcher that was already closed.
var ErrWatcherClosed = errors.New("watcher is closed")

// ReloadFunc receives each successfully reloaded configuration.
type ReloadFunc func(cfg *config.Config)

// ErrorFunc receives reload and watch errors. The previous configuration
// stays in effect.
type ErrorFunc func(err error)

// Watcher reloads one configuration file on change.
type Watcher struct {
	path     string
	debounce time.Duration
	onReload ReloadFunc
	onError  ErrorFunc
	logger   zerolog.Logger

	fsw *fsnotify.Watcher
	// due is signalled by the debounce timer; Run drains it and reloads.
	due chan struct{}

	mu     sync.Mutex
	timer  *time.Timer
	closed bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets how long the file must be quiet before reloading.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d >= 0 {
			w.debounce = d
		}
	}
}

// WithErrorHandler sets the callback for reload and watch errors.
func WithErrorHandler(fn ErrorFunc) Option {
	return func(w *Watcher) {
		w.onError = fn
	}
}

// WithLogger sets the logger for reload activity.
func WithLogger(logger zerolog.Logger) Option {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// New creates a watcher for the config file at path. Watching starts
// with Run.
func New(path string, onReload ReloadFunc, opts ...Option) (*Watcher, error) {
	if onReload == nil {
		return nil, errors.New("watcher: nil reload func")
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	w := &Watcher{
		path:     abs,
		debounce: DefaultDebounce,
		onReload: onReload,
		onError:  func(error) {},
		logger:   zerolog.Nop(),
		fsw:      fsw,
		due:      make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

// Run processes file events until ctx is done, then closes the watcher.
// The reload callbacks are invoked from Run, never concurrently.
func (w *Watcher) Run(ctx context.Context) error {
	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if closed {
		return ErrWatcherClosed
	}
	defer w.Close()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-w.due:
			w.reload()

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ev)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().Err(err).Str("path", w.path).Msg("config watch error")
			w.onError(err)
		}
	}
}

// Close stops watching. Pending reloads are cancelled.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	return w.fsw.Close()
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if filepath.Clean(ev.Name) != w.path {
		return
	}
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case w.due <- struct{}{}:
		default:
		}
	})
}

func (w *Watcher) reload() {
	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if closed {
		return
	}

	cfg, err := config.Load(w.path)
	if err != nil {
		w.logger.Warn().Err(err).Str("path", w.path).Msg("config reload failed")
		w.onError(err)
		return
	}

	w.logger.Info().Str("path", w.path).Msg("config reloaded")
	w.onReload(cfg)
}
