// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

package plugin

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/samber/oops"
)

// DefaultDebounce is how long the watcher waits for a burst of file
// changes in one plugin directory to settle.
const DefaultDebounce = 200 * time.Millisecond

// Watcher reports plugin directories whose files changed. It never touches
// the registry; the host drains Changes and calls Manager.Reload.
type Watcher struct {
	dir      string
	fs       *fsnotify.Watcher
	debounce time.Duration
	logger   *slog.Logger
	changes  chan string
	done     chan struct{}
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets the settle interval.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithWatcherLogger sets the watcher logger.
func WithWatcherLogger(l *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		w.logger = l
	}
}

// NewWatcher watches dir and each plugin directory directly below it.
func NewWatcher(dir string, opts ...WatcherOption) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, oops.Code("WATCHER_FAILED").Wrapf(err, "create watcher")
	}
	w := &Watcher{
		dir:      filepath.Clean(dir),
		fs:       fw,
		debounce: DefaultDebounce,
		logger:   slog.Default(),
		changes:  make(chan string, 16),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	if err := fw.Add(w.dir); err != nil {
		_ = fw.Close()
		return nil, oops.Code("WATCHER_FAILED").With("dir", dir).Wrapf(err, "watch plugins directory")
	}
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		_ = fw.Close()
		return nil, oops.Code("WATCHER_FAILED").With("dir", dir).Wrapf(err, "read plugins directory")
	}
	for _, e := range entries {
		if e.IsDir() {
			w.watchDir(filepath.Join(w.dir, e.Name()))
		}
	}
	return w, nil
}

// Changes delivers plugin directory names. It is closed when Run returns.
func (w *Watcher) Changes() <-chan string { return w.changes }

// Run forwards changes until ctx is done or Close is called.
func (w *Watcher) Run(ctx context.Context) {
	defer close(w.changes)

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			name := w.pluginName(ev.Name)
			if name == "" {
				continue
			}
			if ev.Has(fsnotify.Create) && ev.Name == filepath.Join(w.dir, name) {
				w.watchDir(ev.Name)
			}
			pending[name] = struct{}{}
			timer.Reset(w.debounce)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("plugin watcher error", "error", err)
		case <-timer.C:
			for _, name := range sortedKeys(pending) {
				select {
				case w.changes <- name:
				case <-ctx.Done():
					return
				case <-w.done:
					return
				}
			}
			clear(pending)
		}
	}
}

// Close stops watching. It is safe to call once.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fs.Close()
}

func (w *Watcher) watchDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	if err := w.fs.Add(path); err != nil {
		w.logger.Warn("cannot watch plugin directory", "dir", path, "error", err)
	}
}

// pluginName maps a changed path to the plugin directory containing it.
func (w *Watcher) pluginName(path string) string {
	rel, err := filepath.Rel(w.dir, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return ""
	}
	first, _, _ := strings.Cut(filepath.ToSlash(rel), "/")
	return first
}
