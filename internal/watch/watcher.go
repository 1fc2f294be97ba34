// Package watch re-runs analysis whenever a coverage file changes, for a
// local loop of "run tests, inspect redundancy" without re-invoking the CLI.
package watch

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a coverage file must be quiet before the
// callback fires. Test runners write coverage output incrementally.
const DefaultDebounce = 500 * time.Millisecond

// Watcher monitors one coverage file and triggers analysis after writes
// settle. Editors and coverage tools often replace files by rename, so the
// parent directory is watched rather than the file itself.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	path      string
	debounce  time.Duration
	callback  func()

	mu      sync.Mutex
	lastMod time.Time
	pending bool
}

// New creates a watcher for the given coverage file.
func New(path string, debounce time.Duration) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		fsWatcher.Close()
		return nil, err
	}

	return &Watcher{
		fsWatcher: fsWatcher,
		path:      abs,
		debounce:  debounce,
	}, nil
}

// SetCallback sets the function invoked after the file settles. It runs on
// the watcher's goroutine; slow callbacks delay subsequent triggers but
// never drop them.
func (w *Watcher) SetCallback(cb func()) {
	w.callback = cb
}

// Start watches until the context is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.fsWatcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}

	color.Cyan("Watching %s for changes...", w.path)
	color.Cyan("Press Ctrl+C to stop")

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			color.Red("Watch error: %v", err)

		case <-ticker.C:
			if w.takeSettled() && w.callback != nil {
				color.Yellow("\nCoverage file changed, re-analyzing...")
				w.callback()
			}
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}
	if filepath.Clean(event.Name) != w.path {
		return
	}

	w.mu.Lock()
	w.lastMod = time.Now()
	w.pending = true
	w.mu.Unlock()
}

// takeSettled reports whether a pending change has been quiet for the
// debounce period, clearing it if so.
func (w *Watcher) takeSettled() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.pending || time.Since(w.lastMod) < w.debounce {
		return false
	}
	w.pending = false
	return true
}

// Stop closes the underlying filesystem watcher.
func (w *Watcher) Stop() error {
	return w.fsWatcher.Close()
}
