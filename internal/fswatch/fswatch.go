// Package fswatch reports changes to a single file.
//
// The parent directory is watched rather than the file, so atomic
// replacements (write to a temp file, rename over) and files created after
// Start are seen. Bursts of events, such as the truncate and write pair an
// editor produces, are collapsed into one notification.
package fswatch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last event before notifying.
const DefaultDebounce = 100 * time.Millisecond

const relevant = fsnotify.Write | fsnotify.Create | fsnotify.Remove | fsnotify.Rename

// File watches one path and calls notify after it settles.
type File struct {
	path   string
	notify func()
	logger *slog.Logger

	mu       sync.Mutex
	debounce time.Duration
	watcher  *fsnotify.Watcher
	done     chan struct{}
	stopped  chan struct{}
}

// New creates a watcher for path. notify runs on the watch goroutine and must
// not call Stop.
func New(path string, notify func(), logger *slog.Logger) *File {
	if logger == nil {
		logger = slog.Default()
	}
	return &File{
		path:     path,
		notify:   notify,
		logger:   logger,
		debounce: DefaultDebounce,
	}
}

// Path returns the watched path.
func (f *File) Path() string {
	return f.path
}

// SetDebounce sets the quiet period. Zero notifies on every event.
// It takes effect on the next Start.
func (f *File) SetDebounce(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.debounce = d
}

// Start begins watching, creating the parent directory if needed. The watch
// ends when ctx is done or Stop is called. Starting a running watcher is a no-op.
func (f *File) Start(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.watcher != nil {
		return nil
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return err
	}

	f.watcher = watcher
	f.done = make(chan struct{})
	f.stopped = make(chan struct{})
	go f.run(ctx, watcher, f.done, f.stopped, f.debounce)

	f.logger.Debug("watching file", "path", f.path, "debounce", f.debounce)
	return nil
}

// Stop ends the watch and waits for the watch goroutine to exit.
// Stopping a stopped watcher is a no-op.
func (f *File) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.watcher == nil {
		return nil
	}

	close(f.done)
	err := f.watcher.Close()
	<-f.stopped
	f.watcher = nil
	return err
}

// Running reports whether Start has been called without a matching Stop.
func (f *File) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.watcher != nil
}

func (f *File) run(ctx context.Context, watcher *fsnotify.Watcher, done, stopped chan struct{}, debounce time.Duration) {
	defer close(stopped)
	name := filepath.Base(f.path)

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name || event.Op&relevant == 0 {
				continue
			}
			if debounce <= 0 {
				f.notify()
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			f.notify()

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			f.logger.Warn("file watcher error", "path", f.path, "error", err)

		case <-ctx.Done():
			return
		case <-done:
			return
		}
	}
}
