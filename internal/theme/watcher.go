package theme

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"github.com/jmylchreest/voxshell/internal/fswatch"
)

// Watcher re-reads a user theme when its file is saved and hands the new CSS
// to the change callback. Bundled themes are never watched.
type Watcher struct {
	logger *slog.Logger
	theme  *Theme
	file   *fswatch.File

	mu       sync.Mutex
	onChange func(css string)
}

// NewWatcher creates a watcher for theme.
func NewWatcher(theme *Theme, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	w := &Watcher{logger: logger, theme: theme}
	if !theme.Embedded {
		w.file = fswatch.New(theme.Path, w.reload, logger)
	}
	return w
}

// SetChangeCallback sets the callback receiving the reprocessed CSS.
func (w *Watcher) SetChangeCallback(callback func(css string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = callback
}

// Start begins watching. It is a no-op for bundled themes.
func (w *Watcher) Start(ctx context.Context) error {
	if w.file == nil {
		w.logger.Debug("not watching bundled theme", "theme", w.theme.Name)
		return nil
	}
	return w.file.Start(ctx)
}

// Stop stops watching the theme file.
func (w *Watcher) Stop() {
	if w.file == nil {
		return
	}
	if err := w.file.Stop(); err != nil {
		w.logger.Debug("theme watcher stopped with error", "error", err)
	}
}

// IsRunning returns whether the watcher is currently running.
func (w *Watcher) IsRunning() bool {
	return w.file != nil && w.file.Running()
}

func (w *Watcher) reload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	changed, err := w.theme.Reload()
	switch {
	case os.IsNotExist(err):
		w.logger.Debug("theme file removed, keeping loaded CSS", "path", w.theme.Path)
		return
	case err != nil:
		w.logger.Warn("failed to reload theme", "path", w.theme.Path, "error", err)
		return
	case !changed:
		return
	}

	w.logger.Info("theme file changed, reloading", "path", w.theme.Path)
	if w.onChange != nil {
		w.onChange(w.theme.CSS)
	}
}
