package daemon

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jmylchreest/voxshell/internal/config"
	"github.com/jmylchreest/voxshell/internal/fswatch"
)

// ReloadCallback receives a config that passed validation and the keys that
// differ from the previous one.
type ReloadCallback func(newConfig *config.Config, changed []string)

// ConfigWatcher reloads voxshelld.toml when it is edited. A file that fails
// to parse or validate leaves the current config in place, and a save that
// changes nothing is not reported.
type ConfigWatcher struct {
	logger *slog.Logger
	file   *fswatch.File

	mu       sync.RWMutex
	current  *config.Config
	onReload ReloadCallback
	onError  func(err error)
}

// NewConfigWatcher creates a ConfigWatcher for the config file at path.
func NewConfigWatcher(path string, logger *slog.Logger) *ConfigWatcher {
	if logger == nil {
		logger = slog.Default()
	}
	w := &ConfigWatcher{logger: logger}
	w.file = fswatch.New(path, w.reload, logger)
	return w
}

// SetReloadCallback sets the callback for applied configs.
func (w *ConfigWatcher) SetReloadCallback(callback ReloadCallback) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onReload = callback
}

// SetErrorCallback sets the callback for configs rejected by Load.
func (w *ConfigWatcher) SetErrorCallback(callback func(err error)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onError = callback
}

// Start begins watching with initialConfig as the current config. The watch
// ends when ctx is done or Stop is called.
func (w *ConfigWatcher) Start(ctx context.Context, initialConfig *config.Config) error {
	if w.file.Running() {
		return nil
	}
	if initialConfig == nil {
		initialConfig = config.DefaultConfig()
	}
	w.mu.Lock()
	w.current = initialConfig
	w.mu.Unlock()
	return w.file.Start(ctx)
}

// Stop stops watching the config file.
func (w *ConfigWatcher) Stop() {
	if err := w.file.Stop(); err != nil {
		w.logger.Debug("config watcher stopped with error", "error", err)
	}
}

// CurrentConfig returns the last configuration that passed validation.
func (w *ConfigWatcher) CurrentConfig() *config.Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

func (w *ConfigWatcher) reload() {
	newConfig, err := config.Load(w.file.Path())

	w.mu.Lock()
	onReload, onError := w.onReload, w.onError
	if err != nil {
		w.mu.Unlock()
		w.logger.Warn("config file changed but validation failed", "error", err)
		if onError != nil {
			onError(err)
		}
		return
	}

	changed := w.current.Changes(newConfig)
	if len(changed) == 0 {
		w.mu.Unlock()
		w.logger.Debug("config file saved without changes", "path", w.file.Path())
		return
	}
	w.current = newConfig
	w.mu.Unlock()

	w.logger.Info("config reloaded", "changed", changed)
	if onReload != nil {
		onReload(newConfig, changed)
	}
}
