package store

import (
	"context"
	"log/slog"

	"github.com/jmylchreest/voxshell/internal/fswatch"
)

// FileWatcher reloads the store when its file is edited outside the daemon
// and reports the keys that changed. The daemon's own saves are recognised by
// Reload and report nothing.
type FileWatcher struct {
	kv       *KV
	logger   *slog.Logger
	onChange func(keys []string)
	file     *fswatch.File
}

// NewFileWatcher creates a watcher for the store's backing file.
// onChange receives the keys that changed after each reload; it may be nil.
func NewFileWatcher(kv *KV, onChange func(keys []string), logger *slog.Logger) *FileWatcher {
	if logger == nil {
		logger = slog.Default()
	}
	fw := &FileWatcher{
		kv:       kv,
		logger:   logger,
		onChange: onChange,
	}
	fw.file = fswatch.New(kv.Path(), fw.reload, logger)
	return fw
}

// Start begins watching the file for changes.
func (fw *FileWatcher) Start() error {
	return fw.file.Start(context.Background())
}

// Stop stops the file watcher.
func (fw *FileWatcher) Stop() error {
	return fw.file.Stop()
}

func (fw *FileWatcher) reload() {
	changed, err := fw.kv.Reload()
	if err != nil {
		fw.logger.Warn("failed to reload store", "error", err)
		return
	}
	if len(changed) == 0 {
		return
	}
	fw.logger.Debug("store file changed", "path", fw.kv.Path(), "keys", changed)
	if fw.onChange != nil {
		fw.onChange(changed)
	}
}
