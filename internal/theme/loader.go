package theme

import (
	"context"
	"log/slog"
	"sync"

	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"
)

// Loader loads a theme into a GTK CSS provider and keeps it hot-reloaded.
// LoadTheme and Apply must run on the GTK main thread.
type Loader struct {
	mu        sync.RWMutex
	logger    *slog.Logger
	provider  *gtk.CSSProvider
	themesDir string
	theme     *Theme
	watcher   *Watcher
}

// NewLoader creates a new theme loader reading user themes from themesDir.
func NewLoader(themesDir string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		logger:    logger,
		provider:  gtk.NewCSSProvider(),
		themesDir: themesDir,
	}
}

// LoadTheme resolves a theme by name and loads it into the provider.
// Resolution failures fall back to the default theme and are only logged.
func (l *Loader) LoadTheme(name string) {
	t, err := Resolve(l.themesDir, name)
	if err != nil {
		l.logger.Warn("theme fallback", "theme", name, "using", t.Name, "error", err)
	}

	l.mu.Lock()
	l.theme = t
	l.provider.LoadFromString(t.CSS)
	l.mu.Unlock()

	l.logger.Info("loaded theme", "name", t.Name, "path", t.Path, "embedded", t.Embedded)
}

// Apply installs the provider on a display, the default display when nil.
func (l *Loader) Apply(display *gdk.Display) {
	if display == nil {
		display = gdk.DisplayGetDefault()
	}
	if display == nil {
		l.logger.Warn("no display available, cannot apply theme")
		return
	}

	gtk.StyleContextAddProviderForDisplay(
		display,
		l.provider,
		gtk.STYLE_PROVIDER_PRIORITY_APPLICATION,
	)
	l.logger.Debug("applied theme to display", "name", l.CurrentTheme())
}

// StartHotReload watches the current theme file. invoke runs the CSS update
// on the GTK main thread; bundled themes are not watched.
func (l *Loader) StartHotReload(ctx context.Context, invoke func(func())) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.watcher != nil {
		l.watcher.Stop()
		l.watcher = nil
	}
	if l.theme == nil || l.theme.Embedded {
		l.logger.Debug("not starting hot-reload for bundled theme")
		return
	}

	l.watcher = NewWatcher(l.theme, l.logger)
	l.watcher.SetChangeCallback(func(css string) {
		invoke(func() {
			l.provider.LoadFromString(css)
			l.logger.Info("hot-reloaded theme", "name", l.CurrentTheme())
		})
	})
	if err := l.watcher.Start(ctx); err != nil {
		l.logger.Warn("failed to start theme watcher", "error", err)
	}
}

// StopHotReload stops watching the theme for changes.
func (l *Loader) StopHotReload() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.watcher != nil {
		l.watcher.Stop()
		l.watcher = nil
	}
}

// CurrentTheme returns the name of the loaded theme.
func (l *Loader) CurrentTheme() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.theme == nil {
		return ""
	}
	return l.theme.Name
}
