package display

import (
	"log/slog"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	layershell "github.com/diamondburned/gotk4-layer-shell/pkg/gtk4layershell"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/voxshell/internal/window"
)

// Host implements window.Host on top of a GTK application.
// Every method must be called on the GTK main thread.
type Host struct {
	app    *gtk.Application
	logger *slog.Logger

	// monitor is the 1-indexed output surfaces are placed on, 0 for the first.
	monitor int
}

// NewHost creates a new GTK host for app.
func NewHost(app *gtk.Application, monitor int, logger *slog.Logger) *Host {
	if logger == nil {
		logger = slog.Default()
	}
	return &Host{
		app:     app,
		logger:  logger,
		monitor: monitor,
	}
}

// SetMonitor changes the output used for surfaces created or shown from now on.
func (h *Host) SetMonitor(monitor int) {
	h.monitor = monitor
}

// Create builds a hidden surface for d showing url.
func (h *Host) Create(d window.Descriptor, url string) (window.Handle, error) {
	if h.app == nil {
		return nil, &DisplayError{Message: "no GTK application"}
	}
	uri, err := contentURI(url)
	if err != nil {
		return nil, err
	}

	win := gtk.NewWindow()
	win.SetApplication(h.app)
	win.SetTitle(d.Title)
	win.SetDecorated(d.Decorations)
	win.SetResizable(d.Resizable)
	win.SetDefaultSize(d.Size.Width, d.Size.Height)
	win.SetSizeRequest(d.Size.Width, d.Size.Height)

	s := &surface{
		window: win,
		name:   d.Name,
		url:    uri,
		logger: h.logger.With("window", d.Name),
		host:   h,
	}

	if d.AlwaysOnTop {
		layershell.InitForWindow(win)
		layershell.SetLayer(win, layershell.LayerShellLayerTop)
		layershell.SetExclusiveZone(win, 0) // Don't reserve space
		layershell.SetKeyboardMode(win, layershell.LayerShellKeyboardModeNone)
		layershell.SetNamespace(win, "voxshell-"+d.Name)
		if mon := outputMonitor(h.monitor, h.logger); mon != nil {
			layershell.SetMonitor(win, mon)
		}
		s.layered = true
	}

	if d.Transparent {
		win.AddCSSClass("voxshell-transparent")
	}
	s.buildContent(d, colorSchemeClass())
	s.connectSignals()

	h.logger.Debug("created surface",
		"window", d.Name,
		"url", url,
		"width", d.Size.Width,
		"height", d.Size.Height,
		"layered", s.layered,
	)
	return s, nil
}

// PrimaryDisplay returns the size of the configured output.
func (h *Host) PrimaryDisplay() (window.Geometry, error) {
	mon := outputMonitor(h.monitor, h.logger)
	if mon == nil {
		return window.Geometry{}, &DisplayError{Message: "no monitor available"}
	}
	rect := mon.Geometry()
	if rect == nil {
		return window.Geometry{}, &DisplayError{Message: "monitor has no geometry"}
	}
	return window.Geometry{Width: rect.Width(), Height: rect.Height()}, nil
}

// colorSchemeClass returns "dark" or "light" from the libadwaita style manager.
func colorSchemeClass() string {
	if adw.StyleManagerGetDefault().Dark() {
		return "dark"
	}
	return "light"
}

// DisplayError represents a display-related error.
type DisplayError struct {
	Message string
	Cause   error
}

func (e *DisplayError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *DisplayError) Unwrap() error {
	return e.Cause
}
