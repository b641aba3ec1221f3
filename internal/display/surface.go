package display

import (
	"log/slog"

	layershell "github.com/diamondburned/gotk4-layer-shell/pkg/gtk4layershell"
	"github.com/diamondburned/gotk4-webkitgtk/pkg/webkit/v6"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/voxshell/internal/window"
)

// surface is one GTK window owned by the window controller.
type surface struct {
	window *gtk.Window
	box    *gtk.Box
	view   *webkit.WebView
	name   string
	url    string
	logger *slog.Logger
	host   *Host

	layered bool
	closed  bool
}

var _ window.Handle = (*surface)(nil)

// buildContent fills the window with a web view loading the front-end route.
// The page starts loading while the surface is still hidden.
func (s *surface) buildContent(d window.Descriptor, scheme string) {
	s.box = gtk.NewBox(gtk.OrientationVertical, 0)
	s.box.AddCSSClass("voxshell-surface")
	s.box.AddCSSClass("voxshell-" + d.Name)
	s.box.AddCSSClass(scheme)
	s.box.SetHExpand(true)
	s.box.SetVExpand(true)

	s.view = webkit.NewWebView()
	s.view.AddCSSClass("voxshell-content")
	s.view.SetHExpand(true)
	s.view.SetVExpand(true)
	if d.Transparent {
		// Let the page's own background show through the transparent window.
		transparent := gdk.NewRGBA(0, 0, 0, 0)
		s.view.SetBackgroundColor(&transparent)
	}
	s.box.Append(s.view)

	s.window.SetChild(s.box)
	s.view.LoadURI(s.url)
	s.logger.Debug("loading surface content", "url", s.url)
}

func (s *surface) connectSignals() {
	// A compositor or user close destroys the surface; the controller
	// notices through Closed and recreates it on the next show.
	s.window.ConnectDestroy(func() {
		s.closed = true
		s.logger.Debug("surface destroyed")
	})

	motionCtrl := gtk.NewEventControllerMotion()
	motionCtrl.ConnectEnter(func(x, y float64) {
		s.box.AddCSSClass("hover")
	})
	motionCtrl.ConnectLeave(func() {
		s.box.RemoveCSSClass("hover")
	})
	s.window.AddController(motionCtrl)
}

// SetPosition anchors the surface to the top-left corner of its output
// and offsets it by p. Only layer-shell surfaces can be positioned.
func (s *surface) SetPosition(p window.Point) error {
	if s.closed {
		return errSurfaceDestroyed
	}
	if !s.layered {
		s.logger.Debug("surface is not a layer surface, position left to the compositor")
		return nil
	}

	layershell.SetAnchor(s.window, layershell.LayerShellEdgeBottom, false)
	layershell.SetAnchor(s.window, layershell.LayerShellEdgeRight, false)
	layershell.SetAnchor(s.window, layershell.LayerShellEdgeTop, true)
	layershell.SetAnchor(s.window, layershell.LayerShellEdgeLeft, true)
	layershell.SetMargin(s.window, layershell.LayerShellEdgeTop, p.Y)
	layershell.SetMargin(s.window, layershell.LayerShellEdgeLeft, p.X)

	if mon := outputMonitor(s.host.monitor, s.logger); mon != nil {
		layershell.SetMonitor(s.window, mon)
	}
	return nil
}

// Show maps the surface.
func (s *surface) Show() error {
	if s.closed {
		return errSurfaceDestroyed
	}
	s.window.SetVisible(true)
	return nil
}

// Hide unmaps the surface and gives up keyboard focus.
func (s *surface) Hide() error {
	if s.closed {
		return errSurfaceDestroyed
	}
	if s.layered {
		layershell.SetKeyboardMode(s.window, layershell.LayerShellKeyboardModeNone)
	}
	s.window.SetVisible(false)
	return nil
}

// Focus raises the surface and lets it take keyboard input on demand.
func (s *surface) Focus() error {
	if s.closed {
		return errSurfaceDestroyed
	}
	if s.layered {
		layershell.SetKeyboardMode(s.window, layershell.LayerShellKeyboardModeOnDemand)
	}
	s.window.Present()
	return nil
}

// Closed reports whether the surface has been destroyed.
func (s *surface) Closed() bool {
	return s.closed
}

var errSurfaceDestroyed = &DisplayError{Message: "surface destroyed"}
