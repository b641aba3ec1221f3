package display

import (
	"log/slog"
	"unsafe"

	"github.com/diamondburned/gotk4/pkg/core/glib"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
)

// outputMonitor returns the monitor surfaces are placed on.
//   - 0: first monitor
//   - 1+: specific monitor (1-indexed), falling back to the first one
//
// Returns nil when no display or monitor is available.
func outputMonitor(monitorNum int, logger *slog.Logger) *gdk.Monitor {
	display := gdk.DisplayGetDefault()
	if display == nil {
		return nil
	}

	monitors := display.Monitors()
	if monitors == nil || monitors.NItems() == 0 {
		logger.Warn("no monitors available")
		return nil
	}

	index := uint(0)
	if monitorNum > 0 {
		index = uint(monitorNum - 1)
		if index >= monitors.NItems() {
			logger.Warn("configured monitor not available, using first",
				"configured", monitorNum,
				"available", monitors.NItems(),
			)
			index = 0
		}
	}

	return wrapMonitor(monitors.Item(index))
}

// wrapMonitor wraps a glib.Object as a gdk.Monitor.
// gotk4 doesn't export its own wrapMonitor.
func wrapMonitor(obj *glib.Object) *gdk.Monitor {
	if obj == nil {
		return nil
	}
	// gdk.Monitor embeds a *glib.Object, so a struct with the same layout
	// can be reinterpreted as one.
	type monitor struct {
		_ [0]func()
		*glib.Object
	}
	m := &monitor{Object: obj}
	return (*gdk.Monitor)(unsafe.Pointer(m))
}
