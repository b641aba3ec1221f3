// Package display hosts voxshell windows on GTK4/libadwaita.
// It creates the surfaces the window controller asks for, places
// always-on-top surfaces via Wayland layer-shell and reports the
// geometry of the output they are placed on.
package display
