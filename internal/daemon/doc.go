// Package daemon provides the background services of voxshelld that sit
// beside the window controller: configuration hot-reload and desktop
// notifications about the daemon's own events.
package daemon
