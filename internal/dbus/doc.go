// Package dbus exposes the voxshell shell operations on the session bus.
// It provides the server exported by voxshelld (window control, the
// microphone permission request and the key-value store) and the client
// used by the voxshell CLI.
package dbus
