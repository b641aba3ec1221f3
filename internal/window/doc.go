// Package window implements the named-window controller for voxshelld.
// It owns the registry of named surfaces, creates them on demand from fixed
// descriptors, computes their on-screen placement from the primary display
// and toggles visibility and focus through a pluggable Host.
package window
