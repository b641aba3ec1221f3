package window

// Host is the windowing surface the controller drives.
// All methods are called from the controller's loop.
type Host interface {
	// Create builds a new hidden surface for the descriptor, loading url.
	Create(d Descriptor, url string) (Handle, error)

	// PrimaryDisplay returns the size of the primary display.
	PrimaryDisplay() (Geometry, error)
}

// Handle is a live surface owned by the host.
type Handle interface {
	SetPosition(p Point) error
	Show() error
	Hide() error
	Focus() error

	// Closed reports whether the host has destroyed the surface.
	Closed() bool
}
