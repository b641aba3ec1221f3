package window

import (
	"fmt"
	"net/url"
	"sort"
)

// Built-in window names.
const (
	NameFloating   = "floating"
	NameVoicePopup = "voice-popup"
)

// Size is a window size in logical units.
type Size struct {
	Width  int
	Height int
}

// Point is a top-left position in logical units.
type Point struct {
	X int
	Y int
}

// Geometry is the reported size of a display in logical units.
type Geometry struct {
	Width  int
	Height int
}

// Anchor selects the screen edge a window is placed against.
type Anchor int

const (
	// AnchorRightCenter places the window against the right edge, vertically centred.
	AnchorRightCenter Anchor = iota
	// AnchorRightBottom places the window against the right edge, near the bottom.
	AnchorRightBottom
)

// String returns the string representation of the anchor.
func (a Anchor) String() string {
	switch a {
	case AnchorRightCenter:
		return "right-center"
	case AnchorRightBottom:
		return "right-bottom"
	default:
		return "unknown"
	}
}

// Placement describes where a window goes relative to the display.
// RightInset is the distance from the right edge of the display to the
// window's left edge. BottomInset is the distance from the bottom edge of
// the display to the window's top edge (AnchorRightBottom only).
type Placement struct {
	Anchor      Anchor
	RightInset  int
	BottomInset int
}

// Position returns the top-left corner for a window of the given size.
// On a display smaller than the inset the formula would go negative, so
// each coordinate is clamped at zero to keep the window on screen.
func (p Placement) Position(display Geometry, size Size) Point {
	x := display.Width - p.RightInset

	var y int
	switch p.Anchor {
	case AnchorRightBottom:
		y = display.Height - p.BottomInset
	default:
		y = (display.Height - size.Height) / 2
	}

	return Point{X: max(x, 0), Y: max(y, 0)}
}

// Descriptor is the fixed description of a named window kind.
type Descriptor struct {
	Name  string
	Title string
	Route string // front-end route loaded into the surface
	Size  Size

	Decorations bool
	Transparent bool
	AlwaysOnTop bool
	Resizable   bool
	SkipTaskbar bool

	Placement Placement

	// OnDemand allows Show to create the window when it does not exist yet.
	// When false, the window must have been prepared beforehand.
	OnDemand bool
}

// URL joins the front-end base URL with the descriptor's route.
func (d Descriptor) URL(base string) (string, error) {
	if base == "" {
		return d.Route, nil
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid front-end URL %q: %w", base, err)
	}
	return u.JoinPath(d.Route).String(), nil
}

// FloatingDescriptor returns the descriptor of the floating voice widget.
func FloatingDescriptor() Descriptor {
	return Descriptor{
		Name:        NameFloating,
		Title:       "Voice Widget",
		Route:       "/floating",
		Size:        Size{Width: 190, Height: 64},
		Transparent: true,
		AlwaysOnTop: true,
		SkipTaskbar: true,
		Placement:   Placement{Anchor: AnchorRightCenter, RightInset: 200},
		OnDemand:    true,
	}
}

// VoicePopupDescriptor returns the descriptor of the voice popup.
func VoicePopupDescriptor() Descriptor {
	return Descriptor{
		Name:        NameVoicePopup,
		Title:       "Voice Popup",
		Route:       "/voice-popup",
		Size:        Size{Width: 190, Height: 64},
		Transparent: true,
		AlwaysOnTop: true,
		SkipTaskbar: true,
		Placement:   Placement{Anchor: AnchorRightBottom, RightInset: 200, BottomInset: 100},
		OnDemand:    true,
	}
}

// DefaultDescriptors returns the built-in window descriptors keyed by name.
func DefaultDescriptors() map[string]Descriptor {
	return map[string]Descriptor{
		NameFloating:   FloatingDescriptor(),
		NameVoicePopup: VoicePopupDescriptor(),
	}
}

// Names returns the sorted names of the given descriptors.
func Names(descriptors map[string]Descriptor) []string {
	names := make([]string, 0, len(descriptors))
	for name := range descriptors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
