package window

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownWindow is returned for names with no descriptor.
	ErrUnknownWindow = errors.New("unknown window")
	// ErrWindowNotFound is returned when a window must already exist but does not.
	ErrWindowNotFound = errors.New("window not found")
	// ErrLoopStopped is returned when the controller loop no longer accepts work.
	ErrLoopStopped = errors.New("window loop stopped")
)

// Error represents a failed host call on a named window.
type Error struct {
	Op     string // create, position, show, hide, focus
	Window string
	Cause  error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to %s window %q: %v", e.Op, e.Window, e.Cause)
	}
	return fmt.Sprintf("failed to %s window %q", e.Op, e.Window)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func hostError(op, name string, cause error) error {
	return &Error{Op: op, Window: name, Cause: cause}
}
