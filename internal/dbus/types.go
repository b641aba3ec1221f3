package dbus

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/voxshell/internal/permission"
	"github.com/jmylchreest/voxshell/internal/store"
	"github.com/jmylchreest/voxshell/internal/window"
)

// D-Bus error names returned by the server.
const (
	ErrNameUnknownWindow   = BusName + ".Error.UnknownWindow"
	ErrNameNotFound        = BusName + ".Error.NotFound"
	ErrNameHost            = BusName + ".Error.Host"
	ErrNameInvalidArgument = BusName + ".Error.InvalidArgument"
	ErrNameFailed          = BusName + ".Error.Failed"
)

// WindowStatus is one row of ListWindows, marshalled as (sssiixx).
type WindowStatus struct {
	Name       string
	State      string
	InstanceID string
	X          int32
	Y          int32
	Created    int64 // unix seconds, 0 if never created
	Shown      int64 // unix seconds, 0 if never shown
}

// CreatedAt returns the creation time, zero if the window was never created.
func (w WindowStatus) CreatedAt() time.Time {
	return unixOrZero(w.Created)
}

// ShownAt returns the last show time, zero if the window was never shown.
func (w WindowStatus) ShownAt() time.Time {
	return unixOrZero(w.Shown)
}

func unixOrZero(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0)
}

func windowStatus(info window.Info) WindowStatus {
	return WindowStatus{
		Name:       info.Name,
		State:      info.State.String(),
		InstanceID: info.InstanceID,
		X:          int32(info.Position.X),
		Y:          int32(info.Position.Y),
		Created:    timeOrZero(info.CreatedAt),
		Shown:      timeOrZero(info.ShownAt),
	}
}

func timeOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

// ServerInfo identifies the daemon.
type ServerInfo struct {
	Name    string
	Version string
}

// DefaultServerInfo returns the default server information.
func DefaultServerInfo() ServerInfo {
	return ServerInfo{
		Name:    "voxshelld",
		Version: "0.0.1", // Will be replaced by build-time version
	}
}

// toDBusError maps a domain error to a named D-Bus error.
func toDBusError(err error) *dbus.Error {
	if err == nil {
		return nil
	}

	name := ErrNameFailed
	var hostErr *window.Error
	switch {
	case errors.Is(err, window.ErrUnknownWindow):
		name = ErrNameUnknownWindow
	case errors.Is(err, window.ErrWindowNotFound):
		name = ErrNameNotFound
	case errors.As(err, &hostErr):
		name = ErrNameHost
	case errors.Is(err, store.ErrInvalidValue), errors.Is(err, store.ErrInvalidKey),
		errors.Is(err, permission.ErrUnsupported):
		name = ErrNameInvalidArgument
	}
	return dbus.NewError(name, []interface{}{err.Error()})
}

// fromDBusError turns a named D-Bus error back into an error that matches
// the domain sentinels with errors.Is.
func fromDBusError(err error) error {
	var dbusErr dbus.Error
	var dbusErrPtr *dbus.Error
	switch {
	case errors.As(err, &dbusErrPtr):
		dbusErr = *dbusErrPtr
	case errors.As(err, &dbusErr):
	default:
		return err
	}

	msg := dbusErr.Error()
	var sentinel error
	switch dbusErr.Name {
	case ErrNameUnknownWindow:
		sentinel = window.ErrUnknownWindow
	case ErrNameNotFound:
		sentinel = window.ErrWindowNotFound
	case ErrNameInvalidArgument:
		sentinel = ErrInvalidArgument
	default:
		return errors.New(msg)
	}
	if strings.Contains(msg, sentinel.Error()) {
		return &remoteError{msg: msg, sentinel: sentinel}
	}
	return &remoteError{msg: fmt.Sprintf("%v: %s", sentinel, msg), sentinel: sentinel}
}

// ErrInvalidArgument is matched by errors returned for rejected arguments.
var ErrInvalidArgument = errors.New("invalid argument")

type remoteError struct {
	msg      string
	sentinel error
}

func (e *remoteError) Error() string { return e.msg }
func (e *remoteError) Unwrap() error { return e.sentinel }
