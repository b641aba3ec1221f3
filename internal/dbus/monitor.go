package dbus

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
)

// Event is a signal received from voxshelld.
type Event struct {
	Signal string   // "WindowStateChanged" or "StoreChanged"
	Window string   // set for WindowStateChanged
	State  string   // set for WindowStateChanged
	Keys   []string // set for StoreChanged
}

// Monitor subscribes to the shell signals and calls handler for each one
// until ctx is done.
func (c *Client) Monitor(ctx context.Context, handler func(Event)) error {
	opts := []dbus.MatchOption{
		dbus.WithMatchObjectPath(ObjectPath),
		dbus.WithMatchInterface(Interface),
	}
	if err := c.conn.AddMatchSignalContext(ctx, opts...); err != nil {
		return fmt.Errorf("failed to add signal match: %w", err)
	}
	defer func() { _ = c.conn.RemoveMatchSignal(opts...) }()

	signals := make(chan *dbus.Signal, 16)
	c.conn.Signal(signals)
	defer c.conn.RemoveSignal(signals)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sig, ok := <-signals:
			if !ok {
				return fmt.Errorf("connection closed")
			}
			if ev, ok := parseSignal(sig); ok {
				handler(ev)
			}
		}
	}
}

// parseSignal decodes a shell signal; other signals are ignored.
func parseSignal(sig *dbus.Signal) (Event, bool) {
	if sig == nil || sig.Path != ObjectPath {
		return Event{}, false
	}

	switch sig.Name {
	case Interface + ".WindowStateChanged":
		if len(sig.Body) < 2 {
			return Event{}, false
		}
		name, ok1 := sig.Body[0].(string)
		state, ok2 := sig.Body[1].(string)
		if !ok1 || !ok2 {
			return Event{}, false
		}
		return Event{Signal: "WindowStateChanged", Window: name, State: state}, true

	case Interface + ".StoreChanged":
		if len(sig.Body) < 1 {
			return Event{}, false
		}
		keys, ok := sig.Body[0].([]string)
		if !ok {
			return Event{}, false
		}
		return Event{Signal: "StoreChanged", Keys: keys}, true
	}
	return Event{}, false
}
