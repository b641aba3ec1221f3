package dbus

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

// EmitWindowStateChanged emits the WindowStateChanged signal.
// This signal is emitted after every window state transition.
func (s *ShellServer) EmitWindowStateChanged(name, state string) error {
	conn := s.Connection()
	if conn == nil {
		return fmt.Errorf("not connected to D-Bus")
	}

	if err := conn.Emit(ObjectPath, Interface+".WindowStateChanged", name, state); err != nil {
		return fmt.Errorf("failed to emit WindowStateChanged signal: %w", err)
	}

	s.logger.Debug("emitted WindowStateChanged signal", "window", name, "state", state)
	return nil
}

// EmitStoreChanged emits the StoreChanged signal with the keys whose values changed.
func (s *ShellServer) EmitStoreChanged(keys []string) error {
	conn := s.Connection()
	if conn == nil {
		return fmt.Errorf("not connected to D-Bus")
	}

	if err := conn.Emit(ObjectPath, Interface+".StoreChanged", keys); err != nil {
		return fmt.Errorf("failed to emit StoreChanged signal: %w", err)
	}

	s.logger.Debug("emitted StoreChanged signal", "keys", keys)
	return nil
}

// emitStoreChanged reports a mutation made through the bus to other clients.
func (s *ShellServer) emitStoreChanged(key string) {
	if s.Connection() == nil {
		return
	}
	if err := s.EmitStoreChanged([]string{key}); err != nil {
		s.logger.Warn("failed to emit store change", "key", key, "error", err)
	}
}

// Connection returns the underlying D-Bus connection, nil when not running.
// voxshelld reuses it to send desktop notifications.
func (s *ShellServer) Connection() *dbus.Conn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn
}
