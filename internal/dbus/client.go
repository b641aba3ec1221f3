package dbus

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
)

// Client calls the voxshelld shell interface on the session bus.
type Client struct {
	conn *dbus.Conn
	obj  dbus.BusObject
}

// Dial connects a private session bus connection to voxshelld.
func Dial() (*Client, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return NewClient(conn), nil
}

// NewClient wraps an existing connection.
func NewClient(conn *dbus.Conn) *Client {
	return &Client{
		conn: conn,
		obj:  conn.Object(BusName, ObjectPath),
	}
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) call(ctx context.Context, method string, args ...interface{}) *dbus.Call {
	return c.obj.CallWithContext(ctx, Interface+"."+method, 0, args...)
}

// Running reports whether voxshelld owns its bus name.
func (c *Client) Running(ctx context.Context) (bool, error) {
	var has bool
	err := c.conn.BusObject().CallWithContext(ctx, "org.freedesktop.DBus.NameHasOwner", 0, BusName).Store(&has)
	if err != nil {
		return false, fmt.Errorf("failed to query bus name owner: %w", err)
	}
	return has, nil
}

// RequestMicrophonePermission asks the daemon for microphone access.
func (c *Client) RequestMicrophonePermission(ctx context.Context) (bool, error) {
	var granted bool
	if err := c.call(ctx, "RequestMicrophonePermission").Store(&granted); err != nil {
		return false, fromDBusError(err)
	}
	return granted, nil
}

// ShowWindow shows a window by name.
func (c *Client) ShowWindow(ctx context.Context, name string) error {
	return fromDBusError(c.call(ctx, "ShowWindow", name).Err)
}

// HideWindow hides a window by name.
func (c *Client) HideWindow(ctx context.Context, name string) error {
	return fromDBusError(c.call(ctx, "HideWindow", name).Err)
}

// ToggleWindow toggles a window by name.
func (c *Client) ToggleWindow(ctx context.Context, name string) error {
	return fromDBusError(c.call(ctx, "ToggleWindow", name).Err)
}

// ListWindows returns the status of every known window.
func (c *Client) ListWindows(ctx context.Context) ([]WindowStatus, error) {
	var windows []WindowStatus
	if err := c.call(ctx, "ListWindows").Store(&windows); err != nil {
		return nil, fromDBusError(err)
	}
	return windows, nil
}

// StoreGet returns the JSON value under key.
func (c *Client) StoreGet(ctx context.Context, key string) (string, bool, error) {
	var (
		value string
		found bool
	)
	if err := c.call(ctx, "StoreGet", key).Store(&value, &found); err != nil {
		return "", false, fromDBusError(err)
	}
	return value, found, nil
}

// StoreSet stores a JSON value under key.
func (c *Client) StoreSet(ctx context.Context, key, value string) error {
	return fromDBusError(c.call(ctx, "StoreSet", key, value).Err)
}

// StoreDelete removes key and reports whether it existed.
func (c *Client) StoreDelete(ctx context.Context, key string) (bool, error) {
	var existed bool
	if err := c.call(ctx, "StoreDelete", key).Store(&existed); err != nil {
		return false, fromDBusError(err)
	}
	return existed, nil
}

// StoreKeys returns all store keys.
func (c *Client) StoreKeys(ctx context.Context) ([]string, error) {
	var keys []string
	if err := c.call(ctx, "StoreKeys").Store(&keys); err != nil {
		return nil, fromDBusError(err)
	}
	return keys, nil
}

// StoreSave asks the daemon to flush the store.
func (c *Client) StoreSave(ctx context.Context) error {
	return fromDBusError(c.call(ctx, "StoreSave").Err)
}

// ServerInformation returns the daemon name and version.
func (c *Client) ServerInformation(ctx context.Context) (ServerInfo, error) {
	var info ServerInfo
	if err := c.call(ctx, "GetServerInformation").Store(&info.Name, &info.Version); err != nil {
		return ServerInfo{}, fromDBusError(err)
	}
	return info, nil
}
