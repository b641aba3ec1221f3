package dbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/jmylchreest/voxshell/internal/window"
)

const (
	// BusName is the well-known name claimed by voxshelld.
	BusName = "io.github.jmylchreest.VoxShell"
	// Interface is the shell interface name.
	Interface = BusName
	// ObjectPath is the shell object path.
	ObjectPath = dbus.ObjectPath("/io/github/jmylchreest/VoxShell")
)

// Windows is the window control the server needs.
type Windows interface {
	Show(ctx context.Context, name string) error
	Hide(ctx context.Context, name string) error
	Toggle(ctx context.Context, name string) error
	List(ctx context.Context) ([]window.Info, error)
}

// Permissions answers capability requests.
type Permissions interface {
	RequestMicrophone(ctx context.Context) (bool, error)
}

// Store is the key-value store the server exposes.
type Store interface {
	Get(key string) (json.RawMessage, bool)
	Set(key string, value json.RawMessage) error
	Delete(key string) (bool, error)
	Keys() []string
	Save() error
}

// ShellServer implements the io.github.jmylchreest.VoxShell D-Bus interface.
// Exported methods returning *dbus.Error are the remote operations.
type ShellServer struct {
	conn   *dbus.Conn
	logger *slog.Logger

	windows     Windows
	permissions Permissions
	store       Store

	mu         sync.RWMutex
	ctx        context.Context
	cancel     context.CancelFunc
	serverInfo ServerInfo
	running    bool
}

// NewShellServer creates a new ShellServer. Calls made before Start use a
// background context.
func NewShellServer(windows Windows, permissions Permissions, store Store, logger *slog.Logger) *ShellServer {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &ShellServer{
		logger:      logger,
		windows:     windows,
		permissions: permissions,
		store:       store,
		ctx:         ctx,
		cancel:      cancel,
		serverInfo:  DefaultServerInfo(),
	}
}

// SetServerInfo sets the information returned by GetServerInformation.
func (s *ShellServer) SetServerInfo(info ServerInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.serverInfo = info
}

// Start connects to the session bus, exports the shell object and claims
// the bus name. Pending calls are cancelled when ctx is done or Stop is called.
func (s *ShellServer) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server already running")
	}
	s.mu.Unlock()

	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}

	if err := s.export(conn); err != nil {
		_ = conn.Close()
		return err
	}

	reply, err := conn.RequestName(BusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		_ = conn.Close()
		return fmt.Errorf("bus name %s already taken, is another voxshelld running?", BusName)
	}

	s.mu.Lock()
	s.cancel()
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.conn = conn
	s.running = true
	s.mu.Unlock()

	s.logger.Info("D-Bus shell server started", "name", BusName, "path", ObjectPath)
	return nil
}

func (s *ShellServer) export(conn *dbus.Conn) error {
	if err := conn.Export(s, ObjectPath, Interface); err != nil {
		return fmt.Errorf("failed to export object: %w", err)
	}

	node := &introspect.Node{
		Name: string(ObjectPath),
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name:    Interface,
				Methods: shellMethods(),
				Signals: shellSignals(),
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), ObjectPath,
		"org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("failed to export introspectable: %w", err)
	}
	return nil
}

// Stop cancels pending calls, releases the bus name and closes the connection.
func (s *ShellServer) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancel()
	if !s.running {
		return nil
	}
	s.running = false

	if _, err := s.conn.ReleaseName(BusName); err != nil {
		s.logger.Warn("failed to release bus name", "error", err)
	}
	err := s.conn.Close()
	s.conn = nil

	s.logger.Info("D-Bus shell server stopped")
	return err
}

func (s *ShellServer) context() context.Context {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ctx
}

// RequestMicrophonePermission asks the permission broker for the microphone.
// D-Bus method: RequestMicrophonePermission() -> b
func (s *ShellServer) RequestMicrophonePermission() (bool, *dbus.Error) {
	granted, err := s.permissions.RequestMicrophone(s.context())
	if err != nil {
		s.logger.Warn("microphone permission request failed", "error", err)
		return false, toDBusError(err)
	}
	s.logger.Debug("RequestMicrophonePermission called", "granted", granted)
	return granted, nil
}

// ShowFloatingWidget shows the floating widget.
// D-Bus method: ShowFloatingWidget() -> ()
func (s *ShellServer) ShowFloatingWidget() *dbus.Error {
	return s.ShowWindow(window.NameFloating)
}

// HideFloatingWidget hides the floating widget.
// D-Bus method: HideFloatingWidget() -> ()
func (s *ShellServer) HideFloatingWidget() *dbus.Error {
	return s.HideWindow(window.NameFloating)
}

// ShowVoicePopup shows the voice popup.
// D-Bus method: ShowVoicePopup() -> ()
func (s *ShellServer) ShowVoicePopup() *dbus.Error {
	return s.ShowWindow(window.NameVoicePopup)
}

// HideVoicePopup hides the voice popup.
// D-Bus method: HideVoicePopup() -> ()
func (s *ShellServer) HideVoicePopup() *dbus.Error {
	return s.HideWindow(window.NameVoicePopup)
}

// ShowWindow shows a window by name.
// D-Bus method: ShowWindow(s) -> ()
func (s *ShellServer) ShowWindow(name string) *dbus.Error {
	s.logger.Debug("ShowWindow called", "window", name)
	if err := s.windows.Show(s.context(), name); err != nil {
		s.logger.Warn("failed to show window", "window", name, "error", err)
		return toDBusError(err)
	}
	return nil
}

// HideWindow hides a window by name.
// D-Bus method: HideWindow(s) -> ()
func (s *ShellServer) HideWindow(name string) *dbus.Error {
	s.logger.Debug("HideWindow called", "window", name)
	if err := s.windows.Hide(s.context(), name); err != nil {
		s.logger.Warn("failed to hide window", "window", name, "error", err)
		return toDBusError(err)
	}
	return nil
}

// ToggleWindow hides a visible window and shows any other.
// D-Bus method: ToggleWindow(s) -> ()
func (s *ShellServer) ToggleWindow(name string) *dbus.Error {
	s.logger.Debug("ToggleWindow called", "window", name)
	if err := s.windows.Toggle(s.context(), name); err != nil {
		s.logger.Warn("failed to toggle window", "window", name, "error", err)
		return toDBusError(err)
	}
	return nil
}

// ListWindows returns the status of every known window.
// D-Bus method: ListWindows() -> a(sssiixx)
func (s *ShellServer) ListWindows() ([]WindowStatus, *dbus.Error) {
	infos, err := s.windows.List(s.context())
	if err != nil {
		return nil, toDBusError(err)
	}
	out := make([]WindowStatus, 0, len(infos))
	for _, info := range infos {
		out = append(out, windowStatus(info))
	}
	return out, nil
}

// StoreGet returns the JSON value stored under key.
// D-Bus method: StoreGet(s) -> (sb)
func (s *ShellServer) StoreGet(key string) (string, bool, *dbus.Error) {
	v, ok := s.store.Get(key)
	if !ok {
		return "", false, nil
	}
	return string(v), true, nil
}

// StoreSet stores a JSON value under key.
// D-Bus method: StoreSet(ss) -> ()
func (s *ShellServer) StoreSet(key, value string) *dbus.Error {
	if err := s.store.Set(key, json.RawMessage(value)); err != nil {
		return toDBusError(err)
	}
	s.emitStoreChanged(key)
	return nil
}

// StoreDelete removes key and reports whether it existed.
// D-Bus method: StoreDelete(s) -> b
func (s *ShellServer) StoreDelete(key string) (bool, *dbus.Error) {
	existed, err := s.store.Delete(key)
	if err != nil {
		return existed, toDBusError(err)
	}
	if existed {
		s.emitStoreChanged(key)
	}
	return existed, nil
}

// StoreKeys returns all keys in sorted order.
// D-Bus method: StoreKeys() -> as
func (s *ShellServer) StoreKeys() ([]string, *dbus.Error) {
	keys := s.store.Keys()
	if keys == nil {
		keys = []string{}
	}
	return keys, nil
}

// StoreSave flushes the store to disk.
// D-Bus method: StoreSave() -> ()
func (s *ShellServer) StoreSave() *dbus.Error {
	if err := s.store.Save(); err != nil {
		return toDBusError(err)
	}
	return nil
}

// GetServerInformation returns the daemon name and version.
// D-Bus method: GetServerInformation() -> (ss)
func (s *ShellServer) GetServerInformation() (string, string, *dbus.Error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.serverInfo.Name, s.serverInfo.Version, nil
}

func shellMethods() []introspect.Method {
	noArgs := func(name string) introspect.Method { return introspect.Method{Name: name} }
	nameIn := func(name string) introspect.Method {
		return introspect.Method{
			Name: name,
			Args: []introspect.Arg{{Name: "name", Type: "s", Direction: "in"}},
		}
	}

	return []introspect.Method{
		{
			Name: "RequestMicrophonePermission",
			Args: []introspect.Arg{
				{Name: "granted", Type: "b", Direction: "out"},
			},
		},
		noArgs("ShowFloatingWidget"),
		noArgs("HideFloatingWidget"),
		noArgs("ShowVoicePopup"),
		noArgs("HideVoicePopup"),
		nameIn("ShowWindow"),
		nameIn("HideWindow"),
		nameIn("ToggleWindow"),
		{
			Name: "ListWindows",
			Args: []introspect.Arg{
				{Name: "windows", Type: "a(sssiixx)", Direction: "out"},
			},
		},
		{
			Name: "StoreGet",
			Args: []introspect.Arg{
				{Name: "key", Type: "s", Direction: "in"},
				{Name: "value", Type: "s", Direction: "out"},
				{Name: "found", Type: "b", Direction: "out"},
			},
		},
		{
			Name: "StoreSet",
			Args: []introspect.Arg{
				{Name: "key", Type: "s", Direction: "in"},
				{Name: "value", Type: "s", Direction: "in"},
			},
		},
		{
			Name: "StoreDelete",
			Args: []introspect.Arg{
				{Name: "key", Type: "s", Direction: "in"},
				{Name: "existed", Type: "b", Direction: "out"},
			},
		},
		{
			Name: "StoreKeys",
			Args: []introspect.Arg{
				{Name: "keys", Type: "as", Direction: "out"},
			},
		},
		noArgs("StoreSave"),
		{
			Name: "GetServerInformation",
			Args: []introspect.Arg{
				{Name: "name", Type: "s", Direction: "out"},
				{Name: "version", Type: "s", Direction: "out"},
			},
		},
	}
}

func shellSignals() []introspect.Signal {
	return []introspect.Signal{
		{
			Name: "WindowStateChanged",
			Args: []introspect.Arg{
				{Name: "name", Type: "s"},
				{Name: "state", Type: "s"},
			},
		},
		{
			Name: "StoreChanged",
			Args: []introspect.Arg{
				{Name: "keys", Type: "as"},
			},
		},
	}
}
