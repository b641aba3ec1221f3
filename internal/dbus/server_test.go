package dbus

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/voxshell/internal/permission"
	"github.com/jmylchreest/voxshell/internal/store"
	"github.com/jmylchreest/voxshell/internal/window"
)

type fakeWindows struct {
	calls []string
	err   error
	infos []window.Info
}

func (f *fakeWindows) Show(_ context.Context, name string) error {
	f.calls = append(f.calls, "show "+name)
	return f.err
}

func (f *fakeWindows) Hide(_ context.Context, name string) error {
	f.calls = append(f.calls, "hide "+name)
	return f.err
}

func (f *fakeWindows) Toggle(_ context.Context, name string) error {
	f.calls = append(f.calls, "toggle "+name)
	return f.err
}

func (f *fakeWindows) List(context.Context) ([]window.Info, error) {
	return f.infos, f.err
}

func newTestServer(t *testing.T, windows *fakeWindows) (*ShellServer, *store.KV) {
	t.Helper()
	kv, err := store.Open(filepath.Join(t.TempDir(), "store.json"), false, nil)
	require.NoError(t, err)
	return NewShellServer(windows, permission.NewDefaultBroker(nil), kv, nil), kv
}

func TestShellServer_NamedWindowMethods(t *testing.T) {
	windows := &fakeWindows{}
	s, _ := newTestServer(t, windows)

	assert.Nil(t, s.ShowFloatingWidget())
	assert.Nil(t, s.HideFloatingWidget())
	assert.Nil(t, s.ShowVoicePopup())
	assert.Nil(t, s.HideVoicePopup())
	assert.Nil(t, s.ToggleWindow("voice-popup"))

	assert.Equal(t, []string{
		"show floating",
		"hide floating",
		"show voice-popup",
		"hide voice-popup",
		"toggle voice-popup",
	}, windows.calls)
}

func TestShellServer_RequestMicrophonePermission(t *testing.T) {
	s, _ := newTestServer(t, &fakeWindows{})

	granted, dbusErr := s.RequestMicrophonePermission()
	assert.Nil(t, dbusErr)
	assert.True(t, granted)
}

func TestShellServer_PermissionDenied(t *testing.T) {
	broker := permission.NewBroker(nil)
	broker.Register(permission.CapabilityMicrophone, permission.Static{Granted: false})
	s := NewShellServer(&fakeWindows{}, broker, nil, nil)

	granted, dbusErr := s.RequestMicrophonePermission()
	assert.Nil(t, dbusErr)
	assert.False(t, granted)
}

func TestShellServer_ErrorNames(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"unknown window", window.ErrUnknownWindow, ErrNameUnknownWindow},
		{"not found", window.ErrWindowNotFound, ErrNameNotFound},
		{"host failure", &window.Error{Op: "show", Window: "floating", Cause: errors.New("gone")}, ErrNameHost},
		{"other", errors.New("boom"), ErrNameFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t, &fakeWindows{err: tt.err})

			dbusErr := s.ShowWindow("floating")
			require.NotNil(t, dbusErr)
			assert.Equal(t, tt.expected, dbusErr.Name)
			assert.Equal(t, tt.err.Error(), dbusErr.Error())
		})
	}
}

func TestShellServer_ListWindows(t *testing.T) {
	created := time.Unix(1_700_000_000, 0)
	windows := &fakeWindows{infos: []window.Info{
		{
			Name:       "floating",
			State:      window.StateVisible,
			InstanceID: "01HZX",
			Position:   window.Point{X: 1720, Y: 508},
			Positioned: true,
			CreatedAt:  created,
			ShownAt:    created.Add(time.Minute),
		},
		{Name: "voice-popup", State: window.StateNonExistent},
	}}
	s, _ := newTestServer(t, windows)

	got, dbusErr := s.ListWindows()
	require.Nil(t, dbusErr)
	require.Len(t, got, 2)

	assert.Equal(t, WindowStatus{
		Name:       "floating",
		State:      "visible",
		InstanceID: "01HZX",
		X:          1720,
		Y:          508,
		Created:    created.Unix(),
		Shown:      created.Add(time.Minute).Unix(),
	}, got[0])
	assert.True(t, got[0].CreatedAt().Equal(created))

	assert.Equal(t, "nonexistent", got[1].State)
	assert.Zero(t, got[1].Created)
	assert.True(t, got[1].ShownAt().IsZero())
}

func TestShellServer_Store(t *testing.T) {
	s, kv := newTestServer(t, &fakeWindows{})

	keys, dbusErr := s.StoreKeys()
	require.Nil(t, dbusErr)
	assert.NotNil(t, keys)
	assert.Empty(t, keys)

	require.Nil(t, s.StoreSet("apiKey", `"sk-1"`))
	require.Nil(t, s.StoreSet("autoSave", `true`))

	value, found, dbusErr := s.StoreGet("apiKey")
	require.Nil(t, dbusErr)
	assert.True(t, found)
	assert.Equal(t, `"sk-1"`, value)

	_, found, _ = s.StoreGet("missing")
	assert.False(t, found)

	dbusErr = s.StoreSet("bad", `{oops`)
	require.NotNil(t, dbusErr)
	assert.Equal(t, ErrNameInvalidArgument, dbusErr.Name)

	dbusErr = s.StoreSet("", `1`)
	require.NotNil(t, dbusErr)
	assert.Equal(t, ErrNameInvalidArgument, dbusErr.Name)

	existed, dbusErr := s.StoreDelete("autoSave")
	require.Nil(t, dbusErr)
	assert.True(t, existed)

	keys, _ = s.StoreKeys()
	assert.Equal(t, []string{"apiKey"}, keys)

	require.Nil(t, s.StoreSave())
	reopened, err := store.Open(kv.Path(), false, nil)
	require.NoError(t, err)
	v, ok := reopened.Get("apiKey")
	require.True(t, ok)
	assert.Equal(t, json.RawMessage(`"sk-1"`), v)
}

func TestShellServer_ServerInformation(t *testing.T) {
	s, _ := newTestServer(t, &fakeWindows{})
	s.SetServerInfo(ServerInfo{Name: "voxshelld", Version: "1.2.3"})

	name, version, dbusErr := s.GetServerInformation()
	require.Nil(t, dbusErr)
	assert.Equal(t, "voxshelld", name)
	assert.Equal(t, "1.2.3", version)
}

func TestShellServer_EmitWithoutConnection(t *testing.T) {
	s, _ := newTestServer(t, &fakeWindows{})

	assert.Error(t, s.EmitWindowStateChanged("floating", "visible"))
	assert.Error(t, s.EmitStoreChanged([]string{"a"}))
	assert.NoError(t, s.Stop())
}

func TestFromDBusError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"unknown window", dbus.NewError(ErrNameUnknownWindow, []interface{}{`unknown window: "sidebar"`}), window.ErrUnknownWindow},
		{"not found value", dbus.Error{Name: ErrNameNotFound, Body: []interface{}{"window not found"}}, window.ErrWindowNotFound},
		{"invalid argument", dbus.NewError(ErrNameInvalidArgument, []interface{}{"value is not valid JSON"}), ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fromDBusError(tt.err)
			assert.ErrorIs(t, got, tt.sentinel)
		})
	}

	host := fromDBusError(dbus.NewError(ErrNameHost, []interface{}{"failed to show window"}))
	assert.EqualError(t, host, "failed to show window")

	plain := errors.New("not a dbus error")
	assert.Same(t, plain, fromDBusError(plain))
	assert.NoError(t, fromDBusError(nil))
}

func TestToDBusError_RoundTrip(t *testing.T) {
	err := toDBusError(window.ErrUnknownWindow)
	back := fromDBusError(err)
	assert.ErrorIs(t, back, window.ErrUnknownWindow)
	assert.Equal(t, window.ErrUnknownWindow.Error(), back.Error())

	assert.Nil(t, toDBusError(nil))
	assert.Equal(t, ErrNameInvalidArgument, toDBusError(permission.ErrUnsupported).Name)
}

func TestParseSignal(t *testing.T) {
	tests := []struct {
		name   string
		sig    *dbus.Signal
		want   Event
		wantOK bool
	}{
		{
			name:   "window state",
			sig:    &dbus.Signal{Path: ObjectPath, Name: Interface + ".WindowStateChanged", Body: []interface{}{"floating", "visible"}},
			want:   Event{Signal: "WindowStateChanged", Window: "floating", State: "visible"},
			wantOK: true,
		},
		{
			name:   "store changed",
			sig:    &dbus.Signal{Path: ObjectPath, Name: Interface + ".StoreChanged", Body: []interface{}{[]string{"a", "b"}}},
			want:   Event{Signal: "StoreChanged", Keys: []string{"a", "b"}},
			wantOK: true,
		},
		{
			name: "other path",
			sig:  &dbus.Signal{Path: "/elsewhere", Name: Interface + ".StoreChanged", Body: []interface{}{[]string{"a"}}},
		},
		{
			name: "short body",
			sig:  &dbus.Signal{Path: ObjectPath, Name: Interface + ".WindowStateChanged", Body: []interface{}{"floating"}},
		},
		{
			name: "nil",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseSignal(tt.sig)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
