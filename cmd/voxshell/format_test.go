package main

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/voxshell/internal/dbus"
)

func TestNormalizeValue(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{`"sk-123"`, `"sk-123"`, false},
		{` true `, `true`, false},
		{`{ "x": 1, "y": [1, 2] }`, `{"x":1,"y":[1,2]}`, false},
		{`sk-123`, "", true},
		{``, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := normalizeValue(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWindowRecords(t *testing.T) {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	records := windowRecords([]dbus.WindowStatus{
		{Name: "floating", State: "visible", InstanceID: "01J", X: 10, Y: 20, Created: created.Unix(), Shown: created.Unix()},
		{Name: "voice-popup", State: "nonexistent"},
	})

	require.Len(t, records, 2)
	assert.Equal(t, "floating", records[0].Name)
	assert.Equal(t, created.Local().Format(time.RFC3339), records[0].CreatedAt)
	assert.Empty(t, records[1].CreatedAt)
	assert.Empty(t, records[1].ShownAt)
}

func TestRelativeTime(t *testing.T) {
	assert.Equal(t, "-", relativeTime(time.Time{}))
	assert.Equal(t, "1 hour ago", relativeTime(time.Now().Add(-time.Hour)))
}

func TestRenderWindowTable(t *testing.T) {
	out := renderWindowTable([]dbus.WindowStatus{
		{Name: "floating", State: "hidden", X: 1800, Y: 950, Created: time.Now().Unix()},
		{Name: "voice-popup", State: "nonexistent"},
	})

	assert.Contains(t, out, "WINDOW")
	assert.Contains(t, out, "floating")
	assert.Contains(t, out, "1800,950")
	assert.Contains(t, out, "voice-popup")
	assert.Contains(t, out, "nonexistent")
}

func TestEncodeStore(t *testing.T) {
	values := map[string]json.RawMessage{
		"apiKey":   json.RawMessage(`"sk-123"`),
		"autoSave": json.RawMessage(`true`),
	}

	var buf bytes.Buffer
	require.NoError(t, encodeStore(&buf, "json", values))
	assert.JSONEq(t, `{"apiKey": "sk-123", "autoSave": true}`, buf.String())

	buf.Reset()
	require.NoError(t, encodeStore(&buf, "yaml", values))
	assert.Equal(t, "apiKey: sk-123\nautoSave: true\n", buf.String())

	assert.Error(t, encodeStore(&buf, "xml", values))
}

func TestGenerateWaybarStatus(t *testing.T) {
	stopped := generateWaybarStatus(daemonStatus{})
	assert.Equal(t, "stopped", stopped.Class)
	assert.Empty(t, stopped.Text)

	running := daemonStatus{
		Running: true,
		Server:  dbus.ServerInfo{Name: "voxshelld", Version: "1.0.0"},
		Windows: []dbus.WindowStatus{
			{Name: "floating", State: "visible"},
			{Name: "voice-popup", State: "hidden"},
		},
	}
	idle := generateWaybarStatus(running)
	assert.Equal(t, "idle", idle.Class)
	assert.Equal(t, "voxshelld 1.0.0: running\n  floating: visible\n  voice-popup: hidden", idle.Tooltip)

	running.Windows[1].State = "visible"
	assert.Equal(t, "listening", generateWaybarStatus(running).Alt)
}

func TestFormatEvent(t *testing.T) {
	assert.Equal(t, "WindowStateChanged floating visible",
		formatEvent(dbus.Event{Signal: "WindowStateChanged", Window: "floating", State: "visible"}))
	assert.Equal(t, "StoreChanged a,b",
		formatEvent(dbus.Event{Signal: "StoreChanged", Keys: []string{"b", "a"}}))

	data, err := json.Marshal(eventRecord(dbus.Event{Signal: "StoreChanged", Keys: []string{"apiKey"}}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"signal": "StoreChanged", "keys": ["apiKey"]}`, string(data))
}

func TestPermissionWord(t *testing.T) {
	assert.Equal(t, "granted", permissionWord(true))
	assert.Equal(t, "denied", permissionWord(false))
}
