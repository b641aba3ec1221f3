package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "http://localhost:3000", cfg.Frontend.BaseURL)
	assert.True(t, cfg.Windows.PrepareFloating)
	assert.False(t, cfg.Windows.RequireFloating)
	assert.Equal(t, "default", cfg.Windows.Theme)
	assert.Zero(t, cfg.Windows.Monitor)
	assert.Empty(t, cfg.Store.Path)
	assert.True(t, cfg.Store.Autosave)
	assert.True(t, cfg.Store.Watch)
	assert.True(t, cfg.MicrophoneGranted())
	require.NoError(t, cfg.Validate())
}

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	cfg, err := Load("/nonexistent/path/voxshelld.toml")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_ParsesTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "voxshelld.toml")

	content := `
[log]
level = "debug"

[frontend]
base_url = "http://127.0.0.1:1420"

[windows]
require_floating = true

[store]
path = "/tmp/voxshell/kv.json"
autosave = false

[permission]
microphone = "denied"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	assert.Equal(t, "http://127.0.0.1:1420", cfg.Frontend.BaseURL)
	assert.True(t, cfg.Windows.RequireFloating)
	// Unset keys keep their defaults.
	assert.True(t, cfg.Windows.PrepareFloating)
	assert.True(t, cfg.Store.Watch)
	assert.False(t, cfg.Store.Autosave)
	assert.Equal(t, "/tmp/voxshell/kv.json", cfg.StorePath("/ignored"))
	assert.False(t, cfg.MicrophoneGranted())
}

func TestLoad_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voxshelld.toml")
	require.NoError(t, os.WriteFile(path, []byte("[log\nlevel="), 0644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "failed to parse config file")
}

func TestLoad_InvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voxshelld.toml")
	require.NoError(t, os.WriteFile(path, []byte("[log]\nlevel = \"loud\"\n"), 0644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "invalid configuration")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"upper case level", func(c *Config) { c.Log.Level = "WARN" }, ""},
		{"bad level", func(c *Config) { c.Log.Level = "trace" }, "invalid log level"},
		{"empty base url", func(c *Config) { c.Frontend.BaseURL = "" }, "base_url must be set"},
		{"base url without scheme", func(c *Config) { c.Frontend.BaseURL = "/app" }, "http, https or file"},
		{"unsupported scheme", func(c *Config) { c.Frontend.BaseURL = "tauri://localhost" }, "http, https or file"},
		{"file base url", func(c *Config) { c.Frontend.BaseURL = "file:///usr/share/voxshell" }, ""},
		{"require without prepare", func(c *Config) {
			c.Windows.RequireFloating = true
			c.Windows.PrepareFloating = false
		}, "require_floating"},
		{"negative monitor", func(c *Config) { c.Windows.Monitor = -1 }, "invalid monitor"},
		{"second monitor", func(c *Config) { c.Windows.Monitor = 2 }, ""},
		{"bad permission", func(c *Config) { c.Permission.Microphone = "ask" }, "microphone permission"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"Error", slog.LevelError},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Log.Level = tt.level
			assert.Equal(t, tt.expected, cfg.SlogLevel())
		})
	}
}

func TestStorePath(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, filepath.Join("/data", "store.json"), cfg.StorePath("/data"))

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	cfg.Store.Path = "~/voxshell/store.json"
	assert.Equal(t, filepath.Join(home, "voxshell", "store.json"), cfg.StorePath("/data"))
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "voxshelld.toml")

	cfg := DefaultConfig()
	cfg.Log.Level = "warn"
	cfg.Windows.Theme = "glass"
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestChanges(t *testing.T) {
	old := DefaultConfig()
	assert.Empty(t, old.Changes(DefaultConfig()))

	updated := DefaultConfig()
	updated.Log.Level = "INFO"
	assert.Empty(t, old.Changes(updated), "level names are case-insensitive")

	updated.Windows.Theme = "glass"
	updated.Windows.Monitor = 2
	updated.Store.Watch = false
	updated.Frontend.BaseURL = "http://127.0.0.1:1420"
	assert.Equal(t, []string{
		"frontend.base_url",
		"windows.theme",
		"windows.monitor",
		"store.watch",
	}, old.Changes(updated))
}

func TestRestartRequired(t *testing.T) {
	keys := []string{"log.level", "frontend.base_url", "windows.theme", "store.watch", "permission.microphone"}
	assert.Equal(t, []string{"frontend.base_url", "store.watch"}, RestartRequired(keys))
	assert.Empty(t, RestartRequired([]string{"windows.monitor"}))
}
