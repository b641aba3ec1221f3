// Package config handles voxshelld configuration loading and parsing.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Config is the configuration for voxshelld.
// Loaded from ~/.config/voxshell/voxshelld.toml
type Config struct {
	Log        LogConfig        `toml:"log"`
	Frontend   FrontendConfig   `toml:"frontend"`
	Windows    WindowsConfig    `toml:"windows"`
	Store      StoreConfig      `toml:"store"`
	Permission PermissionConfig `toml:"permission"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `toml:"level"` // "debug", "info", "warn", "error"
}

// FrontendConfig locates the web front-end that renders the windows.
type FrontendConfig struct {
	BaseURL string `toml:"base_url"` // Window routes are joined to this and loaded in a web view
}

// WindowsConfig contains window lifecycle settings.
type WindowsConfig struct {
	PrepareFloating bool   `toml:"prepare_floating"` // Create the floating widget hidden at startup
	RequireFloating bool   `toml:"require_floating"` // Showing "floating" fails unless it was prepared
	Theme           string `toml:"theme"`            // Surface stylesheet name without .css extension
	Monitor         int    `toml:"monitor"`          // 1-indexed output for placement, 0 = first monitor
}

// StoreConfig contains key-value store settings.
type StoreConfig struct {
	Path     string `toml:"path"`     // Empty = ~/.local/share/voxshell/store.json
	Autosave bool   `toml:"autosave"` // Write after every mutation
	Watch    bool   `toml:"watch"`    // Reload on external edits
}

// PermissionConfig contains permission backend settings.
type PermissionConfig struct {
	Microphone string `toml:"microphone"` // "granted" or "denied"
}

// LogLevel represents a log level name.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// ValidLogLevels returns all valid log level values.
func ValidLogLevels() []LogLevel {
	return []LogLevel{LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError}
}

// PermissionDecision is the answer of the static permission backend.
type PermissionDecision string

const (
	PermissionGranted PermissionDecision = "granted"
	PermissionDenied  PermissionDecision = "denied"
)

// DefaultConfig returns a new Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level: string(LogLevelInfo),
		},
		Frontend: FrontendConfig{
			BaseURL: "http://localhost:3000",
		},
		Windows: WindowsConfig{
			PrepareFloating: true,
			RequireFloating: false,
			Theme:           "default",
		},
		Store: StoreConfig{
			Autosave: true,
			Watch:    true,
		},
		Permission: PermissionConfig{
			Microphone: string(PermissionGranted),
		},
	}
}

// Dir returns the voxshell config directory.
func Dir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "voxshell"), nil
}

// DefaultPath returns the path to the daemon config file.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "voxshelld.toml"), nil
}

// Load loads the configuration from path, or from DefaultPath when path is empty.
// If the file doesn't exist, returns the default configuration.
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("failed to get config path: %w", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults, then overlay with file contents
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to path atomically.
func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write atomically via temp file
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return os.Rename(tmpPath, path)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	validLevel := false
	for _, l := range ValidLogLevels() {
		if strings.EqualFold(c.Log.Level, string(l)) {
			validLevel = true
			break
		}
	}
	if !validLevel {
		return fmt.Errorf("invalid log level %q, must be one of: %v", c.Log.Level, ValidLogLevels())
	}

	if c.Frontend.BaseURL == "" {
		return fmt.Errorf("frontend base_url must be set, windows load their routes from it")
	}
	u, err := url.Parse(c.Frontend.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid frontend base_url %q: %w", c.Frontend.BaseURL, err)
	}
	switch u.Scheme {
	case "http", "https", "file":
	default:
		return fmt.Errorf("frontend base_url %q must use http, https or file", c.Frontend.BaseURL)
	}

	if c.Windows.Monitor < 0 {
		return fmt.Errorf("invalid monitor %d, must be 0 or a 1-indexed monitor number", c.Windows.Monitor)
	}

	if c.Windows.RequireFloating && !c.Windows.PrepareFloating {
		return fmt.Errorf("require_floating needs prepare_floating, otherwise the floating widget can never be shown")
	}

	switch PermissionDecision(c.Permission.Microphone) {
	case PermissionGranted, PermissionDenied:
	default:
		return fmt.Errorf("invalid microphone permission %q, must be %q or %q",
			c.Permission.Microphone, PermissionGranted, PermissionDenied)
	}

	return nil
}

// SlogLevel returns the configured level as a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch LogLevel(strings.ToLower(c.Log.Level)) {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// StorePath returns the configured store path, falling back to dataDir/store.json.
// Expands ~ to the home directory.
func (c *Config) StorePath(dataDir string) string {
	if c.Store.Path == "" {
		return filepath.Join(dataDir, "store.json")
	}
	return expandPath(c.Store.Path)
}

// Changes returns the keys, in file notation, whose values differ between c
// and other.
func (c *Config) Changes(other *Config) []string {
	var keys []string
	diff := func(key string, differ bool) {
		if differ {
			keys = append(keys, key)
		}
	}

	diff("log.level", !strings.EqualFold(c.Log.Level, other.Log.Level))
	diff("frontend.base_url", c.Frontend.BaseURL != other.Frontend.BaseURL)
	diff("windows.prepare_floating", c.Windows.PrepareFloating != other.Windows.PrepareFloating)
	diff("windows.require_floating", c.Windows.RequireFloating != other.Windows.RequireFloating)
	diff("windows.theme", c.Windows.Theme != other.Windows.Theme)
	diff("windows.monitor", c.Windows.Monitor != other.Windows.Monitor)
	diff("store.path", c.Store.Path != other.Store.Path)
	diff("store.autosave", c.Store.Autosave != other.Store.Autosave)
	diff("store.watch", c.Store.Watch != other.Store.Watch)
	diff("permission.microphone", c.Permission.Microphone != other.Permission.Microphone)

	return keys
}

// restartOnly holds the keys read once at startup.
var restartOnly = map[string]bool{
	"frontend.base_url":        true,
	"windows.prepare_floating": true,
	"windows.require_floating": true,
	"store.path":               true,
	"store.autosave":           true,
	"store.watch":              true,
}

// RestartRequired filters keys down to those that only apply after a restart.
func RestartRequired(keys []string) []string {
	var out []string
	for _, k := range keys {
		if restartOnly[k] {
			out = append(out, k)
		}
	}
	return out
}

// MicrophoneGranted reports whether the static backend grants the microphone.
func (c *Config) MicrophoneGranted() bool {
	return PermissionDecision(c.Permission.Microphone) == PermissionGranted
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
