// Package store implements the key-value store shared with the voxshell
// front-end. Values are opaque JSON documents persisted to a single file.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

var (
	// ErrInvalidValue is returned when a value is not a valid JSON document.
	ErrInvalidValue = errors.New("value is not valid JSON")
	// ErrInvalidKey is returned for an empty key.
	ErrInvalidKey = errors.New("key must not be empty")
)

// DataDir returns the path to the voxshell data directory.
// Uses XDG_DATA_HOME or defaults to ~/.local/share/voxshell.
func DataDir() (string, error) {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "voxshell"), nil
}

// DefaultPath returns the path to the default store file.
func DefaultPath() (string, error) {
	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "store.json"), nil
}

// KV is a JSON-valued key-value store backed by one file.
type KV struct {
	mu       sync.RWMutex
	path     string
	values   map[string]json.RawMessage
	autosave bool
	logger   *slog.Logger

	// writeMu serializes mutations, saves and reloads, so a reload never
	// interleaves with a write. lastSaved is the content of our last write
	// so Reload can ignore the echo of it.
	writeMu   sync.Mutex
	lastSaved []byte
}

// Open loads the store at path. A missing file yields an empty store.
// A corrupt file also yields an empty store; it is overwritten on the next save.
func Open(path string, autosave bool, logger *slog.Logger) (*KV, error) {
	if logger == nil {
		logger = slog.Default()
	}
	kv := &KV{
		path:     path,
		values:   make(map[string]json.RawMessage),
		autosave: autosave,
		logger:   logger,
	}
	kv.writeMu.Lock()
	defer kv.writeMu.Unlock()
	if _, err := kv.reloadLocked(false); err != nil {
		return nil, err
	}
	return kv, nil
}

// Path returns the backing file path.
func (kv *KV) Path() string {
	return kv.path
}

// Get returns the raw JSON value for key.
func (kv *KV) Get(key string) (json.RawMessage, bool) {
	kv.mu.RLock()
	defer kv.mu.RUnlock()

	v, ok := kv.values[key]
	if !ok {
		return nil, false
	}
	return append(json.RawMessage(nil), v...), true
}

// Set stores value under key. The value must be a valid JSON document.
// With autosave on, a failed write rolls the value back and returns the error.
func (kv *KV) Set(key string, value json.RawMessage) error {
	if key == "" {
		return ErrInvalidKey
	}
	if !json.Valid(value) {
		return fmt.Errorf("%w: key %q", ErrInvalidValue, key)
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, value); err != nil {
		return fmt.Errorf("%w: key %q", ErrInvalidValue, key)
	}

	kv.writeMu.Lock()
	defer kv.writeMu.Unlock()

	old, existed := kv.swap(key, json.RawMessage(compact.Bytes()), true)
	if err := kv.maybeSaveLocked(); err != nil {
		kv.swap(key, old, existed)
		return err
	}
	return nil
}

// Delete removes key. It reports whether the key existed.
// With autosave on, a failed write restores the key and returns the error.
func (kv *KV) Delete(key string) (bool, error) {
	kv.writeMu.Lock()
	defer kv.writeMu.Unlock()

	old, existed := kv.swap(key, nil, false)
	if !existed {
		return false, nil
	}
	if err := kv.maybeSaveLocked(); err != nil {
		kv.swap(key, old, true)
		return true, err
	}
	return true, nil
}

// swap sets key to value (or removes it when present is false) and returns
// the previous entry.
func (kv *KV) swap(key string, value json.RawMessage, present bool) (json.RawMessage, bool) {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	old, existed := kv.values[key]
	if present {
		kv.values[key] = value
	} else {
		delete(kv.values, key)
	}
	return old, existed
}

// Keys returns all keys in sorted order.
func (kv *KV) Keys() []string {
	kv.mu.RLock()
	defer kv.mu.RUnlock()

	keys := make([]string, 0, len(kv.values))
	for k := range kv.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Snapshot returns a copy of every entry.
func (kv *KV) Snapshot() map[string]json.RawMessage {
	kv.mu.RLock()
	defer kv.mu.RUnlock()

	out := make(map[string]json.RawMessage, len(kv.values))
	for k, v := range kv.values {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out
}

// Len returns the number of entries.
func (kv *KV) Len() int {
	kv.mu.RLock()
	defer kv.mu.RUnlock()
	return len(kv.values)
}

// Save writes the store to disk atomically.
func (kv *KV) Save() error {
	kv.writeMu.Lock()
	defer kv.writeMu.Unlock()
	return kv.saveLocked()
}

func (kv *KV) saveLocked() error {
	kv.mu.RLock()
	data, err := json.MarshalIndent(kv.values, "", "  ")
	kv.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal store: %w", err)
	}

	dir := filepath.Dir(kv.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	// Write atomically via temp file
	tmpPath := kv.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write store file: %w", err)
	}
	if err := os.Rename(tmpPath, kv.path); err != nil {
		return fmt.Errorf("failed to replace store file: %w", err)
	}
	kv.lastSaved = data
	return nil
}

// Reload re-reads the file and returns the keys whose values changed,
// including keys that were added or removed. A file whose content is what
// this store last wrote is ignored. An empty or unparsable file is treated
// as a write in progress and the current values are kept.
func (kv *KV) Reload() ([]string, error) {
	kv.writeMu.Lock()
	defer kv.writeMu.Unlock()
	return kv.reloadLocked(true)
}

func (kv *KV) reloadLocked(keepOnCorrupt bool) ([]string, error) {
	values := make(map[string]json.RawMessage)

	data, err := os.ReadFile(kv.path)
	switch {
	case err == nil:
		if kv.lastSaved != nil && bytes.Equal(data, kv.lastSaved) {
			return nil, nil
		}
		if err := parseValues(data, values); err != nil {
			if keepOnCorrupt {
				kv.logger.Warn("store file unreadable, keeping current values", "path", kv.path, "error", err)
				return nil, nil
			}
			kv.logger.Warn("store file is corrupt, starting empty", "path", kv.path, "error", err)
			values = make(map[string]json.RawMessage)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read store file: %w", err)
	}

	kv.mu.Lock()
	changed := diffKeys(kv.values, values)
	kv.values = values
	kv.mu.Unlock()

	return changed, nil
}

var errEmptyFile = errors.New("store file is empty")

// parseValues decodes a store file into values.
func parseValues(data []byte, values map[string]json.RawMessage) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return errEmptyFile
	}
	return json.Unmarshal(data, &values)
}

func (kv *KV) maybeSaveLocked() error {
	if !kv.autosave {
		return nil
	}
	return kv.saveLocked()
}

// diffKeys returns the sorted keys that differ between a and b.
func diffKeys(a, b map[string]json.RawMessage) []string {
	var changed []string
	for k, av := range a {
		bv, ok := b[k]
		if !ok || !jsonEqual(av, bv) {
			changed = append(changed, k)
		}
	}
	for k := range b {
		if _, ok := a[k]; !ok {
			changed = append(changed, k)
		}
	}
	sort.Strings(changed)
	return changed
}

func jsonEqual(a, b json.RawMessage) bool {
	var ca, cb bytes.Buffer
	if json.Compact(&ca, a) != nil || json.Compact(&cb, b) != nil {
		return bytes.Equal(a, b)
	}
	return bytes.Equal(ca.Bytes(), cb.Bytes())
}
