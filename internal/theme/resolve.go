package theme

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrThemeNotFound is returned when neither the user directory nor the
// bundled set has the requested theme.
var ErrThemeNotFound = errors.New("theme not found")

// Resolve finds a theme by name. A file in dir overrides a bundled theme of
// the same name. An unknown name resolves to the default theme and
// returns ErrThemeNotFound alongside it.
func Resolve(dir, name string) (*Theme, error) {
	if name == "" {
		name = DefaultThemeName
	}

	var userErr error
	if dir != "" {
		path := filepath.Join(dir, name+".css")
		if _, err := os.Stat(path); err == nil {
			t, err := NewTheme(name, path)
			if err == nil {
				return t, nil
			}
			userErr = err
		}
	}

	if t, found := NewEmbeddedTheme(name); found {
		if userErr != nil {
			return t, fmt.Errorf("failed to load user theme %q, using bundled: %w", name, userErr)
		}
		return t, nil
	}

	t, _ := NewEmbeddedTheme(DefaultThemeName)
	if userErr != nil {
		return t, fmt.Errorf("failed to load user theme %q: %w", name, userErr)
	}
	return t, fmt.Errorf("%w: %q", ErrThemeNotFound, name)
}
