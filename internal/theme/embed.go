package theme

import (
	"embed"
	"strings"
)

// bundle holds the themes shipped in the binary. Files starting with _ are
// partials that themes import; they are not themes themselves.
//
//go:embed themes/*.css
var bundle embed.FS

// DefaultThemeName is the theme used when none is configured or the
// configured one cannot be found.
const DefaultThemeName = "default"

// BundledThemes lists the shipped themes in the order `voxshell themes` prints them.
var BundledThemes = []string{"default", "glass", "minimal"}

// bundled returns a shipped file by base name, partials included.
// The CSS is returned raw, with imports unresolved.
func bundled(file string) (string, bool) {
	data, err := bundle.ReadFile("themes/" + file)
	if err != nil {
		return "", false
	}
	return string(data), true
}

// bundledTheme returns a shipped theme by name. Partials never resolve.
func bundledTheme(name string) (string, bool) {
	if name == "" || strings.HasPrefix(name, "_") {
		return "", false
	}
	return bundled(name + ".css")
}
