package theme

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// importRegex matches @import "file.css"; or @import 'file.css'; or @import url("file.css");
var importRegex = regexp.MustCompile(`@import\s+(?:url\s*\(\s*)?["']([^"']+)["']\s*\)?;?`)

// Theme is a resolved stylesheet for voxshell surfaces.
type Theme struct {
	Name     string // Theme name (without .css extension)
	Path     string // Full path to the CSS file, empty for bundled themes
	CSS      string // CSS with imports inlined
	Embedded bool   // True for bundled themes, which never change
}

// ThemesDir returns the path to the user's themes directory.
func ThemesDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "voxshell", "themes"), nil
}

// NewTheme loads a theme from a CSS file, inlining its imports.
func NewTheme(name, path string) (*Theme, error) {
	css, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &Theme{
		Name: name,
		Path: path,
		CSS:  ProcessImports(string(css), filepath.Dir(path), nil),
	}, nil
}

// NewEmbeddedTheme returns a bundled theme with its imports inlined.
func NewEmbeddedTheme(name string) (*Theme, bool) {
	css, found := bundledTheme(name)
	if !found {
		return nil, false
	}
	return &Theme{
		Name:     name,
		CSS:      ProcessImports(css, "", nil),
		Embedded: true,
	}, true
}

// ProcessImports resolves and inlines @import statements in CSS.
// Imports are resolved relative to baseDir, then against bundled partials
// and themes. The seen map prevents circular imports.
func ProcessImports(css string, baseDir string, seen map[string]bool) string {
	if seen == nil {
		seen = make(map[string]bool)
	}

	return importRegex.ReplaceAllStringFunc(css, func(match string) string {
		submatch := importRegex.FindStringSubmatch(match)
		if len(submatch) < 2 {
			return match
		}
		importPath := submatch[1]

		fullPath := importPath
		if !filepath.IsAbs(importPath) {
			fullPath = filepath.Join(baseDir, importPath)
		}

		if seen[fullPath] {
			return "/* circular import prevented: " + importPath + " */"
		}
		seen[fullPath] = true

		importedCSS, err := os.ReadFile(fullPath)
		if err != nil {
			if embeddedCSS, found := bundled(filepath.Base(importPath)); found {
				return "/* imported (embedded): " + importPath + " */\n" + ProcessImports(embeddedCSS, "", seen)
			}
			return "/* import failed: " + importPath + " - " + err.Error() + " */"
		}

		processed := ProcessImports(string(importedCSS), filepath.Dir(fullPath), seen)
		return "/* imported: " + importPath + " */\n" + processed
	})
}

// Reload re-reads the theme file and its imports. Returns true if the
// resulting CSS differs from what is loaded. A failed read keeps the current CSS.
func (t *Theme) Reload() (bool, error) {
	if t.Embedded {
		return false, nil
	}

	css, err := os.ReadFile(t.Path)
	if err != nil {
		return false, err
	}

	processed := ProcessImports(string(css), filepath.Dir(t.Path), nil)
	if processed == t.CSS {
		return false, nil
	}
	t.CSS = processed
	return true, nil
}

// ThemeInfo provides basic theme information for listing.
type ThemeInfo struct {
	Name    string
	Path    string
	Bundled bool
}

// ListAvailableThemes lists bundled themes followed by user themes in dir.
// A user theme named like a bundled one overrides it and is listed once, with its path.
func ListAvailableThemes(dir string) ([]ThemeInfo, error) {
	index := make(map[string]int)
	var themes []ThemeInfo

	for _, name := range BundledThemes {
		index[name] = len(themes)
		themes = append(themes, ThemeInfo{Name: name, Bundled: true})
	}

	if dir == "" {
		return themes, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return themes, nil
		}
		return themes, err
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".css" || strings.HasPrefix(name, "_") {
			continue
		}
		themeName := strings.TrimSuffix(name, ".css")
		info := ThemeInfo{Name: themeName, Path: filepath.Join(dir, name)}
		if i, ok := index[themeName]; ok {
			themes[i] = info
			continue
		}
		index[themeName] = len(themes)
		themes = append(themes, info)
	}

	return themes, nil
}
