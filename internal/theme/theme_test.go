package theme

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSS(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestProcessImports_NoImports(t *testing.T) {
	css := `.voxshell-surface { color: red; }`
	assert.Equal(t, css, ProcessImports(css, "", nil))
}

func TestProcessImports_NestedImports(t *testing.T) {
	dir := t.TempDir()
	writeCSS(t, dir, "_grandchild.css", `.grandchild { color: blue; }`)
	writeCSS(t, dir, "_child.css", "@import \"_grandchild.css\";\n.child { color: green; }")

	result := ProcessImports("@import \"_child.css\";\n.main { color: red; }", dir, nil)

	assert.Contains(t, result, "/* imported: _child.css */")
	assert.Contains(t, result, "/* imported: _grandchild.css */")
	assert.Contains(t, result, ".grandchild")
	assert.Contains(t, result, ".main")
}

func TestProcessImports_CircularPrevention(t *testing.T) {
	dir := t.TempDir()
	writeCSS(t, dir, "_a.css", "@import \"_b.css\";\n.a {}")
	writeCSS(t, dir, "_b.css", "@import \"_a.css\";\n.b {}")

	result := ProcessImports(`@import "_a.css";`, dir, nil)

	assert.Contains(t, result, "/* circular import prevented: _a.css */")
	assert.Contains(t, result, ".a {}")
	assert.Contains(t, result, ".b {}")
}

func TestProcessImports_Fallbacks(t *testing.T) {
	result := ProcessImports(`@import "_surface.css"; @import "glass.css"; @import "nonexistent.css";`, "/nonexistent/path", nil)

	assert.Contains(t, result, "/* imported (embedded): _surface.css */")
	assert.Contains(t, result, "/* imported (embedded): glass.css */")
	assert.Contains(t, result, "rgba(255, 255, 255, 0.18)")
	assert.Contains(t, result, "/* import failed: nonexistent.css")
}

func TestImportRegex(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`@import "file.css";`, "file.css"},
		{`@import 'file.css';`, "file.css"},
		{`@import url("file.css");`, "file.css"},
		{`@import url( "file.css" );`, "file.css"},
		{`@import "_partial.css"`, "_partial.css"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			matches := importRegex.FindStringSubmatch(tt.input)
			require.Len(t, matches, 2)
			assert.Equal(t, tt.expected, matches[1])
		})
	}
}

func TestTheme_Reload(t *testing.T) {
	dir := t.TempDir()
	path := writeCSS(t, dir, "mine.css", `.voxshell-floating { color: red; }`)

	th, err := NewTheme("mine", path)
	require.NoError(t, err)
	assert.False(t, th.Embedded)

	changed, err := th.Reload()
	require.NoError(t, err)
	assert.False(t, changed, "same content")

	writeCSS(t, dir, "_extra.css", `.extra { color: blue; }`)
	writeCSS(t, dir, "mine.css", "@import \"_extra.css\";\n.voxshell-floating { color: green; }")

	changed, err = th.Reload()
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Contains(t, th.CSS, "/* imported: _extra.css */")
	assert.Contains(t, th.CSS, "color: green")

	require.NoError(t, os.Remove(path))
	_, err = th.Reload()
	assert.True(t, os.IsNotExist(err))
	assert.Contains(t, th.CSS, "color: green", "failed read keeps the loaded CSS")

	embedded, _ := NewEmbeddedTheme("default")
	changed, err = embedded.Reload()
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	writeCSS(t, dir, "glass.css", `.voxshell-floating { color: pink; }`)
	writeCSS(t, dir, "mine.css", `.voxshell-voice-popup { color: teal; }`)

	tests := []struct {
		name         string
		dir          string
		theme        string
		wantName     string
		wantEmbedded bool
		wantErr      error
		contains     string
	}{
		{"empty name is default", "", "", "default", true, nil, "@window_bg_color"},
		{"bundled", "", "minimal", "minimal", true, nil, "border-radius: 0"},
		{"user file", dir, "mine", "mine", false, nil, "color: teal"},
		{"user overrides bundled", dir, "glass", "glass", false, nil, "color: pink"},
		{"unknown falls back", dir, "nope", "default", true, ErrThemeNotFound, "@window_fg_color"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			th, err := Resolve(tt.dir, tt.theme)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			require.NotNil(t, th)
			assert.Equal(t, tt.wantName, th.Name)
			assert.Equal(t, tt.wantEmbedded, th.Embedded)
			assert.Contains(t, th.CSS, tt.contains)
		})
	}
}

func TestListAvailableThemes(t *testing.T) {
	dir := t.TempDir()
	writeCSS(t, dir, "glass.css", ``)
	writeCSS(t, dir, "mine.css", ``)
	writeCSS(t, dir, "_partial.css", ``)
	writeCSS(t, dir, "notes.txt", ``)

	themes, err := ListAvailableThemes(dir)
	require.NoError(t, err)

	assert.Equal(t, []ThemeInfo{
		{Name: "default", Bundled: true},
		{Name: "glass", Path: filepath.Join(dir, "glass.css")},
		{Name: "minimal", Bundled: true},
		{Name: "mine", Path: filepath.Join(dir, "mine.css")},
	}, themes)

	themes, err = ListAvailableThemes(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Len(t, themes, 3)
}

func TestWatcher_ReportsChanges(t *testing.T) {
	dir := t.TempDir()
	path := writeCSS(t, dir, "live.css", `.a { color: red; }`)

	th, err := NewTheme("live", path)
	require.NoError(t, err)

	w := NewWatcher(th, nil)
	changes := make(chan string, 1)
	w.SetChangeCallback(func(css string) { changes <- css })

	require.NoError(t, w.Start(t.Context()))
	defer w.Stop()
	assert.True(t, w.IsRunning())

	writeCSS(t, dir, "live.css", `.a { color: blue; }`)

	select {
	case css := <-changes:
		assert.Contains(t, css, "color: blue")
	case <-time.After(5 * time.Second):
		t.Fatal("theme change not reported")
	}
}

func TestWatcher_IgnoresUnchangedSave(t *testing.T) {
	dir := t.TempDir()
	path := writeCSS(t, dir, "live.css", `.a { color: red; }`)

	th, err := NewTheme("live", path)
	require.NoError(t, err)

	w := NewWatcher(th, nil)
	changes := make(chan string, 1)
	w.SetChangeCallback(func(css string) { changes <- css })

	require.NoError(t, w.Start(t.Context()))
	defer w.Stop()

	writeCSS(t, dir, "live.css", `.a { color: red; }`)

	select {
	case <-changes:
		t.Fatal("save without changes was reported")
	case <-time.After(500 * time.Millisecond):
	}
}

func TestWatcher_SkipsEmbedded(t *testing.T) {
	th, _ := NewEmbeddedTheme("default")
	w := NewWatcher(th, nil)
	require.NoError(t, w.Start(t.Context()))
	assert.False(t, w.IsRunning())
	w.Stop()
}
