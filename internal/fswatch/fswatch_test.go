package fswatch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFile_CollapsesBursts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voxshelld.toml")
	var calls atomic.Int32
	f := New(path, func() { calls.Add(1) }, nil)
	f.SetDebounce(200 * time.Millisecond)

	require.NoError(t, f.Start(context.Background()))
	defer func() { _ = f.Stop() }()

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte{byte('a' + i)}, 0600))
	}

	require.Eventually(t, func() bool { return calls.Load() > 0 }, 5*time.Second, 10*time.Millisecond)
	time.Sleep(400 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFile_IgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "store.json")
	notified := make(chan struct{}, 10)
	f := New(path, func() { notified <- struct{}{} }, nil)
	f.SetDebounce(0)

	require.NoError(t, f.Start(context.Background()))
	defer func() { _ = f.Stop() }()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0600))
	select {
	case <-notified:
		t.Fatal("sibling file change was reported")
	case <-time.After(200 * time.Millisecond):
	}

	tmp := filepath.Join(dir, "store.json.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte("{}"), 0600))
	require.NoError(t, os.Rename(tmp, path))

	select {
	case <-notified:
	case <-time.After(5 * time.Second):
		t.Fatal("rename over the file was not reported")
	}
}

func TestFile_StartCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voxshell", "themes", "live.css")
	f := New(path, func() {}, nil)

	require.NoError(t, f.Start(context.Background()))
	defer func() { _ = f.Stop() }()

	info, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, path, f.Path())
}

func TestFile_StartStopIdempotent(t *testing.T) {
	f := New(filepath.Join(t.TempDir(), "x"), func() {}, nil)
	assert.False(t, f.Running())
	require.NoError(t, f.Stop())

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, f.Start(ctx))
	require.NoError(t, f.Start(ctx))
	assert.True(t, f.Running())

	cancel()
	require.NoError(t, f.Stop())
	require.NoError(t, f.Stop())
	assert.False(t, f.Running())

	require.NoError(t, f.Start(context.Background()))
	assert.True(t, f.Running())
	require.NoError(t, f.Stop())
}
