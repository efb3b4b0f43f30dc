package config

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"resumeforge/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileWatcherFiresOnceForBurst(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "user_prompt.txt")
	require.NoError(t, os.WriteFile(file, []byte("v1"), 0600))

	var calls atomic.Int32
	fw := NewFileWatcher([]string{file}, 50*time.Millisecond, func() { calls.Add(1) }, errors.Discard())
	require.NoError(t, fw.Start())
	t.Cleanup(func() { _ = fw.Stop() })

	for _, content := range []string{"v2", "v2 longer", "v2 longer still"} {
		require.NoError(t, os.WriteFile(file, []byte(content), 0600))
	}

	require.Eventually(t, func() bool { return calls.Load() == 1 }, 3*time.Second, 20*time.Millisecond)
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFileWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "system_prompt.txt")
	require.NoError(t, os.WriteFile(file, []byte("v1"), 0600))

	var calls atomic.Int32
	fw := NewFileWatcher([]string{file}, 20*time.Millisecond, func() { calls.Add(1) }, errors.Discard())
	require.NoError(t, fw.Start())
	t.Cleanup(func() { _ = fw.Stop() })

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0600))
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
}

func TestFileWatcherLifecycle(t *testing.T) {
	file := filepath.Join(t.TempDir(), "p.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0600))

	fw := NewFileWatcher([]string{file}, 0, func() {}, errors.Discard())
	assert.Equal(t, time.Second, fw.debounceDelay)

	require.NoError(t, fw.Start())
	assert.Error(t, fw.Start())
	require.NoError(t, fw.Stop())
	assert.NoError(t, fw.Stop())

	empty := NewFileWatcher(nil, time.Second, func() {}, errors.Discard())
	assert.Error(t, empty.Start())
}
