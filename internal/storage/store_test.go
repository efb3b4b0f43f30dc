package storage

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"resumeforge/internal/config"
	"resumeforge/internal/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, ttl time.Duration) *Store {
	t.Helper()
	store, err := NewStore(config.StorageConfig{Dir: t.TempDir(), TTL: ttl}, nil, errors.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSaveOpenDelete(t *testing.T) {
	store := newTestStore(t, 0)

	id, err := store.Save([]byte("docx bytes"))
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(store.dir, id+"_tailored_resume.docx"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	rc, modTime, err := store.Open(id)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "docx bytes", string(data))
	assert.WithinDuration(t, time.Now(), modTime, time.Minute)

	require.NoError(t, store.Delete(id))
	_, _, err = store.Open(id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, store.Delete(id), "deleting twice is fine")
}

func TestOpenRejectsBadIDs(t *testing.T) {
	store := newTestStore(t, 0)

	for _, id := range []string{"", "../etc/passwd", "not-a-uuid", "123e4567e89b12d3a456426614174000", "{123e4567-e89b-12d3-a456-426614174000}"} {
		t.Run(id, func(t *testing.T) {
			_, _, err := store.Open(id)
			require.Error(t, err)
			assert.Equal(t, errors.ErrCodeInvalidRequest, errors.CodeOf(err))
		})
	}

	_, _, err := store.Open(uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, errors.ErrCodeSessionNotFound, errors.CodeOf(err))
}

func TestSweepRemovesExpired(t *testing.T) {
	store := newTestStore(t, time.Hour)

	oldID, err := store.Save([]byte("old"))
	require.NoError(t, err)
	freshID, err := store.Save([]byte("fresh"))
	require.NoError(t, err)

	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(store.path(oldID), past, past))
	require.NoError(t, os.WriteFile(filepath.Join(store.dir, "unrelated.txt"), []byte("x"), 0o600))
	require.NoError(t, os.Chtimes(filepath.Join(store.dir, "unrelated.txt"), past, past))

	removed, err := store.Sweep(time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, _, err = store.Open(oldID)
	assert.ErrorIs(t, err, ErrNotFound)
	rc, _, err := store.Open(freshID)
	require.NoError(t, err)
	_ = rc.Close()

	stats, err := store.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Documents)
	assert.Equal(t, int64(len("fresh")), stats.Bytes)
	assert.Equal(t, int64(1), stats.SweptTotal)
	assert.NotZero(t, stats.LastSweepUnix)
}

func TestSweepDisabledWithoutTTL(t *testing.T) {
	store := newTestStore(t, 0)
	id, err := store.Save([]byte("keep"))
	require.NoError(t, err)

	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(store.path(id), past, past))

	removed, err := store.Sweep(time.Now())
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestSweeperGoroutine(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(config.StorageConfig{Dir: dir, TTL: time.Millisecond, SweepInterval: 10 * time.Millisecond}, nil, errors.Discard())
	require.NoError(t, err)

	_, err = store.Save([]byte("short lived"))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		stats, err := store.Stats()
		return err == nil && stats.Documents == 0
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, store.Close())
	require.NoError(t, store.Close(), "Close is idempotent")
}
