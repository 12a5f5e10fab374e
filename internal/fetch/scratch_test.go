package fetch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockRootIsExclusive(t *testing.T) {
	root := filepath.Join(t.TempDir(), "scratch")
	first, err := LockRoot(root)
	require.NoError(t, err)
	t.Cleanup(func() { _ = first.Unlock() })
	assert.DirExists(t, root)

	_, err = LockRoot(root)
	assert.ErrorIs(t, err, ErrRootLocked)

	require.NoError(t, first.Unlock())
	again, err := LockRoot(root)
	require.NoError(t, err)
	require.NoError(t, again.Unlock())
}

func TestSweepStaleRemovesOnlyOldWorkspaces(t *testing.T) {
	root := t.TempDir()
	now := time.Now()
	old := now.Add(-2 * time.Hour)

	mk := func(name string, mtime time.Time) string {
		p := filepath.Join(root, name)
		require.NoError(t, os.Mkdir(p, 0o700))
		require.NoError(t, os.WriteFile(filepath.Join(p, "f"), nil, 0o600))
		require.NoError(t, os.Chtimes(p, mtime, mtime))
		return p
	}
	stale := mk("fetch-old", old)
	fresh := mk("fetch-new", now)
	foreign := mk("keepme", old)

	res := SweepStale(root, time.Hour, now)
	require.NoError(t, res.Err)
	assert.Equal(t, []string{stale}, res.Removed)
	assert.NoDirExists(t, stale)
	assert.DirExists(t, fresh)
	assert.DirExists(t, foreign)
}

func TestSweepStaleDisabledOrMissing(t *testing.T) {
	assert.Empty(t, SweepStale(t.TempDir(), 0, time.Now()).Removed)
	res := SweepStale(filepath.Join(t.TempDir(), "nope"), time.Hour, time.Now())
	assert.NoError(t, res.Err)
}
