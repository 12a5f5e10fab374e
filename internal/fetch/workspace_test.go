package fetch

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWorkspaceRejectsCollision(t *testing.T) {
	root := t.TempDir()
	ws, err := NewWorkspace(root, "abc")
	require.NoError(t, err)

	info, err := os.Stat(ws.Dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, os.FileMode(0o700), info.Mode().Perm())

	_, err = NewWorkspace(root, "abc")
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrExist))
}

func TestNewWorkspaceRejectsPathIDs(t *testing.T) {
	root := t.TempDir()
	for _, id := range []string{"", "..", "a/b", `a\b`} {
		_, err := NewWorkspace(root, id)
		assert.Errorf(t, err, "id %q", id)
	}
}

func TestWorkspaceContains(t *testing.T) {
	ws := &Workspace{Dir: "/scratch/fetch-1"}
	assert.True(t, ws.Contains("/scratch/fetch-1/a.mp3"))
	assert.True(t, ws.Contains("/scratch/fetch-1/sub/a.mp3"))
	assert.False(t, ws.Contains("/scratch/fetch-1"))
	assert.False(t, ws.Contains("/scratch/fetch-10/a.mp3"))
	assert.False(t, ws.Contains("/scratch/fetch-1/../x"))
}

func TestCleanupAttemptsEveryEntry(t *testing.T) {
	ws, err := NewWorkspace(t.TempDir(), "c1")
	require.NoError(t, err)
	for _, name := range []string{"a", "b", "c"} {
		require.NoError(t, os.WriteFile(filepath.Join(ws.Dir, name), nil, 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(ws.Dir, "frags"), 0o700))

	var tried []string
	err = ws.Cleanup(func(p string) error {
		tried = append(tried, filepath.Base(p))
		if filepath.Base(p) == "a" || filepath.Base(p) == "c" {
			return os.ErrPermission
		}
		return os.RemoveAll(p)
	})
	require.Error(t, err)
	assert.ElementsMatch(t, []string{"a", "b", "c", "frags", filepath.Base(ws.Dir)}, tried)
	// directory removal comes last
	assert.Equal(t, filepath.Base(ws.Dir), tried[len(tried)-1])
	assert.NoDirExists(t, ws.Dir)
}

func TestCleanupMissingDirectory(t *testing.T) {
	ws := &Workspace{Dir: filepath.Join(t.TempDir(), "fetch-gone")}
	assert.NoError(t, ws.Cleanup(nil))
}
