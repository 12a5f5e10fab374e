package deps

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckBinaries(t *testing.T) {
	present := filepath.Join(t.TempDir(), "present")
	require.NoError(t, os.WriteFile(present, []byte("#!/bin/sh\nexit 0\n"), 0o755))

	results := CheckBinaries([]Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Blank", Command: "  ", Optional: true},
	})
	require.Len(t, results, 3)

	assert.True(t, results[0].Available)
	assert.Equal(t, present, results[0].Path)
	assert.Empty(t, results[0].Detail)

	assert.False(t, results[1].Available)
	assert.Equal(t, "clearly-not-present-binary", results[1].Command)
	assert.Contains(t, results[1].Detail, "not found")

	assert.False(t, results[2].Available)
	assert.Equal(t, "command not configured", results[2].Detail)

	missing := Missing(results)
	require.Len(t, missing, 1)
	assert.Equal(t, "Missing", missing[0].Name)
}

func TestMediaRequirementsDefaultsFFmpeg(t *testing.T) {
	reqs := MediaRequirements("/opt/yt-dlp", "")
	require.Len(t, reqs, 2)
	assert.Equal(t, "/opt/yt-dlp", reqs[0].Command)
	assert.Equal(t, "ffmpeg", reqs[1].Command)
}
