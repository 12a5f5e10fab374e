package database

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
)

func TestUpFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/sqlite/000002_b.up.sql":   {},
		"migrations/sqlite/000001_a.up.sql":   {},
		"migrations/sqlite/000001_a.down.sql": {},
		"migrations/postgres/000001_a.up.sql": {},
	}
	assert.Equal(t, []string{"000001_a.up.sql", "000002_b.up.sql"}, upFiles(fsys, "migrations/sqlite"))
	assert.Empty(t, upFiles(fsys, "missing"))
}

func TestCountBetween(t *testing.T) {
	files := []string{"000001_a.up.sql", "000002_b.up.sql", "000003_c.up.sql", "junk.up.sql"}
	assert.Equal(t, 3, countBetween(files, 0, 3))
	assert.Equal(t, 1, countBetween(files, 2, 3))
	assert.Equal(t, 0, countBetween(files, 3, 3))
}
