package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coredatabase "github.com/m3rciful/mediabot/core/database"
	"github.com/m3rciful/mediabot/internal/fetch"
	"github.com/m3rciful/mediabot/internal/media"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	cfg := coredatabase.Config{
		Enabled: true,
		Driver:  coredatabase.DriverSQLite,
		Path:    filepath.Join(t.TempDir(), "history.db"),
	}
	require.NoError(t, cfg.Normalize())
	require.NoError(t, coredatabase.RunMigrations(cfg, Migrations, MigrationsDir(cfg.Driver)))

	db, err := coredatabase.Connect(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewStore(db)
}

func TestObserveFetchThenRecent(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	s.ObserveFetch(ctx, fetch.Report{
		CorrelationID: "first",
		Request:       fetch.Request{Locator: "https://a", Mode: media.Audio, SessionID: 1},
		Outcome:       fetch.Outcome{Status: fetch.StatusDelivered, Strategy: fetch.StrategyPrimary, File: fetch.File{Size: 1234}},
		StartedAt:     base,
		Duration:      1500 * time.Millisecond,
	})
	s.ObserveFetch(ctx, fetch.Report{
		CorrelationID: "second",
		Request:       fetch.Request{Locator: "https://b", Mode: media.Video, SessionID: 2},
		Outcome:       fetch.Outcome{Status: fetch.StatusFailed, Cause: fetch.CauseRetrieval},
		StartedAt:     base.Add(time.Minute),
		CleanupErr:    errors.New("busy"),
	})

	got, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "second", got[0].CorrelationID)
	assert.Equal(t, "failed", got[0].Outcome)
	assert.Equal(t, "retrieval", got[0].Cause)
	assert.True(t, got[0].CleanupFailed)

	assert.Equal(t, "first", got[1].CorrelationID)
	assert.Equal(t, "audio", got[1].Mode)
	assert.EqualValues(t, 1234, got[1].SizeBytes)
	assert.EqualValues(t, 1500, got[1].DurationMS)
	assert.True(t, base.Equal(got[1].StartedAt))

	one, err := s.Recent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, one, 1)
}

func TestMigrationsEmbeddedPerDriver(t *testing.T) {
	for _, driver := range []string{coredatabase.DriverPostgres, coredatabase.DriverSQLite} {
		entries, err := Migrations.ReadDir(MigrationsDir(driver))
		require.NoError(t, err)
		assert.Len(t, entries, 2, driver)
	}
}
