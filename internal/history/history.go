// Package history records one row per finished fetch.
// It stores outcomes only; conversation state is never persisted.
package history

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/mediabot/core/logger"
	"github.com/m3rciful/mediabot/internal/fetch"
)

//go:embed migrations
var Migrations embed.FS

const component = "history"

// MigrationsDir returns the embedded migrations directory for driver.
func MigrationsDir(driver string) string {
	return path.Join("migrations", driver)
}

func init() {
	// modernc registers itself as "sqlite", which sqlx does not know by default.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// Entry is one stored fetch.
type Entry struct {
	ID            int64     `db:"id"`
	CorrelationID string    `db:"correlation_id"`
	SessionID     int64     `db:"session_id"`
	Mode          string    `db:"mode"`
	Locator       string    `db:"locator"`
	Outcome       string    `db:"outcome"`
	Cause         string    `db:"cause"`
	Strategy      string    `db:"strategy"`
	SizeBytes     int64     `db:"size_bytes"`
	DurationMS    int64     `db:"duration_ms"`
	CleanupFailed bool      `db:"cleanup_failed"`
	StartedAt     time.Time `db:"started_at"`
}

// Store persists entries through sqlx.
type Store struct {
	db *sqlx.DB
}

// NewStore wraps an open connection whose schema is already migrated.
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

const insertEntry = `INSERT INTO fetch_history
	(correlation_id, session_id, mode, locator, outcome, cause, strategy, size_bytes, duration_ms, cleanup_failed, started_at)
	VALUES (:correlation_id, :session_id, :mode, :locator, :outcome, :cause, :strategy, :size_bytes, :duration_ms, :cleanup_failed, :started_at)`

// Add inserts e.
func (s *Store) Add(ctx context.Context, e Entry) error {
	if _, err := s.db.NamedExecContext(ctx, insertEntry, e); err != nil {
		return fmt.Errorf("history: insert: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	var out []Entry
	q := s.db.Rebind(`SELECT id, correlation_id, session_id, mode, locator, outcome, cause, strategy,
		size_bytes, duration_ms, cleanup_failed, started_at
		FROM fetch_history ORDER BY started_at DESC, id DESC LIMIT ?`)
	if err := s.db.SelectContext(ctx, &out, q, limit); err != nil {
		return nil, fmt.Errorf("history: select: %w", err)
	}
	return out, nil
}

// ObserveFetch implements fetch.Observer. Failures are logged, never returned.
func (s *Store) ObserveFetch(ctx context.Context, r fetch.Report) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := s.Add(ctx, FromReport(r)); err != nil {
		logger.Warn(ctx, component, "history.insert.fail",
			slog.String("correlation_id", r.CorrelationID),
			slog.String("err", err.Error()),
		)
	}
}

// FromReport converts a fetch report to a row.
func FromReport(r fetch.Report) Entry {
	return Entry{
		CorrelationID: r.CorrelationID,
		SessionID:     r.Request.SessionID,
		Mode:          string(r.Request.Mode),
		Locator:       logger.SanitizeLimit(r.Request.Locator, 2048),
		Outcome:       string(r.Outcome.Status),
		Cause:         string(r.Outcome.Cause),
		Strategy:      r.Outcome.Strategy,
		SizeBytes:     r.Outcome.File.Size,
		DurationMS:    r.Duration.Milliseconds(),
		CleanupFailed: r.CleanupErr != nil,
		StartedAt:     r.StartedAt.UTC(),
	}
}
