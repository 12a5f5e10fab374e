package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/m3rciful/mediabot/core/logger"
)

const (
	connectTimeout  = 5 * time.Second
	postgresWait    = 30 * time.Second
	postgresBackoff = 2 * time.Second
)

// Connect opens and pings the database and sizes the pool. A Postgres
// server that is still starting is waited for up to 30s.
func Connect(cfg Config) (*sqlx.DB, error) {
	if cfg.Driver == DriverPostgres {
		if err := WaitForPostgres(cfg.DSN(), postgresWait); err != nil {
			return nil, fmt.Errorf("database not ready: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	attrs := []slog.Attr{
		slog.String("driver", cfg.Driver),
		slog.String("host", cfg.Host),
		slog.String("db", cfg.name()),
	}

	began := time.Now()
	db, err := sqlx.ConnectContext(ctx, cfg.Driver, cfg.DSN())
	if err != nil {
		logger.Error(ctx, "db", "db.connect", append(attrs,
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
			slog.Duration("duration", time.Since(began)),
		)...)
		return nil, fmt.Errorf("db connect: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxConnections)

	logger.Info(ctx, "db", "db.connect", append(attrs,
		slog.String("status", "ok"),
		slog.String("port", cfg.Port),
		slog.Int("pool_open", cfg.MaxConnections),
		slog.Duration("duration", time.Since(began)),
	)...)
	return db, nil
}

func (c Config) name() string {
	if c.Driver == DriverSQLite {
		return c.Path
	}
	return c.Name
}

// WaitForPostgres pings dsn every 2s until it answers or timeout elapses.
func WaitForPostgres(dsn string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	tick := time.NewTicker(postgresBackoff)
	defer tick.Stop()

	for {
		err := pingOnce(ctx, dsn)
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout reached waiting for database: %w", err)
		case <-tick.C:
		}
	}
}

func pingOnce(ctx context.Context, dsn string) error {
	db, err := sqlx.Open(DriverPostgres, dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.PingContext(ctx)
}
