// Package bootstrap brings up the process infrastructure a bot needs before
// it can serve: the logger, then the optional database and its schema.
package bootstrap

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/mediabot/core/config"
	coredatabase "github.com/m3rciful/mediabot/core/database"
	"github.com/m3rciful/mediabot/core/logger"
)

// Options select what Run initializes. The function fields replace the real
// steps in tests.
type Options struct {
	Config   *coreconfig.Config
	Database coredatabase.Config

	// Migrations holds embedded SQL files; MigrationsDir picks the
	// per-driver subdirectory.
	Migrations    fs.FS
	MigrationsDir func(driver string) string

	LoggerInit func(*coreconfig.Config) error
	Connect    func(coredatabase.Config) (*sqlx.DB, error)
	Migrate    func(coredatabase.Config) error
}

// Result holds what Run opened. DB is nil when the database is disabled.
type Result struct {
	DB *sqlx.DB
}

// Run initializes the logger and, when the database is enabled, connects
// and migrates it. A failed migration closes the connection.
func Run(opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, errors.New("bootstrap: nil config provided")
	}
	initLogger := opts.LoggerInit
	if initLogger == nil {
		initLogger = logger.InitLogger
	}
	if err := initLogger(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	res := &Result{}
	if !opts.Database.Enabled {
		return res, nil
	}

	connect := opts.Connect
	if connect == nil {
		connect = coredatabase.Connect
	}
	db, err := connect(opts.Database)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
	}
	if migrate := opts.migrator(); migrate != nil {
		if err := migrate(opts.Database); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
		}
	}
	res.DB = db
	return res, nil
}

// migrator returns the explicit Migrate hook, a runner over the embedded
// files, or nil when there is nothing to apply.
func (o Options) migrator() func(coredatabase.Config) error {
	if o.Migrate != nil {
		return o.Migrate
	}
	if o.Migrations == nil {
		return nil
	}
	return func(cfg coredatabase.Config) error {
		dir := "."
		if o.MigrationsDir != nil {
			dir = o.MigrationsDir(cfg.Driver)
		}
		return coredatabase.RunMigrations(cfg, o.Migrations, dir)
	}
}
