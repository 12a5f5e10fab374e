package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofrs/flock"
	"github.com/hashicorp/go-multierror"
	"github.com/jmoiron/sqlx"

	corebootstrap "github.com/m3rciful/mediabot/core/bootstrap"
	corecmd "github.com/m3rciful/mediabot/core/cmd"
	"github.com/m3rciful/mediabot/core/logger"
	tg "github.com/m3rciful/mediabot/core/telegram"
	"github.com/m3rciful/mediabot/core/telegram/router"
	"github.com/m3rciful/mediabot/internal/config"
	"github.com/m3rciful/mediabot/internal/fetch"
	"github.com/m3rciful/mediabot/internal/health"
	"github.com/m3rciful/mediabot/internal/history"
	"github.com/m3rciful/mediabot/internal/i18n"
	"github.com/m3rciful/mediabot/internal/metrics"

	tele "gopkg.in/telebot.v4"
)

// App is the assembled bot process.
type App struct {
	cfg     *config.Config
	bot     *Bot
	orch    *fetch.Orchestrator
	metrics *metrics.Metrics
	health  *health.Server
	db      *sqlx.DB
	lock    *flock.Flock
}

var _ corecmd.TelegramApp = (*App)(nil)

// Bootstrap is the core/cmd hook: it initializes logging and the optional
// history database, then builds the orchestrator and the bot.
func Bootstrap(carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
	cfg, ok := carrier.(*config.Config)
	if !ok {
		return nil, fmt.Errorf("bot: unexpected config type %T", carrier)
	}
	res, err := corebootstrap.Run(corebootstrap.Options{
		Config:        cfg.CoreConfig(),
		Database:      cfg.Database,
		Migrations:    history.Migrations,
		MigrationsDir: history.MigrationsDir,
	})
	if err != nil {
		return nil, err
	}
	return NewApp(cfg, res.DB)
}

// NewApp wires components from cfg. db may be nil when history is disabled.
func NewApp(cfg *config.Config, db *sqlx.DB) (*App, error) {
	m := metrics.New()
	observers := []fetch.Observer{m}
	if db != nil {
		observers = append(observers, history.NewStore(db))
	}

	engine, err := fetch.NewYTDLP(cfg.Media.YTDLPPath, cfg.Media.FFmpegPath, cfg.Media.ConcurrentFragments)
	if err != nil {
		return nil, fmt.Errorf("bot: %w", err)
	}
	orch, err := fetch.NewOrchestrator(engine, fetch.Options{
		Root: cfg.Scratch.Dir,
		Formats: fetch.Formats{
			AudioCodec:     cfg.Media.AudioCodec,
			AudioBitrate:   cfg.Media.AudioBitrate,
			VideoContainer: cfg.Media.VideoContainer,
		},
		Timeout:       cfg.Media.FetchTimeout,
		MaxConcurrent: cfg.Media.MaxConcurrent,
	}, observers...)
	if err != nil {
		return nil, fmt.Errorf("bot: %w", err)
	}

	catalog, err := i18n.Load(cfg.Language())
	if err != nil {
		return nil, fmt.Errorf("bot: %w", err)
	}
	b, err := New(Options{
		Catalog:          catalog,
		Fetcher:          orch,
		DefaultMode:      cfg.Mode(),
		PresenceInterval: cfg.Dialogue.PresenceInterval,
		OnEvent:          m.DialogueEvent,
	})
	if err != nil {
		return nil, err
	}

	m.Gauge("sessions", "Conversations held in memory.", func() float64 {
		return float64(b.Sessions())
	})
	m.Gauge("fetch_inflight", "Fetches running or waiting for a slot.", func() float64 {
		return float64(orch.InFlight())
	})

	a := &App{cfg: cfg, bot: b, orch: orch, metrics: m, db: db}
	if cfg.Health.Enabled {
		a.health = health.New(cfg.Health.Addr(), m.Handler())
	}
	return a, nil
}

// Bot returns the dialogue front end.
func (a *App) Bot() *Bot {
	return a.bot
}

// TelegramRunOptions assembles the registry, middleware chain and routes.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	core := a.cfg.CoreConfig()
	reg := tg.NewRegistry()
	if err := a.bot.Register(reg, core.Telegram.AdminID != 0); err != nil {
		return tg.RunOptions{}, fmt.Errorf("bot: register: %w", err)
	}

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{AdminID: core.Telegram.AdminID})
	routes = append(routes, router.CallbackRoute(reg))
	routes = append(routes, router.TextRoutes(a.bot, reg, a.bot)...)

	return tg.RunOptions{
		Config:      core,
		Registry:    reg,
		Middlewares: tg.DefaultMiddlewares(core, a.onLimited),
		Routes:      routes,
		OnStart:     a.start,
		OnStop:      a.stop,
	}, nil
}

func (a *App) onLimited(tele.Context) error {
	a.metrics.RateLimited()
	return nil
}

func (a *App) start(ctx context.Context, _ tg.Runtime) error {
	lock, err := fetch.LockRoot(a.cfg.Scratch.Dir)
	if err != nil {
		logger.Error(ctx, "fetch", "scratch.lock",
			slog.String("status", "fail"),
			slog.String("path", a.cfg.Scratch.Dir),
			slog.String("err", err.Error()),
		)
		return err
	}
	a.lock = lock

	if a.cfg.Scratch.StaleAfter > 0 {
		res := fetch.SweepStale(a.cfg.Scratch.Dir, a.cfg.Scratch.StaleAfter, time.Now())
		attrs := []slog.Attr{
			slog.String("path", a.cfg.Scratch.Dir),
			slog.Int("removed", len(res.Removed)),
		}
		if res.Err != nil {
			attrs = append(attrs, slog.String("err", res.Err.Error()))
			logger.Warn(ctx, "fetch", "scratch.sweep", attrs...)
		} else {
			logger.Info(ctx, "fetch", "scratch.sweep", attrs...)
		}
	}

	if a.health != nil {
		if err := a.health.Start(ctx); err != nil {
			_ = a.lock.Unlock()
			return err
		}
	}

	go a.bot.RunSweeper(ctx, a.cfg.Dialogue.IdleTimeout)
	return nil
}

func (a *App) stop(ctx context.Context, _ tg.Runtime) error {
	var errs *multierror.Error
	if a.health != nil {
		if err := a.health.Shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errs = multierror.Append(errs, fmt.Errorf("health shutdown: %w", err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("db close: %w", err))
		}
	}
	if a.lock != nil {
		if err := a.lock.Unlock(); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("scratch unlock: %w", err))
		}
	}
	return errs.ErrorOrNil()
}
