// Package logger is a context-first structured logger built on slog. Every
// line carries a component, an event and whatever request metadata the
// context holds.
package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/m3rciful/mediabot/core/buildinfo"
	coreconfig "github.com/m3rciful/mediabot/core/config"
)

// L is the process logger. It stays nil until Init runs, and every helper
// in this package is a no-op while it is nil.
var L *slog.Logger

var (
	initOnce sync.Once
	stopOnce sync.Once

	sink    *asyncWriter
	closers []io.Closer

	level slog.LevelVar

	debugSampler = newRatioSampler(1, 50)
	traceAll     bool
)

// options is the resolved form of coreconfig.LoggingConfig.
type options struct {
	format  logFormat
	order   []string
	level   slog.Level
	profile string
	num     int
	den     int
}

func resolve(cfg *coreconfig.Config) options {
	o := options{format: formatJSON, level: slog.LevelInfo, profile: "prod", num: 1, den: 50}
	if cfg == nil {
		o.order = append([]string(nil), defaultKeyOrder...)
		return o
	}
	lc := cfg.Logging

	if p := strings.ToLower(strings.TrimSpace(lc.Profile)); p != "" {
		o.profile = p
	}
	switch strings.ToLower(strings.TrimSpace(lc.Format)) {
	case "kv", "text", "pretty":
		o.format = formatKV
	case "json":
	default:
		if o.profile == "debug" || o.profile == "dev" {
			o.format = formatKV
		}
	}
	switch strings.ToLower(strings.TrimSpace(lc.Level)) {
	case "debug":
		o.level = slog.LevelDebug
	case "warn", "warning":
		o.level = slog.LevelWarn
	case "error":
		o.level = slog.LevelError
	}

	if keys := strings.TrimSpace(lc.KeysOrder); keys != "" && keys != "default" {
		for _, k := range strings.Split(keys, ",") {
			if k = strings.TrimSpace(k); k != "" {
				o.order = append(o.order, k)
			}
		}
	}
	if len(o.order) == 0 {
		o.order = append([]string(nil), defaultKeyOrder...)
	}

	if s := strings.TrimSpace(lc.DebugSample); s != "" {
		switch num, den := parseRatioSpec(s); {
		case num == 0 && den == 0:
			o.num, o.den = 0, 0
		case num > 0 && den > 0:
			o.num, o.den = num, den
		}
	}
	return o
}

// InitLogger installs L and the slog default. Only the first call has effect.
func InitLogger(cfg *coreconfig.Config) error {
	var err error
	initOnce.Do(func() {
		o := resolve(cfg)
		level.Set(o.level)
		debugSampler.Set(o.num, o.den)
		traceAll = truthy(os.Getenv("TRACE")) || truthy(os.Getenv("LOG_TRACE"))

		outputs := []io.Writer{os.Stdout}
		var file *lumberjack.Logger
		if file, err = rotatingFile(cfg); err != nil {
			return
		}
		if file != nil {
			outputs = append(outputs, file)
			closers = append(closers, file)
		}
		sink = newAsyncWriter(outputs, 64*1024)

		L = slog.New(newStructuredHandler(handlerConfig{
			level:    &level,
			writer:   sink,
			format:   o.format,
			keyOrder: o.order,
		}))
		slog.SetDefault(L)

		Info(context.Background(), "app", "startup",
			slog.String("go_version", runtime.Version()),
			slog.String("build_version", buildinfo.Version),
			slog.String("build_commit", buildinfo.Commit),
			slog.String("build_time", buildinfo.Date),
			slog.String("cfg_profile", o.profile),
		)
	})
	return err
}

// rotatingFile returns the optional file sink, or nil when no file is configured.
func rotatingFile(cfg *coreconfig.Config) (*lumberjack.Logger, error) {
	if cfg == nil {
		return nil, nil
	}
	lc := cfg.Logging
	dir, name := strings.TrimSpace(lc.Dir), strings.TrimSpace(lc.BotFile)
	if dir == "" || name == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("logger: create log dir %s: %w", dir, err)
	}
	return &lumberjack.Logger{
		Filename:   filepath.Join(dir, name),
		MaxSize:    positiveOr(lc.MaxSizeMB, 10),
		MaxBackups: positiveOr(lc.MaxBackups, 5),
		MaxAge:     positiveOr(lc.MaxAgeDays, 14),
		Compress:   lc.Compress,
	}, nil
}

// Shutdown flushes pending lines and closes file sinks. Later calls do nothing.
func Shutdown() error {
	var errs []error
	stopOnce.Do(func() {
		if sink != nil {
			errs = append(errs, sink.Flush(), sink.Close())
		}
		for _, c := range closers {
			errs = append(errs, c.Close())
		}
	})
	return errors.Join(errs...)
}

// Background is context.Background, for call sites with no request in scope.
func Background() context.Context {
	return context.Background()
}

// LogEvent writes one line with the given event through logg, falling back
// to the context logger and then to L.
func LogEvent(ctx context.Context, logg *slog.Logger, lvl slog.Level, event string, attrs ...slog.Attr) {
	if logg == nil {
		logg = FromContext(ctx)
	}
	if logg == nil {
		return
	}
	if event != "" {
		attrs = append([]slog.Attr{slog.String("event", event)}, attrs...)
	}
	logg.LogAttrs(ctx, lvl, "", attrs...)
}

// Component returns L scoped to a component, or nil before Init.
func Component(name string) *slog.Logger {
	if L == nil {
		return nil
	}
	if name = strings.TrimSpace(name); name == "" {
		return L
	}
	return L.With("component", name)
}

func event(ctx context.Context, component string, lvl slog.Level, name string, attrs ...slog.Attr) {
	logg := FromContext(ctx)
	if logg == nil {
		return
	}
	if component = strings.TrimSpace(component); component != "" {
		logg = logg.With("component", component)
	}
	LogEvent(ctx, logg, lvl, name, attrs...)
}

// Debug logs at debug level.
func Debug(ctx context.Context, component, name string, attrs ...slog.Attr) {
	event(ctx, component, slog.LevelDebug, name, attrs...)
}

// Info logs at info level.
func Info(ctx context.Context, component, name string, attrs ...slog.Attr) {
	event(ctx, component, slog.LevelInfo, name, attrs...)
}

// Warn logs at warn level.
func Warn(ctx context.Context, component, name string, attrs ...slog.Attr) {
	event(ctx, component, slog.LevelWarn, name, attrs...)
}

// Error logs at error level.
func Error(ctx context.Context, component, name string, attrs ...slog.Attr) {
	event(ctx, component, slog.LevelError, name, attrs...)
}

// ShouldSampleDebug reports whether a high-volume debug line should be
// written. TRACE or LOG_TRACE in the environment turns sampling off.
func ShouldSampleDebug() bool {
	return traceAll || debugSampler.Allow()
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}
