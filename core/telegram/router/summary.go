// Package router turns registry entries into telebot routes. Every route
// writes one handler.handled line per update with its outcome and timing.
package router

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/mediabot/core/logger"
	tghelpers "github.com/m3rciful/mediabot/core/telegram/helpers"
	"github.com/m3rciful/mediabot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// Fallbacks serves updates that match no command, callback or dialogue.
type Fallbacks interface {
	UnknownText() tele.HandlerFunc
	UnknownDocument() tele.HandlerFunc
	UnknownCallback() tele.HandlerFunc
}

// summarized runs fn as handler name and logs its summary line.
func summarized(c tele.Context, name string, fn tele.HandlerFunc, extras ...slog.Attr) error {
	start := time.Now()
	ctx := tghelpers.WithHandler(c, name)
	status := "skip"
	var err error
	if fn != nil {
		err = fn(c)
		status = "ok"
	}

	outcome := "ok"
	if err != nil {
		status, outcome = "fail", "fail"
	}
	msgs, kb := middleware.GetCounters(c)
	attrs := append([]slog.Attr{
		slog.String("status", status),
		slog.String("outcome", outcome),
		slog.Int("messages", msgs),
		slog.Bool("kb", kb),
		slog.Duration("duration", time.Since(start)),
	}, extras...)
	if err != nil {
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("err_code", errorCode(err)),
		)
	}
	logger.Info(ctx, "tg", "handler.handled", attrs...)
	return err
}

// wrap applies the per-route middleware every handler gets.
func wrap(h tele.HandlerFunc) tele.HandlerFunc {
	return middleware.RecoverMiddleware(middleware.LoggerMiddleware(h))
}

func handlerName(kind, key string) string {
	key = strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(strings.TrimSpace(key), "/"), " ", "_"))
	if key == "" {
		key = "unknown"
	}
	if kind == "" {
		return key
	}
	return kind + "." + key
}

// errorCode names the error for log grouping: its Code() when it has one,
// otherwise its innermost wrapped type.
func errorCode(err error) string {
	var coded interface{ Code() string }
	if errors.As(err, &coded) {
		if code := strings.TrimSpace(coded.Code()); code != "" {
			return strings.ToUpper(strings.ReplaceAll(code, " ", "_"))
		}
	}
	for next := errors.Unwrap(err); next != nil; next = errors.Unwrap(next) {
		err = next
	}
	name := strings.TrimLeft(fmt.Sprintf("%T", err), "*")
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return strings.ToUpper(name)
}
