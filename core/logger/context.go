package logger

import (
	"context"
	"log/slog"
)

type ctxKey int

const (
	loggerKey ctxKey = iota
	metaKey
)

// Meta is request metadata copied into every line logged with the context.
type Meta struct {
	RID           string
	UpdateID      int
	UserID        int64
	ChatID        int64
	Handler       string
	CorrelationID string
}

// MetaFrom returns the metadata stored in ctx, or the zero Meta.
func MetaFrom(ctx context.Context) Meta {
	if ctx == nil {
		return Meta{}
	}
	m, _ := ctx.Value(metaKey).(Meta)
	return m
}

func withMeta(ctx context.Context, fn func(m *Meta)) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	m := MetaFrom(ctx)
	fn(&m)
	return context.WithValue(ctx, metaKey, m)
}

// WithRID attaches the update correlation id.
func WithRID(ctx context.Context, rid string) context.Context {
	return withMeta(ctx, func(m *Meta) { m.RID = rid })
}

// RIDFrom returns the update correlation id, if any.
func RIDFrom(ctx context.Context) string {
	return MetaFrom(ctx).RID
}

// WithUpdateMeta attaches Telegram update identifiers.
func WithUpdateMeta(ctx context.Context, updateID int, userID, chatID int64) context.Context {
	return withMeta(ctx, func(m *Meta) {
		m.UpdateID = updateID
		m.UserID = userID
		m.ChatID = chatID
	})
}

// WithHandler records which handler is serving the update.
func WithHandler(ctx context.Context, handler string) context.Context {
	if handler == "" {
		if ctx == nil {
			return context.Background()
		}
		return ctx
	}
	return withMeta(ctx, func(m *Meta) { m.Handler = handler })
}

// HandlerFrom returns the handler name, if any.
func HandlerFrom(ctx context.Context) string {
	return MetaFrom(ctx).Handler
}

// WithCorrelation attaches the id of one fetch so its workspace and outcome lines can be joined.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return withMeta(ctx, func(m *Meta) { m.CorrelationID = id })
}

// WithLogger stores log in ctx.
func WithLogger(ctx context.Context, log *slog.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if log == nil {
		return ctx
	}
	return context.WithValue(ctx, loggerKey, log)
}

// FromContext returns the logger stored in ctx, or L.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
			return l
		}
	}
	return L
}

func addContextFields(ctx context.Context, fields map[string]any) {
	m := MetaFrom(ctx)
	setIfAbsent(fields, "rid", m.RID)
	setIfAbsent(fields, "update_id", m.UpdateID)
	setIfAbsent(fields, "user_id", m.UserID)
	setIfAbsent(fields, "chat_id", m.ChatID)
	setIfAbsent(fields, "handler", m.Handler)
	setIfAbsent(fields, "correlation_id", m.CorrelationID)
}

func setIfAbsent[T comparable](fields map[string]any, key string, v T) {
	var zero T
	if v == zero {
		return
	}
	if _, ok := fields[key]; !ok {
		fields[key] = v
	}
}
