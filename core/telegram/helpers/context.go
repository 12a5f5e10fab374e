package helpers

import (
	"context"

	"github.com/m3rciful/mediabot/core/logger"

	tele "gopkg.in/telebot.v4"
)

const ctxSlot = "logger_ctx"

// BuildContext returns the request context for the update carried by c.
// The first call derives it from the update and caches it on c, so every
// handler and helper of one update logs the same rid.
func BuildContext(c tele.Context) context.Context {
	if ctx, ok := c.Get(ctxSlot).(context.Context); ok {
		return ctx
	}
	var userID, chatID int64
	if u := c.Sender(); u != nil {
		userID = u.ID
	}
	if ch := c.Chat(); ch != nil {
		chatID = ch.ID
	}
	updateID := c.Update().ID

	ctx := logger.WithRID(context.Background(), logger.BuildRID(updateID, chatID, userID))
	ctx = logger.WithUpdateMeta(ctx, updateID, userID, chatID)
	ctx = logger.WithLogger(ctx, logger.Component("tg"))
	c.Set(ctxSlot, ctx)
	return ctx
}

// WithHandler tags the cached request context with the handler name.
func WithHandler(c tele.Context, handler string) context.Context {
	ctx := BuildContext(c)
	if handler == "" || logger.HandlerFrom(ctx) == handler {
		return ctx
	}
	ctx = logger.WithHandler(ctx, handler)
	c.Set(ctxSlot, ctx)
	return ctx
}
