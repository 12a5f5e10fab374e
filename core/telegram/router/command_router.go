package router

import (
	"context"
	"log/slog"

	"github.com/m3rciful/mediabot/core/logger"
	tg "github.com/m3rciful/mediabot/core/telegram"
	"github.com/m3rciful/mediabot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CommandRouteOptions configures admin gating of commands.
type CommandRouteOptions struct {
	AdminID       int64
	OnAdminReject tele.HandlerFunc
}

// CommandRoutes returns one route per registered command.
func CommandRoutes(reg *tg.Registry, opts CommandRouteOptions) []tg.Route {
	if reg == nil {
		return nil
	}
	admin := middleware.AdminOnlyMiddleware(middleware.AdminOptions{
		AdminID:  opts.AdminID,
		OnReject: opts.OnAdminReject,
	})

	routes := make([]tg.Route, 0, len(reg.Commands()))
	for name, cmd := range reg.Commands() {
		h := commandHandler(name, cmd)
		if cmd.AdminOnly {
			h = admin(h)
		}
		routes = append(routes, tg.Route{Endpoint: name, Handler: wrap(h)})
	}

	logger.Info(context.Background(), "tg.wire", "tg.wire.complete",
		slog.Int("commands", len(routes)),
		slog.Int("callbacks", len(reg.Callbacks())),
	)
	return routes
}

func commandHandler(name string, cmd tg.Command) tele.HandlerFunc {
	return func(c tele.Context) error {
		return summarized(c, handlerName("", name), cmd.Handler)
	}
}
