package router

import (
	"log/slog"

	tg "github.com/m3rciful/mediabot/core/telegram"
	"github.com/m3rciful/mediabot/core/telegram/callbacks"

	tele "gopkg.in/telebot.v4"
)

// CallbackRoute dispatches every button press by its unique key. Handlers
// acknowledge their own callbacks; unknown keys go to the registry's
// not-found handler.
func CallbackRoute(reg *tg.Registry) tg.Route {
	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler: wrap(func(c tele.Context) error {
			if c.Callback() == nil {
				return nil
			}
			key, _ := callbacks.Parse(c.Callback())
			h, found := reg.Callback(key)
			extras := []slog.Attr{slog.String("cb_key", key)}
			if !found {
				extras = append(extras, slog.String("reason", "not_found"))
				if h == nil {
					h = func(c tele.Context) error { return c.Respond() }
				}
			}
			return summarized(c, handlerName("callback", key), h, extras...)
		}),
	}
}
