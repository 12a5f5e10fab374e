package router

import (
	"strings"

	tg "github.com/m3rciful/mediabot/core/telegram"

	tele "gopkg.in/telebot.v4"
)

// Dialogue receives free text for users with an active conversation.
type Dialogue interface {
	Active(userID int64) bool
	HandleText(c tele.Context) error
}

// TextRoutes routes plain text and documents. A command typed as text wins
// over the dialogue so /start always resets; other "/" text, text from users
// without a dialogue and every document go to fb.
func TextRoutes(dlg Dialogue, reg *tg.Registry, fb Fallbacks) []tg.Route {
	var unknownText, unknownDoc tele.HandlerFunc
	if fb != nil {
		unknownText, unknownDoc = fb.UnknownText(), fb.UnknownDocument()
	}

	text := func(c tele.Context) error {
		name, h := textTarget(dlg, reg, unknownText, c.Sender(), c.Text())
		return summarized(c, name, h)
	}
	document := func(c tele.Context) error {
		return summarized(c, "unexpected_document", unknownDoc)
	}

	return []tg.Route{
		{Endpoint: tele.OnText, Handler: wrap(text)},
		{Endpoint: tele.OnDocument, Handler: wrap(document)},
	}
}

// textTarget picks the handler for a text message. Unregistered commands
// get none and are dropped.
func textTarget(dlg Dialogue, reg *tg.Registry, fallback tele.HandlerFunc, from *tele.User, text string) (string, tele.HandlerFunc) {
	if name, cmd, ok := lookupTyped(reg, text); ok {
		return handlerName("", name), cmd.Handler
	}
	if strings.HasPrefix(strings.TrimSpace(text), "/") {
		return "unknown_command", nil
	}
	if dlg != nil && from != nil && dlg.Active(from.ID) {
		return "dialogue", dlg.HandleText
	}
	return "unknown_text", fallback
}

// lookupTyped resolves "/name@bot args" text to a public command.
func lookupTyped(reg *tg.Registry, text string) (string, tg.Command, bool) {
	fields := strings.Fields(text)
	if reg == nil || len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", tg.Command{}, false
	}
	name, _, _ := strings.Cut(fields[0], "@")
	key, cmd, ok := reg.LookupCommand(name)
	if !ok || cmd.AdminOnly {
		return "", tg.Command{}, false
	}
	return key, cmd, true
}
