// Package callbacks decodes inline button callback data.
package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Parse splits callback data into its unique key and payload. Buttons are
// encoded as "\f<unique>|<payload>". When telebot has already matched the
// button, cb.Unique is set and cb.Data holds the bare payload.
func Parse(cb *tele.Callback) (key, payload string) {
	switch {
	case cb == nil:
		return "", ""
	case cb.Unique != "":
		return cb.Unique, cb.Data
	}
	raw := strings.TrimPrefix(strings.TrimPrefix(cb.Data, "\f"), "\\f")
	key, payload, _ = strings.Cut(raw, "|")
	return strings.TrimSpace(key), payload
}

// Payload returns the payload of the callback carried by c, if any.
func Payload(c tele.Context) string {
	_, p := Parse(c.Callback())
	return p
}

// PayloadChoice returns the payload when it equals one of allowed, compared
// case-insensitively. The allowed spelling is returned.
func PayloadChoice(c tele.Context, allowed ...string) (string, bool) {
	p := strings.TrimSpace(Payload(c))
	if p == "" {
		return "", false
	}
	for _, a := range allowed {
		if strings.EqualFold(p, a) {
			return a, true
		}
	}
	return "", false
}
