package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/mediabot/core/telegram"
)

type activeUsers map[int64]bool

func (a activeUsers) Active(id int64) bool         { return a[id] }
func (a activeUsers) HandleText(tele.Context) error { return nil }

func noop(tele.Context) error { return nil }

func TestTextTarget(t *testing.T) {
	reg := tg.NewRegistry()
	reg.RegisterCommand("/start", tg.Command{Handler: noop, Description: "Start"})
	reg.RegisterCommand("/stats", tg.Command{Handler: noop, Description: "Stats", AdminOnly: true})
	dlg := activeUsers{1: true}
	user := &tele.User{ID: 1}

	tests := []struct {
		name    string
		from    *tele.User
		text    string
		want    string
		handled bool
	}{
		{name: "typed command", from: user, text: "/start@mediabot", want: "start", handled: true},
		{name: "locator in dialogue", from: user, text: "https://example.com/v", want: "dialogue", handled: true},
		{name: "unregistered command", from: user, text: "/foo", want: "unknown_command"},
		{name: "admin command as text", from: user, text: "/stats", want: "unknown_command"},
		{name: "leading space command", from: user, text: "  /foo bar", want: "unknown_command"},
		{name: "no dialogue", from: &tele.User{ID: 2}, text: "hello", want: "unknown_text", handled: true},
		{name: "no sender", text: "hello", want: "unknown_text", handled: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, h := textTarget(dlg, reg, noop, tt.from, tt.text)
			assert.Equal(t, tt.want, name)
			if tt.handled {
				require.NotNil(t, h)
			} else {
				assert.Nil(t, h)
			}
		})
	}
}
