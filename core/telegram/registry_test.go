package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

func noop(tele.Context) error { return nil }

func TestRegisterCommand(t *testing.T) {
	r := NewRegistry()
	r.RegisterCommand("/start", Command{Handler: noop, Description: "Start", Aliases: []string{"begin"}})
	r.RegisterCommand("/stats", Command{Handler: noop, Description: "Stats", AdminOnly: true})
	r.RegisterCommand("/cancel", Command{Handler: noop, Description: "Cancel"})
	r.RegisterCommand("noslash", Command{Handler: noop, Description: "x"})
	r.RegisterCommand("/empty", Command{Handler: noop})
	r.RegisterCommand("/start", Command{Handler: noop, Description: "Again"})

	assert.Len(t, r.Commands(), 3)
	assert.Equal(t, "Start", r.Commands()["/start"].Description)

	key, _, ok := r.LookupCommand("begin")
	require.True(t, ok)
	assert.Equal(t, "/start", key)
	key, _, ok = r.LookupCommand("cancel")
	require.True(t, ok)
	assert.Equal(t, "/cancel", key)
	_, _, ok = r.LookupCommand("/missing")
	assert.False(t, ok)

	assert.Equal(t, []tele.Command{
		{Text: "/cancel", Description: "Cancel"},
		{Text: "/start", Description: "Start"},
	}, r.MenuCommands())
}

func TestRegisterCallback(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterCallback("mode", noop))
	require.NoError(t, r.RegisterCallback("lang", noop))
	assert.Error(t, r.RegisterCallback("mode", noop))
	assert.Error(t, r.RegisterCallback("", noop))
	assert.Error(t, r.RegisterCallback("x", nil))
	assert.Equal(t, []string{"lang", "mode"}, r.Callbacks())

	h, found := r.Callback("lang")
	assert.True(t, found)
	assert.NotNil(t, h)

	h, found = r.Callback("nope")
	assert.False(t, found)
	assert.NotNil(t, h)

	called := false
	r.SetCallbackNotFound(func(tele.Context) error { called = true; return nil })
	h, _ = r.Callback("nope")
	require.NoError(t, h(nil))
	assert.True(t, called)
}
