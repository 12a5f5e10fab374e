package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/m3rciful/mediabot/core/logger"

	tele "gopkg.in/telebot.v4"
)

// Command is a slash command served by the bot.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	// AdminOnly commands run only for the configured admin.
	AdminOnly bool
	// Hidden commands are left out of the Telegram command menu.
	Hidden  bool
	Aliases []string
}

// Registry collects commands and callback handlers before the bot starts.
// Callbacks may also be looked up concurrently while serving updates.
type Registry struct {
	commands map[string]Command

	mu        sync.RWMutex
	callbacks map[string]tele.HandlerFunc
	notFound  tele.HandlerFunc
}

// NewRegistry returns an empty registry. Unknown callbacks are acknowledged
// with a generic notice until SetCallbackNotFound replaces it.
func NewRegistry() *Registry {
	return &Registry{
		commands:  make(map[string]Command),
		callbacks: make(map[string]tele.HandlerFunc),
		notFound: func(c tele.Context) error {
			return c.Respond(&tele.CallbackResponse{Text: "Unsupported action"})
		},
	}
}

func wireWarn(event string, attrs ...slog.Attr) {
	logger.Warn(context.Background(), "tg.wire", event, attrs...)
}

// RegisterCommand adds cmd under name, which must start with a slash.
// Invalid and duplicate registrations are logged and ignored.
func (r *Registry) RegisterCommand(name string, cmd Command) {
	switch {
	case cmd.Handler == nil || cmd.Description == "":
		wireWarn("register.command.skip", slog.String("name", name), slog.String("reason", "invalid"))
	case !strings.HasPrefix(name, "/"):
		wireWarn("register.command.skip", slog.String("name", name), slog.String("reason", "no_slash_prefix"))
	default:
		if _, dup := r.commands[name]; dup {
			wireWarn("register.command.duplicate", slog.String("name", name))
			return
		}
		r.commands[name] = cmd
	}
}

// Commands returns the registered commands keyed by name.
func (r *Registry) Commands() map[string]Command {
	return r.commands
}

// LookupCommand resolves name or one of its aliases to the registered command.
func (r *Registry) LookupCommand(name string) (string, Command, bool) {
	name = "/" + strings.TrimPrefix(name, "/")
	if cmd, ok := r.commands[name]; ok {
		return name, cmd, true
	}
	for key, cmd := range r.commands {
		for _, alias := range cmd.Aliases {
			if "/"+strings.TrimPrefix(alias, "/") == name {
				return key, cmd, true
			}
		}
	}
	return "", Command{}, false
}

// MenuCommands returns the commands shown in the Telegram menu, sorted by name.
func (r *Registry) MenuCommands() []tele.Command {
	var out []tele.Command
	for name, cmd := range r.commands {
		if !cmd.Hidden && !cmd.AdminOnly {
			out = append(out, tele.Command{Text: name, Description: cmd.Description})
		}
	}
	slices.SortFunc(out, func(a, b tele.Command) int { return strings.Compare(a.Text, b.Text) })
	return out
}

// RegisterCallback binds h to a button unique key.
func (r *Registry) RegisterCallback(key string, h tele.HandlerFunc) error {
	if key == "" || h == nil {
		wireWarn("register.callback.skip", slog.String("key", key), slog.Bool("handler_nil", h == nil))
		return fmt.Errorf("invalid callback registration %q", key)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.callbacks[key]; dup {
		wireWarn("register.callback.duplicate", slog.String("key", key))
		return fmt.Errorf("callback already registered: %s", key)
	}
	r.callbacks[key] = h
	return nil
}

// Callback returns the handler bound to key, or the not-found handler.
func (r *Registry) Callback(key string) (h tele.HandlerFunc, found bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if h, ok := r.callbacks[key]; ok {
		return h, true
	}
	return r.notFound, false
}

// Callbacks returns the registered callback keys, sorted.
func (r *Registry) Callbacks() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.callbacks))
	for k := range r.callbacks {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// SetCallbackNotFound replaces the handler used for unknown callback keys.
func (r *Registry) SetCallbackNotFound(h tele.HandlerFunc) {
	if h == nil {
		return
	}
	r.mu.Lock()
	r.notFound = h
	r.mu.Unlock()
}

// publishCommands sets the Telegram command menu from reg.
func publishCommands(bot *tele.Bot, reg *Registry) {
	if err := bot.SetCommands(reg.MenuCommands()); err != nil {
		logger.Error(context.Background(), "tg.wire", "register.commands.set_failed",
			slog.String("err", err.Error()),
		)
	}
}
