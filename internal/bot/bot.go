// Package bot connects the dialogue state machine, the fetch orchestrator
// and the localized replies.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/m3rciful/mediabot/core/logger"
	"github.com/m3rciful/mediabot/core/telegram/state"
	"github.com/m3rciful/mediabot/internal/dialogue"
	"github.com/m3rciful/mediabot/internal/fetch"
	"github.com/m3rciful/mediabot/internal/i18n"
	"github.com/m3rciful/mediabot/internal/media"
)

const component = "dialogue"

const (
	uniqueLanguage = "lang"
	uniqueMode     = "mode"
)

// Fetcher runs one fetch and reports its outcome.
type Fetcher interface {
	Fetch(ctx context.Context, req fetch.Request, deliver fetch.Deliver) fetch.Outcome
	InFlight() int64
}

// Options configure a Bot.
type Options struct {
	Catalog *i18n.Catalog
	Fetcher Fetcher
	// DefaultMode is used when a reply needs a mode the session does not have yet.
	DefaultMode media.Mode
	// PresenceInterval refreshes the typing status during a fetch; zero sends it once.
	PresenceInterval time.Duration
	// OnEvent is called once per inbound event with whether it changed the session.
	OnEvent func(kind string, applied bool)
}

// Bot owns the sessions of all users.
type Bot struct {
	sessions *state.Store[dialogue.Session]
	catalog  *i18n.Catalog
	fetcher  Fetcher
	opts     Options
}

// New builds a Bot with an empty session store.
func New(opts Options) (*Bot, error) {
	if opts.Catalog == nil {
		return nil, errors.New("bot: catalog is required")
	}
	if opts.Fetcher == nil {
		return nil, errors.New("bot: fetcher is required")
	}
	opts.DefaultMode = opts.DefaultMode.Or(media.Video)
	return &Bot{
		sessions: state.NewStore(dialogue.NewSession),
		catalog:  opts.Catalog,
		fetcher:  opts.Fetcher,
		opts:     opts,
	}, nil
}

// Handle feeds ev into the session of id and applies the resulting effects.
// Events of one user are processed one at a time; a fetch holds the session
// until its outcome message is sent.
func (b *Bot) Handle(ctx context.Context, id int64, ev dialogue.Event, r Replier) error {
	var result error
	if ev.Kind == dialogue.EventLanguage || ev.Kind == dialogue.EventMode {
		if err := r.Ack(""); err != nil {
			result = multierror.Append(result, fmt.Errorf("ack: %w", err))
		}
	}

	b.sessions.Do(id, func(s *dialogue.Session) {
		prev := s.State
		next, effects := dialogue.Transition(*s, ev)
		*s = next
		b.observe(ctx, id, ev, prev, next.State, len(effects) > 0)

		for _, eff := range effects {
			if err := b.apply(ctx, id, ev, eff, r); err != nil {
				result = multierror.Append(result, fmt.Errorf("%s: %w", eff.Kind, err))
			}
		}
	})
	return result
}

// Active reports whether id has a session.
func (b *Bot) Active(id int64) bool {
	return b.sessions.Has(id)
}

// Session returns a copy of the session of id.
func (b *Bot) Session(id int64) (dialogue.Session, bool) {
	return b.sessions.Peek(id)
}

// Sessions returns the number of stored sessions.
func (b *Bot) Sessions() int {
	return b.sessions.Len()
}

// StatsText renders the admin summary.
func (b *Bot) StatsText(l i18n.Lang) string {
	return b.catalog.Text(l, "stats",
		"sessions", strconv.Itoa(b.sessions.Len()),
		"inflight", strconv.FormatInt(b.fetcher.InFlight(), 10),
	)
}

// SweepIdle drops sessions untouched for longer than idle.
func (b *Bot) SweepIdle(idle time.Duration) int {
	n := b.sessions.Sweep(idle)
	if n > 0 {
		logger.Info(logger.Background(), component, "dialogue.sweep",
			slog.Int("removed", n),
			slog.Int("remaining", b.sessions.Len()),
		)
	}
	return n
}

// RunSweeper calls SweepIdle periodically until ctx is done. A non-positive idle disables it.
func (b *Bot) RunSweeper(ctx context.Context, idle time.Duration) {
	if idle <= 0 {
		return
	}
	every := max(idle/4, time.Minute)
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			b.SweepIdle(idle)
		}
	}
}

func (b *Bot) observe(ctx context.Context, id int64, ev dialogue.Event, from, to dialogue.State, applied bool) {
	if b.opts.OnEvent != nil {
		b.opts.OnEvent(ev.Kind.String(), applied)
	}
	if !applied {
		logger.Debug(ctx, component, "dialogue.ignored",
			slog.Int64("session_id", id),
			slog.String("kind", ev.Kind.String()),
			slog.String("state", string(from)),
		)
		return
	}
	logger.Debug(ctx, component, "dialogue.transition",
		slog.Int64("session_id", id),
		slog.String("kind", ev.Kind.String()),
		slog.String("from", string(from)),
		slog.String("to", string(to)),
	)
}

func (b *Bot) apply(ctx context.Context, id int64, ev dialogue.Event, eff dialogue.Effect, r Replier) error {
	lang := b.catalog.Resolve(eff.Language)
	switch eff.Kind {
	case dialogue.PromptLanguage:
		lang = b.catalog.Match(ev.Hint)
		return r.Send(b.catalog.Text(lang, "welcome"), b.languageRows())
	case dialogue.PromptMode:
		return r.Send(b.catalog.Text(lang, "ask_type"), b.modeRows(lang, "button_"))
	case dialogue.EchoMode:
		mode := eff.Mode.Or(b.opts.DefaultMode)
		return r.Send(b.catalog.Text(lang, "selected", "choice", b.catalog.Choice(lang, string(mode))), nil)
	case dialogue.PromptLocator:
		return r.Send(b.catalog.Text(lang, "ask_url"), nil)
	case dialogue.Fetch:
		return b.fetch(ctx, id, lang, eff, r)
	case dialogue.PromptAgain:
		return r.Send(b.catalog.Text(lang, "again"), b.modeRows(lang, "again_"))
	case dialogue.AckCancelled:
		return r.Send(b.catalog.Text(lang, "cancelled"), nil)
	}
	return nil
}

func (b *Bot) languageRows() [][]Button {
	rows := make([][]Button, 0, len(i18n.Supported))
	for _, l := range i18n.Supported {
		rows = append(rows, []Button{{
			Text:   b.catalog.Text(l, "language_name"),
			Unique: uniqueLanguage,
			Data:   string(l),
		}})
	}
	return rows
}

func (b *Bot) modeRows(lang i18n.Lang, prefix string) [][]Button {
	rows := make([][]Button, 0, len(media.Modes))
	for _, m := range media.Modes {
		rows = append(rows, []Button{{
			Text:   b.catalog.Text(lang, prefix+string(m)),
			Unique: uniqueMode,
			Data:   string(m),
		}})
	}
	return rows
}

func (b *Bot) fetch(ctx context.Context, id int64, lang i18n.Lang, eff dialogue.Effect, r Replier) error {
	var result error
	if err := r.Send(b.catalog.Text(lang, "downloading"), nil); err != nil {
		result = multierror.Append(result, err)
	}

	stop := b.presence(ctx, r, PresenceTyping)
	req := fetch.Request{
		Locator:   eff.Locator,
		Mode:      eff.Mode.Or(b.opts.DefaultMode),
		SessionID: id,
	}
	out := b.fetcher.Fetch(ctx, req, func(ctx context.Context, f fetch.File) error {
		stop()
		_ = r.Notify(uploadPresence(f.Kind))
		return r.SendMedia(f)
	})
	stop()

	if msg := b.outcomeText(lang, out); msg != "" {
		if err := r.Send(msg, nil); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result
}

// outcomeText returns the message for a finished fetch, empty when the file itself was the reply.
func (b *Bot) outcomeText(lang i18n.Lang, out fetch.Outcome) string {
	switch out.Status {
	case fetch.StatusDelivered:
		return ""
	case fetch.StatusNotFound:
		return b.catalog.Text(lang, "not_found")
	}
	switch out.Cause {
	case fetch.CauseRetrieval:
		return b.catalog.Text(lang, "error_url")
	case fetch.CauseTimeout:
		return b.catalog.Text(lang, "timeout")
	case fetch.CauseDelivery:
		return b.catalog.Text(lang, "delivery_failed")
	default:
		return b.catalog.Text(lang, "unexpected", "error", out.Reason)
	}
}

// presence sends p now and then every PresenceInterval until the returned stop is called.
// stop is idempotent and waits for the refresher to exit.
func (b *Bot) presence(ctx context.Context, r Replier, p Presence) func() {
	_ = r.Notify(p)
	if b.opts.PresenceInterval <= 0 {
		return func() {}
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		t := time.NewTicker(b.opts.PresenceInterval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				_ = r.Notify(p)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}
}

func uploadPresence(kind media.Mode) Presence {
	if kind == media.Audio {
		return PresenceUploadAudio
	}
	return PresenceUploadVideo
}
