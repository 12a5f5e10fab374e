package bot

import (
	"log/slog"
	"path/filepath"

	"github.com/m3rciful/mediabot/core/logger"
	tg "github.com/m3rciful/mediabot/core/telegram"
	"github.com/m3rciful/mediabot/core/telegram/callbacks"
	"github.com/m3rciful/mediabot/core/telegram/helpers"
	"github.com/m3rciful/mediabot/core/telegram/keyboard"
	"github.com/m3rciful/mediabot/core/telegram/router"
	"github.com/m3rciful/mediabot/internal/dialogue"
	"github.com/m3rciful/mediabot/internal/fetch"
	"github.com/m3rciful/mediabot/internal/i18n"
	"github.com/m3rciful/mediabot/internal/media"

	tele "gopkg.in/telebot.v4"
)

var _ router.Fallbacks = (*Bot)(nil)

// teleReplier sends through the ordered helpers of core/telegram.
type teleReplier struct {
	c tele.Context
}

func (r teleReplier) Send(text string, rows [][]Button) error {
	opts := &tele.SendOptions{}
	if markup := inlineMarkup(rows); markup != nil {
		opts.ReplyMarkup = markup
	}
	return helpers.SendText(r.c, text, opts)
}

func (r teleReplier) Ack(text string) error {
	if r.c.Callback() == nil {
		return nil
	}
	if text == "" {
		return r.c.Respond()
	}
	return r.c.Respond(&tele.CallbackResponse{Text: text})
}

func (r teleReplier) Notify(p Presence) error {
	helpers.Notify(r.c, chatAction(p))
	return nil
}

func (r teleReplier) SendMedia(f fetch.File) error {
	file := tele.FromDisk(f.Path)
	name := filepath.Base(f.Path)
	var m tele.Sendable
	switch f.Kind {
	case media.Audio:
		m = &tele.Audio{File: file, FileName: name}
	default:
		m = &tele.Video{File: file, FileName: name, Streaming: true}
	}
	return helpers.SendMedia(r.c, m)
}

func chatAction(p Presence) tele.ChatAction {
	switch p {
	case PresenceUploadAudio:
		return tele.UploadingAudio
	case PresenceUploadVideo:
		return tele.UploadingVideo
	}
	return tele.Typing
}

func inlineMarkup(rows [][]Button) *tele.ReplyMarkup {
	out := make([][]keyboard.Button, 0, len(rows))
	for _, row := range rows {
		line := make([]keyboard.Button, 0, len(row))
		for _, b := range row {
			line = append(line, keyboard.Button(b))
		}
		out = append(out, line)
	}
	return keyboard.Inline(out...)
}

// Register binds commands and callbacks. /stats is registered only when
// withStats is set, since an unset admin id would expose it to everyone.
func (b *Bot) Register(reg *tg.Registry, withStats bool) error {
	reg.RegisterCommand("/start", tg.Command{
		Handler:     b.onStart,
		Description: "Start over",
	})
	reg.RegisterCommand("/cancel", tg.Command{
		Handler:     b.onCancel,
		Description: "Cancel the current conversation",
	})
	if withStats {
		reg.RegisterCommand("/stats", tg.Command{
			Handler:     b.onStats,
			Description: "Sessions and downloads in progress",
			AdminOnly:   true,
			Hidden:      true,
		})
	}
	if err := reg.RegisterCallback(uniqueLanguage, b.onLanguage); err != nil {
		return err
	}
	if err := reg.RegisterCallback(uniqueMode, b.onMode); err != nil {
		return err
	}
	reg.SetCallbackNotFound(b.UnknownCallback())
	return nil
}

func (b *Bot) dispatch(c tele.Context, ev dialogue.Event) error {
	user := c.Sender()
	if user == nil {
		return nil
	}
	ctx := helpers.BuildContext(c)
	if err := b.Handle(ctx, user.ID, ev, teleReplier{c: c}); err != nil {
		logger.Warn(ctx, component, "dialogue.reply.fail",
			slog.Int64("session_id", user.ID),
			slog.String("kind", ev.Kind.String()),
			slog.String("err", err.Error()),
		)
	}
	return nil
}

func (b *Bot) onStart(c tele.Context) error {
	hint := ""
	if u := c.Sender(); u != nil {
		hint = u.LanguageCode
	}
	return b.dispatch(c, dialogue.Start(hint))
}

func (b *Bot) onCancel(c tele.Context) error {
	return b.dispatch(c, dialogue.Cancel())
}

func (b *Bot) onLanguage(c tele.Context) error {
	allowed := make([]string, 0, len(i18n.Supported))
	for _, l := range i18n.Supported {
		allowed = append(allowed, string(l))
	}
	choice, _ := callbacks.PayloadChoice(c, allowed...)
	return b.dispatch(c, dialogue.ChooseLanguage(choice))
}

func (b *Bot) onMode(c tele.Context) error {
	allowed := make([]string, 0, len(media.Modes))
	for _, m := range media.Modes {
		allowed = append(allowed, string(m))
	}
	choice, _ := callbacks.PayloadChoice(c, allowed...)
	return b.dispatch(c, dialogue.ChooseMode(choice))
}

func (b *Bot) onStats(c tele.Context) error {
	return teleReplier{c: c}.Send(b.StatsText(i18n.English), nil)
}

// HandleText feeds a free text message to the dialogue.
func (b *Bot) HandleText(c tele.Context) error {
	return b.dispatch(c, dialogue.Text(c.Text()))
}

// UnknownText ignores text from users who never started a conversation.
func (b *Bot) UnknownText() tele.HandlerFunc {
	return func(c tele.Context) error { return nil }
}

// UnknownDocument ignores uploaded documents.
func (b *Bot) UnknownDocument() tele.HandlerFunc {
	return func(c tele.Context) error { return nil }
}

// UnknownCallback acknowledges presses of buttons this bot does not know.
func (b *Bot) UnknownCallback() tele.HandlerFunc {
	return func(c tele.Context) error {
		lang := b.catalog.Default()
		if u := c.Sender(); u != nil {
			lang = b.catalog.Match(u.LanguageCode)
		}
		return teleReplier{c: c}.Ack(b.catalog.Text(lang, "unsupported_action"))
	}
}
