// Package helpers routes replies through the ordered outbound dispatcher and
// carries the request context of an update.
package helpers

import (
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/m3rciful/mediabot/core/logger"
	"github.com/m3rciful/mediabot/core/telegram/netutil"
	"github.com/m3rciful/mediabot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var dispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher installs d for the send helpers. With none installed they
// call the Bot API inline.
func SetDispatcher(d *sender.Dispatcher) {
	dispatcher.Store(d)
}

// shardKey keeps every reply to one chat on one dispatcher shard.
func shardKey(c tele.Context) int64 {
	if chat := c.Chat(); chat != nil {
		return chat.ID
	}
	if u := c.Sender(); u != nil {
		return u.ID
	}
	return 0
}

// submit queues run on the dispatcher. A full or closed queue degrades to
// an inline call.
func submit(c tele.Context, action, endpoint string, run func() error) error {
	d := dispatcher.Load()
	if d == nil {
		return run()
	}
	ctx := BuildContext(c)
	err := d.Enqueue(ctx, shardKey(c), action, endpoint, run)
	if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
		logger.Warn(ctx, "tg.sender", "queue.fallback",
			slog.String("action", action),
			slog.String("endpoint", endpoint),
			slog.String("err", err.Error()),
		)
		return run()
	}
	return err
}

// SendText queues plain text, with no parse mode, for the current chat.
func SendText(c tele.Context, text string, opts *tele.SendOptions) error {
	return submit(c, "send.text", "sendMessage", func() error {
		if opts == nil {
			return c.Send(text)
		}
		return c.Send(text, opts)
	})
}

// SendMedia uploads audio or video after every earlier reply to the chat and
// returns the upload result. The upload itself runs on the caller's
// goroutine so it never holds a dispatcher shard shared with other chats.
func SendMedia(c tele.Context, m tele.Sendable) error {
	endpoint := "sendDocument"
	switch m.(type) {
	case *tele.Audio:
		endpoint = "sendAudio"
	case *tele.Video:
		endpoint = "sendVideo"
	}
	ctx := BuildContext(c)
	if d := dispatcher.Load(); d != nil {
		if err := d.Barrier(ctx, shardKey(c)); err != nil {
			logger.Warn(ctx, "tg.sender", "barrier.skip",
				slog.String("endpoint", endpoint),
				slog.String("err", err.Error()),
			)
		}
	}

	began := time.Now()
	err := c.Send(m)
	attrs := []slog.Attr{
		slog.String("action", "send.media"),
		slog.String("endpoint", endpoint),
		slog.Duration("duration", time.Since(began)),
	}
	if err != nil {
		logger.Error(ctx, "tg.sender", "send.fail", append(attrs,
			slog.String("err", sender.Redact(err)),
			slog.String("err_code", string(netutil.Classify(err))),
		)...)
		return err
	}
	logger.Debug(ctx, "tg.sender", "send.success", attrs...)
	return nil
}

// Notify queues a chat action. Failures are logged and otherwise ignored.
func Notify(c tele.Context, action tele.ChatAction) {
	err := submit(c, "send.action", "sendChatAction", func() error { return c.Notify(action) })
	if err != nil {
		logger.Debug(BuildContext(c), "tg.sender", "notify.fail",
			slog.String("action", string(action)),
			slog.String("err", err.Error()),
		)
	}
}
