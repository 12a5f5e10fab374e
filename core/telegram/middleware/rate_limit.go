package middleware

import (
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/m3rciful/mediabot/core/logger"

	tele "gopkg.in/telebot.v4"
)

// RateLimitOptions configures behaviour of the rate limit middleware.
// Each user gets a token bucket refilled once per Interval holding Burst tokens.
type RateLimitOptions struct {
	Interval  time.Duration
	Burst     int
	Exclude   map[string]struct{}
	OnLimited tele.HandlerFunc
}

type userLimiters struct {
	mu       sync.Mutex
	every    rate.Limit
	burst    int
	limiters map[int64]*rate.Limiter
}

func newUserLimiters(interval time.Duration, burst int) *userLimiters {
	if burst <= 0 {
		burst = 1
	}
	return &userLimiters{
		every:    rate.Every(interval),
		burst:    burst,
		limiters: make(map[int64]*rate.Limiter),
	}
}

func (u *userLimiters) allow(userID int64, now time.Time) bool {
	u.mu.Lock()
	lim, ok := u.limiters[userID]
	if !ok {
		lim = rate.NewLimiter(u.every, u.burst)
		u.limiters[userID] = lim
	}
	u.mu.Unlock()
	return lim.AllowN(now, 1)
}

func updateKind(upd tele.Update) string {
	switch {
	case upd.Callback != nil:
		return "callback"
	case upd.Message != nil:
		return "message"
	case upd.Query != nil:
		return "inline_query"
	}
	return "other"
}

// RateLimitMiddleware returns a middleware that drops updates from users
// exceeding their per-user token bucket.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	limiters := newUserLimiters(opts.Interval, opts.Burst)
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || opts.Interval <= 0 {
				return next(c)
			}
			if _, skip := opts.Exclude[updateKind(c.Update())]; skip {
				return next(c)
			}
			if limiters.allow(user.ID, time.Now()) {
				return next(c)
			}

			attrs := []slog.Attr{slog.Int64("user_id", user.ID)}
			if chat := c.Chat(); chat != nil {
				attrs = append(attrs, slog.Int64("chat_id", chat.ID))
			}
			logger.Warn(logger.Background(), "tg", "tg.rate_limit", attrs...)
			if opts.OnLimited != nil {
				_ = opts.OnLimited(c)
			}
			return nil
		}
	}
}
