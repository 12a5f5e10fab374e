package middleware

import tele "gopkg.in/telebot.v4"

const repliesSlot = "replies"

// replies counts what a handler sent back for one update.
type replies struct {
	messages int
	keyboard bool
}

// countingContext records successful sends made through the wrapped context.
type countingContext struct {
	tele.Context
	r *replies
}

func (c countingContext) count(err error, opts []any) error {
	if err != nil {
		return err
	}
	c.r.messages++
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.ReplyMarkup:
			c.r.keyboard = c.r.keyboard || v != nil
		case *tele.SendOptions:
			c.r.keyboard = c.r.keyboard || (v != nil && v.ReplyMarkup != nil)
		}
	}
	return nil
}

func (c countingContext) Send(what any, opts ...any) error {
	return c.count(c.Context.Send(what, opts...), opts)
}

func (c countingContext) Reply(what any, opts ...any) error {
	return c.count(c.Context.Reply(what, opts...), opts)
}

func (c countingContext) Edit(what any, opts ...any) error {
	return c.count(c.Context.Edit(what, opts...), opts)
}

func (c countingContext) EditOrSend(what any, opts ...any) error {
	return c.count(c.Context.EditOrSend(what, opts...), opts)
}

func (c countingContext) EditOrReply(what any, opts ...any) error {
	return c.count(c.Context.EditOrReply(what, opts...), opts)
}

// MessageMetricsMiddleware counts replies sent through the context so the
// handler summary can report them.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		r := &replies{}
		c.Set(repliesSlot, r)
		return next(countingContext{Context: c, r: r})
	}
}

// GetCounters returns the number of replies and whether any carried a keyboard.
func GetCounters(c tele.Context) (int, bool) {
	r, ok := c.Get(repliesSlot).(*replies)
	if !ok {
		return 0, false
	}
	return r.messages, r.keyboard
}
