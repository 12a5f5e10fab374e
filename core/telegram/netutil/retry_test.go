package netutil

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	tele "gopkg.in/telebot.v4"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name  string
		err   error
		kind  Kind
		retry bool
	}{
		{"nil", nil, KindNone, false},
		{"deadline", fmt.Errorf("send: %w", context.DeadlineExceeded), KindTimeout, true},
		{"dns", &net.DNSError{Err: "no such host", Name: "api.telegram.org"}, KindDNS, false},
		{"dial", &url.Error{Op: "Post", URL: "u", Err: &net.OpError{Op: "dial", Err: errors.New("refused")}}, KindDial, true},
		{"forbidden", &tele.Error{Code: 403, Description: "Forbidden: bot was blocked by the user"}, KindHTTP4xx, false},
		{"api 502", errors.New("telegram: bad gateway (502)"), KindHTTP5xx, false},
		{"plain", errors.New("boom"), KindUnknown, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.kind, Classify(tc.err))
			assert.Equal(t, tc.retry, ShouldRetry(tc.err))
		})
	}
}

func TestStatusCode(t *testing.T) {
	assert.Equal(t, 0, StatusCode(nil))
	assert.Equal(t, 400, StatusCode(errors.New("telegram: chat not found (400)")))
	assert.Equal(t, 0, StatusCode(errors.New("oops ()")))
	assert.Equal(t, 403, StatusCode(fmt.Errorf("send: %w", &tele.Error{Code: 403})))
}

func TestRetry(t *testing.T) {
	transient := fmt.Errorf("send: %w", context.DeadlineExceeded)

	calls := 0
	n, err := Retry(context.Background(), 3, 0, func(int) error {
		calls++
		if calls < 2 {
			return transient
		}
		return nil
	}, nil)
	assert.NoError(t, err)
	assert.Equal(t, 2, n)

	permanent := errors.New("bad request (400)")
	n, err = Retry(context.Background(), 5, 0, func(int) error { return permanent }, nil)
	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, n)

	var delays []int
	n, err = Retry(context.Background(), 3, 0, func(int) error { return transient }, func(attempt int, _ time.Duration, _ error) {
		delays = append(delays, attempt)
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 3, n)
	assert.Equal(t, []int{1, 2}, delays)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n, err = Retry(ctx, 3, 0, func(int) error { return nil }, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, n)
}
