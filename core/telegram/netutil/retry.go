// Package netutil classifies errors from Bot API calls.
package netutil

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"
)

// Kind is a coarse error class used for retries and log fields.
type Kind string

const (
	KindNone    Kind = ""
	KindTimeout Kind = "timeout"
	KindDNS     Kind = "dns"
	KindDial    Kind = "dial"
	KindTLS     Kind = "tls"
	KindHTTP4xx Kind = "http_4xx"
	KindHTTP5xx Kind = "http_5xx"
	KindUnknown Kind = "unknown"
)

// Classify maps err to a Kind, looking through url and net wrappers.
func Classify(err error) Kind {
	if err == nil {
		return KindNone
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	if dnsErr := (*net.DNSError)(nil); errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return KindTimeout
		}
		return KindDNS
	}
	if netErr := net.Error(nil); errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	if opErr := (*net.OpError)(nil); errors.As(err, &opErr) && opErr.Op == "dial" {
		return KindDial
	}
	if alert := tls.AlertError(0); errors.As(err, &alert) {
		return KindTLS
	}
	switch code := StatusCode(err); {
	case code >= 500:
		return KindHTTP5xx
	case code >= 400:
		return KindHTTP4xx
	}
	return KindUnknown
}

// ShouldRetry reports whether err is a transient transport failure.
// API level rejections are never retried.
func ShouldRetry(err error) bool {
	switch Classify(err) {
	case KindTimeout, KindDial:
		return true
	case KindUnknown:
		var urlErr *url.Error
		if errors.As(err, &urlErr) && urlErr.Err != nil && !errors.Is(urlErr.Err, err) {
			return ShouldRetry(urlErr.Err)
		}
	}
	return false
}

// StatusCode extracts the HTTP status of a Bot API error, or 0.
func StatusCode(err error) int {
	var apiErr *tele.Error
	var floodErr tele.FloodError
	var groupErr tele.GroupError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &apiErr):
		return apiErr.Code
	case errors.As(err, &floodErr):
		return http.StatusTooManyRequests
	case errors.As(err, &groupErr):
		return http.StatusBadRequest
	}
	// telebot renders unknown API errors as "description (code)".
	msg := err.Error()
	open, end := strings.LastIndex(msg, "("), strings.LastIndex(msg, ")")
	if open < 0 || end <= open+1 {
		return 0
	}
	code, convErr := strconv.Atoi(strings.TrimSpace(msg[open+1 : end]))
	if convErr != nil {
		return 0
	}
	return code
}

// Retry calls fn up to attempts times, sleeping backoff*n after the n-th
// transient failure. It stops early on a permanent error or when ctx ends.
// onRetry, when set, runs before each sleep.
func Retry(ctx context.Context, attempts int, backoff time.Duration, fn func(attempt int) error, onRetry func(attempt int, delay time.Duration, err error)) (int, error) {
	attempts = max(attempts, 1)
	var err error
	for n := 1; ; n++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return n - 1, ctxErr
		}
		if err = fn(n); err == nil || n == attempts || !ShouldRetry(err) {
			return n, err
		}
		delay := backoff * time.Duration(n)
		if onRetry != nil {
			onRetry(n, delay, err)
		}
		if delay <= 0 {
			continue
		}
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return n, ctx.Err()
		case <-t.C:
		}
	}
}
