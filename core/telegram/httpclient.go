package telegram

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"path"
	"time"

	coreconfig "github.com/m3rciful/mediabot/core/config"
	"github.com/m3rciful/mediabot/core/telegram/netutil"
)

const (
	defaultRequestTimeout = 30 * time.Second
	defaultUploadTimeout  = 10 * time.Minute
	defaultRetryAttempts  = 3
	defaultRetryBackoff   = 2 * time.Second
)

var errBodyNotReplayable = errors.New("telegram http: request body cannot be replayed")

// uploadMethods send a file in the request body.
var uploadMethods = map[string]bool{
	"sendAudio":      true,
	"sendVideo":      true,
	"sendDocument":   true,
	"sendPhoto":      true,
	"sendVoice":      true,
	"sendAnimation":  true,
	"sendVideoNote":  true,
	"sendMediaGroup": true,
}

// Timeouts bound one Bot API call by its kind. Zero values select defaults.
type Timeouts struct {
	// Request bounds ordinary calls; 30s by default.
	Request time.Duration
	// Upload bounds calls that carry a file; 10m by default.
	Upload time.Duration
	// LongPoll is how long getUpdates may hold the response. The call is
	// bounded by LongPoll plus Request.
	LongPoll time.Duration
}

func (t Timeouts) withDefaults() Timeouts {
	if t.Request <= 0 {
		t.Request = defaultRequestTimeout
	}
	if t.Upload <= 0 {
		t.Upload = defaultUploadTimeout
	}
	t.LongPoll = max(t.LongPoll, 0)
	return t
}

// forMethod returns the deadline for the Bot API method named by the last
// path element of the request URL.
func (t Timeouts) forMethod(method string) time.Duration {
	switch {
	case method == "getUpdates":
		return t.LongPoll + t.Request
	case uploadMethods[method]:
		return t.Upload
	}
	return t.Request
}

func clientTimeouts(cfg *coreconfig.Config) Timeouts {
	return Timeouts{
		Request:  time.Duration(cfg.Telegram.RequestTimeoutSeconds) * time.Second,
		Upload:   time.Duration(cfg.Telegram.UploadTimeoutSeconds) * time.Second,
		LongPoll: longPollTimeout(cfg),
	}
}

// BuildHTTPClient returns the client used for Bot API calls. Each call gets
// the deadline its kind allows; there is no header deadline, since
// getUpdates holds its headers until an update arrives. Transient dial and
// timeout failures are retried when the request body can be replayed.
func BuildHTTPClient(timeouts Timeouts) *http.Client {
	base := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
	return &http.Client{
		Transport: retryTransport{
			base:     base,
			attempts: defaultRetryAttempts + 1,
			backoff:  defaultRetryBackoff,
			timeouts: timeouts.withDefaults(),
		},
	}
}

type retryTransport struct {
	base     http.RoundTripper
	attempts int
	backoff  time.Duration
	timeouts Timeouts
}

func (t retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx, cancel := context.WithTimeout(req.Context(), t.timeouts.forMethod(path.Base(req.URL.Path)))
	req = req.WithContext(ctx)

	var resp *http.Response
	_, err := netutil.Retry(ctx, t.attempts, t.backoff, func(attempt int) (err error) {
		r := req
		if attempt > 1 {
			if r, err = rewind(req); err != nil {
				return err
			}
		}
		resp, err = t.base.RoundTrip(r)
		return err
	}, nil)
	if err != nil {
		cancel()
		return nil, err
	}
	resp.Body = cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

// cancelOnClose releases the call deadline once the body is consumed.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b cancelOnClose) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

// rewind clones req with a fresh body for another attempt.
func rewind(req *http.Request) (*http.Request, error) {
	clone := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return clone, nil
	}
	if req.GetBody == nil {
		return nil, errBodyNotReplayable
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	clone.Body = body
	return clone, nil
}
