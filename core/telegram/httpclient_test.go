package telegram

import (
	"io"
	"net/http"
	"net/http/httptest"
	"path"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/mediabot/core/config"
)

// slowAPI answers every method after holding its headers for hold.
func slowAPI(t *testing.T, hold time.Duration) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(hold):
		case <-r.Context().Done():
			return
		}
		_, _ = io.WriteString(w, path.Base(r.URL.Path))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPClientDeadlineByMethod(t *testing.T) {
	srv := slowAPI(t, 300*time.Millisecond)
	client := BuildHTTPClient(Timeouts{
		Request:  100 * time.Millisecond,
		Upload:   2 * time.Second,
		LongPoll: time.Second,
	})

	tests := []struct {
		method string
		ok     bool
	}{
		{method: "getUpdates", ok: true},
		{method: "sendVideo", ok: true},
		{method: "sendMessage", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			resp, err := client.Get(srv.URL + "/bot1:x/" + tt.method)
			if !tt.ok {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer resp.Body.Close()
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Equal(t, tt.method, string(body))
		})
	}
}

func TestTimeoutsForMethod(t *testing.T) {
	tm := Timeouts{LongPoll: 10 * time.Second}.withDefaults()
	assert.Equal(t, 40*time.Second, tm.forMethod("getUpdates"))
	assert.Equal(t, 10*time.Minute, tm.forMethod("sendAudio"))
	assert.Equal(t, 30*time.Second, tm.forMethod("sendMessage"))
}

func TestClientTimeoutsFromConfig(t *testing.T) {
	cfg := &coreconfig.Config{}
	cfg.Telegram.RequestTimeoutSeconds = 20
	cfg.Telegram.UploadTimeoutSeconds = 600
	cfg.Telegram.LongPollTimeoutSeconds = 25

	tm := clientTimeouts(cfg)
	assert.Equal(t, 20*time.Second, tm.Request)
	assert.Equal(t, 10*time.Minute, tm.Upload)
	assert.Equal(t, 25*time.Second, tm.LongPoll)
	assert.Greater(t, tm.forMethod("getUpdates"), tm.LongPoll)
}
