package metrics

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/mediabot/internal/fetch"
)

func TestObserveFetch(t *testing.T) {
	m := New()
	m.ObserveFetch(context.Background(), fetch.Report{
		Outcome: fetch.Outcome{
			Status:   fetch.StatusDelivered,
			Strategy: fetch.StrategyFallback,
			File:     fetch.File{Size: 2048},
		},
		Duration: 3 * time.Second,
	})
	m.ObserveFetch(context.Background(), fetch.Report{
		Outcome:    fetch.Outcome{Status: fetch.StatusFailed, Cause: fetch.CauseRetrieval},
		CleanupErr: errors.New("busy"),
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.fetches.WithLabelValues("delivered", "", "fallback")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fetches.WithLabelValues("failed", "retrieval", "")))
	assert.Equal(t, 2048.0, testutil.ToFloat64(m.fetchBytes))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cleanupFails))
}

func TestDialogueEventsAndRateLimit(t *testing.T) {
	m := New()
	m.DialogueEvent("mode", true)
	m.DialogueEvent("mode", false)
	m.DialogueEvent("mode", false)
	m.RateLimited()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.dialogueEvents.WithLabelValues("mode", "applied")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.dialogueEvents.WithLabelValues("mode", "ignored")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rateLimited))
}

func TestHandlerExposesGauges(t *testing.T) {
	m := New()
	m.Gauge("sessions", "Active sessions.", func() float64 { return 3 })

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "mediabot_sessions 3")
	assert.Contains(t, string(body), "go_goroutines")
}
