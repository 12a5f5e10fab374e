// Package metrics exposes bot counters in the Prometheus format.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/m3rciful/mediabot/internal/fetch"
)

const namespace = "mediabot"

// Metrics owns a private registry so several instances can coexist in tests.
type Metrics struct {
	reg *prometheus.Registry

	fetches        *prometheus.CounterVec
	fetchDuration  *prometheus.HistogramVec
	fetchBytes     prometheus.Counter
	cleanupFails   prometheus.Counter
	dialogueEvents *prometheus.CounterVec
	rateLimited    prometheus.Counter
}

// New registers all collectors.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_total",
			Help:      "Finished fetches by outcome, failure cause and strategy.",
		}, []string{"outcome", "cause", "strategy"}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Wall time of a fetch including delivery.",
			Buckets:   []float64{1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"outcome"}),
		fetchBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_delivered_bytes_total",
			Help:      "Bytes of media delivered to users.",
		}),
		cleanupFails: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workspace_cleanup_failures_total",
			Help:      "Fetches whose workspace could not be fully removed.",
		}),
		dialogueEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dialogue_events_total",
			Help:      "Inbound dialogue events by kind and whether they changed the session.",
		}, []string{"event", "result"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Updates dropped by the per-user rate limiter.",
		}),
	}
	m.reg.MustRegister(
		m.fetches,
		m.fetchDuration,
		m.fetchBytes,
		m.cleanupFails,
		m.dialogueEvents,
		m.rateLimited,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Gauge registers a gauge whose value is read from fn at scrape time.
func (m *Metrics) Gauge(name, help string, fn func() float64) {
	m.reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, fn))
}

// ObserveFetch implements fetch.Observer.
func (m *Metrics) ObserveFetch(_ context.Context, r fetch.Report) {
	out := r.Outcome
	m.fetches.WithLabelValues(string(out.Status), string(out.Cause), out.Strategy).Inc()
	m.fetchDuration.WithLabelValues(string(out.Status)).Observe(r.Duration.Seconds())
	if out.Status == fetch.StatusDelivered && out.File.Size > 0 {
		m.fetchBytes.Add(float64(out.File.Size))
	}
	if r.CleanupErr != nil {
		m.cleanupFails.Inc()
	}
}

// DialogueEvent counts one inbound event. applied is false for stale or malformed events.
func (m *Metrics) DialogueEvent(kind string, applied bool) {
	result := "applied"
	if !applied {
		result = "ignored"
	}
	m.dialogueEvents.WithLabelValues(kind, result).Inc()
}

// RateLimited counts an update dropped by the rate limiter.
func (m *Metrics) RateLimited() {
	m.rateLimited.Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}
