package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/edigermatthew/wonder-alt/host/alttext"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "wonderalt"

// Metrics holds the Prometheus collectors exported by the service.
type Metrics struct {
	registry  *prometheus.Registry
	altText   *prometheus.CounterVec
	backfill  *prometheus.CounterVec
	requests  *prometheus.CounterVec
	reqTimer  *prometheus.HistogramVec
	scheduled prometheus.Gauge
}

// New creates collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		altText: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alt_text_fills_total",
			Help:      "Alt text fill attempts by outcome.",
		}, []string{"outcome"}),
		backfill: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backfill_items_total",
			Help:      "Remote media items processed by backfill, by outcome.",
		}, []string{"outcome"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		reqTimer: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_seconds",
			Help:      "Seconds to serve each HTTP request.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		scheduled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scheduled_actions",
			Help:      "Deferred hook actions waiting to run.",
		}),
	}

	m.registry.MustRegister(
		m.altText,
		m.backfill,
		m.requests,
		m.reqTimer,
		m.scheduled,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// RecordAltText counts a fill outcome.
func (m *Metrics) RecordAltText(outcome alttext.Outcome) {
	m.altText.WithLabelValues(string(outcome)).Inc()
}

// RecordBackfill counts a backfill item outcome.
func (m *Metrics) RecordBackfill(outcome string) {
	m.backfill.WithLabelValues(outcome).Inc()
}

// RecordRequest observes a served HTTP request.
func (m *Metrics) RecordRequest(route string, code int, elapsed time.Duration) {
	m.requests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	m.reqTimer.WithLabelValues(route).Observe(elapsed.Seconds())
}

// SetScheduled reports the number of pending deferred actions.
func (m *Metrics) SetScheduled(n int) {
	m.scheduled.Set(float64(n))
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		MaxRequestsInFlight: 5,
		Timeout:             10 * time.Second,
	})
}
