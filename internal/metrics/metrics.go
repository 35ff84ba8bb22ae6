// Package metrics provides the Prometheus metrics of the scoring service.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ssp"

// Score results.
const (
	ResultOK          = "ok"
	ResultUnavailable = "unavailable"
	ResultInvalid     = "invalid"
)

// Metrics holds all service metrics. A nil *Metrics records nothing.
type Metrics struct {
	ScoresTotal          *prometheus.CounterVec
	SignalsTaggedTotal   *prometheus.CounterVec
	DigestSentTotal      *prometheus.CounterVec
	RecomputeDuration    prometheus.Histogram
	LastRecomputeSeconds prometheus.Gauge
	HTTPRequestsTotal    *prometheus.CounterVec
}

// New creates and registers all metrics on reg, or the default registerer when nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		ScoresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "scoring",
				Name:      "scores_total",
				Help:      "Opportunity scores computed, by result",
			},
			[]string{"result"},
		),
		SignalsTaggedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "scoring",
				Name:      "signals_tagged_total",
				Help:      "Tags assigned to signals at ingestion",
			},
			[]string{"tag"},
		),
		DigestSentTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "digest",
				Name:      "sent_total",
				Help:      "Digest delivery attempts, by status",
			},
			[]string{"status"},
		),
		RecomputeDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "scoring",
				Name:      "recompute_duration_seconds",
				Help:      "Duration of a full recompute in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
			},
		),
		LastRecomputeSeconds: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "scoring",
				Name:      "last_recompute_timestamp_seconds",
				Help:      "Unix time of the last finished recompute",
			},
		),
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "HTTP requests served, by route and status code",
			},
			[]string{"route", "code"},
		),
	}
}

func (m *Metrics) ObserveScore(result string) {
	if m == nil {
		return
	}
	m.ScoresTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveTags(counts map[string]int) {
	if m == nil {
		return
	}
	for tag, n := range counts {
		m.SignalsTaggedTotal.WithLabelValues(tag).Add(float64(n))
	}
}

func (m *Metrics) ObserveRecompute(d time.Duration, finished time.Time) {
	if m == nil {
		return
	}
	m.RecomputeDuration.Observe(d.Seconds())
	m.LastRecomputeSeconds.Set(float64(finished.Unix()))
}

func (m *Metrics) ObserveDigest(status string) {
	if m == nil {
		return
	}
	m.DigestSentTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveRequest(route string, code int) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(code)).Inc()
}
