// Package metrics exposes Prometheus instrumentation for scoring and HTTP.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bricon/seo-engine/analyzer"
)

const namespace = "seo_engine"

// Metrics holds the service's collectors on a private registry
type Metrics struct {
	registry *prometheus.Registry

	ScoresComputed  *prometheus.CounterVec
	ScoreValue      *prometheus.HistogramVec
	ScoreRefreshes  *prometheus.CounterVec
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
	RateLimitDenied prometheus.Counter
}

// New registers all collectors on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		ScoresComputed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scores_computed_total",
			Help:      "SEO scores computed, by entity kind and grade.",
		}, []string{"kind", "grade"}),
		ScoreValue: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "score_value",
			Help:      "Distribution of computed SEO scores.",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		}, []string{"kind"}),
		ScoreRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "score_refreshes_total",
			Help:      "Persisted score refreshes, by entity kind and reason.",
		}, []string{"kind", "reason"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests, by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		RateLimitDenied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_denied_total",
			Help:      "Requests rejected by the rate limiter.",
		}),
	}

	reg.MustRegister(
		m.ScoresComputed,
		m.ScoreValue,
		m.ScoreRefreshes,
		m.HTTPRequests,
		m.HTTPDuration,
		m.RateLimitDenied,
	)
	return m
}

// ObserveScore records one computed score
func (m *Metrics) ObserveScore(kind string, result analyzer.ScoreResult) {
	m.ScoresComputed.WithLabelValues(kind, string(result.Grade)).Inc()
	m.ScoreValue.WithLabelValues(kind).Observe(float64(result.Score))
}

// ObserveRefresh records a persisted score refresh
func (m *Metrics) ObserveRefresh(kind, reason string) {
	m.ScoreRefreshes.WithLabelValues(kind, reason).Inc()
}

// ObserveRequest records one HTTP request
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
