package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	contributions   *prometheus.CounterVec
	killSwitch      prometheus.Gauge
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "splitsy",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern and status code.",
		}, []string{"pattern", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "splitsy",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"pattern"}),
		contributions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "splitsy",
			Name:      "contributions_processed_total",
			Help:      "Contributions charged by the worker, by outcome.",
		}, []string{"status"}),
		killSwitch: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "splitsy",
			Name:      "kill_switch_enabled",
			Help:      "1 while the kill switch is on.",
		}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.requestDuration,
		m.contributions,
		m.killSwitch,
	)

	return m
}

func (m *Metrics) ObserveRequest(pattern string, status int, elapsed time.Duration) {
	if pattern == "" {
		pattern = "unmatched"
	}

	m.requests.WithLabelValues(pattern, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(pattern).Observe(elapsed.Seconds())
}

func (m *Metrics) ContributionProcessed(status string) {
	m.contributions.WithLabelValues(status).Inc()
}

func (m *Metrics) SetKillSwitch(enabled bool) {
	if enabled {
		m.killSwitch.Set(1)
		return
	}
	m.killSwitch.Set(0)
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
