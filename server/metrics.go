package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gorg"

const (
	statusOK       = "ok"
	statusRedirect = "redirect"
	statusError    = "error"
)

const (
	cacheHit         = "hit"
	cacheMiss        = "miss"
	cacheStore       = "store"
	cacheUncacheable = "uncacheable"
)

type Metrics struct {
	registry *prometheus.Registry

	requests *prometheus.CounterVec
	renders  *prometheus.CounterVec
	duration *prometheus.HistogramVec
	cache    *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests by kind and response code",
			},
			[]string{"kind", "code"},
		),
		renders: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "renders_total",
				Help:      "Total number of documents rendered",
			},
			[]string{"status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "render_duration_seconds",
				Help:      "Duration of document rendering in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"status"},
		),
		cache: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_operations_total",
				Help:      "Total number of cache lookups and stores by result",
			},
			[]string{"result"},
		),
	}
	m.registry.MustRegister(
		m.requests,
		m.renders,
		m.duration,
		m.cache,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) recordRequest(kind string, code int) {
	m.requests.WithLabelValues(kind, strconv.Itoa(code)).Inc()
}

func (m *Metrics) recordRender(status string, elapsed time.Duration) {
	m.renders.WithLabelValues(status).Inc()
	m.duration.WithLabelValues(status).Observe(elapsed.Seconds())
}

func (m *Metrics) recordCache(result string) {
	m.cache.WithLabelValues(result).Inc()
}
