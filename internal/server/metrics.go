package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics are the server's Prometheus collectors, kept on their own registry
// so several servers can coexist in one process (tests).
type Metrics struct {
	registry       *prometheus.Registry
	requestsTotal  *prometheus.CounterVec
	requestSeconds *prometheus.HistogramVec
	scrapesTotal   *prometheus.CounterVec
	cacheHits      prometheus.Counter
	cacheMisses    prometheus.Counter
}

// NewMetrics creates and registers the collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "constituencies_requests_total",
			Help: "Total API requests by route and status code",
		}, []string{"route", "code"}),
		requestSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "constituencies_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		}, []string{"route"}),
		scrapesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "constituencies_scrapes_total",
			Help: "Scrapes of the National Assembly page by result",
		}, []string{"result"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "constituencies_cache_hits_total",
			Help: "Snapshot loads served from a fresh cache entry",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "constituencies_cache_misses_total",
			Help: "Snapshot loads that needed a refresh",
		}),
	}
	m.registry.MustRegister(m.requestsTotal, m.requestSeconds, m.scrapesTotal, m.cacheHits, m.cacheMisses)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// The helpers below accept a nil receiver so metrics stay optional.

func (m *Metrics) cacheHit() {
	if m != nil {
		m.cacheHits.Inc()
	}
}

func (m *Metrics) cacheMiss() {
	if m != nil {
		m.cacheMisses.Inc()
	}
}

func (m *Metrics) scrape(result string) {
	if m != nil {
		m.scrapesTotal.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) observe(route, code string, seconds float64) {
	if m != nil {
		m.requestsTotal.WithLabelValues(route, code).Inc()
		m.requestSeconds.WithLabelValues(route).Observe(seconds)
	}
}
