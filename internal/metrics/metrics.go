// Package metrics owns the Prometheus registry and the collectors the
// editor backend exports on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bl4editor"

// Metrics groups the application collectors. A nil *Metrics is valid and
// records nothing, which keeps tests and CLI paths free of registry setup.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	catalogRows    prometheus.Gauge
	catalogLoads   *prometheus.CounterVec
	favoritesKeys  prometheus.Gauge
	searchRequests prometheus.Counter
	proxyRequests  *prometheus.CounterVec
}

// New creates a registry with Go and process collectors plus the
// application metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		catalogRows: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_rows",
			Help:      "Rows in the loaded parts catalog.",
		}),
		catalogLoads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_loads_total",
			Help:      "Catalog load attempts by origin and result.",
		}, []string{"origin", "result"}),
		favoritesKeys: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "favorites_keys",
			Help:      "Keys in the favorites ledger.",
		}),
		searchRequests: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_searches_total",
			Help:      "Catalog searches served.",
		}),
		proxyRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "save_proxy_requests_total",
			Help:      "Save proxy requests by operation and outcome.",
		}, []string{"op", "outcome"}),
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(d.Seconds())
}

// CatalogLoaded records a load attempt. rows is ignored when err is set.
func (m *Metrics) CatalogLoaded(origin string, rows int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.catalogLoads.WithLabelValues(origin, "error").Inc()
		return
	}
	m.catalogLoads.WithLabelValues(origin, "ok").Inc()
	m.catalogRows.Set(float64(rows))
}

// FavoritesCount sets the favorites gauge.
func (m *Metrics) FavoritesCount(n int) {
	if m == nil {
		return
	}
	m.favoritesKeys.Set(float64(n))
}

// SearchServed counts one catalog search.
func (m *Metrics) SearchServed() {
	if m == nil {
		return
	}
	m.searchRequests.Inc()
}

// ProxyRequest counts one save proxy request.
func (m *Metrics) ProxyRequest(op, outcome string) {
	if m == nil {
		return
	}
	m.proxyRequests.WithLabelValues(op, outcome).Inc()
}
