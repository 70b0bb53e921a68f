// Package metrics collects Prometheus metrics and exposes them for scraping.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records request, authentication and purge metrics.
type Collector struct {
	requests      *prometheus.CounterVec
	latency       *prometheus.HistogramVec
	authFailures  *prometheus.CounterVec
	orphansPurged *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "studentily_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status_code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "studentily_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		authFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "studentily_auth_failures_total",
			Help: "Rejected bearer tokens by reason.",
		}, []string{"reason"}),
		orphansPurged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "studentily_orphans_purged_total",
			Help: "Resources removed because their owner no longer exists.",
		}, []string{"kind"}),
	}

	reg.MustRegister(
		c.requests,
		c.latency,
		c.authFailures,
		c.orphansPurged,
	)

	return c
}

// RecordAuthFailure counts a rejected token.
func (c *Collector) RecordAuthFailure(reason string) {
	c.authFailures.WithLabelValues(reason).Inc()
}

// RecordOrphansPurged counts resources removed by the orphan purger.
func (c *Collector) RecordOrphansPurged(kind string, count int64) {
	c.orphansPurged.WithLabelValues(kind).Add(float64(count))
}

// RecordRequest counts one served request.
func (c *Collector) RecordRequest(method, route string, status int, duration time.Duration) {
	c.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.latency.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Middleware records every request under its chi route pattern so that resource IDs
// do not end up as label values.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		c.RecordRequest(r.Method, route, status, time.Since(start))
	})
}

// Handler returns the HTTP handler for Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
