package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPRequestSize     *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Engine metrics
	TerritoriesCreated prometheus.Counter
	AssignmentsCreated *prometheus.CounterVec
	AutoAssignRuns     prometheus.Counter
	AutoAssignMatched  prometheus.Counter
	CountersRecomputed prometheus.Counter

	// Cache metrics
	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec
}

// New creates a new Metrics instance with all metrics registered
func New() *Metrics {
	m := &Metrics{
		// HTTP metrics
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 5000, 10000, 50000, 100000, 500000, 1000000},
			},
			[]string{"method", "path"},
		),
		HTTPResponseSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 5000, 10000, 50000, 100000, 500000, 1000000},
			},
			[]string{"method", "path"},
		),

		// Engine metrics
		TerritoriesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "territories_created_total",
			Help: "Total number of territories created",
		}),
		AssignmentsCreated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assignments_created_total",
				Help: "Total number of assignments written",
			},
			[]string{"entity_type", "mode"}, // mode: auto, manual
		),
		AutoAssignRuns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "auto_assign_runs_total",
			Help: "Total number of batch auto-assignment runs",
		}),
		AutoAssignMatched: promauto.NewCounter(prometheus.CounterOpts{
			Name: "auto_assign_matched_total",
			Help: "Total number of entities matched during batch auto-assignment",
		}),
		CountersRecomputed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "counters_recomputed_total",
			Help: "Total number of territory counter recomputations",
		}),

		// Cache metrics
		CacheHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"cache_type"},
		),
		CacheMisses: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"cache_type"},
		),
	}

	return m
}

// Middleware creates an Echo middleware for Prometheus metrics
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			path := c.Path() // Use route pattern, not actual path (e.g., /api/v1/territories/:id)

			if req.ContentLength > 0 {
				m.HTTPRequestSize.WithLabelValues(req.Method, path).Observe(float64(req.ContentLength))
			}

			err := next(c)

			status := c.Response().Status
			duration := time.Since(start).Seconds()

			m.HTTPRequestsTotal.WithLabelValues(req.Method, path, strconv.Itoa(status)).Inc()
			m.HTTPRequestDuration.WithLabelValues(req.Method, path, strconv.Itoa(status)).Observe(duration)
			m.HTTPResponseSize.WithLabelValues(req.Method, path).Observe(float64(c.Response().Size))

			return err
		}
	}
}

// RecordTerritoryCreated increments the territories created counter
func (m *Metrics) RecordTerritoryCreated() {
	m.TerritoriesCreated.Inc()
}

// RecordAssignment increments the assignments written counter
func (m *Metrics) RecordAssignment(entityType string, auto bool) {
	mode := "manual"
	if auto {
		mode = "auto"
	}
	m.AssignmentsCreated.WithLabelValues(entityType, mode).Inc()
}

// RecordAutoAssignRun records one batch run and how many entities it matched
func (m *Metrics) RecordAutoAssignRun(matched int) {
	m.AutoAssignRuns.Inc()
	m.AutoAssignMatched.Add(float64(matched))
}

// RecordCountersRecomputed increments the recompute counter
func (m *Metrics) RecordCountersRecomputed() {
	m.CountersRecomputed.Inc()
}

// RecordCacheHit increments cache hits counter
func (m *Metrics) RecordCacheHit(cacheType string) {
	m.CacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss increments cache misses counter
func (m *Metrics) RecordCacheMiss(cacheType string) {
	m.CacheMisses.WithLabelValues(cacheType).Inc()
}
