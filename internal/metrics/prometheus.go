// Package metrics exposes Prometheus metrics for the hikelog API.
package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns every collector of the service. A nil *Manager is valid and
// records nothing, so services can run without metrics wired.
type Manager struct {
	namespace        string
	histogramBuckets []float64
	enabled          bool
	registry         *prometheus.Registry

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	hikeMutations      *prometheus.CounterVec
	trackPoints        prometheus.Counter
	validationFailures *prometheus.CounterVec
	statsCache         *prometheus.CounterVec
	statsComputeTime   prometheus.Histogram
	streamClients      prometheus.Gauge
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "hikelog",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   m.histogramBuckets,
	}, []string{"method", "route"})

	m.hikeMutations = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "hikes",
		Name:      "mutations_total",
		Help:      "Hike writes by action (create, update, delete, pin, share)",
	}, []string{"action"})

	m.trackPoints = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "hikes",
		Name:      "track_points_total",
		Help:      "GPS points appended to live tracks",
	})

	m.validationFailures = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "validation",
		Name:      "failures_total",
		Help:      "Rejected payloads by record kind",
	}, []string{"kind"})

	m.statsCache = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "stats",
		Name:      "cache_lookups_total",
		Help:      "Stats cache lookups by result (hit, miss)",
	}, []string{"result"})

	m.statsComputeTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "stats",
		Name:      "compute_duration_seconds",
		Help:      "Time spent recomputing a user's statistics",
		Buckets:   m.histogramBuckets,
	})

	m.streamClients = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "stream",
		Name:      "clients",
		Help:      "Connected live track websocket clients",
	})
}

func (m *Manager) on() bool {
	return m != nil && m.enabled
}

func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Manager) RecordHikeMutation(action string) {
	if m.on() {
		m.hikeMutations.WithLabelValues(action).Inc()
	}
}

func (m *Manager) RecordTrackPoint() {
	if m.on() {
		m.trackPoints.Inc()
	}
}

func (m *Manager) RecordValidationFailure(kind string) {
	if m.on() {
		m.validationFailures.WithLabelValues(kind).Inc()
	}
}

func (m *Manager) RecordStatsCache(hit bool) {
	if !m.on() {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.statsCache.WithLabelValues(result).Inc()
}

func (m *Manager) ObserveStatsCompute(d time.Duration) {
	if m.on() {
		m.statsComputeTime.Observe(d.Seconds())
	}
}

func (m *Manager) StreamClientConnected() {
	if m.on() {
		m.streamClients.Inc()
	}
}

func (m *Manager) StreamClientDisconnected() {
	if m.on() {
		m.streamClients.Dec()
	}
}

// Middleware counts and times every request by its route pattern, so
// /hikes/:id stays one series no matter how many ids are requested.
func (m *Manager) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !m.on() {
			return c.Next()
		}
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}
		route := c.Route().Path
		m.httpRequests.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		m.httpRequestDuration.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Manager) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
