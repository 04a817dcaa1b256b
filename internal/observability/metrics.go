package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Metrics exposes the routing pipeline's counters via a dedicated Prometheus
// registry.
type Metrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	errorTotal      *prometheus.CounterVec

	classificationsTotal     *prometheus.CounterVec
	classificationConfidence prometheus.Histogram
	assignmentsTotal         *prometheus.CounterVec
	manualReviewTotal        *prometheus.CounterVec
	reviewQueueDepth         prometheus.Gauge
}

// NewMetrics initializes metrics storage.
func NewMetrics(service string) *Metrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   "helpdesk",
			Subsystem:   "http",
			Name:        "requests_total",
			Help:        "Total HTTP requests processed.",
			ConstLabels: prometheus.Labels{"service": service},
		},
		[]string{"method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   "helpdesk",
			Subsystem:   "http",
			Name:        "request_duration_seconds",
			Help:        "HTTP request latency.",
			ConstLabels: prometheus.Labels{"service": service},
			Buckets:     prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
	errorTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   "helpdesk",
			Subsystem:   "http",
			Name:        "errors_total",
			Help:        "Total requests that produced an error response.",
			ConstLabels: prometheus.Labels{"service": service},
		},
		[]string{"method", "path", "code"},
	)
	classificationsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "helpdesk",
			Subsystem: "pipeline",
			Name:      "classifications_total",
			Help:      "Ticket classifications by predicted category and routing outcome.",
		},
		[]string{"category", "outcome"},
	)
	classificationConfidence := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "helpdesk",
			Subsystem: "pipeline",
			Name:      "classification_confidence",
			Help:      "Confidence score distribution, 0-100.",
			Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
	)
	assignmentsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "helpdesk",
			Subsystem: "pipeline",
			Name:      "assignments_total",
			Help:      "Assignments created, by actor.",
		},
		[]string{"assigned_by"},
	)
	manualReviewTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "helpdesk",
			Subsystem: "pipeline",
			Name:      "manual_review_total",
			Help:      "Tickets flagged for manual review, by reason.",
		},
		[]string{"reason"},
	)
	reviewQueueDepth := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "helpdesk",
			Subsystem: "pipeline",
			Name:      "review_queue_depth",
			Help:      "Tickets currently waiting on a manual routing decision.",
		},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		errorTotal,
		classificationsTotal,
		classificationConfidence,
		assignmentsTotal,
		manualReviewTotal,
		reviewQueueDepth,
	)

	return &Metrics{
		registry:                 registry,
		requestTotal:             requestTotal,
		requestDuration:          requestDuration,
		errorTotal:               errorTotal,
		classificationsTotal:     classificationsTotal,
		classificationConfidence: classificationConfidence,
		assignmentsTotal:         assignmentsTotal,
		manualReviewTotal:        manualReviewTotal,
		reviewQueueDepth:         reviewQueueDepth,
	}
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.errorTotal.WithLabelValues(method, path, code).Inc()
}

// RecordClassification tracks one pipeline classification outcome.
func (m *Metrics) RecordClassification(category string, outcome string, confidence float64) {
	if m == nil {
		return
	}
	m.classificationsTotal.WithLabelValues(category, outcome).Inc()
	m.classificationConfidence.Observe(confidence)
}

// RecordAssignment tracks one created assignment.
func (m *Metrics) RecordAssignment(assignedBy string) {
	if m == nil {
		return
	}
	m.assignmentsTotal.WithLabelValues(assignedBy).Inc()
}

// SetReviewQueueDepth records the current manual review backlog.
func (m *Metrics) SetReviewQueueDepth(depth int) {
	if m == nil {
		return
	}
	m.reviewQueueDepth.Set(float64(depth))
}

// RecordManualReview tracks one manual-review flag.
func (m *Metrics) RecordManualReview(reason string) {
	if m == nil {
		return
	}
	m.manualReviewTotal.WithLabelValues(reason).Inc()
}

// RequestLogger returns a fiber middleware that logs each request and feeds
// the HTTP metrics.
func RequestLogger(logger *zap.Logger, metrics *Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		duration := time.Since(start)
		status := c.Response().StatusCode()

		metrics.RecordRequest(c.Path(), c.Method(), status, duration)
		logger.Info("request",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("duration", duration),
		)
		return err
	}
}
