// Package metrics holds the prometheus instruments for the document
// pipeline and the HTTP layer.
package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Config labels every series with the service and environment.
type Config struct {
	ServiceName string
	Environment string
}

const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Metrics exposes application-level instruments. A nil *Metrics is a
// no-op so services can run without a registry in tests.
type Metrics struct {
	documentOps      *prometheus.CounterVec
	documentDuration *prometheus.HistogramVec
	renderedPages    *prometheus.HistogramVec
	numberCollisions *prometheus.CounterVec
	collaboratorErrs *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

// NewRegistry returns the registry /metrics serves, with the Go and
// process collectors attached.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func New(cfg Config, reg *prometheus.Registry) (*Metrics, error) {
	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "bytebills"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{"service": serviceName, "env": environment}

	m := &Metrics{
		documentOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "bytebills_document_operations_total",
			Help:        "Document lifecycle operations by kind and result.",
			ConstLabels: constLabels,
		}, []string{"operation", "kind", "result"}),
		documentDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "bytebills_document_operation_duration_seconds",
			Help:        "Document lifecycle operation latency.",
			Buckets:     []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			ConstLabels: constLabels,
		}, []string{"operation"}),
		renderedPages: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "bytebills_rendered_pages",
			Help:        "Pages per exported document.",
			Buckets:     []float64{1, 2, 3, 5, 10, 20, 50},
			ConstLabels: constLabels,
		}, []string{"kind"}),
		numberCollisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "bytebills_document_number_collisions_total",
			Help:        "Inserts retried because the document number was taken.",
			ConstLabels: constLabels,
		}, []string{"kind"}),
		collaboratorErrs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "bytebills_collaborator_failures_total",
			Help:        "Failed calls to the store, storage and auth backends.",
			ConstLabels: constLabels,
		}, []string{"collaborator"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "bytebills_http_requests_total",
			Help:        "HTTP requests by route and status.",
			ConstLabels: constLabels,
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "bytebills_http_request_duration_seconds",
			Help:        "HTTP request latency by route.",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: constLabels,
		}, []string{"method", "route"}),
	}

	for _, c := range []prometheus.Collector{
		m.documentOps,
		m.documentDuration,
		m.renderedPages,
		m.numberCollisions,
		m.collaboratorErrs,
		m.httpRequests,
		m.httpDuration,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveDocumentOp records one lifecycle operation.
func (m *Metrics) ObserveDocumentOp(operation, kind string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	m.documentOps.WithLabelValues(operation, kind, result).Inc()
	m.documentDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// ObservePages records the page count of an exported document.
func (m *Metrics) ObservePages(kind string, pages int) {
	if m == nil {
		return
	}
	m.renderedPages.WithLabelValues(kind).Observe(float64(pages))
}

// RecordNumberCollision counts a document-number retry.
func (m *Metrics) RecordNumberCollision(kind string) {
	if m == nil {
		return
	}
	m.numberCollisions.WithLabelValues(kind).Inc()
}

// RecordCollaboratorFailure counts a failed backend call.
func (m *Metrics) RecordCollaboratorFailure(collaborator string) {
	if m == nil {
		return
	}
	m.collaboratorErrs.WithLabelValues(collaborator).Inc()
}

// GinMiddleware records request counts and latency per route template.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
