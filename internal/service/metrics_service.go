package service

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/openlearn/openlearn-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP layer
// and the bulk assignment engine.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	bulkOperations  *prometheus.CounterVec
	bulkItems       *prometheus.CounterVec
	bulkDuration    *prometheus.HistogramVec
}

// NewMetricsService registers the core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	bulkOperations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bulk_operations_total",
		Help: "Bulk assignment operations by type and terminal status",
	}, []string{"operation", "status"})

	bulkItems := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bulk_operation_items_total",
		Help: "Per-item outcomes across bulk assignment operations",
	}, []string{"operation", "outcome"})

	bulkDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bulk_operation_duration_seconds",
		Help:    "Duration of bulk assignment operations",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"operation"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, bulkOperations, bulkItems, bulkDuration, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		bulkOperations:  bulkOperations,
		bulkItems:       bulkItems,
		bulkDuration:    bulkDuration,
	}
}

// Handler exposes the Prometheus scrape endpoint.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// ObserveHTTPRequest records one HTTP request.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	labels := prometheus.Labels{"method": method, "path": path, "status": strconv.Itoa(status)}
	s.requestDuration.With(labels).Observe(duration.Seconds())
	s.requestTotal.With(labels).Inc()
}

// ObserveBulkOperation records one finished bulk operation with its per-item
// outcome counts.
func (s *MetricsService) ObserveBulkOperation(op models.BulkOperationType, status models.BulkOperationStatus, outcome *ExecutionOutcome, duration time.Duration) {
	s.bulkOperations.With(prometheus.Labels{"operation": string(op), "status": string(status)}).Inc()
	s.bulkDuration.With(prometheus.Labels{"operation": string(op)}).Observe(duration.Seconds())
	if outcome == nil {
		return
	}
	s.bulkItems.With(prometheus.Labels{"operation": string(op), "outcome": "succeeded"}).Add(float64(len(outcome.Succeeded)))
	s.bulkItems.With(prometheus.Labels{"operation": string(op), "outcome": "skipped"}).Add(float64(len(outcome.Skipped)))
	s.bulkItems.With(prometheus.Labels{"operation": string(op), "outcome": "failed"}).Add(float64(len(outcome.Failed)))
}
