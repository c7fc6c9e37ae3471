package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector provides application metrics collection
type Collector struct {
	// API Metrics
	APIRequestsTotal   *prometheus.CounterVec
	APIRequestDuration *prometheus.HistogramVec
	APIErrorsTotal     *prometheus.CounterVec

	// Integration Metrics
	IntegrationDuration  prometheus.Histogram
	IntegrationRunsTotal *prometheus.CounterVec
	SourceRowsLoaded     *prometheus.CounterVec
	SourceRowsSkipped    *prometheus.CounterVec
	KeyRowsDropped       *prometheus.CounterVec
	MasterTableRows      prometheus.Gauge

	// Model Backend Metrics
	BackendCallsTotal    *prometheus.CounterVec
	BackendCallDuration  *prometheus.HistogramVec
	BackendRetriesTotal  prometheus.Counter
	BackendFailuresTotal *prometheus.CounterVec

	// Query Execution Metrics
	QueryExecutionsTotal      prometheus.Counter
	QueryExecutionErrors      prometheus.Counter
	QueryExecutionDuration    prometheus.Histogram
	QueryResultRows           prometheus.Histogram
	QueryGuardRejectionsTotal prometheus.Counter
}

// NewCollector creates a new metrics collector
func NewCollector(namespace string) *Collector {
	return &Collector{
		APIRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_requests_total",
				Help:      "Total number of API requests by endpoint, method, and status",
			},
			[]string{"endpoint", "method", "status"},
		),

		APIRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "api_request_duration_seconds",
				Help:      "API request duration in seconds",
				Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 2.0, 5.0, 15.0, 60.0, 180.0},
			},
			[]string{"endpoint"},
		),

		APIErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_errors_total",
				Help:      "Total number of API errors by type",
			},
			[]string{"error_type", "endpoint"},
		),

		IntegrationDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "integration_duration_seconds",
				Help:      "Duration of full data integration runs in seconds",
				Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
			},
		),

		IntegrationRunsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "integration_runs_total",
				Help:      "Total number of integration runs by outcome",
			},
			[]string{"outcome"},
		),

		SourceRowsLoaded: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "source_rows_loaded_total",
				Help:      "Total number of rows loaded per source",
			},
			[]string{"source"},
		),

		SourceRowsSkipped: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "source_rows_skipped_total",
				Help:      "Total number of malformed rows skipped per source",
			},
			[]string{"source"},
		),

		KeyRowsDropped: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "key_rows_dropped_total",
				Help:      "Total number of rows dropped for unusable join keys per source",
			},
			[]string{"source"},
		),

		MasterTableRows: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "master_table_rows",
				Help:      "Row count of the current master table snapshot",
			},
		),

		BackendCallsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "backend_calls_total",
				Help:      "Total number of model backend calls by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),

		BackendCallDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "backend_call_duration_seconds",
				Help:      "Model backend round-trip duration in seconds by operation",
				Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
			},
			[]string{"operation"},
		),

		BackendRetriesTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "backend_retries_total",
				Help:      "Total number of model backend retry attempts",
			},
		),

		BackendFailuresTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "backend_failures_total",
				Help:      "Total number of terminal model backend failures by reason",
			},
			[]string{"reason"},
		),

		QueryExecutionsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "query_executions_total",
				Help:      "Total number of generated queries executed",
			},
		),

		QueryExecutionErrors: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "query_execution_errors_total",
				Help:      "Total number of generated queries that failed at runtime",
			},
		),

		QueryExecutionDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "query_execution_duration_seconds",
				Help:      "Duration of generated query execution in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
			},
		),

		QueryResultRows: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "query_result_rows",
				Help:      "Number of rows in generated query results",
				Buckets:   []float64{0, 1, 5, 10, 50, 100, 500},
			},
		),

		QueryGuardRejectionsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "query_guard_rejections_total",
				Help:      "Total number of generated queries rejected by the statement guard",
			},
		),
	}
}

// Timer provides timing functionality for operations
type Timer struct {
	start    time.Time
	observer prometheus.Observer
}

// NewTimer creates a new timer
func (c *Collector) NewTimer(histogram prometheus.Observer) *Timer {
	return &Timer{
		start:    time.Now(),
		observer: histogram,
	}
}

// ObserveDuration records the elapsed time since timer creation
func (t *Timer) ObserveDuration() time.Duration {
	duration := time.Since(t.start)
	if t.observer != nil {
		t.observer.Observe(duration.Seconds())
	}
	return duration
}

// RecordAPIRequest increments API request counter
func (c *Collector) RecordAPIRequest(endpoint, method, status string) {
	c.APIRequestsTotal.WithLabelValues(endpoint, method, status).Inc()
}

// RecordAPIError increments API error counter
func (c *Collector) RecordAPIError(errorType, endpoint string) {
	c.APIErrorsTotal.WithLabelValues(errorType, endpoint).Inc()
}

// RecordSourceLoad records per-source loader statistics
func (c *Collector) RecordSourceLoad(source string, loaded, skipped int) {
	c.SourceRowsLoaded.WithLabelValues(source).Add(float64(loaded))
	c.SourceRowsSkipped.WithLabelValues(source).Add(float64(skipped))
}

// RecordKeyRowsDropped records rows dropped for unusable join keys
func (c *Collector) RecordKeyRowsDropped(source string, dropped int) {
	c.KeyRowsDropped.WithLabelValues(source).Add(float64(dropped))
}

// RecordIntegrationRun records the outcome of one integration run
func (c *Collector) RecordIntegrationRun(outcome string) {
	c.IntegrationRunsTotal.WithLabelValues(outcome).Inc()
}

// RecordBackendCall records one model backend call
func (c *Collector) RecordBackendCall(operation, outcome string, duration time.Duration) {
	c.BackendCallsTotal.WithLabelValues(operation, outcome).Inc()
	c.BackendCallDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordBackendFailure records a terminal backend failure
func (c *Collector) RecordBackendFailure(reason string) {
	c.BackendFailuresTotal.WithLabelValues(reason).Inc()
}
