package telemetry

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides the engine's Prometheus metrics: operation throughput
// and latency, process-driver call health, and queue depth.
type Metrics struct {
	config MetricsConfig

	operationsEnqueued *prometheus.CounterVec
	operationsFinished *prometheus.CounterVec
	operationDuration  *prometheus.HistogramVec

	driverCalls    *prometheus.CounterVec
	driverDuration *prometheus.HistogramVec
	driverErrors   *prometheus.CounterVec

	errorsByClass *prometheus.CounterVec

	activeOperations prometheus.Gauge
	queueDepth       prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics creates a metrics collector. If cfg.Enabled is false, every
// recorder method is a no-op.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	buckets := cfg.DefaultHistogramBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		operationsEnqueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "operations_enqueued_total",
			Help: "Total number of operations enqueued",
		}, []string{"name"}),
		operationsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "operations_finished_total",
			Help: "Total number of operations that reached a terminal state",
		}, []string{"name", "status"}),
		operationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "operation_duration_seconds",
			Help: "Duration of operation execution in seconds", Buckets: buckets,
		}, []string{"name", "status"}),

		driverCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "driver_calls_total",
			Help: "Total number of process driver calls",
		}, []string{"driver", "operation"}),
		driverDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "driver_call_duration_seconds",
			Help: "Duration of process driver calls in seconds", Buckets: buckets,
		}, []string{"driver", "operation"}),
		driverErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "driver_errors_total",
			Help: "Total number of process driver errors",
		}, []string{"driver", "operation"}),

		errorsByClass: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "errors_by_class_total",
			Help: "Total number of errors by severity class",
		}, []string{"severity"}),

		activeOperations: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "active_operations",
			Help: "Current number of live (non-terminal) operations",
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "admission_queue_depth",
			Help: "Current number of operations waiting for admission",
		}),
	}

	registry.MustRegister(
		m.operationsEnqueued, m.operationsFinished, m.operationDuration,
		m.driverCalls, m.driverDuration, m.driverErrors,
		m.errorsByClass, m.activeOperations, m.queueDepth,
	)

	return m, nil
}

// RecordOperationEnqueued increments the enqueued counter and the active gauge.
func (m *Metrics) RecordOperationEnqueued(name string) {
	if m.operationsEnqueued == nil {
		return
	}
	m.operationsEnqueued.WithLabelValues(name).Inc()
	m.activeOperations.Inc()
}

// RecordOperationFinished records a terminal operation's status and duration.
func (m *Metrics) RecordOperationFinished(name, status string, duration time.Duration) {
	if m.operationsFinished == nil {
		return
	}
	m.operationsFinished.WithLabelValues(name, status).Inc()
	m.operationDuration.WithLabelValues(name, status).Observe(duration.Seconds())
	m.activeOperations.Dec()
}

// RecordDriverCall records a process-driver invocation and its duration.
func (m *Metrics) RecordDriverCall(driver, operation string, duration time.Duration) {
	if m.driverCalls == nil {
		return
	}
	m.driverCalls.WithLabelValues(driver, operation).Inc()
	m.driverDuration.WithLabelValues(driver, operation).Observe(duration.Seconds())
}

// RecordDriverError records a process-driver failure.
func (m *Metrics) RecordDriverError(driver, operation string) {
	if m.driverErrors == nil {
		return
	}
	m.driverErrors.WithLabelValues(driver, operation).Inc()
}

// RecordError records an error by severity class.
func (m *Metrics) RecordError(severity string) {
	if m.errorsByClass == nil {
		return
	}
	m.errorsByClass.WithLabelValues(severity).Inc()
}

// SetQueueDepth sets the current admission-queue depth gauge.
func (m *Metrics) SetQueueDepth(depth float64) {
	if m.queueDepth == nil {
		return
	}
	m.queueDepth.Set(depth)
}

// Timer is a small stopwatch for recording call durations.
type Timer struct{ start time.Time }

// NewTimer starts a timer.
func NewTimer() *Timer { return &Timer{start: time.Now()} }

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration { return time.Since(t.start) }

// Handler returns the HTTP handler serving this collector's metrics.
func (m *Metrics) Handler() http.Handler {
	if m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// StartMetricsServer starts an HTTP server exposing the metrics endpoint, if
// metrics collection is enabled.
func (m *Metrics) StartMetricsServer() error {
	if !m.config.Enabled {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(m.config.Path, m.Handler())

	server := &http.Server{
		Addr:              m.config.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("metrics server error: %v\n", err)
		}
	}()

	return nil
}
