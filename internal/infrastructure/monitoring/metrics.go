package monitoring

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics of one server. Every instance
// owns its registry, so several kernels can run in one process.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Invocation metrics
	Invocations        *prometheus.CounterVec
	InvocationDuration *prometheus.HistogramVec

	// Snapshot metrics
	SnapshotsSaved    *prometheus.CounterVec
	SnapshotDuration  prometheus.Histogram
	SnapshotSizeBytes prometheus.Gauge

	// Kernel metrics
	VFSNodes     prometheus.Gauge
	VFSUsedBytes prometheus.Gauge

	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot MetricsSnapshot
	mu       sync.RWMutex
}

// MetricsSnapshot holds current metric values for JSON API
type MetricsSnapshot struct {
	TotalRequests    int64   `json:"total_requests"`
	TotalErrors      int64   `json:"total_errors"`
	TotalInvocations int64   `json:"total_invocations"`
	FailedCalls      int64   `json:"failed_invocations"`
	TotalDuration    float64 `json:"total_duration_seconds"`
	UptimeSeconds    float64 `json:"uptime_seconds"`
}

// NewMetrics creates a new metrics collector
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		// HTTP metrics
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kernel_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kernel_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kernel_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kernel_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),

		// Invocation metrics
		Invocations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kernel_invocations_total",
				Help: "Total number of module function invocations",
			},
			[]string{"module", "function", "status"},
		),
		InvocationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kernel_invocation_duration_seconds",
				Help:    "Invocation duration in seconds",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"module", "function"},
		),

		// Snapshot metrics
		SnapshotsSaved: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kernel_snapshots_total",
				Help: "Total number of snapshot flushes",
			},
			[]string{"status"},
		),
		SnapshotDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "kernel_snapshot_duration_seconds",
				Help:    "Snapshot encode and store duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
		),
		SnapshotSizeBytes: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "kernel_snapshot_size_bytes",
				Help: "Size of the last snapshot before compression",
			},
		),

		// Kernel metrics
		VFSNodes: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "kernel_vfs_nodes",
				Help: "Number of nodes in the virtual filesystem",
			},
		),
		VFSUsedBytes: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "kernel_vfs_used_bytes",
				Help: "Total file content size in the virtual filesystem",
			},
		),
	}

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "kernel_uptime_seconds",
			Help: "Server uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// Registry returns the registry the metrics are registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	// Update snapshot
	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.TotalDuration += duration.Seconds()
	if status[0] == '4' || status[0] == '5' {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// ObserveInvocation records one dispatched module function call.
func (m *Metrics) ObserveInvocation(module, function string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}
	m.Invocations.WithLabelValues(module, function, status).Inc()
	m.InvocationDuration.WithLabelValues(module, function).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.TotalInvocations++
	if !success {
		m.snapshot.FailedCalls++
	}
	m.mu.Unlock()
}

// RecordSnapshot records one snapshot flush
func (m *Metrics) RecordSnapshot(status string, size int, duration time.Duration) {
	m.SnapshotsSaved.WithLabelValues(status).Inc()
	m.SnapshotDuration.Observe(duration.Seconds())
	if size > 0 {
		m.SnapshotSizeBytes.Set(float64(size))
	}
}

// SetVFSUsage publishes the current size of the filesystem
func (m *Metrics) SetVFSUsage(nodes int, usedBytes int64) {
	m.VFSNodes.Set(float64(nodes))
	m.VFSUsedBytes.Set(float64(usedBytes))
}

// Snapshot returns the current counters for the JSON API
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.snapshot
	s.UptimeSeconds = time.Since(m.startTime).Seconds()
	return s
}
