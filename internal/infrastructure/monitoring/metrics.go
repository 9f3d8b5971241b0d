package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Document metrics
	DocumentsOpen  prometheus.Gauge
	DocumentsTotal prometheus.Counter

	// Lifecycle metrics
	Conversions *prometheus.CounterVec

	// Switch metrics
	SwitchesStarted   prometheus.Counter
	SwitchesCompleted prometheus.Counter
	SwitchesRejected  prometheus.Counter

	// Import metrics
	ImportedItems   prometheus.Counter
	ImportedSkipped prometheus.Counter

	// Store metrics
	StoreWrites prometheus.Counter
	StoreErrors prometheus.Counter

	// WebSocket metrics
	WSConnections prometheus.Gauge

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time
}

// NewMetrics creates a new metrics collector. Each collector owns its
// registry so independent instances never collide on registration.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	m := &Metrics{
		registry:  registry,
		startTime: time.Now(),

		// HTTP metrics
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "engine_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "engine_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		// Document metrics
		DocumentsOpen: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "engine_documents_open",
				Help: "Number of open documents",
			},
		),
		DocumentsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "engine_documents_created_total",
				Help: "Total number of documents opened by the engine",
			},
		),

		// Lifecycle metrics
		Conversions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "engine_item_conversions_total",
				Help: "Total number of item classification transitions",
			},
			[]string{"from", "to"},
		),

		// Switch metrics
		SwitchesStarted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "engine_workspace_switches_started_total",
				Help: "Total number of workspace switches started",
			},
		),
		SwitchesCompleted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "engine_workspace_switches_completed_total",
				Help: "Total number of workspace switches completed",
			},
		),
		SwitchesRejected: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "engine_workspace_switches_rejected_total",
				Help: "Total number of switch requests rejected while a switch was in progress",
			},
		),

		// Import metrics
		ImportedItems: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "engine_imported_items_total",
				Help: "Total number of bookmark items imported",
			},
		),
		ImportedSkipped: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "engine_imported_skipped_total",
				Help: "Total number of bookmark items skipped during import",
			},
		),

		// Store metrics
		StoreWrites: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "engine_store_writes_total",
				Help: "Total number of persistent store writes",
			},
		),
		StoreErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "engine_store_errors_total",
				Help: "Total number of failed persistent store writes",
			},
		),

		// WebSocket metrics
		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "engine_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),

		// System metrics
		Uptime: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "engine_uptime_seconds",
				Help: "Engine uptime in seconds",
			},
		),
	}

	return m
}

// Registry exposes the collector's registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// UpdateUptime refreshes the uptime gauge.
func (m *Metrics) UpdateUptime() {
	m.Uptime.Set(time.Since(m.startTime).Seconds())
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordConversion records an item classification transition
func (m *Metrics) RecordConversion(from, to string) {
	m.Conversions.WithLabelValues(from, to).Inc()
}

// RecordStoreWrite records the outcome of a persistent store write
func (m *Metrics) RecordStoreWrite(err error) {
	m.StoreWrites.Inc()
	if err != nil {
		m.StoreErrors.Inc()
	}
}

// RecordImport records the outcome of a bookmark import
func (m *Metrics) RecordImport(added, skipped int) {
	m.ImportedItems.Add(float64(added))
	m.ImportedSkipped.Add(float64(skipped))
}

// SetDocumentsOpen sets the number of open documents
func (m *Metrics) SetDocumentsOpen(count int) {
	m.DocumentsOpen.Set(float64(count))
}

// IncDocumentsTotal increments the opened documents counter
func (m *Metrics) IncDocumentsTotal() {
	m.DocumentsTotal.Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
}
