// Package telemetry provides Prometheus metrics and OpenTelemetry spans for
// render cycles, edit scripts, signals and store writes.
//
// A nil *Metrics is valid and records nothing, so components can hold one
// unconditionally.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures Metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "plain").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the render duration histogram buckets.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures Metrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "plain",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the collectors.
type Metrics struct {
	renders        *prometheus.CounterVec
	renderDuration *prometheus.HistogramVec
	renderErrors   *prometheus.CounterVec
	edits          *prometheus.CounterVec
	skippedEdits   *prometheus.CounterVec
	emits          *prometheus.CounterVec
	deliveries     *prometheus.CounterVec
	storeWrites    *prometheus.CounterVec
	widgets        prometheus.Gauge
	clients        prometheus.Gauge
}

// NewMetrics creates and registers the collectors.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	counter := func(name, help string, labels ...string) *prometheus.CounterVec {
		return factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		}, labels)
	}
	gauge := func(name, help string) prometheus.Gauge {
		return factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		})
	}

	return &Metrics{
		renders:      counter("renders_total", "Widget renders by widget and mode (full or incremental)", "widget", "mode"),
		renderErrors: counter("render_errors_total", "Widget renders that failed", "widget"),
		renderDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "render_duration_seconds",
			Help:        "Widget render duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"widget"}),
		edits:        counter("edits_total", "Edit operations emitted by the reconciler", "op"),
		skippedEdits: counter("edits_skipped_total", "Edit operations skipped because their path did not resolve", "op"),
		emits:        counter("signal_emits_total", "Signal emissions", "signal"),
		deliveries:   counter("signal_deliveries_total", "Signal callbacks invoked", "signal"),
		storeWrites:  counter("store_writes_total", "Scoped store writes", "namespace"),
		widgets:      gauge("widgets_attached", "Widgets currently attached"),
		clients:      gauge("clients_connected", "Websocket clients currently connected"),
	}
}

func mode(full bool) string {
	if full {
		return "full"
	}
	return "incremental"
}

// RecordRender records one render.
func (m *Metrics) RecordRender(widget string, full bool, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.renders.WithLabelValues(widget, mode(full)).Inc()
	m.renderDuration.WithLabelValues(widget).Observe(d.Seconds())
	if err != nil {
		m.renderErrors.WithLabelValues(widget).Inc()
	}
}

// RecordEdit counts an emitted edit op.
func (m *Metrics) RecordEdit(kind string) {
	if m == nil {
		return
	}
	m.edits.WithLabelValues(kind).Inc()
}

// RecordSkip counts an edit op skipped during apply.
func (m *Metrics) RecordSkip(kind string) {
	if m == nil {
		return
	}
	m.skippedEdits.WithLabelValues(kind).Inc()
}

// RecordEmit counts a signal emission and its callbacks.
func (m *Metrics) RecordEmit(signal string, listeners int) {
	if m == nil {
		return
	}
	m.emits.WithLabelValues(signal).Inc()
	m.deliveries.WithLabelValues(signal).Add(float64(listeners))
}

// RecordStoreWrite counts a store write.
func (m *Metrics) RecordStoreWrite(namespace string) {
	if m == nil {
		return
	}
	m.storeWrites.WithLabelValues(namespace).Inc()
}

// WidgetAttached increments the attached widget gauge.
func (m *Metrics) WidgetAttached() {
	if m == nil {
		return
	}
	m.widgets.Inc()
}

// WidgetDetached decrements the attached widget gauge.
func (m *Metrics) WidgetDetached() {
	if m == nil {
		return
	}
	m.widgets.Dec()
}

// ClientConnected increments the connected client gauge.
func (m *Metrics) ClientConnected() {
	if m == nil {
		return
	}
	m.clients.Inc()
}

// ClientDisconnected decrements the connected client gauge.
func (m *Metrics) ClientDisconnected() {
	if m == nil {
		return
	}
	m.clients.Dec()
}
