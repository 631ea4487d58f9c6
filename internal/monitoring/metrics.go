package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Command metrics
	CommandsTotal   *prometheus.CounterVec
	CommandDuration *prometheus.HistogramVec

	// Best-effort diagnostics: host failures swallowed by bulk passes
	BestEffortFailures *prometheus.CounterVec

	// Surface metrics
	SurfacesVisible prometheus.Gauge
	MiniAppsLoaded  prometheus.Gauge

	// Agent sandbox metrics
	AgentExecutions   *prometheus.CounterVec
	AgentDuration     prometheus.Histogram
	AgentContextsLive prometheus.Gauge
	AgentGateWaitTime prometheus.Histogram

	// WebSocket metrics
	WSConnections prometheus.Gauge

	registry  *prometheus.Registry
	startTime time.Time
}

// New creates a metrics collector backed by its own registry
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry:  registry,
		startTime: time.Now(),

		CommandsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shell_commands_total",
				Help: "Total number of dispatched commands",
			},
			[]string{"component", "operation", "status"},
		),
		CommandDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shell_command_duration_seconds",
				Help:    "Command duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"component", "operation"},
		),
		BestEffortFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shell_best_effort_failures_total",
				Help: "Host errors swallowed by best-effort bulk operations",
			},
			[]string{"operation"},
		),
		SurfacesVisible: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "shell_surfaces_visible",
				Help: "Currently visible embedded surfaces",
			},
		),
		MiniAppsLoaded: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "shell_miniapps_loaded",
				Help: "Mini-apps with a live host surface",
			},
		),
		AgentExecutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shell_agent_executions_total",
				Help: "Agent invocations by outcome",
			},
			[]string{"status"},
		),
		AgentDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "shell_agent_duration_seconds",
				Help:    "Agent script execution duration in seconds",
				Buckets: []float64{.001, .01, .05, .1, .5, 1, 5, 10, 30},
			},
		),
		AgentContextsLive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "shell_agent_contexts_live",
				Help: "Live script contexts (bounded to 1 by the execution gate)",
			},
		),
		AgentGateWaitTime: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "shell_agent_gate_wait_seconds",
				Help:    "Time callers spend waiting on the execution gate",
				Buckets: []float64{.0001, .001, .01, .1, 1, 10},
			},
		),
		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "shell_ws_connections",
				Help: "Active WebSocket event stream connections",
			},
		),
	}
}

// Registry exposes the underlying registry for the /metrics handler
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordCommand tracks one dispatched command
func (m *Metrics) RecordCommand(component, operation string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.CommandsTotal.WithLabelValues(component, operation, status).Inc()
	m.CommandDuration.WithLabelValues(component, operation).Observe(duration.Seconds())
}

// RecordBestEffortFailures tracks swallowed host errors from a bulk pass
func (m *Metrics) RecordBestEffortFailures(operation string, count int) {
	if m == nil || count == 0 {
		return
	}
	m.BestEffortFailures.WithLabelValues(operation).Add(float64(count))
}

// Uptime reports time since metrics creation
func (m *Metrics) Uptime() time.Duration {
	return time.Since(m.startTime)
}
