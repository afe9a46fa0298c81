package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Tool execution outcomes. An envelope error is a tool that ran and reported
// a failure in its result; an error is a call that never produced a result.
const (
	OutcomeSuccess       = "success"
	OutcomeEnvelopeError = "envelope_error"
	OutcomeError         = "error"
)

// Metrics holds all the Prometheus metrics for the application
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	HTTPRequestSize      *prometheus.HistogramVec
	HTTPResponseSize     *prometheus.HistogramVec

	// MCP-specific metrics
	MCPSessionsActive  prometheus.Gauge
	MCPSessionsTotal   *prometheus.CounterVec
	MCPSessionDuration *prometheus.HistogramVec
	MCPToolExecutions  *prometheus.CounterVec
	MCPToolDuration    *prometheus.HistogramVec
	MCPMessagesTotal   *prometheus.CounterVec

	// Directory dataset metrics
	UpstreamRequestsTotal   *prometheus.CounterVec
	UpstreamRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates all metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// HTTP metrics
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		HTTPRequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
		),
		HTTPRequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_size_bytes",
				Help:    "Size of HTTP requests in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 6),
			},
			[]string{"method", "endpoint"},
		),
		HTTPResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_response_size_bytes",
				Help:    "Size of HTTP responses in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 6),
			},
			[]string{"method", "endpoint"},
		),

		// MCP-specific metrics
		MCPSessionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "mcp_sessions_active",
				Help: "Number of active MCP sessions",
			},
		),
		MCPSessionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mcp_sessions_total",
				Help: "Total number of MCP session lifecycle events",
			},
			[]string{"action"}, // created, deleted, expired
		),
		MCPSessionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mcp_session_duration_seconds",
				Help:    "Duration of MCP sessions in seconds",
				Buckets: []float64{60, 300, 600, 1800, 3600, 7200}, // 1m, 5m, 10m, 30m, 1h, 2h
			},
			[]string{"reason"}, // expired, deleted
		),
		MCPToolExecutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mcp_tool_executions_total",
				Help: "Total number of MCP tool executions",
			},
			[]string{"tool_name", "outcome"},
		),
		MCPToolDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mcp_tool_execution_duration_seconds",
				Help:    "Duration of MCP tool executions in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"tool_name"},
		),

		MCPMessagesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mcp_http_messages_total",
				Help: "Total number of MCP messages received over HTTP",
			},
			[]string{"rpc_method", "status_code"},
		),

		// Directory dataset metrics
		UpstreamRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yc_upstream_requests_total",
				Help: "Total number of requests made to the directory dataset",
			},
			[]string{"endpoint", "status_class"},
		),
		UpstreamRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "yc_upstream_request_duration_seconds",
				Help:    "Duration of directory dataset requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
	}
}

// RecordHTTPRequest records metrics for an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration, requestSize, responseSize int64) {
	m.HTTPRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
	m.HTTPRequestSize.WithLabelValues(method, endpoint).Observe(float64(requestSize))
	m.HTTPResponseSize.WithLabelValues(method, endpoint).Observe(float64(responseSize))
}

// IncHTTPRequestsInFlight increments the in-flight requests counter
func (m *Metrics) IncHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Inc()
}

// DecHTTPRequestsInFlight decrements the in-flight requests counter
func (m *Metrics) DecHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Dec()
}

// SessionCreated records a new session. It satisfies session.Observer.
func (m *Metrics) SessionCreated() {
	m.MCPSessionsActive.Inc()
	m.MCPSessionsTotal.WithLabelValues("created").Inc()
}

// SessionEnded records a deleted or expired session. It satisfies
// session.Observer.
func (m *Metrics) SessionEnded(reason string, lifetime time.Duration) {
	m.MCPSessionsActive.Dec()
	m.MCPSessionsTotal.WithLabelValues(reason).Inc()
	m.MCPSessionDuration.WithLabelValues(reason).Observe(lifetime.Seconds())
}

// RecordToolExecution records a tool execution
func (m *Metrics) RecordToolExecution(toolName, outcome string, duration time.Duration) {
	m.MCPToolExecutions.WithLabelValues(toolName, outcome).Inc()
	m.MCPToolDuration.WithLabelValues(toolName).Observe(duration.Seconds())
}

// RecordMCPMessage records one MCP message answered over HTTP
func (m *Metrics) RecordMCPMessage(rpcMethod, statusCode string) {
	m.MCPMessagesTotal.WithLabelValues(rpcMethod, statusCode).Inc()
}

// RecordUpstreamRequest records one request to the directory dataset.
func (m *Metrics) RecordUpstreamRequest(endpoint, statusClass string, duration time.Duration) {
	m.UpstreamRequestsTotal.WithLabelValues(endpoint, statusClass).Inc()
	m.UpstreamRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}
