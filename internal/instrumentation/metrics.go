package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys - using constants for consistency and DRY
const (
	// Common attributes (reused across metrics)
	attrMethod    = "method"
	attrPath      = "path"
	attrStatus    = "status"
	attrTool      = "tool"
	attrErrorKind = "error_kind"
	attrBlueprint = "blueprint_id"
	attrSeverity  = "severity"
	attrResult    = "result"
)

// Metrics provides methods for recording observability metrics.
type Metrics struct {
	// HTTP metrics (MCP transport)
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram

	// MCP tool metrics
	toolCallsTotal   metric.Int64Counter
	toolCallDuration metric.Float64Histogram

	// Apstra API metrics
	apiRequestsTotal   metric.Int64Counter
	apiRequestDuration metric.Float64Histogram

	// Domain metrics
	anomaliesObserved  metric.Int64Counter
	goldenConfigsTotal metric.Int64Counter

	// Configuration
	// detailedLabels controls whether the blueprint_id label is added to
	// tool metrics. Fabrics with many blueprints should leave it off.
	detailedLabels bool
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The detailedLabels parameter controls whether high-cardinality labels are included.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	m := &Metrics{
		detailedLabels: detailedLabels,
	}

	var err error

	// HTTP Metrics
	m.httpRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_requests_total counter: %w", err)
	}

	m.httpRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration_seconds histogram: %w", err)
	}

	// Tool Metrics
	m.toolCallsTotal, err = meter.Int64Counter(
		"mcp_tool_calls_total",
		metric.WithDescription("Total number of MCP tool invocations"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_calls_total counter: %w", err)
	}

	m.toolCallDuration, err = meter.Float64Histogram(
		"mcp_tool_call_duration_seconds",
		metric.WithDescription("MCP tool invocation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_call_duration_seconds histogram: %w", err)
	}

	// Apstra API Metrics
	m.apiRequestsTotal, err = meter.Int64Counter(
		"apstra_api_requests_total",
		metric.WithDescription("Total number of requests sent to the Apstra API"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create apstra_api_requests_total counter: %w", err)
	}

	m.apiRequestDuration, err = meter.Float64Histogram(
		"apstra_api_request_duration_seconds",
		metric.WithDescription("Apstra API request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create apstra_api_request_duration_seconds histogram: %w", err)
	}

	// Domain Metrics
	m.anomaliesObserved, err = meter.Int64Counter(
		"apstra_anomalies_observed_total",
		metric.WithDescription("Total number of anomalies returned by anomaly summaries, by severity"),
		metric.WithUnit("{anomaly}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create apstra_anomalies_observed_total counter: %w", err)
	}

	m.goldenConfigsTotal, err = meter.Int64Counter(
		"apstra_golden_config_applies_total",
		metric.WithDescription("Total number of golden-config apply attempts by result"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create apstra_golden_config_applies_total counter: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records an HTTP request with method, path, status code, and duration.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m.httpRequestsTotal == nil || m.httpRequestDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	}

	m.httpRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.httpRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordToolCall records one MCP tool invocation. errorKind is empty on
// success.
//
// CARDINALITY NOTE: blueprintID is only attached when detailedLabels is true.
func (m *Metrics) RecordToolCall(ctx context.Context, tool, blueprintID, errorKind string, duration time.Duration) {
	if m.toolCallsTotal == nil || m.toolCallDuration == nil {
		return // Instrumentation not initialized
	}

	status := StatusSuccess
	if errorKind != "" {
		status = StatusError
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrTool, tool),
		attribute.String(attrStatus, status),
		attribute.String(attrErrorKind, errorKind),
	}
	if m.detailedLabels && blueprintID != "" {
		attrs = append(attrs, attribute.String(attrBlueprint, blueprintID))
	}

	m.toolCallsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.toolCallDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordAPIRequest records one Apstra API call. route must already be
// normalized with NormalizeAPIPath. statusCode is 0 when no response arrived.
func (m *Metrics) RecordAPIRequest(ctx context.Context, method, route string, statusCode int, duration time.Duration) {
	if m.apiRequestsTotal == nil || m.apiRequestDuration == nil {
		return // Instrumentation not initialized
	}

	status := "none"
	if statusCode != 0 {
		status = strconv.Itoa(statusCode)
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrMethod, method),
		attribute.String(attrPath, route),
		attribute.String(attrStatus, status),
	}

	m.apiRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.apiRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordAnomalies adds count anomalies of the given severity. The severity
// is classified to a bounded label set first.
func (m *Metrics) RecordAnomalies(ctx context.Context, severity string, count int) {
	if m.anomaliesObserved == nil || count <= 0 {
		return
	}

	m.anomaliesObserved.Add(ctx, int64(count), metric.WithAttributes(
		attribute.String(attrSeverity, string(ClassifySeverity(severity))),
	))
}

// RecordGoldenConfigApply records a golden-config apply attempt.
// Result should be one of: "applied", "unconfirmed", "failed", "unknown"
func (m *Metrics) RecordGoldenConfigApply(ctx context.Context, result string) {
	if m.goldenConfigsTotal == nil {
		return // Instrumentation not initialized
	}

	m.goldenConfigsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
}
