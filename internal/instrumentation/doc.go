// Package instrumentation provides OpenTelemetry instrumentation for the
// mcp-apstra server.
//
// This package enables production-grade observability through:
//   - OpenTelemetry metrics for MCP transport requests, tool calls and Apstra API calls
//   - Distributed tracing for tool invocations and upstream requests
//   - Prometheus metrics export via /metrics endpoint
//   - OTLP export support for modern observability platforms
//
// # Metrics
//
// Server/HTTP Metrics:
//   - http_requests_total: Counter of HTTP requests by method, path, and status
//   - http_request_duration_seconds: Histogram of HTTP request durations
//
// Tool Metrics:
//   - mcp_tool_calls_total: Counter of tool invocations by tool, status and error_kind
//   - mcp_tool_call_duration_seconds: Histogram of tool invocation durations
//
// Apstra API Metrics:
//   - apstra_api_requests_total: Counter of upstream requests by method, normalized path and status
//   - apstra_api_request_duration_seconds: Histogram of upstream request durations
//   - apstra_anomalies_observed_total: Counter of summarized anomalies by classified severity
//   - apstra_golden_config_applies_total: Counter of golden-config apply attempts by result
//
// # Cardinality Considerations
//
// Upstream paths are normalized (identifiers replaced by ":id") and anomaly
// severities are classified into a fixed set before they become labels.
// blueprint_id is only attached to tool metrics when METRICS_DETAILED_LABELS
// is true.
//
// # Configuration
//
// Instrumentation can be configured via environment variables:
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: false)
//   - METRICS_EXPORTER: Metrics exporter type (prometheus, otlp, stdout, default: prometheus)
//   - TRACING_EXPORTER: Tracing exporter type (otlp, stdout, none, default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_EXPORTER_OTLP_INSECURE: Use plain HTTP for OTLP export
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: mcp-apstra)
//   - METRICS_DETAILED_LABELS: Add blueprint_id to tool metrics (default: false)
//
// Stdout exporters write to stderr because stdout carries the MCP stream in
// stdio mode.
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	provider.Metrics().RecordToolCall(ctx, "list_blueprints", "", "", time.Since(start))
package instrumentation
