package instrumentation

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the default tracer name for the mcp-apstra package.
const TracerName = "github.com/giantswarm/mcp-apstra"

// Span attribute keys for tool and Apstra API operations.
const (
	// SpanAttrTool is the MCP tool name.
	SpanAttrTool = "mcp.tool"

	// SpanAttrErrorKind is the classified error kind of a failed tool call.
	SpanAttrErrorKind = "mcp.error_kind"

	// SpanAttrBlueprint is the Apstra blueprint ID.
	SpanAttrBlueprint = "apstra.blueprint_id"

	// SpanAttrSystem is the Apstra system ID.
	SpanAttrSystem = "apstra.system_id"

	// SpanAttrAnomalyCount is the number of anomalies in a summary.
	SpanAttrAnomalyCount = "apstra.anomaly_count"

	// SpanAttrRequestID is the X-Request-ID sent to Apstra.
	SpanAttrRequestID = "apstra.request_id"

	// SpanAttrHTTPMethod is the upstream HTTP method.
	SpanAttrHTTPMethod = "http.request.method"

	// SpanAttrHTTPRoute is the normalized upstream API path.
	SpanAttrHTTPRoute = "http.route"

	// SpanAttrHTTPStatus is the upstream HTTP status code.
	SpanAttrHTTPStatus = "http.response.status_code"
)

// SpanAttributeBuilder helps construct OpenTelemetry span attributes
// with consistent naming.
type SpanAttributeBuilder struct {
	attrs []attribute.KeyValue
}

// NewSpanAttributeBuilder creates a new SpanAttributeBuilder.
func NewSpanAttributeBuilder() *SpanAttributeBuilder {
	return &SpanAttributeBuilder{
		attrs: make([]attribute.KeyValue, 0, 6),
	}
}

// WithTool adds the MCP tool name attribute.
func (b *SpanAttributeBuilder) WithTool(tool string) *SpanAttributeBuilder {
	b.attrs = append(b.attrs, attribute.String(SpanAttrTool, tool))
	return b
}

// WithBlueprint adds the blueprint ID attribute when set.
func (b *SpanAttributeBuilder) WithBlueprint(blueprintID string) *SpanAttributeBuilder {
	if blueprintID != "" {
		b.attrs = append(b.attrs, attribute.String(SpanAttrBlueprint, blueprintID))
	}
	return b
}

// WithSystem adds the system ID attribute when set.
func (b *SpanAttributeBuilder) WithSystem(systemID string) *SpanAttributeBuilder {
	if systemID != "" {
		b.attrs = append(b.attrs, attribute.String(SpanAttrSystem, systemID))
	}
	return b
}

// WithErrorKind adds the error kind attribute when set.
func (b *SpanAttributeBuilder) WithErrorKind(kind string) *SpanAttributeBuilder {
	if kind != "" {
		b.attrs = append(b.attrs, attribute.String(SpanAttrErrorKind, kind))
	}
	return b
}

// WithAnomalyCount adds the anomaly count attribute.
func (b *SpanAttributeBuilder) WithAnomalyCount(count int) *SpanAttributeBuilder {
	b.attrs = append(b.attrs, attribute.Int(SpanAttrAnomalyCount, count))
	return b
}

// Build returns the constructed attributes.
func (b *SpanAttributeBuilder) Build() []attribute.KeyValue {
	return b.attrs
}

// StartSpan starts a new span with the given name and attributes.
// Returns the context with the span and the span itself.
// The caller is responsible for ending the span with defer span.End().
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// StartToolSpan starts a span for an MCP tool invocation.
// Automatically adds tool name and sets appropriate span kind.
func StartToolSpan(ctx context.Context, toolName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := make([]attribute.KeyValue, 0, len(attrs)+1)
	allAttrs = append(allAttrs, attribute.String(SpanAttrTool, toolName))
	allAttrs = append(allAttrs, attrs...)

	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, "tool."+toolName,
		trace.WithAttributes(allAttrs...),
		trace.WithSpanKind(trace.SpanKindServer),
	)
}

// StartAPISpan starts a client span for one Apstra API request.
// route should be normalized with NormalizeAPIPath.
func StartAPISpan(ctx context.Context, method, route string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := make([]attribute.KeyValue, 0, len(attrs)+2)
	allAttrs = append(allAttrs,
		attribute.String(SpanAttrHTTPMethod, method),
		attribute.String(SpanAttrHTTPRoute, route),
	)
	allAttrs = append(allAttrs, attrs...)

	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, "apstra."+method,
		trace.WithAttributes(allAttrs...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// SetSpanError records an error on the span and sets the status to error.
func SetSpanError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSpanSuccess sets the span status to OK.
func SetSpanSuccess(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

// AddSpanEvent adds an event to the span with optional attributes.
func AddSpanEvent(span trace.Span, name string, attrs ...attribute.KeyValue) {
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// GetTraceID returns the trace ID from the current span in context.
// Returns empty string if no valid span is present.
func GetTraceID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		return span.SpanContext().TraceID().String()
	}
	return ""
}

// GetSpanID returns the span ID from the current span in context.
// Returns empty string if no valid span is present.
func GetSpanID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		return span.SpanContext().SpanID().String()
	}
	return ""
}
