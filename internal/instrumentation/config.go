package instrumentation

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config selects exporters and sampling for metrics and tracing. Everything
// is off unless Enabled is set.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Enabled        bool

	// MetricsExporter is one of prometheus (default), otlp or stdout.
	MetricsExporter string
	// TracingExporter is one of none (default), otlp or stdout.
	TracingExporter string

	// OTLPEndpoint is a URL (http://collector:4318) or a bare host:port.
	OTLPEndpoint string
	// OTLPInsecure disables TLS towards the collector.
	OTLPInsecure bool

	// TraceSamplingRate is the parent-based ratio in [0, 1].
	TraceSamplingRate float64

	PrometheusEndpoint string

	// DetailedLabels adds blueprint_id to tool metrics. Off by default since
	// blueprint IDs are unbounded.
	DetailedLabels bool
}

// DefaultConfig reads the instrumentation environment variables.
func DefaultConfig() Config {
	return Config{
		ServiceName:        envString("OTEL_SERVICE_NAME", "mcp-apstra"),
		ServiceVersion:     "unknown",
		Enabled:            envOr("INSTRUMENTATION_ENABLED", false, strconv.ParseBool),
		MetricsExporter:    envString("METRICS_EXPORTER", MetricsExporterPrometheus),
		TracingExporter:    envString("TRACING_EXPORTER", ExporterNone),
		OTLPEndpoint:       envString("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTLPInsecure:       envOr("OTEL_EXPORTER_OTLP_INSECURE", false, strconv.ParseBool),
		TraceSamplingRate:  envOr("OTEL_TRACES_SAMPLER_ARG", 0.1, parseFloat),
		PrometheusEndpoint: envString("PROMETHEUS_ENDPOINT", "/metrics"),
		DetailedLabels:     envOr("METRICS_DETAILED_LABELS", false, strconv.ParseBool),
	}
}

// Validate rejects unknown exporters, an out-of-range sampling rate and
// OTLP without an endpoint.
func (c *Config) Validate() error {
	switch strings.ToLower(c.MetricsExporter) {
	case "", MetricsExporterPrometheus, ExporterOTLP, ExporterStdout:
	default:
		return fmt.Errorf("unsupported metrics exporter %q (supported: prometheus, otlp, stdout)", c.MetricsExporter)
	}

	switch strings.ToLower(c.TracingExporter) {
	case "", ExporterNone, ExporterOTLP, ExporterStdout:
	default:
		return fmt.Errorf("unsupported tracing exporter %q (supported: otlp, stdout, none)", c.TracingExporter)
	}

	if c.TraceSamplingRate < 0 || c.TraceSamplingRate > 1 {
		return fmt.Errorf("trace sampling rate must be between 0.0 and 1.0, got %v", c.TraceSamplingRate)
	}

	usesOTLP := strings.EqualFold(c.MetricsExporter, ExporterOTLP) || strings.EqualFold(c.TracingExporter, ExporterOTLP)
	if usesOTLP && c.OTLPEndpoint == "" {
		return fmt.Errorf("OTLP exporter selected but OTEL_EXPORTER_OTLP_ENDPOINT is not set")
	}

	return nil
}

// envOr parses the variable key, returning def when it is unset or does not
// parse.
func envOr[T any](key string, def T, parse func(string) (T, error)) T {
	value := os.Getenv(key)
	if value == "" {
		return def
	}
	parsed, err := parse(value)
	if err != nil {
		return def
	}
	return parsed
}

func envString(key, def string) string {
	return envOr(key, def, func(v string) (string, error) { return v, nil })
}

func parseFloat(v string) (float64, error) {
	return strconv.ParseFloat(v, 64)
}

// Exporter names.
const (
	MetricsExporterPrometheus = "prometheus"
	ExporterOTLP              = "otlp"
	ExporterStdout            = "stdout"
	ExporterNone              = "none"
)

// Metric label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusUnknown = "unknown"

	// Golden-config apply outcomes. Unknown means Apstra answered 2xx but
	// the acknowledgement could not be read.
	GoldenConfigApplied     = "applied"
	GoldenConfigUnconfirmed = "unconfirmed"
	GoldenConfigFailed      = "failed"
	GoldenConfigUnknown     = "unknown"

	DefaultMetricInterval = 10 * time.Second
)
