package instrumentation

import "strings"

// Cardinality management helpers for metrics.
// These functions reduce high-cardinality label values to prevent metrics explosion.
//
// # Warning
//
// High cardinality in metrics can cause:
// - Increased memory usage in Prometheus/metrics backends
// - Slower query performance
// - Higher storage costs
//
// Always use these helpers when recording metrics with values that come from
// Apstra (severities, API paths with identifiers).

// Severity represents a classified anomaly severity for metrics.
type Severity string

// Severity classifications for metrics cardinality control.
const (
	SeverityCritical Severity = "critical"
	SeverityMajor    Severity = "major"
	SeverityMinor    Severity = "minor"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"

	// SeverityUnknown is used when the anomaly carries no severity.
	SeverityUnknown Severity = "unknown"

	// SeverityOther groups any value Apstra reports that is not listed above.
	SeverityOther Severity = "other"
)

// ClassifySeverity maps a raw severity string to a bounded label value.
// Matching is case-insensitive and ignores surrounding whitespace.
func ClassifySeverity(raw string) Severity {
	switch s := Severity(strings.ToLower(strings.TrimSpace(raw))); s {
	case "":
		return SeverityUnknown
	case SeverityCritical, SeverityMajor, SeverityMinor, SeverityWarning, SeverityInfo, SeverityUnknown:
		return s
	case "error":
		return SeverityMajor
	case "warn":
		return SeverityWarning
	case "informational":
		return SeverityInfo
	default:
		return SeverityOther
	}
}

// identifierSegments lists the API collections whose next path segment is an
// identifier.
var identifierSegments = map[string]bool{
	"blueprints": true,
	"systems":    true,
}

// NormalizeAPIPath replaces identifiers in an Apstra API path with ":id" so
// the result can be used as a metric label.
//
// # Examples
//
//	"/api/blueprints"                      -> "/api/blueprints"
//	"/api/blueprints/bp-1/anomalies"       -> "/api/blueprints/:id/anomalies"
//	"/api/systems/5254001234/golden-config" -> "/api/systems/:id/golden-config"
func NormalizeAPIPath(path string) string {
	if path == "" {
		return "/"
	}

	segments := strings.Split(path, "/")
	for i := 1; i < len(segments); i++ {
		if identifierSegments[segments[i-1]] && segments[i] != "" {
			segments[i] = ":id"
		}
	}
	return strings.Join(segments, "/")
}
