package anomaly

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/giantswarm/mcp-apstra/internal/apstra"
)

const (
	// unknownLabel replaces empty severities and anomaly types.
	unknownLabel = "unknown"

	// maxDiffLength bounds the config diff attached to one record.
	maxDiffLength = 5000

	diffTruncatedMarker = "\n... [diff truncated] ..."
)

// baseSeverities are always present in by_severity, even at zero.
var baseSeverities = []string{"critical", "warning", "info"}

// Summary is the aggregate returned by get_blueprint_anomalies.
type Summary struct {
	BlueprintID     string              `json:"blueprint_id"`
	SystemID        string              `json:"system_id,omitempty"`
	Total           int                 `json:"total"`
	BySeverity      map[string]int      `json:"by_severity"`
	ByType          map[string]int      `json:"by_type"`
	AffectedSystems []string            `json:"affected_systems"`
	AnomaliesByType map[string][]Record `json:"anomalies_by_type"`
}

// Record is one anomaly reduced to the fields worth reading.
type Record struct {
	ID              string         `json:"id,omitempty"`
	Type            string         `json:"anomaly_type"`
	Severity        string         `json:"severity"`
	AnomalousNodeID string         `json:"anomalous_node_id,omitempty"`
	SystemID        string         `json:"system_id,omitempty"`
	Hostname        string         `json:"hostname,omitempty"`
	Role            string         `json:"role,omitempty"`
	Identity        map[string]any `json:"identity,omitempty"`
	Expected        any            `json:"expected,omitempty"`
	Actual          any            `json:"actual,omitempty"`
	ConfigDiff      string         `json:"config_diff,omitempty"`
	LastModifiedAt  string         `json:"last_modified_at,omitempty"`
}

// parseAnomalies accepts either a JSON array of anomaly objects or an object
// with an "items" array. Anything else is an UnexpectedResponseError.
func parseAnomalies(body json.RawMessage, statusCode int) ([]map[string]any, error) {
	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, apstra.NewUnexpectedResponseError(statusCode, "anomalies response is not valid JSON: %v", err)
	}

	var items []any
	switch v := payload.(type) {
	case []any:
		items = v
	case map[string]any:
		raw, ok := v["items"]
		if !ok {
			return nil, apstra.NewUnexpectedResponseError(statusCode, "anomalies response has no items list")
		}
		list, ok := raw.([]any)
		if !ok {
			return nil, apstra.NewUnexpectedResponseError(statusCode, "anomalies items is %s, not a list", jsonType(raw))
		}
		items = list
	default:
		return nil, apstra.NewUnexpectedResponseError(statusCode, "anomalies response is %s, not a list or an object with items", jsonType(payload))
	}

	anomalies := make([]map[string]any, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, apstra.NewUnexpectedResponseError(statusCode, "anomaly %d is %s, not an object", i, jsonType(item))
		}
		anomalies = append(anomalies, obj)
	}
	return anomalies, nil
}

// Summarize groups anomalies by severity and type. When systemID is set only
// anomalies whose identity.system_id matches are counted. The result depends
// only on the input, so summarizing the same payload twice yields equal
// summaries.
func Summarize(blueprintID, systemID string, anomalies []map[string]any) Summary {
	s := Summary{
		BlueprintID:     blueprintID,
		SystemID:        systemID,
		BySeverity:      make(map[string]int, len(baseSeverities)),
		ByType:          map[string]int{},
		AffectedSystems: []string{},
		AnomaliesByType: map[string][]Record{},
	}
	for _, sev := range baseSeverities {
		s.BySeverity[sev] = 0
	}

	systems := map[string]struct{}{}
	for _, a := range anomalies {
		rec := newRecord(a)
		if systemID != "" && rec.SystemID != systemID {
			continue
		}

		s.Total++
		s.BySeverity[rec.Severity]++
		s.ByType[rec.Type]++
		s.AnomaliesByType[rec.Type] = append(s.AnomaliesByType[rec.Type], rec)
		if rec.SystemID != "" {
			systems[rec.SystemID] = struct{}{}
		}
	}

	for id := range systems {
		s.AffectedSystems = append(s.AffectedSystems, id)
	}
	sort.Strings(s.AffectedSystems)
	return s
}

func newRecord(a map[string]any) Record {
	identity, _ := a["identity"].(map[string]any)

	rec := Record{
		ID:              stringField(a, "id"),
		Type:            normalizeLabel(stringField(a, "anomaly_type")),
		Severity:        normalizeLabel(stringField(a, "severity")),
		AnomalousNodeID: stringField(a, "anomalous_node_id"),
		SystemID:        stringField(identity, "system_id"),
		Hostname:        stringField(identity, "hostname"),
		Role:            stringField(a, "role"),
		Identity:        identity,
		Expected:        a["expected"],
		Actual:          a["actual"],
		LastModifiedAt:  stringField(a, "last_modified_at"),
	}

	if rec.Type == "config" {
		expected, _ := a["expected"].(map[string]any)
		actual, _ := a["actual"].(map[string]any)
		rec.ConfigDiff = configDiff(stringField(expected, "config"), stringField(actual, "config"))
	}
	return rec
}

// normalizeLabel lower-cases and trims a severity or type; empty becomes
// "unknown".
func normalizeLabel(s string) string {
	s = cases.Lower(language.Und).String(strings.TrimSpace(s))
	if s == "" {
		return unknownLabel
	}
	return s
}

// configDiff returns a unified diff of expected against actual, or "" when
// either side is missing or they are equal.
func configDiff(expected, actual string) string {
	if expected == "" || actual == "" || expected == actual {
		return ""
	}

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(expected),
		B:        difflib.SplitLines(actual),
		FromFile: "expected",
		ToFile:   "actual",
		Context:  3,
	})
	if err != nil || diff == "" {
		return ""
	}
	return truncate(diff, maxDiffLength)
}

// truncate cuts s to at most limit bytes on a rune boundary and appends a
// marker when anything was dropped.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + diffTruncatedMarker
}

// stringField reads m[key] as a string. Numbers and booleans are formatted;
// anything else reads as "".
func stringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

func jsonType(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "a boolean"
	case float64:
		return "a number"
	case string:
		return "a string"
	case []any:
		return "a list"
	case map[string]any:
		return "an object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
