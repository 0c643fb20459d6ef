// Package anomaly provides the get_blueprint_anomalies tool, which fetches
// the anomalies of a blueprint and returns them grouped by severity and
// anomaly type instead of as the raw flat list.
package anomaly

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/giantswarm/mcp-apstra/internal/apstra"
	"github.com/giantswarm/mcp-apstra/internal/instrumentation"
	"github.com/giantswarm/mcp-apstra/internal/logging"
	"github.com/giantswarm/mcp-apstra/internal/tools"
)

// ToolGetBlueprintAnomalies is the tool name.
const ToolGetBlueprintAnomalies = "get_blueprint_anomalies"

// Args is the argument record of get_blueprint_anomalies.
type Args struct {
	BlueprintID string `json:"blueprint_id"`
	SystemID    string `json:"system_id"`
}

// Definitions returns the anomaly tools.
func Definitions() ([]*tools.Definition, error) {
	tool := mcp.NewTool(ToolGetBlueprintAnomalies,
		mcp.WithDescription("Summarize the anomalies of a blueprint: counts by severity and type, affected systems, "+
			"and the anomaly records grouped by type (config anomalies include an expected/actual diff)"),
		mcp.WithReadOnlyHintAnnotation(true),
		tools.BlueprintIDParam(),
		tools.SystemIDParam(false, "Only include anomalies of this system (optional)"),
	)

	def, err := tools.NewDefinition(tool, handleGetBlueprintAnomalies)
	if err != nil {
		return nil, err
	}
	return []*tools.Definition{def}, nil
}

func handleGetBlueprintAnomalies(ctx context.Context, deps tools.Deps, args Args) (json.RawMessage, error) {
	blueprintID, err := tools.RequireID(tools.ParamBlueprintID, args.BlueprintID)
	if err != nil {
		return nil, err
	}

	var systemID string
	if args.SystemID != "" {
		if systemID, err = tools.RequireID(tools.ParamSystemID, args.SystemID); err != nil {
			return nil, err
		}
	}

	path, err := apstra.BlueprintPath(apstra.PathBlueprintAnomalies, blueprintID)
	if err != nil {
		return nil, err
	}

	resp, err := apstra.Get(ctx, deps.Client, path, nil)
	if err != nil {
		return nil, err
	}

	anomalies, err := parseAnomalies(resp.Body, resp.StatusCode)
	if err != nil {
		return nil, err
	}

	summary := summarize(ctx, blueprintID, systemID, anomalies)
	recordSeverities(ctx, deps, summary)
	deps.Log().Debug("anomaly summary built",
		logging.Blueprint(blueprintID),
		logging.System(systemID),
		"total", summary.Total,
		"affected_systems", len(summary.AffectedSystems))

	out, err := json.Marshal(summary)
	if err != nil {
		return nil, apstra.NewUnexpectedResponseError(resp.StatusCode, "could not encode anomaly summary: %v", err)
	}
	return out, nil
}

// summarize runs Summarize in its own span so that the anomaly count shows
// up on traces next to the upstream request.
func summarize(ctx context.Context, blueprintID, systemID string, anomalies []map[string]any) Summary {
	_, span := instrumentation.StartSpan(ctx, "anomaly.summarize",
		instrumentation.NewSpanAttributeBuilder().WithBlueprint(blueprintID).WithSystem(systemID).Build()...)
	defer span.End()

	summary := Summarize(blueprintID, systemID, anomalies)
	span.SetAttributes(instrumentation.NewSpanAttributeBuilder().WithAnomalyCount(summary.Total).Build()...)
	instrumentation.SetSpanSuccess(span)
	return summary
}

// recordSeverities feeds the per-severity counts into the anomaly metric in
// a stable order.
func recordSeverities(ctx context.Context, deps tools.Deps, summary Summary) {
	if deps.Metrics == nil {
		return
	}
	severities := make([]string, 0, len(summary.BySeverity))
	for sev := range summary.BySeverity {
		severities = append(severities, sev)
	}
	sort.Strings(severities)
	for _, sev := range severities {
		deps.Metrics.RecordAnomalies(ctx, sev, summary.BySeverity[sev])
	}
}
