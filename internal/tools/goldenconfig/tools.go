package goldenconfig

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/giantswarm/mcp-apstra/internal/apstra"
	"github.com/giantswarm/mcp-apstra/internal/instrumentation"
	"github.com/giantswarm/mcp-apstra/internal/logging"
	"github.com/giantswarm/mcp-apstra/internal/tools"
)

// ToolApplySystemGoldenConfig is the tool name.
const ToolApplySystemGoldenConfig = "apply_system_golden_config"

// operation names the action in confirmation errors.
const operation = "golden config apply"

// Args is the argument record of apply_system_golden_config.
type Args struct {
	SystemID     string `json:"system_id"`
	Confirmation string `json:"confirmation"`
}

// Definitions returns the golden-config tools. Every tool here is mutating.
func Definitions() ([]*tools.Definition, error) {
	tool := mcp.NewTool(ToolApplySystemGoldenConfig,
		mcp.WithDescription("Push the golden (intended) configuration onto a managed system. "+
			"This changes device state: only call it after the user has explicitly agreed, "+
			"and pass their answer as confirmation"),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(false),
		tools.SystemIDParam(true, "ID of the managed system to push the golden configuration to"),
		mcp.WithString(tools.ParamConfirmation,
			mcp.Required(),
			mcp.Description("Explicit user confirmation: one of yes, y, confirm, apply"),
		),
	)

	def, err := tools.NewDefinition(tool, handleApply, tools.Mutating())
	if err != nil {
		return nil, err
	}
	return []*tools.Definition{def}, nil
}

// handleApply triggers a single golden-config push and returns Apstra's
// acknowledgement untouched. It does not poll, retry or roll back.
func handleApply(ctx context.Context, deps tools.Deps, args Args) (json.RawMessage, error) {
	systemID, err := tools.RequireID(tools.ParamSystemID, args.SystemID)
	if err != nil {
		return nil, err
	}
	span := trace.SpanFromContext(ctx)
	log := deps.Log().With(logging.Operation(operation), logging.System(systemID))

	if err := tools.RequireConfirmation(operation, args.Confirmation); err != nil {
		record(ctx, deps, instrumentation.GoldenConfigUnconfirmed)
		instrumentation.AddSpanEvent(span, "golden_config.refused")
		log.Warn("golden config apply refused", "reason", instrumentation.GoldenConfigUnconfirmed)
		return nil, err
	}

	path, err := apstra.SystemPath(apstra.PathSystemGoldenConfig, systemID)
	if err != nil {
		return nil, err
	}

	resp, err := deps.Client.Request(ctx, http.MethodPost, path, nil, nil)
	if err != nil {
		if apiErr, ok := apstra.AsError(err); ok && accepted(apiErr.StatusCode) {
			return nil, outcomeUnknown(ctx, deps, log, span, apiErr.StatusCode, apiErr)
		}
		record(ctx, deps, instrumentation.GoldenConfigFailed)
		instrumentation.AddSpanEvent(span, "golden_config.failed")
		log.Error("golden config apply failed", logging.Err(err))
		return nil, err
	}
	if !json.Valid(resp.Body) {
		return nil, outcomeUnknown(ctx, deps, log, span, resp.StatusCode, nil)
	}

	record(ctx, deps, instrumentation.GoldenConfigApplied)
	instrumentation.AddSpanEvent(span, "golden_config.applied", attribute.Int(instrumentation.SpanAttrHTTPStatus, resp.StatusCode))
	log.Info("golden config applied", logging.StatusCode(resp.StatusCode))
	return resp.Body, nil
}

// accepted reports whether Apstra took the request, whatever it sent back.
func accepted(status int) bool {
	return status >= 200 && status < 300
}

// outcomeUnknown reports a push Apstra accepted but whose acknowledgement
// could not be read. The push may be running, so the message tells the
// caller to check the system instead of calling the tool again.
func outcomeUnknown(ctx context.Context, deps tools.Deps, log logging.Logger, span trace.Span, status int, cause error) error {
	record(ctx, deps, instrumentation.GoldenConfigUnknown)
	instrumentation.AddSpanEvent(span, "golden_config.outcome_unknown", attribute.Int(instrumentation.SpanAttrHTTPStatus, status))
	log.Warn("golden config apply outcome unknown", logging.StatusCode(status), logging.Err(cause))
	return &apstra.Error{
		Kind:       apstra.KindUnexpectedResponse,
		StatusCode: status,
		Message: fmt.Sprintf("Apstra accepted the golden config push (HTTP %d) but its response could not be read, "+
			"so the outcome is unknown; check the system's deploy state before applying again", status),
		Err: cause,
	}
}

func record(ctx context.Context, deps tools.Deps, result string) {
	if deps.Metrics != nil {
		deps.Metrics.RecordGoldenConfigApply(ctx, result)
	}
}
