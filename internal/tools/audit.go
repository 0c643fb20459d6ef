// Package tools provides the tool registry, the dispatcher and the shared
// plumbing every Apstra tool goes through.
package tools

import (
	"context"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/giantswarm/mcp-apstra/internal/instrumentation"
	"github.com/giantswarm/mcp-apstra/internal/mcp/oauth"
	"github.com/giantswarm/mcp-apstra/internal/server"
)

// DispatchFunc runs one invocation to completion.
type DispatchFunc func(ctx context.Context, inv Invocation) Result

// WrapWithAuditLogging adapts dispatch to an mcp-go tool handler and records,
// for every call:
//   - a tool span carrying blueprint, system and error kind
//   - the mcp_tool_calls_total and duration metrics
//   - one audit log record with timing, trace correlation and, behind
//     OAuth, the caller's email
//
// Without an instrumentation provider only the span is recorded, against
// the global (no-op by default) tracer provider.
func WrapWithAuditLogging(toolName string, dispatch DispatchFunc, sc *server.ServerContext) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		blueprintID, _ := args[ParamBlueprintID].(string)
		systemID, _ := args[ParamSystemID].(string)

		ctx, span := instrumentation.StartToolSpan(ctx, toolName,
			instrumentation.NewSpanAttributeBuilder().
				WithBlueprint(blueprintID).
				WithSystem(systemID).
				Build()...,
		)
		defer span.End()

		invocation := instrumentation.NewToolInvocation(toolName).
			WithBlueprint(blueprintID).
			WithSystem(systemID).
			WithSpanContext(ctx)
		if email := oauth.GetUserEmailFromContext(ctx); email != "" {
			invocation.WithUser(email)
		}

		result := dispatch(ctx, Invocation{ToolName: toolName, Arguments: args})

		if result.OK() {
			instrumentation.SetSpanSuccess(span)
			invocation.CompleteSuccess()
		} else {
			err := errors.New(result.Failure.Message)
			instrumentation.SetSpanError(span, err)
			span.SetAttributes(instrumentation.NewSpanAttributeBuilder().WithErrorKind(result.ErrorKind()).Build()...)
			invocation.WithErrorKind(result.ErrorKind()).CompleteWithError(err)
		}

		if metrics := sc.Metrics(); metrics != nil {
			metrics.RecordToolCall(ctx, toolName, blueprintID, result.ErrorKind(), invocation.Duration)
		}
		if auditLogger := sc.AuditLogger(); auditLogger != nil {
			auditLogger.LogToolInvocation(ctx, invocation)
		}

		return result.ToCallToolResult(), nil
	}
}

// Register adds every tool in the dispatcher's registry to s.
func Register(s *mcpserver.MCPServer, d *Dispatcher, sc *server.ServerContext) {
	for _, def := range d.Registry().Definitions() {
		s.AddTool(def.Tool, WrapWithAuditLogging(def.Name(), d.Dispatch, sc))
	}
}
