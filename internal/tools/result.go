package tools

import (
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/giantswarm/mcp-apstra/internal/apstra"
)

// KindUnknownTool is reported for invocations of unregistered tool names.
// It is produced by the dispatcher, never by the API client.
const KindUnknownTool apstra.ErrorKind = "UnknownTool"

// Failure describes a failed invocation.
type Failure struct {
	Kind       apstra.ErrorKind `json:"error_kind"`
	Message    string           `json:"message"`
	StatusCode int              `json:"upstream_status_code,omitempty"`
}

// Result is the outcome of one invocation: exactly one of Content and
// Failure is set.
type Result struct {
	Content json.RawMessage
	Failure *Failure
}

// Success wraps a handler payload.
func Success(content json.RawMessage) Result {
	return Result{Content: content}
}

// Fail builds a failed result.
func Fail(kind apstra.ErrorKind, statusCode int, message string) Result {
	return Result{Failure: &Failure{Kind: kind, Message: message, StatusCode: statusCode}}
}

// OK reports whether the invocation succeeded.
func (r Result) OK() bool {
	return r.Failure == nil
}

// ErrorKind returns the failure kind, or "" on success.
func (r Result) ErrorKind() string {
	if r.Failure == nil {
		return ""
	}
	return string(r.Failure.Kind)
}

// ToCallToolResult renders the result for mcp-go. Successes carry the JSON
// payload as text; failures are IsError results whose text is the JSON
// encoding of the Failure.
func (r Result) ToCallToolResult() *mcp.CallToolResult {
	if r.Failure == nil {
		return mcp.NewToolResultText(string(r.Content))
	}

	payload, err := json.Marshal(r.Failure)
	if err != nil {
		return mcp.NewToolResultError(r.Failure.Message)
	}
	return mcp.NewToolResultError(string(payload))
}
