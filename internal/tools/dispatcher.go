package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"

	"github.com/giantswarm/mcp-apstra/internal/apstra"
	"github.com/giantswarm/mcp-apstra/internal/logging"
)

// internalErrorMessage is the only detail returned for faults that are not
// classified Apstra errors. The cause is logged, not returned.
const internalErrorMessage = "internal error"

// Dispatcher routes invocations to registered handlers and turns every
// outcome, including panics, into a Result.
type Dispatcher struct {
	registry *Registry
	deps     Deps
}

// NewDispatcher creates a dispatcher over registry.
func NewDispatcher(registry *Registry, deps Deps) *Dispatcher {
	return &Dispatcher{registry: registry, deps: deps}
}

// Registry returns the registry the dispatcher routes to.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Dispatch runs one invocation. Unknown tools and invalid arguments fail
// before the handler runs, so they never reach Apstra.
func (d *Dispatcher) Dispatch(ctx context.Context, inv Invocation) (result Result) {
	def, ok := d.registry.Lookup(inv.ToolName)
	if !ok {
		return Fail(KindUnknownTool, 0, fmt.Sprintf("unknown tool %q", inv.ToolName))
	}

	args := inv.Arguments
	if args == nil {
		args = map[string]any{}
	}

	if err := def.Validate(args); err != nil {
		return failureFromError(err)
	}

	defer func() {
		if r := recover(); r != nil {
			d.deps.Log().Error("tool handler panicked",
				logging.Tool(inv.ToolName),
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
			result = Fail(apstra.KindUnexpectedResponse, 0, internalErrorMessage)
		}
	}()

	content, err := def.invoke(ctx, d.deps, args)
	if err != nil {
		if _, classified := apstra.AsError(err); !classified {
			d.deps.Log().Error("tool handler failed", logging.Tool(inv.ToolName), logging.Err(err))
		}
		return failureFromError(err)
	}
	if len(content) == 0 {
		return Fail(apstra.KindUnexpectedResponse, 0, "tool produced no content")
	}
	// Content reaches the assistant as JSON text; anything else (a proxy
	// login page, a truncated body) is not a result.
	if !json.Valid(content) {
		d.deps.Log().Warn("tool produced invalid JSON", logging.Tool(inv.ToolName), logging.ErrorKind(string(apstra.KindUnexpectedResponse)))
		return Fail(apstra.KindUnexpectedResponse, 0, "tool produced a response that is not valid JSON")
	}
	return Success(content)
}

// failureFromError maps a handler or client error to a Result.
func failureFromError(err error) Result {
	if apiErr, ok := apstra.AsError(err); ok {
		message := apiErr.Message
		if message == "" {
			message = apiErr.Error()
		}
		return Fail(apiErr.Kind, apiErr.StatusCode, message)
	}
	return Fail(apstra.KindUnexpectedResponse, 0, internalErrorMessage)
}
