package tools

import (
	"context"
	"encoding/json"

	"github.com/giantswarm/mcp-apstra/internal/apstra"
	"github.com/giantswarm/mcp-apstra/internal/instrumentation"
	"github.com/giantswarm/mcp-apstra/internal/logging"
	"github.com/giantswarm/mcp-apstra/internal/server"
)

// EmptyArgs is the argument record of tools that take no input.
type EmptyArgs struct{}

// Deps is what a handler may use. Client is the only way out to Apstra;
// Metrics and Logger are optional and nil-safe.
type Deps struct {
	Client  apstra.Requester
	Metrics *instrumentation.Metrics
	Logger  logging.Logger
}

// DepsFromServerContext collects handler dependencies from sc.
func DepsFromServerContext(sc *server.ServerContext) Deps {
	return Deps{
		Client:  sc.ApstraClient(),
		Metrics: sc.Metrics(),
		Logger:  sc.Logger(),
	}
}

// HandlerFunc executes one tool. args has already passed schema validation
// and been decoded into the tool's argument record. A handler makes at most
// one Apstra call and returns the JSON payload of a successful result.
type HandlerFunc[A any] func(ctx context.Context, deps Deps, args A) (json.RawMessage, error)

// Invocation is a single tool call as received from the MCP host.
type Invocation struct {
	ToolName  string
	Arguments map[string]any
}

// Log returns deps.Logger or the process default.
func (d Deps) Log() logging.Logger {
	if d.Logger == nil {
		return logging.DefaultLogger()
	}
	return d.Logger
}
