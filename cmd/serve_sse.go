package cmd

import (
	"context"
	"net/http"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/giantswarm/mcp-apstra/internal/instrumentation"
	"github.com/giantswarm/mcp-apstra/internal/server"
)

// runSSEServer runs the server with SSE transport.
func runSSEServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, config ServeConfig, provider *instrumentation.Provider, sc *server.ServerContext) error {
	sseServer := mcpserver.NewSSEServer(mcpSrv,
		mcpserver.WithSSEEndpoint(config.SSEEndpoint),
		mcpserver.WithMessageEndpoint(config.MessageEndpoint),
	)

	oauthServer, err := newOAuthServer(config)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle(config.SSEEndpoint, protect(oauthServer, sseServer.SSEHandler()))
	mux.Handle(config.MessageEndpoint, protect(oauthServer, sseServer.MessageHandler()))
	if oauthServer != nil {
		oauthServer.RegisterRoutes(mux)
	}
	health := server.NewHealthChecker(sc)
	health.RegisterHealthEndpoints(mux)

	sc.Logger().Info("SSE server starting",
		"addr", config.HTTPAddr,
		"sse_endpoint", config.SSEEndpoint,
		"message_endpoint", config.MessageEndpoint,
		"oauth", oauthServer != nil)

	return serveHTTP(ctx, mux, config, provider, sc, health, func(ctx context.Context) error {
		oauthServer.Shutdown()
		return sseServer.Shutdown(ctx)
	})
}
