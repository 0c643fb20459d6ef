// Package server provides the ServerContext pattern and related infrastructure
// for the MCP Apstra server.
//
// ServerContext encapsulates the dependencies every tool handler needs:
//
//   - the Apstra API client (any apstra.Requester, so tests can inject fakes)
//   - the logger
//   - the server configuration, including read-only mode
//   - the optional OpenTelemetry instrumentation provider
//   - a cancellable context used during shutdown
//
// All dependencies are injected using functional options:
//
//	serverCtx, err := NewServerContext(ctx,
//		WithApstraClient(client),
//		WithCredentials(creds),
//		WithReadOnly(true),
//		WithInstrumentationProvider(provider),
//	)
//	if err != nil {
//		return err
//	}
//	defer serverCtx.Shutdown()
//
// The package also exposes HTTP health endpoints (/healthz, /readyz and
// /healthz/detailed) for HTTP transports, and a MetricsServer that serves
// the Prometheus scrape endpoint on a dedicated port.
//
// Readiness does not call Apstra. A controller that is down shows up as a
// ConnectionError on the next tool call instead.
package server
