// Package cmd provides the command-line interface for mcp-apstra.
//
// This package implements a Cobra-based CLI with multiple subcommands:
//   - serve: Starts the MCP server (default behavior when no subcommand is provided)
//   - version: Displays the application version
//   - self-update: Updates the binary to the latest version from GitHub releases
//
// Command Structure:
//
//	mcp-apstra [flags]                 # Starts the MCP server (default)
//	mcp-apstra serve [flags]           # Explicitly starts the MCP server
//	mcp-apstra version                 # Shows version information
//	mcp-apstra self-update             # Updates to latest release
//
// The serve command needs the Apstra controller URL and an API token, from
// flags or the APSTRA_BASE_URL and APSTRA_API_TOKEN environment variables:
//
//	APSTRA_BASE_URL=https://apstra.example.com APSTRA_API_TOKEN=... mcp-apstra serve
//	mcp-apstra serve --transport streamable-http --http-addr :9000 --read-only
//	mcp-apstra serve --transport sse --http-addr :8080 --sse-endpoint /sse
//
// The HTTP transports also expose /healthz and /readyz, and serve Prometheus
// metrics on a separate listener (--metrics-addr) when instrumentation is
// enabled through INSTRUMENTATION_ENABLED=true.
package cmd
