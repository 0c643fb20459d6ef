package cmd

import (
	"fmt"
	"log"
	"os"

	mcpserver "github.com/mark3labs/mcp-go/server"
)

// runStdioServer runs the server with STDIO transport. Nothing may be
// written to stdout besides the MCP stream, so errors are logged to stderr.
func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	errLogger := log.New(os.Stderr, "mcp-apstra: ", log.LstdFlags)
	if err := mcpserver.ServeStdio(mcpSrv, mcpserver.WithErrorLogger(errLogger)); err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}
