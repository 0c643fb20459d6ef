package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd is the base command. Without a subcommand it behaves like
// "mcp-apstra serve".
var rootCmd = &cobra.Command{
	Use:   "mcp-apstra",
	Short: "MCP server for Juniper Apstra fabrics",
	Long: `mcp-apstra is a Model Context Protocol (MCP) server that exposes the
Juniper Apstra REST API as tools: listing blueprints, inspecting systems,
virtual networks, security zones and config audits, summarizing anomalies,
and (unless started with --read-only) pushing golden configuration.

When run without subcommands, it starts the MCP server (equivalent to 'mcp-apstra serve').`,
	SilenceUsage: true,
}

// SetVersion sets the version reported by the CLI. It is called from main
// with the value injected at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "mcp-apstra version %s\n" .Version}}`)

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
	rootCmd.AddCommand(newServeCmd())
}
