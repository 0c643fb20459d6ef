package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/giantswarm/mcp-apstra/internal/apstra"
	"github.com/giantswarm/mcp-apstra/internal/instrumentation"
	"github.com/giantswarm/mcp-apstra/internal/logging"
	"github.com/giantswarm/mcp-apstra/internal/mcp/oauth"
	"github.com/giantswarm/mcp-apstra/internal/server"
	"github.com/giantswarm/mcp-apstra/internal/tools"
	"github.com/giantswarm/mcp-apstra/internal/tools/catalog"
)

// newServeCmd creates the Cobra command for starting the MCP server.
func newServeCmd() *cobra.Command {
	var config ServeConfig

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP Apstra server",
		Long: `Start the MCP Apstra server to expose the Apstra REST API as tools via
the Model Context Protocol.

The controller address and API token are read from --apstra-url and
--apstra-token, falling back to the APSTRA_BASE_URL and APSTRA_API_TOKEN
environment variables. Both are required.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - sse: Server-Sent Events over HTTP
  - streamable-http: Streamable HTTP transport

With --read-only the golden-config tool is not registered at all, so the
server cannot change device state.

OAuth (--enable-oauth):
  Protects the sse and streamable-http endpoints with OAuth 2.1 (Dex or
  Google as identity provider). Callers must present a bearer token; the
  controller is still reached with the static Apstra API token.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			config.loadEnv()
			if err := config.Validate(); err != nil {
				return err
			}
			return runServe(config)
		},
	}

	// Apstra connection flags
	cmd.Flags().StringVar(&config.Apstra.BaseURL, "apstra-url", "", "Apstra controller base URL, e.g. https://apstra.example.com (can also be set via APSTRA_BASE_URL env var)")
	cmd.Flags().StringVar(&config.Apstra.Token, "apstra-token", "", "Apstra API token (can also be set via APSTRA_API_TOKEN env var)")
	cmd.Flags().BoolVar(&config.Apstra.InsecureSkipVerify, "insecure-skip-verify", false, "Skip TLS certificate verification for the Apstra controller (lab use only)")
	cmd.Flags().DurationVar(&config.Apstra.Timeout, "request-timeout", apstra.DefaultTimeout, "Timeout for each Apstra API request")
	cmd.Flags().Float64Var(&config.Apstra.QPSLimit, "qps-limit", apstra.DefaultQPSLimit, "QPS limit for Apstra API calls")
	cmd.Flags().IntVar(&config.Apstra.BurstLimit, "burst-limit", apstra.DefaultBurstLimit, "Burst limit for Apstra API calls")
	cmd.Flags().BoolVar(&config.ReadOnly, "read-only", false, "Do not register tools that change Apstra state")

	// Logging flags
	cmd.Flags().BoolVar(&config.DebugMode, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&config.LogFormat, "log-format", "text", "Log format: text or json (logs always go to stderr)")

	// Transport flags
	cmd.Flags().StringVar(&config.Transport, "transport", transportStdio, "Transport type: stdio, sse, or streamable-http")
	cmd.Flags().StringVar(&config.HTTPAddr, "http-addr", ":8080", "HTTP server address (for sse and streamable-http transports)")
	cmd.Flags().StringVar(&config.SSEEndpoint, "sse-endpoint", "/sse", "SSE endpoint path (for sse transport)")
	cmd.Flags().StringVar(&config.MessageEndpoint, "message-endpoint", "/message", "Message endpoint path (for sse transport)")
	cmd.Flags().StringVar(&config.HTTPEndpoint, "http-endpoint", "/mcp", "HTTP endpoint path (for streamable-http transport)")
	cmd.Flags().StringVar(&config.AllowedOrigins, "allowed-origins", "", "Comma-separated CORS origins for HTTP transports (can also be set via ALLOWED_ORIGINS env var)")
	cmd.Flags().BoolVar(&config.EnableHSTS, "enable-hsts", false, "Always send Strict-Transport-Security, e.g. behind a TLS-terminating proxy (can also be set via ENABLE_HSTS=true)")

	// OAuth flags
	cmd.Flags().BoolVar(&config.OAuth.Enabled, "enable-oauth", false, "Enable OAuth 2.1 authentication (for HTTP transports)")
	cmd.Flags().StringVar(&config.OAuth.BaseURL, "oauth-base-url", "", "OAuth base URL (e.g., https://mcp-apstra.example.com)")
	cmd.Flags().StringVar(&config.OAuth.Provider, "oauth-provider", oauth.ProviderDex, fmt.Sprintf("OAuth provider: %s or %s", oauth.ProviderDex, oauth.ProviderGoogle))
	cmd.Flags().StringVar(&config.OAuth.GoogleClientID, "google-client-id", "", "Google OAuth Client ID (can also be set via GOOGLE_CLIENT_ID env var)")
	cmd.Flags().StringVar(&config.OAuth.GoogleClientSecret, "google-client-secret", "", "Google OAuth Client Secret (can also be set via GOOGLE_CLIENT_SECRET env var)")
	cmd.Flags().StringVar(&config.OAuth.DexIssuerURL, "dex-issuer-url", "", "Dex OIDC issuer URL (can also be set via DEX_ISSUER_URL env var)")
	cmd.Flags().StringVar(&config.OAuth.DexClientID, "dex-client-id", "", "Dex OAuth Client ID (can also be set via DEX_CLIENT_ID env var)")
	cmd.Flags().StringVar(&config.OAuth.DexClientSecret, "dex-client-secret", "", "Dex OAuth Client Secret (can also be set via DEX_CLIENT_SECRET env var)")
	cmd.Flags().StringVar(&config.OAuth.DexConnectorID, "dex-connector-id", "", "Dex connector ID to skip the connector selection screen (can also be set via DEX_CONNECTOR_ID env var)")
	cmd.Flags().StringVar(&config.OAuth.RegistrationToken, "registration-token", "", "OAuth client registration access token (required if public registration is disabled)")
	cmd.Flags().BoolVar(&config.OAuth.AllowPublicRegistration, "allow-public-registration", false, "Allow unauthenticated OAuth client registration (NOT RECOMMENDED for production)")
	cmd.Flags().IntVar(&config.OAuth.MaxClientsPerIP, "max-clients-per-ip", oauth.DefaultMaxClientsPerIP, "Maximum number of OAuth clients that can be registered per IP address")

	// Metrics flags
	cmd.Flags().BoolVar(&config.Metrics.Enabled, "metrics-enabled", true, "Serve Prometheus metrics on a separate listener when instrumentation is enabled (HTTP transports only)")
	cmd.Flags().StringVar(&config.Metrics.Addr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address")

	return cmd
}

// runServe wires the Apstra client, the tool registry and the selected
// transport, then blocks until the transport stops or a signal arrives.
func runServe(config ServeConfig) error {
	slogger, err := logging.New(logging.Options{Level: config.logLevel(), Format: config.LogFormat, Output: os.Stderr})
	if err != nil {
		return err
	}
	slog.SetDefault(slogger)
	logger := logging.NewSlogAdapter(slogger)

	shutdownCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	instrumentationConfig := instrumentation.DefaultConfig()
	instrumentationConfig.ServiceVersion = rootCmd.Version
	provider, err := instrumentation.NewProvider(shutdownCtx, instrumentationConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			logger.Error("error during instrumentation shutdown", logging.Err(err))
		}
	}()
	if provider.Enabled() {
		logger.Info("OpenTelemetry instrumentation enabled",
			"metrics_exporter", instrumentationConfig.MetricsExporter,
			"tracing_exporter", instrumentationConfig.TracingExporter)
	}

	creds, err := apstra.NewCredentials(config.Apstra.BaseURL, config.Apstra.Token)
	if err != nil {
		return err
	}

	var metrics *instrumentation.Metrics
	if provider.Enabled() {
		metrics = provider.Metrics()
	}
	client, err := apstra.NewClient(creds, apstra.ClientConfig{
		Timeout:            config.Apstra.Timeout,
		QPSLimit:           config.Apstra.QPSLimit,
		BurstLimit:         config.Apstra.BurstLimit,
		InsecureSkipVerify: config.Apstra.InsecureSkipVerify,
		UserAgent:          "mcp-apstra/" + rootCmd.Version,
		Logger:             logger,
		Metrics:            metrics,
	})
	if err != nil {
		return fmt.Errorf("failed to create Apstra client: %w", err)
	}
	if config.Apstra.InsecureSkipVerify {
		logger.Warn("TLS certificate verification for Apstra is disabled")
	}

	serverConfig := server.NewDefaultConfig()
	serverConfig.RequestTimeout = client.Timeout()
	serverConfig.LogFormat = config.LogFormat

	serverContext, err := server.NewServerContext(shutdownCtx,
		server.WithApstraClient(client),
		server.WithCredentials(creds),
		server.WithLogger(logger),
		server.WithConfig(serverConfig),
		server.WithServerName("mcp-apstra"),
		server.WithVersion(rootCmd.Version),
		server.WithReadOnly(config.ReadOnly),
		server.WithLogLevel(config.logLevel()),
		server.WithInstrumentationProvider(provider),
	)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Error("error during server context shutdown", logging.Err(err))
		}
	}()

	mcpSrv, err := newMCPServer(serverContext)
	if err != nil {
		return err
	}

	logger.Info("starting mcp-apstra",
		"transport", config.Transport,
		logging.Host(creds.BaseURL()),
		"read_only", config.ReadOnly,
		"oauth", config.OAuth.Enabled)
	if config.Transport != transportStdio && !config.OAuth.Enabled && !config.ReadOnly {
		logger.Warn("HTTP transport without --enable-oauth exposes apply_system_golden_config to any client that can reach the listener")
	}

	switch config.Transport {
	case transportStdio:
		return runStdioServer(mcpSrv)
	case transportSSE:
		return runSSEServer(shutdownCtx, mcpSrv, config, provider, serverContext)
	case transportStreamableHTTP:
		return runStreamableHTTPServer(shutdownCtx, mcpSrv, config, provider, serverContext)
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, sse, streamable-http)", config.Transport)
	}
}

// newMCPServer builds the MCP server with every tool the configuration
// allows registered on it.
func newMCPServer(sc *server.ServerContext) (*mcpserver.MCPServer, error) {
	registry, err := catalog.Registry(sc.ReadOnly())
	if err != nil {
		return nil, fmt.Errorf("failed to build tool registry: %w", err)
	}

	mcpSrv := mcpserver.NewMCPServer(sc.Config().ServerName, sc.Config().Version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithRecovery(),
	)

	dispatcher := tools.NewDispatcher(registry, tools.DepsFromServerContext(sc))
	tools.Register(mcpSrv, dispatcher, sc)

	return mcpSrv, nil
}
