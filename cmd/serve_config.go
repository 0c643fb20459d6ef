package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/giantswarm/mcp-apstra/internal/logging"
	"github.com/giantswarm/mcp-apstra/internal/mcp/oauth"
	"github.com/giantswarm/mcp-apstra/internal/server"
	"github.com/giantswarm/mcp-apstra/internal/server/middleware"
)

// Transport type constants for the MCP server.
const (
	transportStdio          = "stdio"
	transportSSE            = "sse"
	transportStreamableHTTP = "streamable-http"
)

// Environment variables read by the serve command. Flags take precedence.
const (
	envBaseURL        = "APSTRA_BASE_URL"
	envAPIToken       = "APSTRA_API_TOKEN"
	envAllowedOrigins = "ALLOWED_ORIGINS"
	envEnableHSTS     = "ENABLE_HSTS"

	envGoogleClientID     = "GOOGLE_CLIENT_ID"
	envGoogleClientSecret = "GOOGLE_CLIENT_SECRET"
	envDexIssuerURL       = "DEX_ISSUER_URL"
	envDexClientID        = "DEX_CLIENT_ID"
	envDexClientSecret    = "DEX_CLIENT_SECRET"
	envDexConnectorID     = "DEX_CONNECTOR_ID"
	envRegistrationToken  = "OAUTH_REGISTRATION_TOKEN"
)

// envValueTrue is the string value used to enable boolean environment variables.
const envValueTrue = "true"

// shutdownTimeout bounds graceful shutdown of HTTP listeners.
const shutdownTimeout = 30 * time.Second

// ServeConfig holds all configuration for the serve command.
type ServeConfig struct {
	// Transport settings
	Transport string
	HTTPAddr  string

	// Endpoint paths
	SSEEndpoint     string
	MessageEndpoint string
	HTTPEndpoint    string

	// Apstra connection
	Apstra ApstraServeConfig

	// ReadOnly leaves apply_system_golden_config out of the tool list.
	ReadOnly bool

	// Logging
	DebugMode bool
	LogFormat string

	// HTTP hardening
	AllowedOrigins string
	EnableHSTS     bool

	Metrics MetricsServeConfig

	// OAuth guards the HTTP transports. Apstra still uses the static token.
	OAuth OAuthServeConfig
}

// OAuthServeConfig holds the OAuth 2.1 settings for the HTTP transports.
type OAuthServeConfig struct {
	Enabled            bool
	BaseURL            string
	Provider           string
	GoogleClientID     string
	GoogleClientSecret string
	DexIssuerURL       string
	DexClientID        string
	DexClientSecret    string
	DexConnectorID     string

	RegistrationToken       string
	AllowPublicRegistration bool
	MaxClientsPerIP         int
}

// ApstraServeConfig holds the controller address, credentials and client
// tuning.
type ApstraServeConfig struct {
	BaseURL            string
	Token              string
	InsecureSkipVerify bool
	Timeout            time.Duration
	QPSLimit           float64
	BurstLimit         int
}

// MetricsServeConfig configures the dedicated metrics listener used by the
// HTTP transports.
type MetricsServeConfig struct {
	Enabled bool
	Addr    string
}

// loadEnvIfEmpty loads an environment variable into a string pointer if it's empty.
func loadEnvIfEmpty(target *string, envKey string) {
	if *target == "" {
		*target = os.Getenv(envKey)
	}
}

// loadEnv fills unset values from the environment.
func (c *ServeConfig) loadEnv() {
	loadEnvIfEmpty(&c.Apstra.BaseURL, envBaseURL)
	loadEnvIfEmpty(&c.Apstra.Token, envAPIToken)
	loadEnvIfEmpty(&c.AllowedOrigins, envAllowedOrigins)
	if os.Getenv(envEnableHSTS) == envValueTrue {
		c.EnableHSTS = true
	}

	if c.OAuth.Enabled {
		loadEnvIfEmpty(&c.OAuth.GoogleClientID, envGoogleClientID)
		loadEnvIfEmpty(&c.OAuth.GoogleClientSecret, envGoogleClientSecret)
		loadEnvIfEmpty(&c.OAuth.DexIssuerURL, envDexIssuerURL)
		loadEnvIfEmpty(&c.OAuth.DexClientID, envDexClientID)
		loadEnvIfEmpty(&c.OAuth.DexClientSecret, envDexClientSecret)
		loadEnvIfEmpty(&c.OAuth.DexConnectorID, envDexConnectorID)
		loadEnvIfEmpty(&c.OAuth.RegistrationToken, envRegistrationToken)
	}
}

// Validate checks everything that can be checked before touching the
// network. Credential parsing is left to apstra.NewCredentials.
func (c *ServeConfig) Validate() error {
	switch c.Transport {
	case transportStdio, transportSSE, transportStreamableHTTP:
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, sse, streamable-http)", c.Transport)
	}

	if strings.TrimSpace(c.Apstra.BaseURL) == "" {
		return fmt.Errorf("apstra base URL is required (--apstra-url or %s)", envBaseURL)
	}
	if strings.TrimSpace(c.Apstra.Token) == "" {
		return fmt.Errorf("apstra API token is required (--apstra-token or %s)", envAPIToken)
	}
	if c.Apstra.Timeout < 0 {
		return fmt.Errorf("request timeout must not be negative (got %s)", c.Apstra.Timeout)
	}
	if c.Apstra.QPSLimit < 0 {
		return fmt.Errorf("qps limit must not be negative (got %g)", c.Apstra.QPSLimit)
	}
	if c.Apstra.BurstLimit < 0 {
		return fmt.Errorf("burst limit must not be negative (got %d)", c.Apstra.BurstLimit)
	}

	if _, err := logging.New(logging.Options{Format: c.LogFormat}); err != nil {
		return err
	}

	if c.Transport != transportStdio {
		if c.HTTPAddr == "" {
			return fmt.Errorf("--http-addr is required for the %s transport", c.Transport)
		}
		if _, err := middleware.ValidateAllowedOrigins(c.AllowedOrigins); err != nil {
			return fmt.Errorf("invalid allowed origins: %w", err)
		}
	}

	return c.OAuth.validate(c.Transport)
}

// validate checks the OAuth settings. Provider credentials are only
// required for the selected provider.
func (o *OAuthServeConfig) validate(transport string) error {
	if !o.Enabled {
		return nil
	}
	if transport == transportStdio {
		return fmt.Errorf("--enable-oauth requires an HTTP transport (sse or streamable-http)")
	}
	if o.BaseURL == "" {
		return fmt.Errorf("--oauth-base-url is required when OAuth is enabled")
	}

	switch o.Provider {
	case oauth.ProviderDex:
		if o.DexIssuerURL == "" {
			return fmt.Errorf("dex issuer URL is required (--dex-issuer-url or %s)", envDexIssuerURL)
		}
		if o.DexClientID == "" || o.DexClientSecret == "" {
			return fmt.Errorf("dex client ID and secret are required (%s, %s)", envDexClientID, envDexClientSecret)
		}
	case oauth.ProviderGoogle:
		if o.GoogleClientID == "" || o.GoogleClientSecret == "" {
			return fmt.Errorf("google client ID and secret are required (%s, %s)", envGoogleClientID, envGoogleClientSecret)
		}
	default:
		return fmt.Errorf("unsupported OAuth provider: %s (supported: %s, %s)", o.Provider, oauth.ProviderDex, oauth.ProviderGoogle)
	}

	if !o.AllowPublicRegistration && o.RegistrationToken == "" {
		return fmt.Errorf("--registration-token (or %s) is required unless --allow-public-registration is set", envRegistrationToken)
	}
	if o.MaxClientsPerIP < 0 {
		return fmt.Errorf("max clients per IP must not be negative (got %d)", o.MaxClientsPerIP)
	}
	return nil
}

// serverConfig maps the flags onto the OAuth HTTP server settings.
func (o *OAuthServeConfig) serverConfig(logger *slog.Logger) server.OAuthConfig {
	return server.OAuthConfig{
		BaseURL:                       o.BaseURL,
		Provider:                      o.Provider,
		GoogleClientID:                o.GoogleClientID,
		GoogleClientSecret:            o.GoogleClientSecret,
		DexIssuerURL:                  o.DexIssuerURL,
		DexClientID:                   o.DexClientID,
		DexClientSecret:               o.DexClientSecret,
		DexConnectorID:                o.DexConnectorID,
		AllowPublicClientRegistration: o.AllowPublicRegistration,
		RegistrationAccessToken:       o.RegistrationToken,
		MaxClientsPerIP:               o.MaxClientsPerIP,
		Logger:                        logger,
	}
}

// logLevel returns the slog level name for the configured verbosity.
func (c *ServeConfig) logLevel() string {
	if c.DebugMode {
		return "debug"
	}
	return "info"
}
