package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/giantswarm/mcp-apstra/internal/mcp/oauth"
)

// OAuthConfig configures OAuth 2.1 protection of the HTTP transports.
type OAuthConfig struct {
	BaseURL            string
	Provider           string
	GoogleClientID     string
	GoogleClientSecret string
	DexIssuerURL       string
	DexClientID        string
	DexClientSecret    string
	DexConnectorID     string

	AllowPublicClientRegistration bool   // Default: false (requires registration token)
	RegistrationAccessToken       string // Required if AllowPublicClientRegistration=false
	MaxClientsPerIP               int

	Logger *slog.Logger
}

// OAuthHTTPServer serves the OAuth endpoints and guards MCP handlers with
// bearer token validation.
type OAuthHTTPServer struct {
	oauthHandler *oauth.Handler
}

func buildOAuthConfig(config OAuthConfig) *oauth.Config {
	return &oauth.Config{
		BaseURL:            config.BaseURL,
		Provider:           config.Provider,
		GoogleClientID:     config.GoogleClientID,
		GoogleClientSecret: config.GoogleClientSecret,
		DexIssuerURL:       config.DexIssuerURL,
		DexClientID:        config.DexClientID,
		DexClientSecret:    config.DexClientSecret,
		DexConnectorID:     config.DexConnectorID,
		Security: oauth.SecurityConfig{
			AllowPublicClientRegistration: config.AllowPublicClientRegistration,
			RegistrationAccessToken:       config.RegistrationAccessToken,
			MaxClientsPerIP:               config.MaxClientsPerIP,
		},
		Logger: config.Logger,
	}
}

// NewOAuthHTTPServer validates config and creates the OAuth handler.
func NewOAuthHTTPServer(config OAuthConfig) (*OAuthHTTPServer, error) {
	if err := validateHTTPSRequirement(config.BaseURL); err != nil {
		return nil, err
	}
	if !config.AllowPublicClientRegistration && config.RegistrationAccessToken == "" {
		return nil, fmt.Errorf("a registration access token is required unless public client registration is allowed")
	}

	oauthHandler, err := oauth.NewHandler(buildOAuthConfig(config))
	if err != nil {
		return nil, fmt.Errorf("failed to create OAuth handler: %w", err)
	}
	return &OAuthHTTPServer{oauthHandler: oauthHandler}, nil
}

// RegisterRoutes mounts the OAuth 2.1 endpoints on mux.
func (s *OAuthHTTPServer) RegisterRoutes(mux *http.ServeMux) {
	libHandler := s.oauthHandler.GetHandler()

	// Protected Resource Metadata endpoint (RFC 9728)
	mux.HandleFunc("/.well-known/oauth-protected-resource", libHandler.ServeProtectedResourceMetadata)

	// Authorization Server Metadata endpoint (RFC 8414)
	mux.HandleFunc("/.well-known/oauth-authorization-server", libHandler.ServeAuthorizationServerMetadata)

	// Dynamic Client Registration endpoint (RFC 7591)
	mux.HandleFunc("/oauth/register", libHandler.ServeClientRegistration)

	mux.HandleFunc("/oauth/authorize", libHandler.ServeAuthorization)
	mux.HandleFunc("/oauth/token", libHandler.ServeToken)
	mux.HandleFunc(oauth.CallbackPath, libHandler.ServeCallback)

	// Token Revocation (RFC 7009) and Introspection (RFC 7662)
	mux.HandleFunc("/oauth/revoke", libHandler.ServeTokenRevocation)
	mux.HandleFunc("/oauth/introspect", libHandler.ServeTokenIntrospection)
}

// Protect rejects requests to next that carry no valid bearer token. The
// validated caller is put on the request context.
func (s *OAuthHTTPServer) Protect(next http.Handler) http.Handler {
	return s.oauthHandler.GetHandler().ValidateToken(next)
}

// Shutdown stops the OAuth handler's background services.
func (s *OAuthHTTPServer) Shutdown() {
	if s != nil {
		s.oauthHandler.Stop()
	}
}

// validateHTTPSRequirement ensures OAuth 2.1 HTTPS compliance.
// Allows HTTP only for loopback addresses (localhost, 127.0.0.1, ::1).
func validateHTTPSRequirement(baseURL string) error {
	if baseURL == "" {
		return fmt.Errorf("OAuth base URL cannot be empty")
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("invalid OAuth base URL: %w", err)
	}

	switch u.Scheme {
	case "https":
		return nil
	case "http":
		switch u.Hostname() {
		case "localhost", "127.0.0.1", "::1":
			return nil
		}
		return fmt.Errorf("OAuth 2.1 requires HTTPS (got: %s); use HTTPS or localhost for development", baseURL)
	default:
		return fmt.Errorf("invalid URL scheme: %s; must be http (localhost only) or https", u.Scheme)
	}
}
