package oauth

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	mcpoauth "github.com/giantswarm/mcp-oauth"
	"github.com/giantswarm/mcp-oauth/providers"
	"github.com/giantswarm/mcp-oauth/providers/dex"
	"github.com/giantswarm/mcp-oauth/providers/google"
	oauthserver "github.com/giantswarm/mcp-oauth/server"
	"github.com/giantswarm/mcp-oauth/storage/memory"
)

// Identity providers.
const (
	ProviderDex    = "dex"
	ProviderGoogle = "google"
)

// CallbackPath is where the identity provider redirects after login.
const CallbackPath = "/oauth/callback"

// DefaultMaxClientsPerIP caps dynamic client registrations per address.
const DefaultMaxClientsPerIP = 10

// ErrUnsupportedProvider is returned for a provider other than dex or google.
var ErrUnsupportedProvider = errors.New("unsupported OAuth provider")

// Config configures the authorization server.
type Config struct {
	// BaseURL is the public URL of this server; it becomes the issuer.
	BaseURL string

	// Provider is ProviderDex or ProviderGoogle.
	Provider string

	GoogleClientID     string
	GoogleClientSecret string

	DexIssuerURL    string
	DexClientID     string
	DexClientSecret string
	DexConnectorID  string

	Security SecurityConfig

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// SecurityConfig holds the client registration policy.
type SecurityConfig struct {
	// AllowPublicClientRegistration lets any client register without
	// RegistrationAccessToken.
	AllowPublicClientRegistration bool
	RegistrationAccessToken       string
	MaxClientsPerIP               int
}

// Handler owns the library handler and its store.
type Handler struct {
	handler *mcpoauth.Handler
	store   *memory.Store
}

// NewHandler builds the authorization server for config.
func NewHandler(config *Config) (*Handler, error) {
	if config == nil {
		return nil, errors.New("oauth config is required")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	provider, err := newProvider(config)
	if err != nil {
		return nil, err
	}

	maxClients := config.Security.MaxClientsPerIP
	if maxClients <= 0 {
		maxClients = DefaultMaxClientsPerIP
	}

	store := memory.New()
	srv, err := oauthserver.New(provider, store, store, store, &oauthserver.Config{
		Issuer:                        config.BaseURL,
		AllowPublicClientRegistration: config.Security.AllowPublicClientRegistration,
		RegistrationAccessToken:       config.Security.RegistrationAccessToken,
		MaxClientsPerIP:               maxClients,
	}, logger)
	if err != nil {
		store.Stop()
		return nil, fmt.Errorf("failed to create OAuth server: %w", err)
	}

	return &Handler{
		handler: mcpoauth.NewHandler(srv, logger),
		store:   store,
	}, nil
}

// GetHandler returns the library handler that serves the OAuth endpoints.
func (h *Handler) GetHandler() *mcpoauth.Handler {
	return h.handler
}

// Stop releases the store's background cleanup.
func (h *Handler) Stop() {
	if h != nil && h.store != nil {
		h.store.Stop()
	}
}

func newProvider(config *Config) (providers.Provider, error) {
	redirectURL := strings.TrimSuffix(config.BaseURL, "/") + CallbackPath

	switch config.Provider {
	case ProviderGoogle:
		provider, err := google.NewProvider(&google.Config{
			ClientID:     config.GoogleClientID,
			ClientSecret: config.GoogleClientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Google provider: %w", err)
		}
		return provider, nil
	case ProviderDex:
		provider, err := dex.NewProvider(&dex.Config{
			IssuerURL:    config.DexIssuerURL,
			ClientID:     config.DexClientID,
			ClientSecret: config.DexClientSecret,
			ConnectorID:  config.DexConnectorID,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile", "groups", "offline_access"},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Dex provider: %w", err)
		}
		return provider, nil
	default:
		return nil, fmt.Errorf("%w: %q (supported: %s, %s)", ErrUnsupportedProvider, config.Provider, ProviderDex, ProviderGoogle)
	}
}
