package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validServeConfig() ServeConfig {
	return ServeConfig{
		Transport: transportStdio,
		HTTPAddr:  ":8080",
		LogFormat: "text",
		Apstra: ApstraServeConfig{
			BaseURL:    "https://apstra.example.com",
			Token:      "token",
			Timeout:    30 * time.Second,
			QPSLimit:   20,
			BurstLimit: 30,
		},
	}
}

func googleOAuthConfig() OAuthServeConfig {
	return OAuthServeConfig{
		Enabled:            true,
		BaseURL:            "https://mcp-apstra.example.com",
		Provider:           "google",
		GoogleClientID:     "client-id",
		GoogleClientSecret: "client-secret",
		RegistrationToken:  "reg-token",
		MaxClientsPerIP:    10,
	}
}

func TestServeConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *ServeConfig)
		wantErr string
	}{
		{name: "valid stdio", mutate: func(c *ServeConfig) {}},
		{name: "valid sse", mutate: func(c *ServeConfig) { c.Transport = transportSSE }},
		{name: "valid streamable-http with origins", mutate: func(c *ServeConfig) {
			c.Transport = transportStreamableHTTP
			c.AllowedOrigins = "https://a.example.com, http://localhost:3000"
		}},
		{name: "json logs", mutate: func(c *ServeConfig) { c.LogFormat = "json" }},
		{name: "invalid transport", mutate: func(c *ServeConfig) { c.Transport = "websocket" }, wantErr: "unsupported transport type"},
		{name: "empty transport", mutate: func(c *ServeConfig) { c.Transport = "" }, wantErr: "unsupported transport type"},
		{name: "missing base URL", mutate: func(c *ServeConfig) { c.Apstra.BaseURL = " " }, wantErr: "apstra base URL is required"},
		{name: "missing token", mutate: func(c *ServeConfig) { c.Apstra.Token = "" }, wantErr: "apstra API token is required"},
		{name: "negative timeout", mutate: func(c *ServeConfig) { c.Apstra.Timeout = -time.Second }, wantErr: "timeout"},
		{name: "negative qps", mutate: func(c *ServeConfig) { c.Apstra.QPSLimit = -1 }, wantErr: "qps limit"},
		{name: "negative burst", mutate: func(c *ServeConfig) { c.Apstra.BurstLimit = -1 }, wantErr: "burst limit"},
		{name: "unknown log format", mutate: func(c *ServeConfig) { c.LogFormat = "xml" }, wantErr: "unsupported log format"},
		{name: "http without address", mutate: func(c *ServeConfig) {
			c.Transport = transportStreamableHTTP
			c.HTTPAddr = ""
		}, wantErr: "--http-addr is required"},
		{name: "bad origin", mutate: func(c *ServeConfig) {
			c.Transport = transportSSE
			c.AllowedOrigins = "https://a.example.com/path"
		}, wantErr: "invalid allowed origins"},
		{name: "origins ignored for stdio", mutate: func(c *ServeConfig) { c.AllowedOrigins = "not a url" }},
		{name: "oauth google", mutate: func(c *ServeConfig) {
			c.Transport = transportStreamableHTTP
			c.OAuth = googleOAuthConfig()
		}},
		{name: "oauth dex", mutate: func(c *ServeConfig) {
			c.Transport = transportSSE
			c.OAuth = OAuthServeConfig{Enabled: true, BaseURL: "https://mcp-apstra.example.com", Provider: "dex",
				DexIssuerURL: "https://dex.example.com", DexClientID: "id", DexClientSecret: "secret", AllowPublicRegistration: true}
		}},
		{name: "oauth on stdio", mutate: func(c *ServeConfig) { c.OAuth = googleOAuthConfig() }, wantErr: "requires an HTTP transport"},
		{name: "oauth without base URL", mutate: func(c *ServeConfig) {
			c.Transport = transportStreamableHTTP
			c.OAuth = googleOAuthConfig()
			c.OAuth.BaseURL = ""
		}, wantErr: "--oauth-base-url is required"},
		{name: "oauth google without secret", mutate: func(c *ServeConfig) {
			c.Transport = transportStreamableHTTP
			c.OAuth = googleOAuthConfig()
			c.OAuth.GoogleClientSecret = ""
		}, wantErr: "google client ID and secret"},
		{name: "oauth dex without issuer", mutate: func(c *ServeConfig) {
			c.Transport = transportStreamableHTTP
			c.OAuth = googleOAuthConfig()
			c.OAuth.Provider = "dex"
		}, wantErr: "dex issuer URL"},
		{name: "oauth unknown provider", mutate: func(c *ServeConfig) {
			c.Transport = transportStreamableHTTP
			c.OAuth = googleOAuthConfig()
			c.OAuth.Provider = "github"
		}, wantErr: "unsupported OAuth provider"},
		{name: "oauth without registration token", mutate: func(c *ServeConfig) {
			c.Transport = transportStreamableHTTP
			c.OAuth = googleOAuthConfig()
			c.OAuth.RegistrationToken = ""
		}, wantErr: "--registration-token"},
		{name: "oauth settings ignored when disabled", mutate: func(c *ServeConfig) {
			c.OAuth = OAuthServeConfig{Provider: "github"}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := validServeConfig()
			tt.mutate(&config)

			err := config.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestServeConfigLoadEnv(t *testing.T) {
	t.Setenv("APSTRA_BASE_URL", "https://env.example.com")
	t.Setenv("APSTRA_API_TOKEN", "env-token")
	t.Setenv("ALLOWED_ORIGINS", "https://ui.example.com")
	t.Setenv("ENABLE_HSTS", "true")

	t.Run("env fills empty values", func(t *testing.T) {
		var config ServeConfig
		config.loadEnv()

		assert.Equal(t, "https://env.example.com", config.Apstra.BaseURL)
		assert.Equal(t, "env-token", config.Apstra.Token)
		assert.Equal(t, "https://ui.example.com", config.AllowedOrigins)
		assert.True(t, config.EnableHSTS)
	})

	t.Run("oauth credentials only load when enabled", func(t *testing.T) {
		t.Setenv("GOOGLE_CLIENT_ID", "env-google-id")
		t.Setenv("DEX_ISSUER_URL", "https://dex.example.com")
		t.Setenv("OAUTH_REGISTRATION_TOKEN", "env-reg-token")

		var disabled ServeConfig
		disabled.loadEnv()
		assert.Empty(t, disabled.OAuth.GoogleClientID)

		enabled := ServeConfig{OAuth: OAuthServeConfig{Enabled: true}}
		enabled.loadEnv()
		assert.Equal(t, "env-google-id", enabled.OAuth.GoogleClientID)
		assert.Equal(t, "https://dex.example.com", enabled.OAuth.DexIssuerURL)
		assert.Equal(t, "env-reg-token", enabled.OAuth.RegistrationToken)
	})

	t.Run("flags take precedence", func(t *testing.T) {
		config := ServeConfig{Apstra: ApstraServeConfig{BaseURL: "https://flag.example.com", Token: "flag-token"}}
		config.loadEnv()

		assert.Equal(t, "https://flag.example.com", config.Apstra.BaseURL)
		assert.Equal(t, "flag-token", config.Apstra.Token)
	})
}

func TestLoadEnvIfEmpty(t *testing.T) {
	t.Setenv("MCP_APSTRA_TEST_VALUE", "from-env")

	empty := ""
	loadEnvIfEmpty(&empty, "MCP_APSTRA_TEST_VALUE")
	assert.Equal(t, "from-env", empty)

	set := "from-flag"
	loadEnvIfEmpty(&set, "MCP_APSTRA_TEST_VALUE")
	assert.Equal(t, "from-flag", set)
}

func TestServeConfigLogLevel(t *testing.T) {
	config := validServeConfig()
	assert.Equal(t, "info", config.logLevel())

	config.DebugMode = true
	assert.Equal(t, "debug", config.logLevel())
}
