package server

import (
	"errors"

	"github.com/giantswarm/mcp-apstra/internal/apstra"
	"github.com/giantswarm/mcp-apstra/internal/instrumentation"
	"github.com/giantswarm/mcp-apstra/internal/logging"
)

// Option configures a ServerContext. Options run in order and the first
// error aborts NewServerContext.
type Option func(*ServerContext) error

// WithApstraClient sets the client every tool call goes through.
func WithApstraClient(client apstra.Requester) Option {
	return func(sc *ServerContext) error {
		if client == nil {
			return ErrMissingApstraClient
		}
		sc.apstraClient = client
		return nil
	}
}

// WithCredentials records the credentials the client was built with.
// They are only used for diagnostics; the client already carries them.
func WithCredentials(creds *apstra.Credentials) Option {
	return func(sc *ServerContext) error {
		sc.credentials = creds
		return nil
	}
}

// WithLogger replaces the default slog-backed logger.
func WithLogger(logger Logger) Option {
	return func(sc *ServerContext) error {
		if logger == nil {
			return ErrMissingLogger
		}
		sc.logger = logger
		return nil
	}
}

// WithConfig installs a copy of config.
func WithConfig(config *Config) Option {
	return func(sc *ServerContext) error {
		if config == nil {
			return ErrMissingConfig
		}
		sc.config = config.Clone()
		return nil
	}
}

// configOption mutates the Config, creating a default one when no WithConfig
// option ran before it.
func configOption(set func(*Config)) Option {
	return func(sc *ServerContext) error {
		if sc.config == nil {
			sc.config = NewDefaultConfig()
		}
		set(sc.config)
		return nil
	}
}

// WithServerName overrides the MCP server name.
func WithServerName(name string) Option {
	return configOption(func(c *Config) { c.ServerName = name })
}

// WithVersion sets the version reported to MCP clients and health probes.
func WithVersion(version string) Option {
	return configOption(func(c *Config) { c.Version = version })
}

// WithReadOnly hides the golden-config tool when enabled.
func WithReadOnly(enabled bool) Option {
	return configOption(func(c *Config) { c.ReadOnly = enabled })
}

// WithLogLevel records the configured log level.
func WithLogLevel(level string) Option {
	return configOption(func(c *Config) { c.LogLevel = level })
}

// WithInstrumentationProvider attaches the metrics and tracing provider. A nil
// provider leaves instrumentation off.
func WithInstrumentationProvider(provider *instrumentation.Provider) Option {
	return func(sc *ServerContext) error {
		sc.instrumentationProvider = provider
		return nil
	}
}

var (
	ErrMissingApstraClient = errors.New("apstra client is required")
	ErrMissingLogger       = errors.New("logger is required")
	ErrMissingConfig       = errors.New("configuration is required")
	ErrServerShutdown      = errors.New("server context has been shutdown")
)

// NewDefaultLogger returns a Logger backed by slog.Default().
func NewDefaultLogger() Logger {
	return logging.DefaultLogger()
}
