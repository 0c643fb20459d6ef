package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"

	"github.com/giantswarm/mcp-apstra/internal/instrumentation"
	"github.com/giantswarm/mcp-apstra/internal/logging"
	"github.com/giantswarm/mcp-apstra/internal/server"
	"github.com/giantswarm/mcp-apstra/internal/server/middleware"
)

// runStreamableHTTPServer runs the server with Streamable HTTP transport.
func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, config ServeConfig, provider *instrumentation.Provider, sc *server.ServerContext) error {
	mcpHandler := mcpserver.NewStreamableHTTPServer(mcpSrv,
		mcpserver.WithEndpointPath(config.HTTPEndpoint),
	)

	oauthServer, err := newOAuthServer(config)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle(config.HTTPEndpoint, protect(oauthServer, mcpHandler))
	if oauthServer != nil {
		oauthServer.RegisterRoutes(mux)
	}
	health := server.NewHealthChecker(sc)
	health.RegisterHealthEndpoints(mux)

	sc.Logger().Info("streamable HTTP server starting",
		"addr", config.HTTPAddr,
		"endpoint", config.HTTPEndpoint,
		"oauth", oauthServer != nil,
		"health_endpoints", []string{"/healthz", "/readyz", "/healthz/detailed"})

	return serveHTTP(ctx, mux, config, provider, sc, health, func(ctx context.Context) error {
		oauthServer.Shutdown()
		return mcpHandler.Shutdown(ctx)
	})
}

// newOAuthServer returns nil when OAuth is disabled.
func newOAuthServer(config ServeConfig) (*server.OAuthHTTPServer, error) {
	if !config.OAuth.Enabled {
		return nil, nil
	}
	oauthServer, err := server.NewOAuthHTTPServer(config.OAuth.serverConfig(slog.Default()))
	if err != nil {
		return nil, fmt.Errorf("failed to set up OAuth: %w", err)
	}
	return oauthServer, nil
}

// protect puts handler behind bearer token validation when OAuth is on.
func protect(oauthServer *server.OAuthHTTPServer, handler http.Handler) http.Handler {
	if oauthServer == nil {
		return handler
	}
	return oauthServer.Protect(handler)
}

// buildHTTPHandler wraps mux in the middleware chain shared by the HTTP
// transports. The outermost middleware runs first.
func buildHTTPHandler(mux http.Handler, config ServeConfig, provider *instrumentation.Provider, logger logging.Logger) (http.Handler, error) {
	origins, err := middleware.ValidateAllowedOrigins(config.AllowedOrigins)
	if err != nil {
		return nil, fmt.Errorf("invalid allowed origins: %w", err)
	}

	handler := mux
	handler = middleware.MaxRequestSize(middleware.DefaultMaxRequestBytes)(handler)
	handler = middleware.CORS(origins)(handler)
	handler = middleware.SecurityHeaders(middleware.SecurityHeadersConfig{EnableHSTS: config.EnableHSTS})(handler)
	handler = middleware.RequestLogging(logger)(handler)
	handler = middleware.HTTPMetrics(provider)(handler)
	return handler, nil
}

// serveHTTP runs the MCP listener and, when enabled, the metrics listener
// until ctx is cancelled or either listener fails. On shutdown readiness
// goes false first, then shutdownTransport closes transport sessions before
// the listener is shut down.
func serveHTTP(ctx context.Context, mux http.Handler, config ServeConfig, provider *instrumentation.Provider, sc *server.ServerContext, health *server.HealthChecker, shutdownTransport func(context.Context) error) error {
	logger := sc.Logger()

	handler, err := buildHTTPHandler(mux, config, provider, logger)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              config.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	var metricsServer *server.MetricsServer
	if config.Metrics.Enabled && provider != nil && provider.Enabled() {
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    config.Metrics.Addr,
			InstrumentationProvider: provider,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
		return nil
	})

	if metricsServer != nil {
		g.Go(func() error {
			logger.Info("metrics server started", "addr", metricsServer.Addr(), "endpoint", provider.Config().PrometheusEndpoint)
			if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server stopped with error: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		if health != nil {
			health.SetReady(false)
		}
		logger.Info("shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs []error
		if shutdownTransport != nil {
			if err := shutdownTransport(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("error shutting down transport: %w", err))
			}
		}
		if metricsServer != nil {
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("error shutting down metrics server: %w", err))
			}
		}
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("error shutting down HTTP server: %w", err))
		}
		return errors.Join(errs...)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("HTTP server gracefully stopped")
	return nil
}
