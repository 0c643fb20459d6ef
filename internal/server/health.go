package server

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/giantswarm/mcp-apstra/internal/logging"
)

const (
	statusOK       = "ok"
	statusNotReady = "not ready"
)

// HealthChecker serves the liveness and readiness probes of the HTTP
// transports. Apstra itself is never probed: an unreachable controller
// surfaces as a ConnectionError on the next tool call instead of taking the
// server out of rotation.
type HealthChecker struct {
	ready         atomic.Bool
	serverContext *ServerContext
	startTime     time.Time
}

// NewHealthChecker creates a HealthChecker that starts out ready.
func NewHealthChecker(sc *ServerContext) *HealthChecker {
	h := &HealthChecker{serverContext: sc, startTime: time.Now()}
	h.ready.Store(true)
	return h
}

// SetReady flips the readiness state.
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports the readiness state.
func (h *HealthChecker) IsReady() bool {
	return h.ready.Load()
}

// HealthResponse is the body of /healthz and /readyz.
type HealthResponse struct {
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks,omitempty"`
	Version string            `json:"version,omitempty"`
}

// DetailedHealthResponse is the body of /healthz/detailed.
type DetailedHealthResponse struct {
	Status          string                      `json:"status"`
	Mode            string                      `json:"mode"`
	Version         string                      `json:"version,omitempty"`
	Uptime          string                      `json:"uptime"`
	Apstra          *ApstraStatus               `json:"apstra,omitempty"`
	Instrumentation *InstrumentationHealthCheck `json:"instrumentation,omitempty"`
}

// ApstraStatus describes the configured upstream controller. The base URL
// has IP addresses redacted.
type ApstraStatus struct {
	Configured bool   `json:"configured"`
	BaseURL    string `json:"base_url,omitempty"`
}

// InstrumentationHealthCheck reports which exporters are active.
type InstrumentationHealthCheck struct {
	Enabled         bool   `json:"enabled"`
	MetricsExporter string `json:"metrics_exporter,omitempty"`
	TracingExporter string `json:"tracing_exporter,omitempty"`
}

// RegisterHealthEndpoints mounts /healthz, /readyz and /healthz/detailed.
func (h *HealthChecker) RegisterHealthEndpoints(mux *http.ServeMux) {
	mux.Handle("/healthz", h.LivenessHandler())
	mux.Handle("/readyz", h.ReadinessHandler())
	mux.Handle("/healthz/detailed", h.DetailedHealthHandler())
}

// LivenessHandler always answers 200 while the process is serving.
func (h *HealthChecker) LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, HealthResponse{Status: statusOK, Version: h.version()})
	})
}

// ReadinessHandler answers 503 when the checker is marked not ready, the
// server is shutting down, or no Apstra client is configured.
func (h *HealthChecker) ReadinessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		checks, ok := h.readinessChecks()
		if !ok {
			writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: statusNotReady, Checks: checks})
			return
		}
		writeJSON(w, http.StatusOK, HealthResponse{Status: statusOK, Checks: checks})
	})
}

// DetailedHealthHandler reports mode, uptime, upstream and instrumentation
// state for operators.
func (h *HealthChecker) DetailedHealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response := DetailedHealthResponse{
			Status:  statusOK,
			Mode:    h.determineMode(),
			Version: h.version(),
			Uptime:  time.Since(h.startTime).Truncate(time.Second).String(),
		}
		if sc := h.serverContext; sc != nil {
			response.Apstra = apstraStatus(sc)
			response.Instrumentation = instrumentationStatus(sc)
		}

		code := http.StatusOK
		switch {
		case !h.IsReady():
			response.Status = statusNotReady
			code = http.StatusServiceUnavailable
		case h.shuttingDown():
			response.Status = "shutting down"
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, response)
	})
}

func (h *HealthChecker) readinessChecks() (map[string]string, bool) {
	checks := map[string]string{"ready": statusOK, "shutdown": statusOK}
	ok := true

	if !h.IsReady() {
		checks["ready"] = statusNotReady
		ok = false
	}
	if h.shuttingDown() {
		checks["shutdown"] = "shutting down"
		ok = false
	}

	sc := h.serverContext
	if sc == nil {
		return checks, ok
	}
	if sc.ApstraClient() == nil {
		checks["apstra"] = "missing"
		ok = false
	} else {
		checks["apstra"] = "configured"
	}
	if provider := sc.InstrumentationProvider(); provider != nil {
		checks["instrumentation"] = "disabled"
		if provider.Enabled() {
			checks["instrumentation"] = statusOK
		}
	}
	return checks, ok
}

func (h *HealthChecker) shuttingDown() bool {
	return h.serverContext != nil && h.serverContext.IsShutdown()
}

func (h *HealthChecker) version() string {
	if h.serverContext == nil || h.serverContext.Config() == nil {
		return ""
	}
	return h.serverContext.Config().Version
}

func (h *HealthChecker) determineMode() string {
	switch {
	case h.serverContext == nil:
		return "unknown"
	case h.serverContext.ReadOnly():
		return "read-only"
	default:
		return "read-write"
	}
}

func apstraStatus(sc *ServerContext) *ApstraStatus {
	status := &ApstraStatus{Configured: sc.ApstraClient() != nil}
	if creds := sc.Credentials(); creds != nil {
		status.BaseURL = logging.SanitizeHost(creds.BaseURL())
	}
	return status
}

func instrumentationStatus(sc *ServerContext) *InstrumentationHealthCheck {
	provider := sc.InstrumentationProvider()
	if provider == nil || !provider.Enabled() {
		return &InstrumentationHealthCheck{}
	}
	return &InstrumentationHealthCheck{
		Enabled:         true,
		MetricsExporter: provider.Config().MetricsExporter,
		TracingExporter: provider.Config().TracingExporter,
	}
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
