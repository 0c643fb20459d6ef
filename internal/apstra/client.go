package apstra

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-cleanhttp"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/giantswarm/mcp-apstra/internal/instrumentation"
	"github.com/giantswarm/mcp-apstra/internal/logging"
)

// Default client settings.
const (
	DefaultTimeout    = 30 * time.Second
	DefaultQPSLimit   = 20.0
	DefaultBurstLimit = 30

	// maxResponseBytes caps successful response bodies.
	maxResponseBytes = 32 << 20

	// maxErrorBodyBytes caps how much of an error body is read for message
	// extraction.
	maxErrorBodyBytes = 64 << 10
)

// Requester is the single operation tool handlers depend on. *Client
// implements it; tests substitute a fake.
type Requester interface {
	// Request performs one HTTP call against the Apstra API and returns the
	// decoded-as-raw-JSON body on 2xx, or a classified *Error.
	Request(ctx context.Context, method, path string, query url.Values, body any) (*Response, error)
}

// Response is a successful Apstra response.
type Response struct {
	// StatusCode is the 2xx status returned by Apstra.
	StatusCode int

	// Body is the response body. It is always valid, non-empty JSON.
	Body json.RawMessage

	// RequestID is the X-Request-ID sent with the request.
	RequestID string
}

// ClientConfig holds the configuration for creating an Apstra client.
type ClientConfig struct {
	// Timeout bounds each request end to end (default: 30s).
	Timeout time.Duration

	// QPSLimit and BurstLimit configure the client-side rate limiter.
	QPSLimit   float64
	BurstLimit int

	// InsecureSkipVerify disables TLS certificate verification. Lab
	// controllers commonly run with self-signed certificates.
	InsecureSkipVerify bool

	// UserAgent is sent on every request (default: mcp-apstra).
	UserAgent string

	// Logger is used for per-request debug logging.
	Logger logging.Logger

	// Metrics records upstream request counters when instrumentation is on.
	Metrics *instrumentation.Metrics

	// Transport overrides the base HTTP transport. The oauth2 transport is
	// always layered on top so the token is attached.
	Transport http.RoundTripper
}

// Client is a thread-safe Apstra API client.
type Client struct {
	creds      *Credentials
	httpClient *http.Client
	limiter    *rate.Limiter
	timeout    time.Duration
	userAgent  string
	logger     logging.Logger
	metrics    *instrumentation.Metrics
}

// NewClient creates an Apstra client for the given credentials.
func NewClient(creds *Credentials, config ClientConfig) (*Client, error) {
	if creds == nil {
		return nil, fmt.Errorf("%w: credentials are required", ErrInvalidConfiguration)
	}

	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.QPSLimit <= 0 {
		config.QPSLimit = DefaultQPSLimit
	}
	if config.BurstLimit <= 0 {
		config.BurstLimit = DefaultBurstLimit
	}
	if config.UserAgent == "" {
		config.UserAgent = "mcp-apstra"
	}
	if config.Logger == nil {
		config.Logger = logging.DefaultLogger()
	}

	base := config.Transport
	if base == nil {
		pooled := cleanhttp.DefaultPooledTransport()
		if config.InsecureSkipVerify {
			pooled.TLSClientConfig = &tls.Config{
				InsecureSkipVerify: true, //nolint:gosec // Opt-in for self-signed lab controllers
				MinVersion:         tls.VersionTLS12,
			}
		}
		base = pooled
	}

	return &Client{
		creds: creds,
		httpClient: &http.Client{
			Transport: &oauth2.Transport{
				Source: creds.TokenSource(),
				Base:   base,
			},
			// Backstop for bodies that stall after headers arrive.
			Timeout: config.Timeout,
			// Redirects are never followed: oauth2.Transport would resend the
			// token to the new host and a POST would be replayed as a GET.
			// The 3xx response is classified like any other non-2xx status.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		limiter:   rate.NewLimiter(rate.Limit(config.QPSLimit), config.BurstLimit),
		timeout:   config.Timeout,
		userAgent: config.UserAgent,
		logger:    config.Logger,
		metrics:   config.Metrics,
	}, nil
}

// Credentials returns the credentials the client was built with.
func (c *Client) Credentials() *Credentials {
	return c.creds
}

// Timeout returns the per-request timeout after defaults were applied.
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// Request implements Requester.
func (c *Client) Request(ctx context.Context, method, path string, query url.Values, body any) (*Response, error) {
	method = strings.ToUpper(method)
	if err := validateRequest(method, path); err != nil {
		return nil, err
	}

	route := instrumentation.NormalizeAPIPath(path)
	ctx, span := instrumentation.StartAPISpan(ctx, method, route)
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	requestID := uuid.NewString()
	span.SetAttributes(attribute.String(instrumentation.SpanAttrRequestID, requestID))

	start := time.Now()
	resp, err := c.do(ctx, method, path, query, body, requestID)
	duration := time.Since(start)

	statusCode := 0
	if resp != nil {
		statusCode = resp.StatusCode
	} else if apiErr, ok := AsError(err); ok {
		statusCode = apiErr.StatusCode
	}
	if statusCode != 0 {
		span.SetAttributes(attribute.Int(instrumentation.SpanAttrHTTPStatus, statusCode))
	}

	if c.metrics != nil {
		c.metrics.RecordAPIRequest(ctx, method, route, statusCode, duration)
	}

	logArgs := []any{
		logging.Method(method),
		logging.Path(path),
		logging.StatusCode(statusCode),
		logging.Duration(duration),
		logging.RequestID(requestID),
	}
	if err != nil {
		instrumentation.SetSpanError(span, err)
		if apiErr, ok := AsError(err); ok {
			logArgs = append(logArgs, logging.ErrorKind(string(apiErr.Kind)))
		}
		logArgs = append(logArgs, logging.SanitizedErr(err))
		c.logger.Debug("Apstra request failed", logArgs...)
		return nil, err
	}

	instrumentation.SetSpanSuccess(span)
	c.logger.Debug("Apstra request completed", logArgs...)
	return resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, requestID string) (*Response, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, NewValidationError("request body is not JSON-serializable: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, newConnectionError(ctx, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.creds.resolve(path, query), reader)
	if err != nil {
		return nil, NewValidationError("could not build request: %v", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, newConnectionError(ctx, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, newStatusError(resp.StatusCode, errBody)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, newConnectionError(ctx, fmt.Errorf("reading response body: %w", err))
	}
	if len(data) > maxResponseBytes {
		return nil, NewUnexpectedResponseError(resp.StatusCode, "response body exceeds %d bytes", maxResponseBytes)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, NewUnexpectedResponseError(resp.StatusCode, "empty response body")
	}
	if !json.Valid(data) {
		return nil, NewUnexpectedResponseError(resp.StatusCode, "response body is not valid JSON")
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       json.RawMessage(data),
		RequestID:  requestID,
	}, nil
}

// allowedMethods lists the HTTP methods the client issues.
var allowedMethods = map[string]bool{
	http.MethodGet:  true,
	http.MethodPost: true,
	http.MethodPut:  true,
}

func validateRequest(method, path string) error {
	if !allowedMethods[method] {
		return NewValidationError("unsupported HTTP method %q", method)
	}
	if !strings.HasPrefix(path, apiPrefix) {
		return NewValidationError("path %q must start with %s", path, apiPrefix)
	}
	if strings.Contains(path, "?") || strings.Contains(path, "#") {
		return NewValidationError("path must not contain a query or fragment; pass query parameters separately")
	}
	return nil
}

// Get is a convenience wrapper for GET requests.
func Get(ctx context.Context, r Requester, path string, query url.Values) (*Response, error) {
	return r.Request(ctx, http.MethodGet, path, query, nil)
}
