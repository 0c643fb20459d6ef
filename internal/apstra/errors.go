package apstra

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strings"
)

// ErrorKind is the classification of a failed Apstra call. The string values
// are part of the tool result contract and must not change.
type ErrorKind string

// Error kinds produced by the client.
const (
	KindValidation         ErrorKind = "ValidationError"
	KindConnection         ErrorKind = "ConnectionError"
	KindAuthentication     ErrorKind = "AuthenticationError"
	KindNotFound           ErrorKind = "NotFoundError"
	KindServer             ErrorKind = "ServerError"
	KindUnexpectedResponse ErrorKind = "UnexpectedResponseError"
)

// Sentinel errors for each kind.
// These can be checked using errors.Is() against any *Error.
var (
	// ErrInvalidConfiguration indicates missing or malformed credentials.
	// It is returned at startup only and never reaches a tool result.
	ErrInvalidConfiguration = errors.New("invalid apstra configuration")

	// ErrValidation indicates the request was rejected before or by Apstra
	// because an argument was invalid (HTTP 400/422).
	ErrValidation = errors.New("invalid request")

	// ErrConnection indicates no HTTP response was received: DNS, TCP, TLS
	// failures, timeouts and cancellations all map here.
	ErrConnection = errors.New("apstra unreachable")

	// ErrAuthentication indicates Apstra rejected the token (HTTP 401/403).
	ErrAuthentication = errors.New("authentication failed")

	// ErrNotFound indicates the referenced resource does not exist (HTTP 404).
	ErrNotFound = errors.New("resource not found")

	// ErrServer indicates Apstra failed internally (HTTP 5xx).
	ErrServer = errors.New("apstra server error")

	// ErrUnexpectedResponse indicates a status or body the client cannot
	// interpret.
	ErrUnexpectedResponse = errors.New("unexpected response")
)

var kindSentinels = map[ErrorKind]error{
	KindValidation:         ErrValidation,
	KindConnection:         ErrConnection,
	KindAuthentication:     ErrAuthentication,
	KindNotFound:           ErrNotFound,
	KindServer:             ErrServer,
	KindUnexpectedResponse: ErrUnexpectedResponse,
}

// Error is a classified Apstra client failure.
type Error struct {
	// Kind is the error classification.
	Kind ErrorKind

	// StatusCode is the upstream HTTP status, or 0 when no response arrived.
	StatusCode int

	// Message is a human-readable description safe to return to the caller.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (HTTP %d)", e.StatusCode)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Unwrap exposes both the kind sentinel and the underlying cause so that
// errors.Is matches either.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if sentinel, ok := kindSentinels[e.Kind]; ok {
		errs = append(errs, sentinel)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// NewValidationError returns a ValidationError with a formatted message.
func NewValidationError(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NewUnexpectedResponseError returns an UnexpectedResponseError for a
// response that arrived with the given status but could not be interpreted.
func NewUnexpectedResponseError(statusCode int, format string, args ...any) *Error {
	return &Error{Kind: KindUnexpectedResponse, StatusCode: statusCode, Message: fmt.Sprintf(format, args...)}
}

// AsError extracts an *Error from err.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// KindForStatus maps a non-2xx HTTP status to an error kind.
func KindForStatus(statusCode int) ErrorKind {
	switch {
	case statusCode == http.StatusUnauthorized, statusCode == http.StatusForbidden:
		return KindAuthentication
	case statusCode == http.StatusNotFound:
		return KindNotFound
	case statusCode == http.StatusBadRequest, statusCode == http.StatusUnprocessableEntity:
		return KindValidation
	case statusCode >= 500 && statusCode <= 599:
		return KindServer
	default:
		return KindUnexpectedResponse
	}
}

// newStatusError builds the error for a non-2xx response. The message is
// taken from the JSON error body when present, otherwise the status text.
func newStatusError(statusCode int, body []byte) *Error {
	msg := extractErrorMessage(body)
	if msg == "" {
		msg = http.StatusText(statusCode)
	}
	if msg == "" {
		msg = fmt.Sprintf("HTTP status %d", statusCode)
	}
	return &Error{
		Kind:       KindForStatus(statusCode),
		StatusCode: statusCode,
		Message:    msg,
	}
}

// newConnectionError classifies a transport failure. The message names the
// failure class without echoing the controller address.
func newConnectionError(ctx context.Context, err error) *Error {
	return &Error{
		Kind:    KindConnection,
		Message: describeTransportError(ctx, err),
		Err:     err,
	}
}

func describeTransportError(ctx context.Context, err error) string {
	if errors.Is(ctx.Err(), context.Canceled) || errors.Is(err, context.Canceled) {
		return "request cancelled before Apstra responded"
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return "timed out waiting for Apstra"
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return "could not resolve Apstra host"
	}

	var certErr *tls.CertificateVerificationError
	var unknownAuthErr x509.UnknownAuthorityError
	var hostnameErr x509.HostnameError
	if errors.As(err, &certErr) || errors.As(err, &unknownAuthErr) || errors.As(err, &hostnameErr) {
		return "TLS certificate verification failed (use --insecure-skip-verify for self-signed controllers)"
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timed out waiting for Apstra"
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return fmt.Sprintf("could not connect to Apstra (%s)", opErr.Op)
	}

	return "no response received from Apstra"
}

// errorMessageKeys lists the body fields inspected for an upstream error
// message, in priority order.
var errorMessageKeys = []string{"errors", "error", "message", "detail", "description"}

// extractErrorMessage returns the upstream error text from a JSON error
// body, or "" when none can be found.
func extractErrorMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}

	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return ""
	}

	switch v := decoded.(type) {
	case string:
		return strings.TrimSpace(v)
	case map[string]any:
		for _, key := range errorMessageKeys {
			if value, ok := v[key]; ok {
				if msg := flattenMessage(value); msg != "" {
					return msg
				}
			}
		}
	}
	return ""
}

// flattenMessage renders an arbitrary JSON value as a single line.
func flattenMessage(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if s := flattenMessage(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "; ")
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			if s := flattenMessage(v[k]); s != "" {
				parts = append(parts, k+": "+s)
			}
		}
		return strings.Join(parts, "; ")
	default:
		return fmt.Sprint(v)
	}
}
