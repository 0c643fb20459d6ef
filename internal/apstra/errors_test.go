package apstra

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindForStatus(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorKind
	}{
		{400, KindValidation},
		{401, KindAuthentication},
		{403, KindAuthentication},
		{404, KindNotFound},
		{409, KindUnexpectedResponse},
		{422, KindValidation},
		{429, KindUnexpectedResponse},
		{500, KindServer},
		{502, KindServer},
		{503, KindServer},
		{599, KindServer},
		{302, KindUnexpectedResponse},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, KindForStatus(tt.status))
		})
	}
}

func TestExtractErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "empty", body: "", want: ""},
		{name: "not json", body: "<html>oops</html>", want: ""},
		{name: "errors string", body: `{"errors":"Blueprint not found"}`, want: "Blueprint not found"},
		{name: "errors list", body: `{"errors":["a","b"]}`, want: "a; b"},
		{name: "errors object", body: `{"errors":{"label":"required","id":"bad"}}`, want: "id: bad; label: required"},
		{name: "error key", body: `{"error":"boom"}`, want: "boom"},
		{name: "message key", body: `{"message":"nope"}`, want: "nope"},
		{name: "detail key", body: `{"detail":"gone"}`, want: "gone"},
		{name: "description key", body: `{"description":"desc"}`, want: "desc"},
		{name: "priority order", body: `{"message":"second","errors":"first"}`, want: "first"},
		{name: "empty errors falls through", body: `{"errors":[],"message":"fallback"}`, want: "fallback"},
		{name: "bare string", body: `"just text"`, want: "just text"},
		{name: "unrelated keys", body: `{"status":"bad"}`, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractErrorMessage([]byte(tt.body)))
		})
	}
}

func TestNewStatusError(t *testing.T) {
	err := newStatusError(404, []byte(`{"errors":"Blueprint bp9 not found"}`))
	assert.Equal(t, KindNotFound, err.Kind)
	assert.Equal(t, 404, err.StatusCode)
	assert.Equal(t, "Blueprint bp9 not found", err.Message)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "NotFoundError (HTTP 404): Blueprint bp9 not found", err.Error())

	err = newStatusError(503, nil)
	assert.Equal(t, KindServer, err.Kind)
	assert.Equal(t, "Service Unavailable", err.Message)

	err = newStatusError(499, nil)
	assert.Equal(t, KindUnexpectedResponse, err.Kind)
	assert.Equal(t, "HTTP status 499", err.Message)
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := &Error{Kind: KindConnection, Message: "x", Err: cause}

	assert.ErrorIs(t, err, ErrConnection)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrServer)

	wrapped := fmt.Errorf("listing: %w", err)
	got, ok := AsError(wrapped)
	assert.True(t, ok)
	assert.Equal(t, KindConnection, got.Kind)

	_, ok = AsError(errors.New("plain"))
	assert.False(t, ok)
}

func TestDescribeTransportError(t *testing.T) {
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name string
		ctx  context.Context
		err  error
		want string
	}{
		{
			name: "cancelled",
			ctx:  cancelled,
			err:  context.Canceled,
			want: "request cancelled",
		},
		{
			name: "deadline",
			ctx:  context.Background(),
			err:  fmt.Errorf("get: %w", context.DeadlineExceeded),
			want: "timed out",
		},
		{
			name: "dns",
			ctx:  context.Background(),
			err:  &net.DNSError{Err: "no such host", Name: "apstra.invalid"},
			want: "could not resolve",
		},
		{
			name: "op error",
			ctx:  context.Background(),
			err:  &net.OpError{Op: "dial", Err: errors.New("connection refused")},
			want: "could not connect to Apstra (dial)",
		},
		{
			name: "unknown",
			ctx:  context.Background(),
			err:  errors.New("EOF"),
			want: "no response received",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, describeTransportError(tt.ctx, tt.err), tt.want)
		})
	}
}
