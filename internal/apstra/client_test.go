package apstra

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...func(*ClientConfig)) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	creds, err := NewCredentials(server.URL+"/", "test-token")
	require.NoError(t, err)

	config := ClientConfig{Timeout: 2 * time.Second, QPSLimit: 1000, BurstLimit: 1000, UserAgent: "mcp-apstra/test"}
	for _, opt := range opts {
		opt(&config)
	}

	client, err := NewClient(creds, config)
	require.NoError(t, err)
	return client
}

func TestNewClientAppliesDefaultTimeout(t *testing.T) {
	creds, err := NewCredentials("https://apstra.example.com", "token")
	require.NoError(t, err)

	client, err := NewClient(creds, ClientConfig{})
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeout, client.Timeout())

	client, err = NewClient(creds, ClientConfig{Timeout: 5 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, client.Timeout())
}

func TestNewClientRequiresCredentials(t *testing.T) {
	_, err := NewClient(nil, ClientConfig{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestClientRequestHeaders(t *testing.T) {
	var got *http.Request
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[]}`))
	})

	resp, err := client.Request(context.Background(), http.MethodGet, "/api/blueprints", nil, nil)
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, "Bearer test-token", got.Header.Get("Authorization"))
	assert.Equal(t, "application/json", got.Header.Get("Accept"))
	assert.Equal(t, "mcp-apstra/test", got.Header.Get("User-Agent"))
	assert.NotEmpty(t, got.Header.Get("X-Request-ID"))
	assert.Empty(t, got.Header.Get("Content-Type"))
	assert.Equal(t, "/api/blueprints", got.URL.Path)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"items":[]}`, string(resp.Body))
	assert.Equal(t, got.Header.Get("X-Request-ID"), resp.RequestID)
}

func TestClientRequestQueryAndBody(t *testing.T) {
	var gotBody map[string]any
	var gotQuery url.Values
	var gotContentType string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		gotContentType = r.Header.Get("Content-Type")
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &gotBody)
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"status":"accepted"}`))
	})

	resp, err := client.Request(context.Background(), http.MethodPost, "/api/systems/s1/golden-config",
		url.Values{"type": []string{"system"}}, map[string]any{"confirm": true})
	require.NoError(t, err)

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "system", gotQuery.Get("type"))
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, true, gotBody["confirm"])
}

func TestClientRequestErrorClassification(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantKind    ErrorKind
		wantMessage string
	}{
		{name: "unauthorized", status: 401, body: `{"errors":"Invalid token"}`, wantKind: KindAuthentication, wantMessage: "Invalid token"},
		{name: "forbidden", status: 403, body: ``, wantKind: KindAuthentication, wantMessage: "Forbidden"},
		{name: "not found", status: 404, body: `{"errors":"Blueprint bp9 not found"}`, wantKind: KindNotFound, wantMessage: "Blueprint bp9 not found"},
		{name: "bad request", status: 400, body: `{"message":"bad id"}`, wantKind: KindValidation, wantMessage: "bad id"},
		{name: "unprocessable", status: 422, body: `{"detail":"nope"}`, wantKind: KindValidation, wantMessage: "nope"},
		{name: "server error", status: 500, body: `<html>down</html>`, wantKind: KindServer, wantMessage: "Internal Server Error"},
		{name: "gateway", status: 502, body: ``, wantKind: KindServer, wantMessage: "Bad Gateway"},
		{name: "conflict", status: 409, body: `{"error":"busy"}`, wantKind: KindUnexpectedResponse, wantMessage: "busy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			resp, err := client.Request(context.Background(), http.MethodGet, "/api/blueprints/bp9", nil, nil)
			require.Error(t, err)
			assert.Nil(t, resp)

			apiErr, ok := AsError(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantKind, apiErr.Kind)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.wantMessage, apiErr.Message)
		})
	}
}

func TestClientRequestUnexpectedSuccessBodies(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "html", status: 200, body: "<html>login</html>"},
		{name: "empty", status: 200, body: ""},
		{name: "whitespace", status: 200, body: "   \n"},
		{name: "no content", status: 204, body: ""},
		{name: "truncated json", status: 200, body: `{"items":[`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.Request(context.Background(), http.MethodGet, "/api/blueprints", nil, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUnexpectedResponse)

			apiErr, _ := AsError(err)
			assert.Equal(t, tt.status, apiErr.StatusCode)
		})
	}
}

func TestClientRequestConnectionError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	serverURL := server.URL
	server.Close()

	creds, err := NewCredentials(serverURL, "t")
	require.NoError(t, err)
	client, err := NewClient(creds, ClientConfig{Timeout: time.Second})
	require.NoError(t, err)

	_, err = client.Request(context.Background(), http.MethodGet, "/api/blueprints", nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConnection)

	apiErr, _ := AsError(err)
	assert.Equal(t, 0, apiErr.StatusCode)
	assert.NotContains(t, apiErr.Message, "127.0.0.1")
}

func TestClientRequestTimeout(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, func(c *ClientConfig) { c.Timeout = 50 * time.Millisecond })

	_, err := client.Request(context.Background(), http.MethodGet, "/api/blueprints", nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConnection)
	assert.Contains(t, err.Error(), "timed out")
}

func TestClientRequestCancelled(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{}`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Request(ctx, http.MethodGet, "/api/blueprints", nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConnection)
	assert.Equal(t, int32(0), calls.Load())
}

func TestClientRequestRejectsInvalidInput(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})

	tests := []struct {
		name   string
		method string
		path   string
	}{
		{name: "delete not allowed", method: http.MethodDelete, path: "/api/blueprints/bp1"},
		{name: "patch not allowed", method: http.MethodPatch, path: "/api/blueprints/bp1"},
		{name: "missing api prefix", method: http.MethodGet, path: "/blueprints"},
		{name: "absolute url", method: http.MethodGet, path: "https://evil.example.com/api/x"},
		{name: "inline query", method: http.MethodGet, path: "/api/blueprints?x=1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.Request(context.Background(), tt.method, tt.path, nil, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	_, err := client.Request(context.Background(), http.MethodPost, "/api/x", nil, map[string]any{"bad": make(chan int)})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)

	assert.Equal(t, int32(0), calls.Load())
}

func TestClientMethodIsCaseInsensitive(t *testing.T) {
	var method string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		_, _ = w.Write([]byte(`[]`))
	})

	_, err := client.Request(context.Background(), "get", "/api/blueprints", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, method)
}

func TestClientRequestDoesNotFollowRedirects(t *testing.T) {
	var otherHits atomic.Int32
	var leakedAuth atomic.Value
	other := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		otherHits.Add(1)
		leakedAuth.Store(r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"page":"login"}`))
	}))
	t.Cleanup(other.Close)

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		t.Run(method, func(t *testing.T) {
			var hits atomic.Int32
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				hits.Add(1)
				http.Redirect(w, r, other.URL+"/login", http.StatusFound)
			})

			resp, err := client.Request(context.Background(), method, "/api/systems/sys1/golden-config", nil, nil)
			require.Error(t, err)
			assert.Nil(t, resp)

			apiErr, ok := AsError(err)
			require.True(t, ok)
			assert.Equal(t, KindUnexpectedResponse, apiErr.Kind)
			assert.Equal(t, http.StatusFound, apiErr.StatusCode)
			assert.Equal(t, int32(1), hits.Load())
		})
	}

	assert.Zero(t, otherHits.Load(), "redirect target must not be contacted")
	assert.Nil(t, leakedAuth.Load())
}
