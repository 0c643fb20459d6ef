// Package testdata provides a mock Apstra requester for tool tests.
package testdata

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sync"

	"github.com/giantswarm/mcp-apstra/internal/apstra"
)

// Call records one request made through MockRequester.
type Call struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
}

// MockRequester implements apstra.Requester. Responses are served from
// Responses keyed by "METHOD path"; Handler, when set, takes precedence.
// Unmatched requests fail with a NotFoundError.
type MockRequester struct {
	Responses map[string]MockResponse
	Handler   func(ctx context.Context, call Call) (*apstra.Response, error)

	mu    sync.Mutex
	calls []Call
}

// MockResponse is a canned response: either a body (2xx) or an error.
type MockResponse struct {
	Status int
	Body   string
	Err    error
}

// NewMockRequester returns an empty mock.
func NewMockRequester() *MockRequester {
	return &MockRequester{Responses: map[string]MockResponse{}}
}

// On registers a 200 response with body for method and path.
func (m *MockRequester) On(method, path, body string) *MockRequester {
	m.Responses[method+" "+path] = MockResponse{Status: http.StatusOK, Body: body}
	return m
}

// OnError registers an error for method and path.
func (m *MockRequester) OnError(method, path string, err error) *MockRequester {
	m.Responses[method+" "+path] = MockResponse{Err: err}
	return m
}

// Request implements apstra.Requester.
func (m *MockRequester) Request(ctx context.Context, method, path string, query url.Values, body any) (*apstra.Response, error) {
	call := Call{Method: method, Path: path, Query: query, Body: body}

	m.mu.Lock()
	m.calls = append(m.calls, call)
	handler := m.Handler
	canned, ok := m.Responses[method+" "+path]
	m.mu.Unlock()

	if handler != nil {
		return handler(ctx, call)
	}
	if !ok {
		return nil, &apstra.Error{Kind: apstra.KindNotFound, StatusCode: http.StatusNotFound, Message: "no mock for " + method + " " + path}
	}
	if canned.Err != nil {
		return nil, canned.Err
	}
	status := canned.Status
	if status == 0 {
		status = http.StatusOK
	}
	return &apstra.Response{StatusCode: status, Body: json.RawMessage(canned.Body)}, nil
}

// Calls returns a copy of the recorded calls.
func (m *MockRequester) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns the number of requests made.
func (m *MockRequester) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// StatusError builds the error the real client returns for status.
func StatusError(status int, message string) *apstra.Error {
	return &apstra.Error{Kind: apstra.KindForStatus(status), StatusCode: status, Message: message}
}
