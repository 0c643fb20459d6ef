// Run with: go test -v ./cmd/... -tags=integration
//
//go:build integration

package cmd

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giantswarm/mcp-apstra/internal/apstra"
	"github.com/giantswarm/mcp-apstra/internal/logging"
	"github.com/giantswarm/mcp-apstra/internal/server"
)

// fakeApstra serves canned responses keyed by "METHOD path" and counts hits.
type fakeApstra struct {
	hits      atomic.Int64
	responses map[string]string
}

func (f *fakeApstra) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.hits.Add(1)
	w.Header().Set("Content-Type", "application/json")
	body, ok := f.responses[r.Method+" "+r.URL.Path]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"errors":"not found"}`))
		return
	}
	_, _ = w.Write([]byte(body))
}

// startStack starts a fake Apstra controller and an mcp-apstra streamable
// HTTP endpoint in front of it, and returns an initialized client.
func startStack(t *testing.T, readOnly bool, upstream *fakeApstra) *client.Client {
	t.Helper()

	apstraSrv := httptest.NewServer(upstream)
	t.Cleanup(apstraSrv.Close)

	creds, err := apstra.NewCredentials(apstraSrv.URL, "integration-token")
	require.NoError(t, err)
	apstraClient, err := apstra.NewClient(creds, apstra.ClientConfig{Timeout: 5 * time.Second})
	require.NoError(t, err)

	sc, err := server.NewServerContext(context.Background(),
		server.WithApstraClient(apstraClient),
		server.WithCredentials(creds),
		server.WithReadOnly(readOnly),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })

	mcpSrv, err := newMCPServer(sc)
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.Handle("/mcp", mcpserver.NewStreamableHTTPServer(mcpSrv, mcpserver.WithEndpointPath("/mcp")))
	server.NewHealthChecker(sc).RegisterHealthEndpoints(mux)
	handler, err := buildHTTPHandler(mux, ServeConfig{}, nil, logging.DefaultLogger())
	require.NoError(t, err)

	mcpHTTP := httptest.NewServer(handler)
	t.Cleanup(mcpHTTP.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)

	mcpClient, err := client.NewStreamableHttpClient(mcpHTTP.URL + "/mcp")
	require.NoError(t, err)
	require.NoError(t, mcpClient.Start(ctx))
	t.Cleanup(func() { _ = mcpClient.Close() })

	_, err = mcpClient.Initialize(ctx, mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			Capabilities:    mcp.ClientCapabilities{},
			ClientInfo:      mcp.Implementation{Name: "integration-test", Version: "1.0.0"},
		},
	})
	require.NoError(t, err)
	return mcpClient
}

func callTool(t *testing.T, c *client.Client, name string, args map[string]any) (*mcp.CallToolResult, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return c.CallTool(ctx, mcp.CallToolRequest{
		Request: mcp.Request{Method: "tools/call"},
		Params:  mcp.CallToolParams{Name: name, Arguments: args},
	})
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	switch c := result.Content[0].(type) {
	case mcp.TextContent:
		return c.Text
	case *mcp.TextContent:
		return c.Text
	default:
		t.Fatalf("unexpected content type %T", result.Content[0])
		return ""
	}
}

func TestIntegration_ListTools(t *testing.T) {
	c := startStack(t, false, &fakeApstra{})

	resp, err := c.ListTools(context.Background(), mcp.ListToolsRequest{})
	require.NoError(t, err)

	names := map[string]bool{}
	for _, tool := range resp.Tools {
		names[tool.Name] = true
	}
	assert.Len(t, names, 8)
	assert.True(t, names["list_blueprints"])
	assert.True(t, names["apply_system_golden_config"])
}

func TestIntegration_ListBlueprints(t *testing.T) {
	upstream := &fakeApstra{responses: map[string]string{
		"GET /api/blueprints": `[{"id":"bp1","label":"DC1"}]`,
	}}
	c := startStack(t, false, upstream)

	result, err := callTool(t, c, "list_blueprints", map[string]any{})
	require.NoError(t, err)

	assert.False(t, result.IsError)
	assert.JSONEq(t, `[{"id":"bp1","label":"DC1"}]`, resultText(t, result))
	assert.Equal(t, int64(1), upstream.hits.Load())
}

func TestIntegration_BlueprintNotFound(t *testing.T) {
	upstream := &fakeApstra{}
	c := startStack(t, false, upstream)

	result, err := callTool(t, c, "get_blueprint_details", map[string]any{"blueprint_id": "bp1"})
	require.NoError(t, err)

	require.True(t, result.IsError)
	var failure map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &failure))
	assert.Equal(t, "NotFoundError", failure["error_kind"])
	assert.Equal(t, float64(404), failure["upstream_status_code"])
}

func TestIntegration_AnomalySummary(t *testing.T) {
	upstream := &fakeApstra{responses: map[string]string{
		"GET /api/blueprints/bp1/anomalies": `{"items":[
			{"id":"a1","anomaly_type":"bgp","severity":"critical","identity":{"system_id":"s1"}},
			{"id":"a2","anomaly_type":"cabling","severity":"warning","identity":{"system_id":"s2"}}
		]}`,
	}}
	c := startStack(t, false, upstream)

	result, err := callTool(t, c, "get_blueprint_anomalies", map[string]any{"blueprint_id": "bp1"})
	require.NoError(t, err)
	require.False(t, result.IsError, resultText(t, result))

	var summary struct {
		Total      int            `json:"total"`
		BySeverity map[string]int `json:"by_severity"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &summary))
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, map[string]int{"critical": 1, "warning": 1, "info": 0}, summary.BySeverity)
}

func TestIntegration_GoldenConfigRequiresConfirmation(t *testing.T) {
	upstream := &fakeApstra{responses: map[string]string{
		"POST /api/systems/sys1/golden-config": `{"status":"accepted"}`,
	}}
	c := startStack(t, false, upstream)

	result, err := callTool(t, c, "apply_system_golden_config", map[string]any{"system_id": "sys1", "confirmation": "no"})
	require.NoError(t, err)
	require.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "ValidationError")
	assert.Zero(t, upstream.hits.Load())

	result, err = callTool(t, c, "apply_system_golden_config", map[string]any{"system_id": "sys1", "confirmation": "yes"})
	require.NoError(t, err)
	require.False(t, result.IsError)
	assert.Equal(t, `{"status":"accepted"}`, resultText(t, result))
	assert.Equal(t, int64(1), upstream.hits.Load())
}

func TestIntegration_ReadOnly(t *testing.T) {
	upstream := &fakeApstra{}
	c := startStack(t, true, upstream)

	resp, err := c.ListTools(context.Background(), mcp.ListToolsRequest{})
	require.NoError(t, err)
	for _, tool := range resp.Tools {
		assert.NotEqual(t, "apply_system_golden_config", tool.Name)
	}

	result, err := callTool(t, c, "apply_system_golden_config", map[string]any{"system_id": "sys1", "confirmation": "yes"})
	if err == nil {
		assert.True(t, result.IsError)
	}
	assert.Zero(t, upstream.hits.Load())
}
