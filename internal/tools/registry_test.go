package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopHandler(ctx context.Context, deps Deps, args EmptyArgs) (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}

func mustDefinition(t *testing.T, name string, opts ...DefinitionOption) *Definition {
	t.Helper()
	def, err := NewDefinition(mcp.NewTool(name, mcp.WithDescription(name)), noopHandler, opts...)
	require.NoError(t, err)
	return def
}

func TestNewDefinition_Errors(t *testing.T) {
	_, err := NewDefinition(mcp.NewTool(""), noopHandler)
	assert.Error(t, err)

	_, err = NewDefinition[EmptyArgs](mcp.NewTool("no_handler"), nil)
	assert.Error(t, err)

	broken := mcp.NewToolWithRawSchema("broken", "bad schema", json.RawMessage(`{"type": 12}`))
	_, err = NewDefinition(broken, noopHandler)
	assert.Error(t, err)
}

func TestNewRegistry(t *testing.T) {
	r, err := NewRegistry(mustDefinition(t, "b_tool"), mustDefinition(t, "a_tool"))
	require.NoError(t, err)

	assert.Equal(t, []string{"b_tool", "a_tool"}, r.Names())
	assert.Len(t, r.Definitions(), 2)

	def, ok := r.Lookup("a_tool")
	require.True(t, ok)
	assert.Equal(t, "a_tool", def.Name())

	_, ok = r.Lookup("A_TOOL")
	assert.False(t, ok, "lookup must be case-sensitive")
}

func TestNewRegistry_RejectsDuplicates(t *testing.T) {
	_, err := NewRegistry(mustDefinition(t, "dup"), mustDefinition(t, "dup"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dup")

	_, err = NewRegistry(nil)
	assert.Error(t, err)
}

func TestRegistry_ReadOnly(t *testing.T) {
	r, err := NewRegistry(
		mustDefinition(t, "read_tool"),
		mustDefinition(t, "write_tool", Mutating()),
	)
	require.NoError(t, err)

	ro := r.ReadOnly()
	assert.Equal(t, []string{"read_tool"}, ro.Names())
	_, ok := ro.Lookup("write_tool")
	assert.False(t, ok)

	// The original registry is unchanged
	assert.Equal(t, []string{"read_tool", "write_tool"}, r.Names())

	result := NewDispatcher(ro, Deps{}).Dispatch(context.Background(), Invocation{ToolName: "write_tool"})
	require.False(t, result.OK())
	assert.Equal(t, KindUnknownTool, result.Failure.Kind)
}

func TestDefinitions_ReturnsCopy(t *testing.T) {
	r, err := NewRegistry(mustDefinition(t, "one"))
	require.NoError(t, err)

	defs := r.Definitions()
	defs[0] = nil

	_, ok := r.Lookup("one")
	assert.True(t, ok)
	assert.NotNil(t, r.Definitions()[0])
}
