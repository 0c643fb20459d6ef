package apstra

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlueprintPath(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		want    string
		wantErr string
	}{
		{name: "uuid", id: "2a2e9b1c-6c7f-4e1b-9d3a-0f5f7d9c1b2a", want: "/api/blueprints/2a2e9b1c-6c7f-4e1b-9d3a-0f5f7d9c1b2a/anomalies"},
		{name: "short label", id: "bp1", want: "/api/blueprints/bp1/anomalies"},
		{name: "colon and tilde", id: "dc1:pod~a", want: "/api/blueprints/dc1:pod~a/anomalies"},
		{name: "empty", id: "", wantErr: "blueprint_id is required"},
		{name: "blank", id: "  ", wantErr: "blueprint_id is required"},
		{name: "slash", id: "bp1/../../admin", wantErr: "invalid characters"},
		{name: "query injection", id: "bp1?x=1", wantErr: "invalid characters"},
		{name: "space", id: "bp 1", wantErr: "invalid characters"},
		{name: "dot dot", id: "..", wantErr: "relative path segment"},
		{name: "too long", id: strings.Repeat("a", 257), wantErr: "at most 256"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BlueprintPath(PathBlueprintAnomalies, tt.id)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrValidation)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSystemPath(t *testing.T) {
	got, err := SystemPath(PathSystemGoldenConfig, "005056013306")
	require.NoError(t, err)
	assert.Equal(t, "/api/systems/005056013306/golden-config", got)

	_, err = SystemPath(PathSystemGoldenConfig, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "system_id is required")
}

func TestPathFieldMismatch(t *testing.T) {
	_, err := PathFor(PathBlueprint, []string{"a", "b"}, "x")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrValidation)
}

func TestPathRequiresAPIPrefix(t *testing.T) {
	_, err := Path("/other/%s", "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
}
