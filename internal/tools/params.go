package tools

import (
	"strings"

	mcp "github.com/mark3labs/mcp-go/mcp"

	"github.com/giantswarm/mcp-apstra/internal/apstra"
)

// Argument names shared across tools.
const (
	ParamBlueprintID  = "blueprint_id"
	ParamSystemID     = "system_id"
	ParamConfirmation = "confirmation"
)

// BlueprintArgs is the argument record of blueprint-scoped tools.
type BlueprintArgs struct {
	BlueprintID string `json:"blueprint_id"`
}

// BlueprintIDParam declares the required blueprint_id argument.
//
// The schema only rejects empty strings; identifier syntax is checked by
// apstra.BlueprintPath so the error names the offending characters.
func BlueprintIDParam() mcp.ToolOption {
	return mcp.WithString(ParamBlueprintID,
		mcp.Required(),
		mcp.MinLength(1),
		mcp.Description("ID of the Apstra blueprint (see list_blueprints)"),
	)
}

// SystemIDParam declares the system_id argument.
func SystemIDParam(required bool, description string) mcp.ToolOption {
	opts := []mcp.PropertyOption{
		mcp.MinLength(1),
		mcp.Description(description),
	}
	if required {
		opts = append(opts, mcp.Required())
	}
	return mcp.WithString(ParamSystemID, opts...)
}

// RequireID trims id and validates it as a path-safe identifier.
func RequireID(field, id string) (string, error) {
	id = strings.TrimSpace(id)
	if err := apstra.ValidateIdentifier(field, id); err != nil {
		return "", err
	}
	return id, nil
}
