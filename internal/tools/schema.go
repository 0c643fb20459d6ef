package tools

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/giantswarm/mcp-apstra/internal/apstra"
)

// compileInputSchema compiles the input schema advertised by tool so the
// dispatcher validates exactly what clients were told.
func compileInputSchema(tool mcp.Tool) (*jsonschema.Schema, error) {
	raw := tool.RawInputSchema
	if len(raw) == 0 {
		var err error
		raw, err = json.Marshal(tool.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("marshal input schema of %s: %w", tool.Name, err)
		}
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode input schema of %s: %w", tool.Name, err)
	}

	url := tool.Name + ".json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("add input schema of %s: %w", tool.Name, err)
	}
	schema, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile input schema of %s: %w", tool.Name, err)
	}
	return schema, nil
}

// validateArguments checks args against schema and returns a ValidationError
// listing every violation.
func validateArguments(schema *jsonschema.Schema, args map[string]any) error {
	// Round-trip so the instance only holds JSON types, whatever the caller
	// built the map from.
	raw, err := json.Marshal(args)
	if err != nil {
		return apstra.NewValidationError("arguments are not JSON-serializable: %v", err)
	}
	var instance any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return apstra.NewValidationError("arguments are not valid JSON: %v", err)
	}

	err = schema.Validate(instance)
	if err == nil {
		return nil
	}

	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return apstra.NewValidationError("invalid arguments: %v", err)
	}
	return apstra.NewValidationError("invalid arguments: %s", strings.Join(violations(verr), "; "))
}

// violations flattens a validation error tree into sorted leaf messages of
// the form "<location>: <problem>".
func violations(verr *jsonschema.ValidationError) []string {
	p := message.NewPrinter(language.English)

	var out []string
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			location := "arguments"
			if len(e.InstanceLocation) > 0 {
				location = strings.Join(e.InstanceLocation, ".")
			}
			out = append(out, location+": "+e.ErrorKind.LocalizedString(p))
			return
		}
		for _, cause := range e.Causes {
			walk(cause)
		}
	}
	walk(verr)

	sort.Strings(out)
	return out
}

// decodeArguments converts validated arguments into the typed record A.
func decodeArguments[A any](args map[string]any) (A, error) {
	var record A
	raw, err := json.Marshal(args)
	if err != nil {
		return record, apstra.NewValidationError("arguments are not JSON-serializable: %v", err)
	}
	if err := json.Unmarshal(raw, &record); err != nil {
		return record, apstra.NewValidationError("invalid arguments: %v", err)
	}
	return record, nil
}
