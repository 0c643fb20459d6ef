// Package catalog assembles the full set of Apstra tools into a registry.
package catalog

import (
	"fmt"

	"github.com/giantswarm/mcp-apstra/internal/tools"
	"github.com/giantswarm/mcp-apstra/internal/tools/anomaly"
	"github.com/giantswarm/mcp-apstra/internal/tools/blueprint"
	"github.com/giantswarm/mcp-apstra/internal/tools/goldenconfig"
)

// groups lists every tool group in registration order.
var groups = []struct {
	name        string
	definitions func() ([]*tools.Definition, error)
}{
	{name: "blueprint", definitions: blueprint.Definitions},
	{name: "anomaly", definitions: anomaly.Definitions},
	{name: "goldenconfig", definitions: goldenconfig.Definitions},
}

// Registry builds the registry of all tools. With readOnly set, mutating
// tools are left out.
func Registry(readOnly bool) (*tools.Registry, error) {
	var defs []*tools.Definition
	for _, g := range groups {
		groupDefs, err := g.definitions()
		if err != nil {
			return nil, fmt.Errorf("%s tools: %w", g.name, err)
		}
		defs = append(defs, groupDefs...)
	}

	registry, err := tools.NewRegistry(defs...)
	if err != nil {
		return nil, err
	}
	if readOnly {
		return registry.ReadOnly(), nil
	}
	return registry, nil
}
