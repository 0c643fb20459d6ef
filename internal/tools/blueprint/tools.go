package blueprint

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/giantswarm/mcp-apstra/internal/apstra"
	"github.com/giantswarm/mcp-apstra/internal/tools"
)

// Tool names.
const (
	ToolListBlueprints      = "list_blueprints"
	ToolGetBlueprintDetails = "get_blueprint_details"
	ToolGetSystemDetails    = "get_system_details"
	ToolGetVirtualNetworks  = "get_virtual_networks"
	ToolGetSecurityZones    = "get_security_zones"
	ToolGetConfigAudits     = "get_config_audits"
)

// scopedQuery describes a GET on a blueprint sub-resource whose response
// is returned verbatim.
type scopedQuery struct {
	name        string
	description string
	template    string
	query       url.Values
}

var scopedQueries = []scopedQuery{
	{
		name:        ToolGetBlueprintDetails,
		description: "Get the full definition and status of one blueprint",
		template:    apstra.PathBlueprint,
	},
	{
		name:        ToolGetSystemDetails,
		description: "List the system nodes (switches, servers) of a blueprint with their roles and identifiers",
		template:    apstra.PathBlueprintNodes,
		query:       url.Values{"type": {"system"}},
	},
	{
		name:        ToolGetVirtualNetworks,
		description: "List the virtual networks (VXLAN/VLAN) defined in a blueprint",
		template:    apstra.PathBlueprintVirtualNets,
	},
	{
		name:        ToolGetSecurityZones,
		description: "List the security zones (routing zones / VRFs) of a blueprint",
		template:    apstra.PathBlueprintSecurityZones,
	},
	{
		name:        ToolGetConfigAudits,
		description: "Get the configuration audit results of a blueprint",
		template:    apstra.PathBlueprintConfigAudits,
	},
}

// Definitions returns the read-only blueprint tools.
func Definitions() ([]*tools.Definition, error) {
	listTool := mcp.NewTool(ToolListBlueprints,
		mcp.WithDescription("List all blueprints managed by Apstra"),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	list, err := tools.NewDefinition(listTool, handleListBlueprints)
	if err != nil {
		return nil, err
	}

	defs := []*tools.Definition{list}
	for _, q := range scopedQueries {
		tool := mcp.NewTool(q.name,
			mcp.WithDescription(q.description),
			mcp.WithReadOnlyHintAnnotation(true),
			tools.BlueprintIDParam(),
		)
		def, err := tools.NewDefinition(tool, q.handler())
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func handleListBlueprints(ctx context.Context, deps tools.Deps, _ tools.EmptyArgs) (json.RawMessage, error) {
	resp, err := apstra.Get(ctx, deps.Client, apstra.PathBlueprints, nil)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// handler returns a handler that fetches the query's path for the given
// blueprint and passes the body through unchanged.
func (q scopedQuery) handler() tools.HandlerFunc[tools.BlueprintArgs] {
	return func(ctx context.Context, deps tools.Deps, args tools.BlueprintArgs) (json.RawMessage, error) {
		id, err := tools.RequireID(tools.ParamBlueprintID, args.BlueprintID)
		if err != nil {
			return nil, err
		}
		path, err := apstra.BlueprintPath(q.template, id)
		if err != nil {
			return nil, err
		}

		resp, err := apstra.Get(ctx, deps.Client, path, cloneValues(q.query))
		if err != nil {
			return nil, err
		}
		return resp.Body, nil
	}
}

// cloneValues copies v so a Requester can never mutate the shared query.
func cloneValues(v url.Values) url.Values {
	if v == nil {
		return nil
	}
	out := make(url.Values, len(v))
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}
