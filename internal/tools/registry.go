package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Definition binds a tool's advertised metadata to its handler.
type Definition struct {
	// Tool is the name, description and input schema sent to clients.
	Tool mcp.Tool

	// Mutating marks tools that change upstream state. Read-only servers
	// do not register them.
	Mutating bool

	schema *jsonschema.Schema
	invoke func(ctx context.Context, deps Deps, args map[string]any) (json.RawMessage, error)
}

// DefinitionOption configures a Definition.
type DefinitionOption func(*Definition)

// Mutating marks the tool as changing upstream state.
func Mutating() DefinitionOption {
	return func(d *Definition) {
		d.Mutating = true
	}
}

// NewDefinition compiles the tool's input schema and binds handler, which
// receives arguments decoded into A.
func NewDefinition[A any](tool mcp.Tool, handler HandlerFunc[A], opts ...DefinitionOption) (*Definition, error) {
	if tool.Name == "" {
		return nil, fmt.Errorf("tool name is required")
	}
	if handler == nil {
		return nil, fmt.Errorf("tool %s: handler is required", tool.Name)
	}

	schema, err := compileInputSchema(tool)
	if err != nil {
		return nil, err
	}

	d := &Definition{
		Tool:   tool,
		schema: schema,
		invoke: func(ctx context.Context, deps Deps, args map[string]any) (json.RawMessage, error) {
			record, err := decodeArguments[A](args)
			if err != nil {
				return nil, err
			}
			return handler(ctx, deps, record)
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Name returns the tool name.
func (d *Definition) Name() string {
	return d.Tool.Name
}

// Validate checks args against the compiled input schema.
func (d *Definition) Validate(args map[string]any) error {
	return validateArguments(d.schema, args)
}

// Registry is the fixed set of tools a server exposes, keyed by exact,
// case-sensitive name. It is built once and never mutated.
type Registry struct {
	byName map[string]*Definition
	order  []*Definition
}

// NewRegistry builds a registry. Duplicate names are an error.
func NewRegistry(defs ...*Definition) (*Registry, error) {
	r := &Registry{byName: make(map[string]*Definition, len(defs))}
	for _, d := range defs {
		if d == nil {
			return nil, fmt.Errorf("nil tool definition")
		}
		if _, exists := r.byName[d.Name()]; exists {
			return nil, fmt.Errorf("duplicate tool name %q", d.Name())
		}
		r.byName[d.Name()] = d
		r.order = append(r.order, d)
	}
	return r, nil
}

// Lookup returns the definition registered under name.
func (r *Registry) Lookup(name string) (*Definition, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// Definitions returns all definitions in registration order.
func (r *Registry) Definitions() []*Definition {
	out := make([]*Definition, len(r.order))
	copy(out, r.order)
	return out
}

// Names returns all tool names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	for i, d := range r.order {
		names[i] = d.Name()
	}
	return names
}

// ReadOnly returns a registry without mutating tools.
func (r *Registry) ReadOnly() *Registry {
	ro := &Registry{byName: make(map[string]*Definition, len(r.order))}
	for _, d := range r.order {
		if d.Mutating {
			continue
		}
		ro.byName[d.Name()] = d
		ro.order = append(ro.order, d)
	}
	return ro
}
