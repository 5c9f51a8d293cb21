// Package uispec derives the declarative UI component tree sent to the
// client renderer. The core never renders anything itself; it emits typed
// nodes the renderer maps onto its own widget set.
package uispec

import (
	_ "embed"
	"fmt"

	"github.com/shophub-ai/assistant"
	"gopkg.in/yaml.v3"
)

//go:embed components.yaml
var defaultCatalog []byte

// maxTreeDepth bounds component nesting during validation. Generated trees
// are three levels deep at most; anything deeper is malformed.
const maxTreeDepth = 8

// ComponentSchema declares what one component type accepts.
type ComponentSchema struct {
	Type      string   `yaml:"type"`
	Props     []string `yaml:"props"`
	Actions   []string `yaml:"actions"`
	Container bool     `yaml:"container"`
}

type catalogDocument struct {
	Components []ComponentSchema `yaml:"components"`
}

// Registry maps component types to their schemas.
type Registry struct {
	schemas map[string]ComponentSchema
}

// NewRegistry loads the embedded default component catalog.
func NewRegistry() *Registry {
	registry, err := NewRegistryFromYAML(defaultCatalog)
	if err != nil {
		// The embedded catalog is compiled in; failing to parse it is a
		// build defect, not a runtime condition.
		panic(fmt.Sprintf("embedded component catalog is invalid: %v", err))
	}
	return registry
}

// NewRegistryFromYAML loads a component catalog from YAML.
func NewRegistryFromYAML(data []byte) (*Registry, error) {
	var doc catalogDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse component catalog: %w", err)
	}
	if len(doc.Components) == 0 {
		return nil, fmt.Errorf("component catalog declares no components")
	}

	schemas := make(map[string]ComponentSchema, len(doc.Components))
	for _, schema := range doc.Components {
		if schema.Type == "" {
			return nil, fmt.Errorf("component catalog entry is missing a type")
		}
		schemas[schema.Type] = schema
	}
	return &Registry{schemas: schemas}, nil
}

// Schema returns the schema for a component type.
func (r *Registry) Schema(componentType string) (ComponentSchema, bool) {
	schema, ok := r.schemas[componentType]
	return schema, ok
}

// Types returns the known component type names.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.schemas))
	for t := range r.schemas {
		types = append(types, t)
	}
	return types
}

// Validate checks a component tree against the catalog: known types carry
// only declared props and actions, and nesting stays within the depth
// bound. Unknown types pass as long as the node itself is well formed, so a
// newer renderer vocabulary never breaks an older core.
func (r *Registry) Validate(component assistant.UIComponent) error {
	return r.validate(component, 0)
}

func (r *Registry) validate(component assistant.UIComponent, depth int) error {
	if depth > maxTreeDepth {
		return fmt.Errorf("component tree exceeds maximum depth %d", maxTreeDepth)
	}
	if component.Type == "" {
		return fmt.Errorf("component at depth %d has no type", depth)
	}

	schema, known := r.schemas[component.Type]
	if known {
		declaredProps := toSet(schema.Props)
		for prop := range component.Props {
			if !declaredProps[prop] {
				return fmt.Errorf("component '%s' carries undeclared prop '%s'", component.Type, prop)
			}
		}
		declaredActions := toSet(schema.Actions)
		for _, action := range component.Actions {
			if !declaredActions[action.Action] {
				return fmt.Errorf("component '%s' carries undeclared action '%s'", component.Type, action.Action)
			}
		}
		if !schema.Container && len(component.Children) > 0 {
			return fmt.Errorf("component '%s' is not a container but has children", component.Type)
		}
	}

	for _, child := range component.Children {
		if err := r.validate(child, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
