package uispec

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shophub-ai/assistant"
)

// entityKind classifies what a tool result contained.
type entityKind string

const (
	kindProduct  entityKind = "product"
	kindOrder    entityKind = "order"
	kindEstimate entityKind = "estimate"
)

// entity is one renderable item pulled out of a tool result.
type entity struct {
	kind entityKind
	data map[string]interface{}
}

// Generator derives layout and component trees from tool results.
type Generator struct {
	registry       *Registry
	maxComposition int
	logger         zerolog.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithRegistry replaces the embedded component catalog.
func WithRegistry(registry *Registry) Option {
	return func(g *Generator) {
		g.registry = registry
	}
}

// WithMaxComposition bounds how many items a composition layout shows.
func WithMaxComposition(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxComposition = n
		}
	}
}

// WithLogger sets the generator's logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(g *Generator) {
		g.logger = logger
	}
}

// New creates a Generator with the embedded default catalog.
func New(options ...Option) *Generator {
	g := &Generator{
		registry:       NewRegistry(),
		maxComposition: 12,
		logger:         zerolog.Nop(),
	}
	for _, option := range options {
		option(g)
	}
	return g
}

// Generate implements assistant.UIGenerator. Identical results always yield
// the identical tree: entity extraction walks results in plan order and
// property mapping is fixed by the catalog.
func (g *Generator) Generate(results []assistant.ToolResult, session *assistant.Session) (assistant.LayoutStrategy, []assistant.UIComponent, error) {
	entities := extractEntities(results)
	if len(entities) == 0 {
		return assistant.LayoutTextOnly, []assistant.UIComponent{}, nil
	}

	layout, components := g.compose(entities)

	components = ResolveTemplates(components, buildTemplateContext(results, session))

	for _, component := range components {
		if err := g.registry.Validate(component); err != nil {
			g.logger.Warn().Err(err).Msg("generated tree failed validation")
			return "", nil, assistant.NewUIGenerationError("generated component tree is invalid", err)
		}
	}
	return layout, components, nil
}

// compose picks the layout strategy and builds the tree.
func (g *Generator) compose(entities []entity) (assistant.LayoutStrategy, []assistant.UIComponent) {
	kinds := map[entityKind]int{}
	for _, e := range entities {
		kinds[e.kind]++
	}

	switch {
	case len(entities) == 1:
		return assistant.LayoutSingleItem, []assistant.UIComponent{g.card(entities[0])}

	case len(kinds) == 1:
		// Cap homogeneous sets at one screen's worth.
		if len(entities) > g.maxComposition {
			entities = entities[:g.maxComposition]
		}
		return assistant.LayoutComposition, g.grid(entities)

	default:
		return assistant.LayoutWorkflow, []assistant.UIComponent{g.workflow(entities)}
	}
}

// card renders one entity as the component its kind calls for.
func (g *Generator) card(e entity) assistant.UIComponent {
	switch e.kind {
	case kindOrder:
		return g.orderCard(e.data)
	case kindEstimate:
		return g.estimateNotice(e.data)
	default:
		return g.productCard(e.data)
	}
}

// grid renders a homogeneous set. Products and orders get their container
// component; estimates have no container type, so each becomes its own
// notice root.
func (g *Generator) grid(entities []entity) []assistant.UIComponent {
	switch entities[0].kind {
	case kindOrder:
		children := make([]assistant.UIComponent, 0, len(entities))
		for _, e := range entities {
			children = append(children, g.orderCard(e.data))
		}
		return []assistant.UIComponent{{
			Type:     "order_list",
			Props:    g.props("order_list", map[string]interface{}{"count": len(entities)}),
			Children: children,
		}}

	case kindEstimate:
		notices := make([]assistant.UIComponent, 0, len(entities))
		for _, e := range entities {
			notices = append(notices, g.estimateNotice(e.data))
		}
		return notices

	default:
		children := make([]assistant.UIComponent, 0, len(entities))
		for _, e := range entities {
			children = append(children, g.productCard(e.data))
		}
		return []assistant.UIComponent{{
			Type:     "product_grid",
			Props:    g.props("product_grid", map[string]interface{}{"count": len(entities)}),
			Children: children,
		}}
	}
}

// workflow renders a heterogeneous result set as ordered step panels, one
// per entity, in result order.
func (g *Generator) workflow(entities []entity) assistant.UIComponent {
	steps := make([]assistant.UIComponent, 0, len(entities))
	for i, e := range entities {
		inner := g.card(e)
		steps = append(steps, assistant.UIComponent{
			Type: "step_panel",
			Props: g.props("step_panel", map[string]interface{}{
				"step":  i + 1,
				"title": stepTitle(e.kind),
			}),
			Children: []assistant.UIComponent{inner},
		})
	}
	return assistant.UIComponent{
		Type:     "checkout_steps",
		Props:    g.props("checkout_steps", map[string]interface{}{}),
		Children: steps,
	}
}

func stepTitle(kind entityKind) string {
	switch kind {
	case kindProduct:
		return "Product"
	case kindOrder:
		return "Order"
	case kindEstimate:
		return "Delivery"
	default:
		return "Step"
	}
}

func (g *Generator) productCard(data map[string]interface{}) assistant.UIComponent {
	props := map[string]interface{}{
		"product_id":  data["id"],
		"title":       data["name"],
		"description": data["description"],
		"brand":       data["brand"],
		"category":    data["category"],
		"image_url":   data["image_url"],
		"in_stock":    data["in_stock"],
	}
	if price, ok := numeric(data["price"]); ok {
		props["price"] = formatPrice(price)
	}

	component := assistant.UIComponent{
		Type:  "product_card",
		Props: g.props("product_card", props),
	}
	if id, ok := data["id"].(string); ok && id != "" {
		component.Actions = []assistant.UIAction{{
			Label:  "Add to cart",
			Action: "add_to_cart",
			Data:   map[string]interface{}{"product_id": id},
		}}
	}
	return component
}

func (g *Generator) orderCard(data map[string]interface{}) assistant.UIComponent {
	props := map[string]interface{}{
		"order_id":  data["id"],
		"status":    data["status"],
		"placed_at": data["placed_at"],
	}
	if total, ok := numeric(data["total"]); ok {
		props["total"] = formatPrice(total)
	}
	if items, ok := data["items"].([]interface{}); ok {
		props["item_count"] = len(items)
	}

	component := assistant.UIComponent{
		Type:  "order_card",
		Props: g.props("order_card", props),
	}
	if id, ok := data["id"].(string); ok && id != "" {
		component.Actions = []assistant.UIAction{{
			Label:  "View order",
			Action: "view_order",
			Data:   map[string]interface{}{"order_id": id},
		}}
	}
	return component
}

func (g *Generator) estimateNotice(data map[string]interface{}) assistant.UIComponent {
	text := "Delivery estimate unavailable."
	if days, ok := numeric(data["days"]); ok {
		text = fmt.Sprintf("Estimated delivery in %d days", int(days))
		if date, ok := data["estimated_date"].(string); ok && date != "" {
			text += " (by " + date + ")"
		}
		text += "."
	}
	return assistant.UIComponent{
		Type:  "notice",
		Props: g.props("notice", map[string]interface{}{"text": text, "tone": "info"}),
	}
}

// props filters a prop map through the declared schema, dropping anything
// the component type does not accept and any nil values.
func (g *Generator) props(componentType string, props map[string]interface{}) map[string]interface{} {
	filtered := make(map[string]interface{}, len(props))
	schema, known := g.registry.Schema(componentType)
	declared := toSet(schema.Props)
	for name, value := range props {
		if value == nil {
			continue
		}
		if known && !declared[name] {
			continue
		}
		filtered[name] = value
	}
	return filtered
}

// extractEntities pulls renderable items out of successful tool results, in
// result order. Failed results and unrecognized shapes contribute nothing.
func extractEntities(results []assistant.ToolResult) []entity {
	var entities []entity
	for _, result := range results {
		if !result.Success || result.Data == nil {
			continue
		}
		if list, ok := result.Data["products"].([]interface{}); ok {
			for _, item := range list {
				if m, ok := item.(map[string]interface{}); ok {
					entities = append(entities, entity{kind: kindProduct, data: m})
				}
			}
		}
		if m, ok := result.Data["product"].(map[string]interface{}); ok {
			entities = append(entities, entity{kind: kindProduct, data: m})
		}
		if list, ok := result.Data["orders"].([]interface{}); ok {
			for _, item := range list {
				if m, ok := item.(map[string]interface{}); ok {
					entities = append(entities, entity{kind: kindOrder, data: m})
				}
			}
		}
		if m, ok := result.Data["order"].(map[string]interface{}); ok {
			entities = append(entities, entity{kind: kindOrder, data: m})
		}
		if m, ok := result.Data["estimate"].(map[string]interface{}); ok {
			entities = append(entities, entity{kind: kindEstimate, data: m})
		}
	}
	return entities
}

// formatPrice renders a monetary amount the way the storefront shows it.
func formatPrice(amount float64) string {
	return fmt.Sprintf("$%.2f", amount)
}

func numeric(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
