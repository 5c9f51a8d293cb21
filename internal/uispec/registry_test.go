package uispec

import (
	"testing"

	"github.com/shophub-ai/assistant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedCatalogLoads(t *testing.T) {
	registry := NewRegistry()
	for _, want := range []string{"product_card", "product_grid", "order_card", "order_list", "checkout_steps", "step_panel", "text_block", "notice"} {
		_, ok := registry.Schema(want)
		assert.True(t, ok, "missing component type %s", want)
	}
}

func TestRegistryFromYAMLRejectsBadInput(t *testing.T) {
	_, err := NewRegistryFromYAML([]byte("components: ["))
	require.Error(t, err)

	_, err = NewRegistryFromYAML([]byte("components: []"))
	require.Error(t, err)

	_, err = NewRegistryFromYAML([]byte("components:\n  - props: [text]"))
	require.Error(t, err)
}

func TestValidateAcceptsGeneratedCard(t *testing.T) {
	registry := NewRegistry()
	err := registry.Validate(assistant.UIComponent{
		Type:  "product_card",
		Props: map[string]interface{}{"title": "MacBook Air M2", "price": "$1199.99"},
		Actions: []assistant.UIAction{{
			Label: "Add to cart", Action: "add_to_cart",
			Data: map[string]interface{}{"product_id": "PROD-42"},
		}},
	})
	require.NoError(t, err)
}

func TestValidateRejectsUndeclaredProp(t *testing.T) {
	registry := NewRegistry()
	err := registry.Validate(assistant.UIComponent{
		Type:  "product_card",
		Props: map[string]interface{}{"shoe_size": 44},
	})
	require.Error(t, err)
}

func TestValidateRejectsUndeclaredAction(t *testing.T) {
	registry := NewRegistry()
	err := registry.Validate(assistant.UIComponent{
		Type:    "product_card",
		Actions: []assistant.UIAction{{Label: "Nuke", Action: "delete_everything"}},
	})
	require.Error(t, err)
}

func TestValidateRejectsChildrenOnLeaf(t *testing.T) {
	registry := NewRegistry()
	err := registry.Validate(assistant.UIComponent{
		Type:     "text_block",
		Children: []assistant.UIComponent{{Type: "notice"}},
	})
	require.Error(t, err)
}

func TestValidateAllowsUnknownType(t *testing.T) {
	registry := NewRegistry()
	err := registry.Validate(assistant.UIComponent{
		Type:  "hologram_banner",
		Props: map[string]interface{}{"anything": "goes"},
	})
	require.NoError(t, err)
}

func TestValidateDepthLimit(t *testing.T) {
	registry := NewRegistry()
	deep := assistant.UIComponent{Type: "step_panel"}
	for i := 0; i < maxTreeDepth+2; i++ {
		deep = assistant.UIComponent{Type: "step_panel", Children: []assistant.UIComponent{deep}}
	}
	require.Error(t, registry.Validate(deep))
}
