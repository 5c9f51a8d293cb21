package uispec

import (
	"testing"

	"github.com/shophub-ai/assistant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func templateContext() map[string]interface{} {
	return map[string]interface{}{
		"s1": map[string]interface{}{
			"customer": map[string]interface{}{"name": "Ada", "id": "CUST-001"},
			"count":    float64(2),
		},
		"session": map[string]interface{}{"customer_id": "CUST-001"},
	}
}

func TestResolveTemplatesStringProp(t *testing.T) {
	components := ResolveTemplates([]assistant.UIComponent{{
		Type:  "text_block",
		Props: map[string]interface{}{"text": "Welcome back, {{s1.customer.name}}!"},
	}}, templateContext())

	assert.Equal(t, "Welcome back, Ada!", components[0].Props["text"])
}

func TestResolveTemplatesWholePlaceholderKeepsType(t *testing.T) {
	components := ResolveTemplates([]assistant.UIComponent{{
		Type:  "text_block",
		Props: map[string]interface{}{"text": "{{s1.count}}"},
	}}, templateContext())

	assert.Equal(t, float64(2), components[0].Props["text"])
}

func TestResolveTemplatesUnresolvedLeftVerbatim(t *testing.T) {
	components := ResolveTemplates([]assistant.UIComponent{{
		Type:  "text_block",
		Props: map[string]interface{}{"text": "Hello {{s9.missing.path}}"},
	}}, templateContext())

	assert.Equal(t, "Hello {{s9.missing.path}}", components[0].Props["text"])
}

func TestResolveTemplatesActionData(t *testing.T) {
	components := ResolveTemplates([]assistant.UIComponent{{
		Type: "order_card",
		Actions: []assistant.UIAction{{
			Label:  "View",
			Action: "view_order",
			Data:   map[string]interface{}{"customer_id": "{{session.customer_id}}"},
		}},
	}}, templateContext())

	assert.Equal(t, "CUST-001", components[0].Actions[0].Data["customer_id"])
}

func TestResolveTemplatesNestedChildren(t *testing.T) {
	components := ResolveTemplates([]assistant.UIComponent{{
		Type: "checkout_steps",
		Children: []assistant.UIComponent{{
			Type:  "step_panel",
			Props: map[string]interface{}{"title": "Order for {{s1.customer.name}}"},
		}},
	}}, templateContext())

	assert.Equal(t, "Order for Ada", components[0].Children[0].Props["title"])
}

func TestBuildTemplateContextSkipsFailedResults(t *testing.T) {
	ctx := buildTemplateContext([]assistant.ToolResult{
		{StepID: "s1", Success: true, Data: map[string]interface{}{"ok": true}},
		{StepID: "s2", Success: false},
	}, &assistant.Session{ID: "sess-1", CustomerID: "CUST-001"})

	_, hasS1 := ctx["s1"]
	_, hasS2 := ctx["s2"]
	assert.True(t, hasS1)
	assert.False(t, hasS2)

	session, ok := ctx["session"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "CUST-001", session["customer_id"])
}
