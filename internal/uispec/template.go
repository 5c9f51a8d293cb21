package uispec

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shophub-ai/assistant"
)

// placeholderPattern matches {{dotted.path}} tokens in string props.
var placeholderPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_]+(?:\.[a-zA-Z0-9_]+)*)\s*\}\}`)

// buildTemplateContext merges every successful tool result (keyed by step
// id) with the session context into one lookup map.
func buildTemplateContext(results []assistant.ToolResult, session *assistant.Session) map[string]interface{} {
	ctx := make(map[string]interface{}, len(results)+1)
	for _, result := range results {
		if result.Success && result.Data != nil {
			ctx[result.StepID] = result.Data
		}
	}
	if session != nil {
		ctx["session"] = map[string]interface{}{
			"id":          session.ID,
			"customer_id": session.CustomerID,
		}
	}
	return ctx
}

// ResolveTemplates walks a component tree and substitutes {{dotted.path}}
// placeholders in string props and action data. Unresolved placeholders are
// left verbatim so a missing value never breaks the tree.
func ResolveTemplates(components []assistant.UIComponent, context map[string]interface{}) []assistant.UIComponent {
	resolved := make([]assistant.UIComponent, len(components))
	for i, component := range components {
		resolved[i] = resolveComponent(component, context)
	}
	return resolved
}

func resolveComponent(component assistant.UIComponent, context map[string]interface{}) assistant.UIComponent {
	if len(component.Props) > 0 {
		props := make(map[string]interface{}, len(component.Props))
		for name, value := range component.Props {
			props[name] = resolveTemplateValue(value, context)
		}
		component.Props = props
	}

	if len(component.Actions) > 0 {
		actions := make([]assistant.UIAction, len(component.Actions))
		for i, action := range component.Actions {
			if len(action.Data) > 0 {
				data := make(map[string]interface{}, len(action.Data))
				for name, value := range action.Data {
					data[name] = resolveTemplateValue(value, context)
				}
				action.Data = data
			}
			actions[i] = action
		}
		component.Actions = actions
	}

	if len(component.Children) > 0 {
		component.Children = ResolveTemplates(component.Children, context)
	}
	return component
}

func resolveTemplateValue(value interface{}, context map[string]interface{}) interface{} {
	s, ok := value.(string)
	if !ok || !strings.Contains(s, "{{") {
		return value
	}

	// A prop that is exactly one placeholder keeps the looked-up value's
	// type instead of flattening it to a string.
	if m := placeholderPattern.FindStringSubmatch(s); m != nil && m[0] == s {
		if resolved, ok := lookupPath(m[1], context); ok {
			return resolved
		}
		return s
	}

	return placeholderPattern.ReplaceAllStringFunc(s, func(token string) string {
		path := placeholderPattern.FindStringSubmatch(token)[1]
		resolved, ok := lookupPath(path, context)
		if !ok {
			return token
		}
		return fmt.Sprintf("%v", resolved)
	})
}

// lookupPath walks a dotted path through nested maps.
func lookupPath(path string, context map[string]interface{}) (interface{}, bool) {
	parts := strings.Split(path, ".")
	var current interface{} = context
	for _, part := range parts {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}
