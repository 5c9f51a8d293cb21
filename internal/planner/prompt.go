package planner

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shophub-ai/assistant"
)

const plannerInstructions = `You are the planning component of a shopping assistant.
Given the user request and the available tools, respond with ONLY a JSON object:

{
  "strategy": "<short label for the approach>",
  "reasoning": "<one sentence on why these steps answer the request>",
  "steps": [
    {"id": "s1", "tool": "<tool name>", "args": {...}, "reasoning": "<why this step>"}
  ]
}

Rules:
- Use only the tools listed below, with their documented arguments.
- Steps run in order. An argument may reference an earlier step's output
  with "$stepID.field" (for example "$s1.products[0].id").
- Prefer the fewest steps that fully answer the request.
- Do not wrap the JSON in markdown or add any other text.`

// buildPlannerPrompt serializes the catalog and conversation context into
// the planning prompt.
func buildPlannerPrompt(input assistant.PlannerInput) string {
	var b strings.Builder
	b.WriteString(plannerInstructions)

	b.WriteString("\n\nAvailable tools:\n")
	for _, d := range input.Catalog {
		fmt.Fprintf(&b, "\n- %s: %s\n", d.Name, d.Description)
		if len(d.Parameters) > 0 {
			b.WriteString("  Arguments:\n")
			names := make([]string, 0, len(d.Parameters))
			for name := range d.Parameters {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintf(&b, "    %s: %s\n", name, d.Parameters[name])
			}
		}
		if d.Returns != "" {
			fmt.Fprintf(&b, "  Returns: %s\n", d.Returns)
		}
		for _, example := range d.Examples {
			fmt.Fprintf(&b, "  Example: %s\n", example)
		}
	}

	if input.Session != nil {
		if input.Session.CustomerID != "" {
			fmt.Fprintf(&b, "\nCustomer id: %s\n", input.Session.CustomerID)
		}
		if history := recentHistory(input.Session, 6); history != "" {
			b.WriteString("\nRecent conversation:\n")
			b.WriteString(history)
		}
	}

	fmt.Fprintf(&b, "\nUser request: %s\n", input.Query)
	return b.String()
}

// recentHistory renders the last n turns, oldest first, excluding the turn
// holding the current request.
func recentHistory(session *assistant.Session, n int) string {
	history := session.History
	if len(history) > 0 {
		history = history[:len(history)-1]
	}
	if len(history) > n {
		history = history[len(history)-n:]
	}
	var b strings.Builder
	for _, turn := range history {
		fmt.Fprintf(&b, "%s: %s\n", turn.Role, turn.Content)
	}
	return b.String()
}
