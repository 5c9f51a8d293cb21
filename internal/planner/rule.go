package planner

import (
	"context"
	"strings"

	"github.com/shophub-ai/assistant"
)

// RulePlanner is a deterministic keyword planner. It backs tests and runs
// where no model is configured, and exercises the same plan shapes the model
// produces.
type RulePlanner struct{}

// NewRulePlanner creates a RulePlanner.
func NewRulePlanner() *RulePlanner {
	return &RulePlanner{}
}

// GeneratePlan implements assistant.Planner with fixed keyword rules.
func (p *RulePlanner) GeneratePlan(ctx context.Context, input assistant.PlannerInput) (*assistant.ExecutionPlan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	query := strings.ToLower(input.Query)
	customerID := ""
	if input.Session != nil {
		customerID = input.Session.CustomerID
	}

	switch {
	case customerID != "" && strings.Contains(query, "order"):
		return &assistant.ExecutionPlan{
			Strategy: "order_lookup",
			Steps: []assistant.PlanStep{{
				ID:   "s1",
				Tool: "get_customer_orders",
				Args: map[string]interface{}{"customer_id": customerID},
			}},
			Reasoning: "the request mentions orders and a customer is known",
		}, nil
	case customerID != "" && (strings.Contains(query, "account") || strings.Contains(query, "profile")):
		return &assistant.ExecutionPlan{
			Strategy: "account_lookup",
			Steps: []assistant.PlanStep{{
				ID:   "s1",
				Tool: "get_customer",
				Args: map[string]interface{}{"customer_id": customerID},
			}},
			Reasoning: "the request is about the customer's own account",
		}, nil
	default:
		return &assistant.ExecutionPlan{
			Strategy: "catalog_search",
			Steps: []assistant.PlanStep{{
				ID:   "s1",
				Tool: "search_products",
				Args: map[string]interface{}{"query": input.Query},
			}},
			Reasoning: "defaulting to a catalog search with the request text",
		}, nil
	}
}
