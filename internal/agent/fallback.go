package agent

import (
	"context"
	"strings"
)

// DeterministicPlanner builds a plan from keywords in the goal. It is the
// safety net behind LLMPlanner and always returns at least two steps.
type DeterministicPlanner struct{}

func (DeterministicPlanner) Plan(ctx context.Context, goal string) []Step {
	return deterministicPlan(goal)
}

func deterministicPlan(goal string) []Step {
	g := strings.ToLower(goal)
	var plan []Step

	if strings.Contains(g, "trend") || strings.Contains(g, "over time") || strings.Contains(g, "growth") {
		plan = append(plan,
			Step{Name: "rev_by_date", Action: SQL, Args: Args{
				"query": "SELECT date, SUM(revenue) AS revenue FROM sales GROUP BY date ORDER BY date",
			}},
			Step{Name: "plot_revenue_trends", Action: Plot, Args: Args{
				"kind": "line", "x": "date", "y": "revenue", "title": "Revenue Trends Over Time", "data_source": "rev_by_date",
			}},
		)
	}
	if strings.Contains(g, "product") {
		plan = append(plan,
			Step{Name: "rev_by_product", Action: SQL, Args: Args{
				"query": "SELECT product, SUM(revenue) AS revenue FROM sales GROUP BY product ORDER BY revenue DESC",
			}},
			Step{Name: "plot_top_products", Action: Plot, Args: Args{
				"kind": "bar", "x": "product", "y": "revenue", "title": "Top Products by Revenue", "data_source": "rev_by_product",
			}},
		)
	}
	if strings.Contains(g, "region") {
		plan = append(plan,
			Step{Name: "rev_by_region", Action: SQL, Args: Args{
				"query": "SELECT region, SUM(revenue) AS revenue FROM sales GROUP BY region ORDER BY revenue DESC",
			}},
			Step{Name: "plot_revenue_by_region", Action: Plot, Args: Args{
				"kind": "bar", "x": "region", "y": "revenue", "title": "Revenue by Region", "data_source": "rev_by_region",
			}},
		)
	}

	if len(plan) == 0 {
		plan = []Step{
			{Name: "top_products", Action: SQL, Args: Args{
				"query": "SELECT product, SUM(revenue) AS revenue FROM sales GROUP BY product ORDER BY revenue DESC LIMIT 5",
			}},
			{Name: "by_region", Action: SQL, Args: Args{
				"query": "SELECT region, SUM(revenue) AS revenue FROM sales GROUP BY region ORDER BY revenue DESC",
			}},
		}
	}
	return plan
}
