package agent

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rahul/insightforge/internal/governance"
	"github.com/rahul/insightforge/internal/tools"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/fake"
)

type scriptedModel struct {
	response string
	err      error
	messages [][]llms.MessageContent
}

func (m *scriptedModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.messages = append(m.messages, messages)
	if m.err != nil {
		return nil, m.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: m.response}}}, nil
}

func (m *scriptedModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func newTestPlanner(t *testing.T, model llms.Model) *LLMPlanner {
	t.Helper()
	policy, err := governance.NewSQLColumnPolicy(governance.DefaultForbiddenColumns)
	if err != nil {
		t.Fatal(err)
	}
	registry := tools.NewRegistry()
	registry.Register(&tools.ChartRenderer{})
	registry.Register(tools.NewSummarizer(nil, nil))
	return NewLLMPlanner(model, NewPromptManager(""), registry, policy, nil)
}

const modelPlan = `[
  {"name":"rev_by_date","action":"sql","args":{"query":"SELECT date, SUM(revenue) AS revenue FROM sales GROUP BY date ORDER BY date"}},
  {"name":"plot_rev","action":"plot","args":{"kind":"line","x":"date","y":"revenue"}},
  {"name":"summary","action":"nlp","args":{"text":"Summarize findings"}}
]`

func stepNames(steps []Step) string {
	names := make([]string, len(steps))
	for i, s := range steps {
		names[i] = s.Name
	}
	return strings.Join(names, ",")
}

func TestLLMPlanner_UsesModelPlan(t *testing.T) {
	model := &scriptedModel{response: "Here is the plan:\n```json\n" + modelPlan + "\n```"}
	p := newTestPlanner(t, model)

	steps := p.Plan(context.Background(), "show revenue over time")
	if got := stepNames(steps); got != "rev_by_date,plot_rev,summary" {
		t.Fatalf("unexpected plan %s", got)
	}
	if steps[1].Action != Plot {
		t.Errorf("unexpected action %+v", steps[1].Action)
	}

	prompt := model.messages[0][len(model.messages[0])-1].Parts[0].(llms.TextContent).Text
	for _, want := range []string{"show revenue over time", "customer_id", "- plot:", "- nlp:"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if strings.Contains(prompt, "<<GOAL>>") {
		t.Error("goal placeholder not substituted")
	}
}

func TestLLMPlanner_FakeLLM(t *testing.T) {
	p := newTestPlanner(t, fake.NewFakeLLM([]string{modelPlan}))
	if got := stepNames(p.Plan(context.Background(), "anything")); got != "rev_by_date,plot_rev,summary" {
		t.Errorf("unexpected plan %s", got)
	}
}

func TestLLMPlanner_SingleQuotedJSON(t *testing.T) {
	model := &scriptedModel{response: "[{'name':'q','action':'sql','args':{'query':'SELECT 1'}}]"}
	steps := newTestPlanner(t, model).Plan(context.Background(), "x")
	if stepNames(steps) != "q" {
		t.Errorf("unexpected plan %s", stepNames(steps))
	}
}

func TestLLMPlanner_FallsBack(t *testing.T) {
	cases := []struct {
		name  string
		model llms.Model
	}{
		{"no model", nil},
		{"model error", &scriptedModel{err: errors.New("rate limited")}},
		{"no json", &scriptedModel{response: "I cannot help with that."}},
		{"object instead of array", &scriptedModel{response: `{"name":"a"}`}},
		{"all steps malformed", &scriptedModel{response: `[{"name":"a"},{"action":"sql"}]`}},
		{"empty array", &scriptedModel{response: `[]`}},
		{"forbidden alias", &scriptedModel{response: `[
			{"name":"ok","action":"sql","args":{"query":"SELECT region FROM sales"}},
			{"name":"bad","action":"sql","args":{"query":"SELECT product_name, SUM(revenue) AS total_revenue FROM sales"}}
		]`}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p := newTestPlanner(t, c.model)
			steps := p.Plan(context.Background(), "top products")
			if got := stepNames(steps); got != "rev_by_product,plot_top_products" {
				t.Errorf("expected deterministic plan, got %s", got)
			}

			_, err := p.GeneratePlan(context.Background(), "top products")
			var perr *PlanGenerationError
			if !errors.As(err, &perr) {
				t.Errorf("expected *PlanGenerationError, got %v", err)
			}
		})
	}
}

func TestLLMPlanner_DropsMalformedSteps(t *testing.T) {
	model := &scriptedModel{response: `[
		{"name":"q","action":"sql","args":{"query":"SELECT 1"}},
		{"name":"broken","action":"plot"}
	]`}
	steps := newTestPlanner(t, model).Plan(context.Background(), "x")
	if stepNames(steps) != "q" {
		t.Errorf("unexpected plan %s", stepNames(steps))
	}
}

func TestLLMPlanner_SystemPrompt(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "identity.md"), []byte("You are a careful analyst."), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "planner.md"), []byte("Plan for: <<GOAL>>"), 0644); err != nil {
		t.Fatal(err)
	}

	model := &scriptedModel{response: modelPlan}
	p := newTestPlanner(t, model)
	p.Prompts = NewPromptManager(dir)
	p.Plan(context.Background(), "churn")

	msgs := model.messages[0]
	if len(msgs) != 2 || msgs[0].Role != llms.ChatMessageTypeSystem {
		t.Fatalf("expected system + human messages, got %d", len(msgs))
	}
	if got := msgs[1].Parts[0].(llms.TextContent).Text; got != "Plan for: churn" {
		t.Errorf("custom planner prompt not used: %q", got)
	}
}

func TestDeterministicPlanner(t *testing.T) {
	cases := map[string]string{
		"Show revenue growth":             "rev_by_date,plot_revenue_trends",
		"top products and region split":   "rev_by_product,plot_top_products,rev_by_region,plot_revenue_by_region",
		"How did sales trend by REGION?":  "rev_by_date,plot_revenue_trends,rev_by_region,plot_revenue_by_region",
		"Give me an overview of the data": "top_products,by_region",
	}
	for goal, want := range cases {
		if got := stepNames(DeterministicPlanner{}.Plan(context.Background(), goal)); got != want {
			t.Errorf("%q: got %s, want %s", goal, got, want)
		}
	}
}

func TestExtractJSON(t *testing.T) {
	if _, ok := extractJSON("nothing here"); ok {
		t.Error("expected no match")
	}
	raw, ok := extractJSON("prefix [1, 2] suffix")
	if !ok || string(raw) != "[1, 2]" {
		t.Errorf("unexpected extraction %q", raw)
	}
}
