package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/rahul/insightforge/internal/dataset"
	"github.com/rahul/insightforge/internal/governance"
	"github.com/rahul/insightforge/internal/observability"
	"github.com/rahul/insightforge/internal/tools"
	"github.com/tmc/langchaingo/llms"
)

var jsonArrayRe = regexp.MustCompile(`(?s)(\[.*\])`)

// LLMPlanner asks a language model for a JSON plan. Anything that goes wrong
// falls back to the deterministic plan, so Plan never fails.
type LLMPlanner struct {
	Model    llms.Model
	Prompts  *PromptManager
	Registry *tools.Registry
	Policy   governance.PolicyEngine
	Fallback Planner
	Logger   *observability.Logger
	Columns  []string
}

func NewLLMPlanner(model llms.Model, prompts *PromptManager, registry *tools.Registry, policy governance.PolicyEngine, logger *observability.Logger) *LLMPlanner {
	return &LLMPlanner{
		Model:    model,
		Prompts:  prompts,
		Registry: registry,
		Policy:   policy,
		Fallback: DeterministicPlanner{},
		Logger:   logger,
		Columns:  dataset.SalesColumns,
	}
}

func (p *LLMPlanner) Plan(ctx context.Context, goal string) []Step {
	steps, err := p.GeneratePlan(ctx, goal)
	if err != nil {
		log.Printf("Warning: %v; using deterministic plan", err)
		p.Logger.LogPlanFallback(goal, err)
		return p.fallback(ctx, goal)
	}
	return steps
}

func (p *LLMPlanner) fallback(ctx context.Context, goal string) []Step {
	if p.Fallback != nil {
		if steps := p.Fallback.Plan(ctx, goal); len(steps) > 0 {
			return steps
		}
	}
	return deterministicPlan(goal)
}

// GeneratePlan returns the sanitized model plan or a *PlanGenerationError.
func (p *LLMPlanner) GeneratePlan(ctx context.Context, goal string) ([]Step, error) {
	if p.Model == nil {
		return nil, &PlanGenerationError{Reason: "no model configured"}
	}

	messages, err := p.messages(goal)
	if err != nil {
		return nil, &PlanGenerationError{Reason: "prompt unavailable", Cause: err}
	}

	resp, err := p.Model.GenerateContent(ctx, messages)
	if err != nil {
		p.Logger.LogLLM("plan", messages, "", err)
		return nil, &PlanGenerationError{Reason: "model call failed", Cause: err}
	}
	if len(resp.Choices) == 0 {
		return nil, &PlanGenerationError{Reason: "model returned no choices"}
	}
	content := resp.Choices[0].Content
	p.Logger.LogLLM("plan", messages, content, nil)

	raw, ok := extractJSON(content)
	if !ok {
		return nil, &PlanGenerationError{Reason: "no JSON plan in model output"}
	}
	steps, dropped, err := ParseSteps(raw)
	if err != nil {
		return nil, &PlanGenerationError{Reason: "model output is not a step array", Cause: err}
	}
	for _, d := range dropped {
		log.Printf("Warning: %v", d)
	}

	if err := p.sanitize(ctx, steps); err != nil {
		return nil, err
	}
	if len(steps) == 0 {
		return nil, &PlanGenerationError{Reason: "model plan has no usable steps"}
	}
	return steps, nil
}

func (p *LLMPlanner) messages(goal string) ([]llms.MessageContent, error) {
	template, err := p.Prompts.GetPlannerPrompt()
	if err != nil {
		return nil, err
	}

	toolsList := ""
	if p.Registry != nil {
		toolsList = p.Registry.Describe()
	}
	prompt := strings.NewReplacer(
		"<<COLUMNS>>", "["+strings.Join(p.Columns, ", ")+"]",
		"<<TOOLS>>", toolsList,
		"<<GOAL>>", goal,
	).Replace(template)

	var messages []llms.MessageContent
	if p.Prompts != nil && p.Prompts.Directory != "" {
		if system, err := p.Prompts.GetSystemPrompt(); err == nil {
			messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, system))
		}
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, prompt))
	return messages, nil
}

// sanitize rejects the whole plan when any sql step fails the policy.
func (p *LLMPlanner) sanitize(ctx context.Context, steps []Step) error {
	if p.Policy == nil {
		return nil
	}
	for _, s := range steps {
		if s.Action.Kind != ActionSQL {
			continue
		}
		query := s.Args.StringOr("query", "")
		res, err := p.Policy.Evaluate(ctx, governance.Request{Tool: "sql", Arguments: query, Step: s.Name})
		if err != nil {
			return &PlanGenerationError{Reason: "policy evaluation failed", Cause: err}
		}
		p.Logger.LogPolicyCheck("sql", string(res.Effect), res.Reason)
		if res.Effect == governance.EffectDeny {
			return &PlanGenerationError{Reason: fmt.Sprintf("step %q rejected: %s", s.Name, res.Reason)}
		}
	}
	return nil
}

// extractJSON finds the plan in model output: the whole text, else the
// outermost [...] block, else that block with single quotes swapped.
func extractJSON(text string) ([]byte, bool) {
	text = strings.TrimSpace(text)
	if json.Valid([]byte(text)) {
		return []byte(text), true
	}
	m := jsonArrayRe.FindString(text)
	if m == "" {
		return nil, false
	}
	if json.Valid([]byte(m)) {
		return []byte(m), true
	}
	if fixed := strings.ReplaceAll(m, "'", `"`); json.Valid([]byte(fixed)) {
		return []byte(fixed), true
	}
	return nil, false
}
