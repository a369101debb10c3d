package governance

import (
	"context"
	"fmt"
	"regexp"
)

// Effect is the outcome of a policy check.
type Effect string

const (
	EffectAllow Effect = "allow"
	EffectDeny  Effect = "deny"
)

// Request is one planned tool call.
type Request struct {
	Tool      string
	Arguments string
	Step      string
}

type Result struct {
	Effect Effect
	Reason string
}

// PolicyEngine checks planned tool calls before a plan is accepted.
type PolicyEngine interface {
	Evaluate(ctx context.Context, req Request) (Result, error)
}

// DefaultForbiddenColumns are aliases models tend to invent for the sales
// dataset. None of them exist as columns.
var DefaultForbiddenColumns = []string{
	"product_name",
	"product_id",
	"total_sales",
	"amount",
	"total_revenue",
	"recent_revenue",
}

// Rule denies calls to Tool whose arguments match Pattern. An empty Tool
// applies the rule to every tool.
type Rule struct {
	Name    string
	Tool    string
	Pattern *regexp.Regexp
}

// RuleEngine denies whole tools and argument patterns; everything else is
// allowed.
type RuleEngine struct {
	DeniedTools map[string]bool
	Rules       []Rule
}

func NewRuleEngine() *RuleEngine {
	return &RuleEngine{DeniedTools: make(map[string]bool)}
}

// NewSQLColumnPolicy denies sql arguments that mention one of the given
// column names as a whole word, case-insensitively.
func NewSQLColumnPolicy(forbidden []string) (*RuleEngine, error) {
	e := NewRuleEngine()
	for _, col := range forbidden {
		if err := e.Deny("sql", col, `(?i)\b`+regexp.QuoteMeta(col)+`\b`); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func (e *RuleEngine) DenyTool(name string) {
	e.DeniedTools[name] = true
}

// Deny adds a named argument rule for tool.
func (e *RuleEngine) Deny(tool, name, pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("rule %q: %w", name, err)
	}
	e.Rules = append(e.Rules, Rule{Name: name, Tool: tool, Pattern: re})
	return nil
}

func (e *RuleEngine) Evaluate(ctx context.Context, req Request) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	if e.DeniedTools[req.Tool] {
		return deny(req, fmt.Sprintf("tool %s is not allowed", req.Tool)), nil
	}
	for _, r := range e.Rules {
		if r.Tool != "" && r.Tool != req.Tool {
			continue
		}
		if r.Pattern.MatchString(req.Arguments) {
			return deny(req, fmt.Sprintf("references forbidden name %q", r.Name)), nil
		}
	}
	return Result{Effect: EffectAllow}, nil
}

func deny(req Request, reason string) Result {
	if req.Step != "" {
		reason = fmt.Sprintf("step %s %s", req.Step, reason)
	}
	return Result{Effect: EffectDeny, Reason: reason}
}
