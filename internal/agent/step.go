package agent

import (
	"encoding/json"
	"fmt"
)

// ActionKind is the closed set of step actions. Anything else is
// ActionUnknown and keeps its original spelling in Action.Raw.
type ActionKind int

const (
	ActionUnknown ActionKind = iota
	ActionSQL
	ActionPlot
	ActionNLP
)

// Action is a step's action tag.
type Action struct {
	Kind ActionKind
	Raw  string
}

var (
	SQL  = Action{Kind: ActionSQL, Raw: "sql"}
	Plot = Action{Kind: ActionPlot, Raw: "plot"}
	NLP  = Action{Kind: ActionNLP, Raw: "nlp"}
)

// ParseAction maps a wire action string to its tag.
func ParseAction(s string) Action {
	switch s {
	case "sql":
		return SQL
	case "plot":
		return Plot
	case "nlp":
		return NLP
	}
	return Action{Kind: ActionUnknown, Raw: s}
}

// Unknown builds the tag for an unrecognized action.
func Unknown(raw string) Action {
	return Action{Kind: ActionUnknown, Raw: raw}
}

func (a Action) String() string {
	return a.Raw
}

func (a Action) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Raw)
}

func (a *Action) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("action must be a string: %w", err)
	}
	*a = ParseAction(s)
	return nil
}

// Args are the action-specific step arguments.
type Args map[string]any

// String returns a non-empty string argument.
func (a Args) String(key string) (string, bool) {
	s, ok := a[key].(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// StringOr returns the string argument or def.
func (a Args) StringOr(key, def string) string {
	if s, ok := a.String(key); ok {
		return s
	}
	return def
}

// Step is one unit of work in a plan.
type Step struct {
	Name   string `json:"name"`
	Action Action `json:"action"`
	Args   Args   `json:"args"`
}

// ParseSteps decodes a JSON array of steps. Elements that are not objects
// with a string name, a string action and an object args are dropped and
// reported as StepShapeErrors. A non-array input is an error.
func ParseSteps(data []byte) ([]Step, []error, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, err
	}

	steps := make([]Step, 0, len(raw))
	var dropped []error
	for i, r := range raw {
		step, err := parseStep(r)
		if err != nil {
			dropped = append(dropped, &StepShapeError{Index: i, Reason: err.Error()})
			continue
		}
		steps = append(steps, step)
	}
	return steps, dropped, nil
}

func parseStep(data json.RawMessage) (Step, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return Step{}, fmt.Errorf("step is not an object")
	}
	for _, key := range []string{"name", "action", "args"} {
		if _, ok := fields[key]; !ok {
			return Step{}, fmt.Errorf("missing %q", key)
		}
	}

	var step Step
	if err := json.Unmarshal(fields["name"], &step.Name); err != nil {
		return Step{}, fmt.Errorf("name must be a string")
	}
	if err := json.Unmarshal(fields["action"], &step.Action); err != nil {
		return Step{}, err
	}
	if err := json.Unmarshal(fields["args"], &step.Args); err != nil || step.Args == nil {
		return Step{}, fmt.Errorf("args must be an object")
	}
	return step, nil
}
