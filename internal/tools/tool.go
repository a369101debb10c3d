package tools

import (
	"fmt"
	"sort"
	"strings"
)

// Tool describes a step executor to the planner. Name matches the plan step
// action that dispatches to it.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]any // JSON Schema for the step's args
}

// Registry manages the set of available tools.
type Registry struct {
	Tools map[string]Tool
}

func NewRegistry() *Registry {
	return &Registry{
		Tools: make(map[string]Tool),
	}
}

func (r *Registry) Register(t Tool) {
	r.Tools[t.Name()] = t
}

func (r *Registry) Get(name string) Tool {
	return r.Tools[name]
}

// Describe lists the tools as "- name: description" lines sorted by name.
func (r *Registry) Describe() string {
	names := make([]string, 0, len(r.Tools))
	for name := range r.Tools {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := make([]string, 0, len(names))
	for _, name := range names {
		t := r.Tools[name]
		line := fmt.Sprintf("- %s: %s", name, t.Description())
		if args := argNames(t.Parameters()); len(args) > 0 {
			line += fmt.Sprintf(" (args: %s)", strings.Join(args, ", "))
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func argNames(schema map[string]any) []string {
	props, ok := schema["properties"].(map[string]any)
	if !ok {
		return nil
	}
	names := make([]string, 0, len(props))
	for k := range props {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
