package agent

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultPlannerPrompt is used when the prompts directory has no planner.md.
// <<COLUMNS>>, <<TOOLS>> and <<GOAL>> are substituted.
const DefaultPlannerPrompt = `You are a data-analysis planner for a dataset table named "sales" with EXACT columns:
<<COLUMNS>>

Available step actions:
<<TOOLS>>

Rules:
- Use only these column names.
- When aggregating revenue, alias as: SUM(revenue) AS revenue
- Output ONLY valid JSON: an array of step objects with keys: name, action (sql|plot|nlp), args (object).
- For plots, prefer to include "data_source": "<previous_sql_step_name>" when appropriate.

Example:
[
  { "name":"rev_by_date","action":"sql","args":{"query":"SELECT date, SUM(revenue) AS revenue FROM sales GROUP BY date ORDER BY date"}},
  { "name":"plot_rev","action":"plot","args":{"kind":"line","x":"date","y":"revenue","title":"Revenue Over Time"}},
  { "name":"summary","action":"nlp","args":{"text":"Summarize findings and recommend actions"}}
]

Now produce a JSON array of steps for this user goal:
<<GOAL>>
`

const (
	plannerPromptFile    = "planner.md"
	summarizerPromptFile = "summarizer.md"
)

type PromptManager struct {
	Directory string
}

func NewPromptManager(dir string) *PromptManager {
	return &PromptManager{Directory: dir}
}

// GetSystemPrompt joins the persona files of the prompts directory. The
// planner and summarizer templates are not part of it.
func (pm *PromptManager) GetSystemPrompt() (string, error) {
	files, err := os.ReadDir(pm.Directory)
	if err != nil {
		return "", fmt.Errorf("failed to read prompts directory: %v", err)
	}

	var contents []string

	// Sort files to ensure deterministic prompt order
	order := map[string]int{
		"identity.md":     1,
		"soul.md":         2,
		"capabilities.md": 3,
		"analyst.md":      4,
		"user.md":         5,
	}

	sort.Slice(files, func(i, j int) bool {
		oi, okI := order[files[i].Name()]
		oj, okJ := order[files[j].Name()]
		if okI && okJ {
			return oi < oj
		}
		if okI {
			return true
		}
		if okJ {
			return false
		}
		return files[i].Name() < files[j].Name()
	})

	for _, f := range files {
		name := f.Name()
		if f.IsDir() || !strings.HasSuffix(name, ".md") || name == plannerPromptFile || name == summarizerPromptFile {
			continue
		}
		path := filepath.Join(pm.Directory, name)
		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("Warning: Failed to read prompt file %s: %v", path, err)
			continue
		}
		contents = append(contents, string(data))
	}

	if len(contents) == 0 {
		return "", fmt.Errorf("no prompt files found in %s", pm.Directory)
	}

	return strings.Join(contents, "\n\n---\n\n"), nil
}

// GetPlannerPrompt returns planner.md, or DefaultPlannerPrompt when the file
// does not exist.
func (pm *PromptManager) GetPlannerPrompt() (string, error) {
	return pm.readOr(plannerPromptFile, DefaultPlannerPrompt)
}

// GetSummarizerPrompt returns summarizer.md, or def when it does not exist.
func (pm *PromptManager) GetSummarizerPrompt(def string) (string, error) {
	return pm.readOr(summarizerPromptFile, def)
}

func (pm *PromptManager) readOr(name, def string) (string, error) {
	if pm == nil || pm.Directory == "" {
		return def, nil
	}
	data, err := os.ReadFile(filepath.Join(pm.Directory, name))
	if errors.Is(err, fs.ErrNotExist) {
		return def, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %v", name, err)
	}
	return string(data), nil
}
