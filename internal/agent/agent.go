package agent

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rahul/insightforge/internal/dataset"
	"github.com/rahul/insightforge/internal/observability"
	"github.com/rahul/insightforge/internal/store"
	"github.com/rahul/insightforge/internal/tools"
)

// Planner turns a goal into steps. Implementations never return an empty
// plan and never fail.
type Planner interface {
	Plan(ctx context.Context, goal string) []Step
}

type QueryRunner interface {
	Run(ctx context.Context, query string) (*dataset.Table, error)
}

type ChartRenderer interface {
	Render(ctx context.Context, req tools.ChartRequest) error
}

type Summarizer interface {
	Summarize(ctx context.Context, text string) string
}

type RunMemory interface {
	Add(ctx context.Context, rec store.RunRecord) error
}

// Agent is the plan interpreter. It executes steps strictly in order against
// a fresh execution context per run.
type Agent struct {
	Planner    Planner
	SQL        QueryRunner
	Charts     ChartRenderer
	Summarizer Summarizer
	Memory     RunMemory
	// Default is charted when a plot step runs before any sql step. New
	// stores a copy, so later changes to the caller's table are not seen.
	Default *dataset.Table
	Logger  *observability.Logger

	now func() time.Time
}

func New(planner Planner, sql QueryRunner, charts ChartRenderer, summarizer Summarizer, memory RunMemory, defaultTable *dataset.Table, logger *observability.Logger) *Agent {
	return &Agent{
		Planner:    planner,
		SQL:        sql,
		Charts:     charts,
		Summarizer: summarizer,
		Memory:     memory,
		Default:    defaultTable.Clone(),
		Logger:     logger,
		now:        time.Now,
	}
}

// Run plans the goal and executes the plan.
func (a *Agent) Run(ctx context.Context, goal string) (*Report, error) {
	runID := a.newRunID()
	steps := a.Planner.Plan(ctx, goal)
	return a.execute(ctx, runID, goal, steps)
}

// Execute runs an already planned list of steps. Only a failing sql step (or
// a cancelled context) aborts the run; every other problem is recorded as an
// artifact.
func (a *Agent) Execute(ctx context.Context, goal string, steps []Step) (*Report, error) {
	return a.execute(ctx, a.newRunID(), goal, steps)
}

func (a *Agent) execute(ctx context.Context, runID, goal string, steps []Step) (*Report, error) {
	a.Logger.LogPlan(runID, goal, len(steps))

	ec := newExecutionContext()
	artifacts := make([]Artifact, 0, len(steps))

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			a.Logger.LogRun(runID, goal, len(artifacts), err)
			return nil, err
		}
		art, err := a.executeStep(ctx, runID, step, ec, artifacts)
		if err != nil {
			a.Logger.LogStep(runID, step.Name, step.Action.String(), "failed")
			a.Logger.LogRun(runID, goal, len(artifacts), err)
			return nil, fmt.Errorf("step %q: %w", step.Name, err)
		}
		a.Logger.LogStep(runID, step.Name, step.Action.String(), string(art.Type))
		artifacts = append(artifacts, art)
	}

	report := &Report{
		ID:        runID,
		Goal:      goal,
		Plan:      steps,
		Artifacts: artifacts,
		Summary:   a.finalSummary(ctx, artifacts),
	}
	a.remember(ctx, report)
	a.Logger.LogRun(runID, goal, len(artifacts), nil)
	return report, nil
}

func (a *Agent) executeStep(ctx context.Context, runID string, step Step, ec *executionContext, prior []Artifact) (Artifact, error) {
	switch step.Action.Kind {
	case ActionSQL:
		query := step.Args.StringOr("query", "")
		a.Logger.LogToolCall(runID, step.Name, "sql", query)
		t, err := a.SQL.Run(ctx, query)
		if err != nil {
			return Artifact{}, err
		}
		ec.store(step.Name, t)
		return Artifact{Name: step.Name, Type: ArtifactTable, Table: t}, nil

	case ActionPlot:
		t, source := resolvePlotTable(step.Args, ec, a.Default)
		req := tools.ChartRequest{
			Kind:  step.Args.StringOr("kind", tools.ChartLine),
			Table: t,
			X:     step.Args.StringOr("x", ""),
			Y:     step.Args.StringOr("y", ""),
			Title: step.Args.StringOr("title", ""),
		}
		a.Logger.LogToolCall(runID, step.Name, "plot", source)

		status := PlotStatus{Rendered: true, Source: source}
		if err := a.Charts.Render(ctx, req); err != nil {
			status.Rendered = false
			status.Reason = err.Error()
			var rerr *tools.RenderError
			if errors.As(err, &rerr) {
				status.Reason = rerr.Reason
			}
		}
		a.Logger.LogToolResult(runID, step.Name, "plot", status.String())
		return Artifact{Name: step.Name, Type: ArtifactPlot, Plot: status}, nil

	case ActionNLP:
		text := step.Args.StringOr("text", "") + "\n\nArtifacts:\n" + strings.Join(artifactNames(prior), ", ")
		a.Logger.LogToolCall(runID, step.Name, "nlp", text)
		return Artifact{Name: step.Name, Type: ArtifactText, Text: a.Summarizer.Summarize(ctx, text)}, nil

	default:
		return Artifact{Name: step.Name, Type: ArtifactNote, Text: fmt.Sprintf("Unknown action %s", step.Action.Raw)}, nil
	}
}

// finalSummary is the last text artifact, or a summary of the artifact names
// when the plan produced no text.
func (a *Agent) finalSummary(ctx context.Context, artifacts []Artifact) string {
	for i := len(artifacts) - 1; i >= 0; i-- {
		if artifacts[i].Type == ArtifactText {
			return artifacts[i].Text
		}
	}
	return a.Summarizer.Summarize(ctx, "Summary of artifacts:\n"+strings.Join(artifactNames(artifacts), ", "))
}

func (a *Agent) remember(ctx context.Context, r *Report) {
	if a.Memory == nil {
		return
	}
	rec := store.RunRecord{
		ID:        r.ID,
		Text:      r.Summary,
		Meta:      store.RunMeta{Goal: r.Goal, Artifacts: r.ArtifactNames()},
		CreatedAt: a.clock(),
	}
	if err := a.Memory.Add(ctx, rec); err != nil {
		log.Printf("Warning: failed to record run %s: %v", r.ID, err)
	}
}

func (a *Agent) clock() time.Time {
	if a.now != nil {
		return a.now()
	}
	return time.Now()
}

// newRunID is "run_<unix seconds>_<random suffix>".
func (a *Agent) newRunID() string {
	suffix := uuid.NewString()
	if id, err := uuid.NewV7(); err == nil {
		suffix = id.String()
	}
	return fmt.Sprintf("run_%d_%s", a.clock().Unix(), suffix[len(suffix)-12:])
}
