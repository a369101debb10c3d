package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/joho/godotenv"
	"github.com/rahul/insightforge/internal/agent"
	"github.com/rahul/insightforge/internal/dataset"
	"github.com/rahul/insightforge/internal/governance"
	"github.com/rahul/insightforge/internal/observability"
	"github.com/rahul/insightforge/internal/store"
	"github.com/rahul/insightforge/internal/tools"
	"github.com/rahul/insightforge/pkg/config"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const defaultGoal = "Give me an overview of revenue by product and region"

func main() {
	configPath := flag.String("config", "config.json", "path to a JSON or YAML config file")
	dataPath := flag.String("data", "", "CSV file registered as the sales table (overrides app.dataset)")
	historyN := flag.Int("history", 3, "number of recent runs to print after the report")
	showID := flag.String("show", "", "print a stored run by id and exit")
	interactive := flag.Bool("i", false, "read goals interactively until EOF")
	flag.Parse()

	// A missing .env is fine; the shell environment is used as is.
	_ = godotenv.Load()

	cfg := config.LoadConfig(*configPath)

	goal := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if goal == "" {
		goal = defaultGoal
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *showID != "" {
		if err := show(ctx, cfg, *showID); err != nil {
			log.Fatal(err)
		}
		return
	}

	observability.PrintBanner(os.Stdout)
	a, err := newApp(ctx, cfg, *dataPath, os.Stdout)
	if err != nil {
		log.Fatal(err)
	}
	defer a.Close()

	if *interactive {
		err = a.interactive(ctx, *historyN)
	} else {
		err = a.runGoal(ctx, goal, *historyN)
	}
	if err != nil {
		a.Close()
		log.Fatal(err)
	}
}

// app holds the collaborators wired from the config for the lifetime of the
// process.
type app struct {
	out     io.Writer
	agent   *agent.Agent
	history *store.HistoryStore
	closers []func() error

	// in and historyFile configure the interactive prompt; nil in reads the
	// terminal.
	in          io.ReadCloser
	historyFile string
}

func newApp(ctx context.Context, cfg *config.Config, dataPath string, out io.Writer) (*app, error) {
	a := &app{out: out, historyFile: filepath.Join(os.TempDir(), "insightforge_history")}

	table, err := loadDataset(cfg, dataPath)
	if err != nil {
		return nil, err
	}

	var events io.Writer = io.Discard
	if cfg.Log.Events {
		events = os.Stderr
	}
	logger := observability.NewLogger(events, cfg.Log.LLMPath)

	engine, err := tools.NewSQLEngine()
	if err != nil {
		return nil, fmt.Errorf("failed to open sql engine: %w", err)
	}
	a.closers = append(a.closers, engine.Close)
	if err := engine.Register(ctx, dataset.SalesTable, table); err != nil {
		a.Close()
		return nil, err
	}

	if cfg.Memory.Type != "" && cfg.Memory.Type != "sqlite" {
		log.Printf("memory type %q not supported, using sqlite", cfg.Memory.Type)
	}
	a.history, err = store.NewHistoryStore(cfg.Memory.Path)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.closers = append(a.closers, a.history.Close)

	llm, err := newModel(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	prompts := agent.NewPromptManager(cfg.App.Prompts)

	charts := tools.NewChartRenderer(a.out)
	summarizer := tools.NewSummarizer(llm, logger)
	if cfg.Summarizer.Limit > 0 {
		summarizer.Limit = cfg.Summarizer.Limit
	}
	if p, err := prompts.GetSummarizerPrompt(tools.DefaultSummaryPrompt); err == nil {
		summarizer.Prompt = p
	}

	registry := tools.NewRegistry()
	registry.Register(engine)
	registry.Register(charts)
	registry.Register(summarizer)

	forbidden := cfg.Planner.ForbiddenColumns
	if len(forbidden) == 0 {
		forbidden = governance.DefaultForbiddenColumns
	}
	policy, err := governance.NewSQLColumnPolicy(forbidden)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("invalid forbidden column list: %w", err)
	}

	planner := agent.NewLLMPlanner(llm, prompts, registry, policy, logger)
	planner.Columns = table.Columns

	a.agent = agent.New(planner, engine, charts, summarizer, a.history, table, logger)
	return a, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Printf("Warning: close failed: %v", err)
		}
	}
}

// runGoal plans and executes one goal, then prints the report and the most
// recent runs.
func (a *app) runGoal(ctx context.Context, goal string, historyN int) error {
	fmt.Fprintf(a.out, "\n%s %s\n", observability.Colorize("Goal:"), goal)
	report, err := a.agent.Run(ctx, goal)
	if err != nil {
		return err
	}
	printReport(a.out, report)

	if historyN > 0 {
		recent, err := a.history.QueryRecent(ctx, historyN)
		if err != nil {
			return err
		}
		printHistory(a.out, recent)
	}
	return nil
}

// interactive reads goals until EOF or interrupt. A failed run is reported
// and the session continues.
func (a *app) interactive(ctx context.Context, historyN int) error {
	rlCfg := &readline.Config{
		Prompt:          observability.Colorize("goal> "),
		HistoryFile:     a.historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	}
	if a.in != nil {
		rlCfg.Stdin = a.in
		rlCfg.FuncIsTerminal = func() bool { return false }
	}
	rl, err := readline.NewEx(rlCfg)
	if err != nil {
		return err
	}
	defer rl.Close()

	for ctx.Err() == nil {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		goal := strings.TrimSpace(line)
		switch goal {
		case "":
			continue
		case "exit", "quit":
			return nil
		}
		if err := a.runGoal(ctx, goal, historyN); err != nil {
			log.Printf("run failed: %v", err)
		}
	}
	return ctx.Err()
}

func loadDataset(cfg *config.Config, dataPath string) (*dataset.Table, error) {
	path := dataPath
	if path == "" {
		path = cfg.App.Dataset
	}
	if path == "" {
		return dataset.SampleSales(42, 60), nil
	}
	t, err := dataset.LoadCSV(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}
	return t, nil
}

// newModel returns nil when no provider is enabled; the planner and the
// summarizer then run without a model.
func newModel(cfg *config.Config) (llms.Model, error) {
	name, p := cfg.GetDefaultProvider()
	switch name {
	case "":
		log.Println("no enabled provider, using the deterministic planner")
		return nil, nil
	case "openai", "openrouter":
		opts := []openai.Option{
			openai.WithToken(p.APIKey),
			openai.WithModel(p.Model),
		}
		if p.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(p.BaseURL))
		}
		llm, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s client: %w", name, err)
		}
		return llm, nil
	default:
		return nil, fmt.Errorf("provider %s not supported", name)
	}
}

func printReport(w io.Writer, r *agent.Report) {
	fmt.Fprintf(w, "\nRun %s: %d steps\n", r.ID, len(r.Plan))
	for _, art := range r.Artifacts {
		fmt.Fprintf(w, "\n%s (%s)\n", observability.Colorize("== "+art.Name), art.Type)
		switch art.Type {
		case agent.ArtifactTable:
			if err := art.Table.Format(w, 10); err != nil {
				log.Printf("failed to print %s: %v", art.Name, err)
			}
		case agent.ArtifactPlot:
			fmt.Fprintln(w, art.Plot.String())
		default:
			fmt.Fprintln(w, art.Text)
		}
	}
	fmt.Fprintf(w, "\n%s\n%s\n", observability.Colorize("Summary:"), r.Summary)
}

// show prints one run from a persistent run memory.
func show(ctx context.Context, cfg *config.Config, id string) error {
	history, err := store.NewHistoryStore(cfg.Memory.Path)
	if err != nil {
		return err
	}
	defer history.Close()

	rec, err := history.Get(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "%s %s\nGoal: %s\nArtifacts: %s\n\n%s\n",
		observability.Colorize(rec.ID), rec.CreatedAt.Format("2006-01-02 15:04:05"),
		rec.Meta.Goal, strings.Join(rec.Meta.Artifacts, ", "), rec.Text)
	return nil
}

func printHistory(w io.Writer, recs []store.RunRecord) {
	if len(recs) == 0 {
		return
	}
	fmt.Fprintln(w, "\nRecent runs:")
	for _, rec := range recs {
		fmt.Fprintf(w, "  %s  %s  [%s]\n", rec.CreatedAt.Format("2006-01-02 15:04:05"), rec.Meta.Goal, strings.Join(rec.Meta.Artifacts, ", "))
	}
}
