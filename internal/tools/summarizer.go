package tools

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/rahul/insightforge/internal/observability"
	"github.com/tmc/langchaingo/llms"
)

const (
	DefaultSummaryLimit  = 400
	DefaultSummaryPrompt = "Summarize succinctly:\n\n"
)

// Summarizer condenses text with a language model and falls back to
// truncation when no model is configured or the model fails.
type Summarizer struct {
	Model  llms.Model
	Prompt string
	Limit  int
	Logger *observability.Logger
}

func NewSummarizer(model llms.Model, logger *observability.Logger) *Summarizer {
	return &Summarizer{
		Model:  model,
		Prompt: DefaultSummaryPrompt,
		Limit:  DefaultSummaryLimit,
		Logger: logger,
	}
}

func (s *Summarizer) Name() string {
	return "nlp"
}

func (s *Summarizer) Description() string {
	return "Write a narrative summary of the artifacts produced so far, guided by the given instruction text."
}

func (s *Summarizer) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"text": map[string]any{
				"type":        "string",
				"description": "What to summarize or recommend",
			},
		},
	}
}

// Summarize always returns a string.
func (s *Summarizer) Summarize(ctx context.Context, text string) string {
	if s.Model == nil {
		return s.truncate(text, "\n\n(Truncated fallback summary.)", true)
	}

	prompt := s.Prompt + text
	resp, err := llms.GenerateFromSinglePrompt(ctx, s.Model, prompt)
	s.Logger.LogLLM("summarize", prompt, resp, err)
	if err != nil {
		return s.truncate(text, "\n\n(Truncated fallback)", false)
	}
	if out := strings.TrimSpace(resp); out != "" {
		return out
	}
	return s.truncate(text, "\n\n(Truncated fallback)", false)
}

// truncate keeps the first Limit characters. onlyIfLonger controls whether
// the marker is added to short text.
func (s *Summarizer) truncate(text, marker string, onlyIfLonger bool) string {
	limit := s.Limit
	if limit <= 0 {
		limit = DefaultSummaryLimit
	}
	if utf8.RuneCountInString(text) <= limit {
		if onlyIfLonger {
			return text
		}
		return text + marker
	}
	cut := 0
	for i := 0; i < limit; i++ {
		_, size := utf8.DecodeRuneInString(text[cut:])
		cut += size
	}
	return text[:cut] + marker
}
