package tools

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/tmc/langchaingo/llms"
)

type stubModel struct {
	response string
	err      error
	prompts  []string
}

func (m *stubModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	for _, msg := range messages {
		for _, part := range msg.Parts {
			if tc, ok := part.(llms.TextContent); ok {
				m.prompts = append(m.prompts, tc.Text)
			}
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: m.response}}}, nil
}

func (m *stubModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func TestSummarizer_NoModel(t *testing.T) {
	s := NewSummarizer(nil, nil)

	short := "Summary of artifacts:\ntop_products, by_region"
	if got := s.Summarize(context.Background(), short); got != short {
		t.Errorf("short text should pass through, got %q", got)
	}

	long := strings.Repeat("a", 500)
	got := s.Summarize(context.Background(), long)
	if !strings.HasPrefix(got, strings.Repeat("a", 400)) || !strings.HasSuffix(got, "(Truncated fallback summary.)") {
		t.Errorf("unexpected truncation: %q", got)
	}
	if kept := strings.TrimSuffix(got, "\n\n(Truncated fallback summary.)"); kept != strings.Repeat("a", 400) {
		t.Errorf("expected 400 characters kept, got %d", len(kept))
	}
}

func TestSummarizer_Model(t *testing.T) {
	m := &stubModel{response: "  Revenue is concentrated in the North.  "}
	s := NewSummarizer(m, nil)

	got := s.Summarize(context.Background(), "findings")
	if got != "Revenue is concentrated in the North." {
		t.Errorf("unexpected summary: %q", got)
	}
	if len(m.prompts) != 1 || m.prompts[0] != DefaultSummaryPrompt+"findings" {
		t.Errorf("unexpected prompt: %q", m.prompts)
	}
}

func TestSummarizer_ModelFailureFallsBack(t *testing.T) {
	s := NewSummarizer(&stubModel{err: errors.New("quota exceeded")}, nil)

	got := s.Summarize(context.Background(), "findings")
	if got != "findings\n\n(Truncated fallback)" {
		t.Errorf("unexpected fallback: %q", got)
	}

	s = NewSummarizer(&stubModel{response: "   "}, nil)
	if got := s.Summarize(context.Background(), "findings"); !strings.HasPrefix(got, "findings") {
		t.Errorf("empty answer should fall back, got %q", got)
	}
}

func TestSummarizer_TruncatesByCharacter(t *testing.T) {
	s := &Summarizer{Limit: 5}
	got := s.Summarize(context.Background(), "abcdé and more")
	if !strings.HasPrefix(got, "abcdé\n") {
		t.Errorf("expected five characters kept, got %q", got)
	}

	long := strings.Repeat("é", 450)
	got = NewSummarizer(nil, nil).Summarize(context.Background(), long)
	kept := strings.TrimSuffix(got, "\n\n(Truncated fallback summary.)")
	if kept != strings.Repeat("é", 400) {
		t.Errorf("expected 400 characters kept, got %d", utf8.RuneCountInString(kept))
	}

	short := strings.Repeat("é", 300)
	if got := NewSummarizer(nil, nil).Summarize(context.Background(), short); got != short {
		t.Error("300 characters are under the limit and should pass through")
	}
}

func TestRegistry_Describe(t *testing.T) {
	engine := newTestEngine(t)
	r := NewRegistry()
	r.Register(engine)
	r.Register(&ChartRenderer{})
	r.Register(NewSummarizer(nil, nil))

	desc := r.Describe()
	lines := strings.Split(desc, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 tools, got:\n%s", desc)
	}
	if !strings.HasPrefix(lines[0], "- nlp:") || !strings.HasPrefix(lines[1], "- plot:") || !strings.HasPrefix(lines[2], "- sql:") {
		t.Errorf("tools not sorted by name:\n%s", desc)
	}
	if !strings.Contains(lines[2], "(args: query)") {
		t.Errorf("missing args for sql: %q", lines[2])
	}
	if r.Get("plot") == nil {
		t.Error("expected plot tool")
	}
}
