package agent

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPromptManager_GetSystemPrompt(t *testing.T) {
	tempDir := t.TempDir()

	files := map[string]string{
		"identity.md":     "Identity Content",
		"soul.md":         "Soul Content",
		"capabilities.md": "Capabilities Content",
		"user.md":         "User Content",
		"extra.md":        "Extra Content",
		"planner.md":      "Planner Content",
		"summarizer.md":   "Summarizer Content",
	}

	for name, content := range files {
		err := os.WriteFile(filepath.Join(tempDir, name), []byte(content), 0644)
		if err != nil {
			t.Fatal(err)
		}
	}

	pm := NewPromptManager(tempDir)
	prompt, err := pm.GetSystemPrompt()
	if err != nil {
		t.Fatal(err)
	}

	expectedParts := []string{
		"Identity Content",
		"Soul Content",
		"Capabilities Content",
		"User Content",
		"Extra Content",
	}

	for _, part := range expectedParts {
		if !strings.Contains(prompt, part) {
			t.Errorf("Prompt missing expected part: %s", part)
		}
	}
	if strings.Contains(prompt, "Planner Content") || strings.Contains(prompt, "Summarizer Content") {
		t.Error("templates must not be part of the system prompt")
	}

	// Verify order
	if strings.Index(prompt, "Identity Content") >= strings.Index(prompt, "Soul Content") {
		t.Error("Identity should be before Soul")
	}
	if strings.Index(prompt, "Soul Content") >= strings.Index(prompt, "Capabilities Content") {
		t.Error("Soul should be before Capabilities")
	}
	if strings.Index(prompt, "Capabilities Content") >= strings.Index(prompt, "User Content") {
		t.Error("Capabilities should be before User")
	}

	planner, err := pm.GetPlannerPrompt()
	if err != nil || planner != "Planner Content" {
		t.Errorf("planner prompt = %q, %v", planner, err)
	}
	summarizer, err := pm.GetSummarizerPrompt("default")
	if err != nil || summarizer != "Summarizer Content" {
		t.Errorf("summarizer prompt = %q, %v", summarizer, err)
	}
}

func TestPromptManager_Defaults(t *testing.T) {
	pm := NewPromptManager(t.TempDir())

	planner, err := pm.GetPlannerPrompt()
	if err != nil {
		t.Fatal(err)
	}
	if planner != DefaultPlannerPrompt {
		t.Error("expected built-in planner prompt")
	}
	if s, _ := pm.GetSummarizerPrompt("fallback"); s != "fallback" {
		t.Errorf("expected default summarizer prompt, got %q", s)
	}
	if _, err := pm.GetSystemPrompt(); err == nil {
		t.Error("expected error for a directory without persona files")
	}
}
