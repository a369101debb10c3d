package config

import (
	"os"
	"path/filepath"
	"testing"
)

func clearOpenAIEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("OPENAI_MODEL", "")
	t.Setenv("OPENAI_BASE_URL", "")
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearOpenAIEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Memory.Path != ":memory:" || cfg.Summarizer.Limit != 400 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if name, _ := cfg.GetDefaultProvider(); name != "" {
		t.Errorf("expected no provider, got %s", name)
	}
}

func TestLoad_JSON(t *testing.T) {
	clearOpenAIEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{
		"app": {"name": "forge", "dataset": "sales.csv"},
		"providers": {
			"openrouter": {"api_key": "k2", "model": "m2", "enabled": false},
			"openai": {"api_key": "k1", "model": "m1", "enabled": true}
		},
		"memory": {"type": "sqlite", "path": "runs.db"}
	}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.App.Dataset != "sales.csv" || cfg.Memory.Path != "runs.db" {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.Summarizer.Limit != 400 {
		t.Error("unset fields should keep defaults")
	}
	name, p := cfg.GetDefaultProvider()
	if name != "openai" || p.APIKey != "k1" {
		t.Errorf("unexpected provider %s: %+v", name, p)
	}
}

func TestLoad_YAML(t *testing.T) {
	clearOpenAIEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
app:
  name: forge
planner:
  forbidden_columns: [amount, total_sales]
summarizer:
  limit: 120
log:
  events: true
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Planner.ForbiddenColumns) != 2 || cfg.Summarizer.Limit != 120 || !cfg.Log.Events {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected decode error")
	}
}

func TestLoad_EnvProvider(t *testing.T) {
	clearOpenAIEnv(t)
	t.Setenv("OPENAI_API_KEY", "env-key")
	t.Setenv("OPENAI_BASE_URL", "https://example.test/v1")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatal(err)
	}
	name, p := cfg.GetDefaultProvider()
	if name != "openai" || p.APIKey != "env-key" || p.Model != "gpt-4o-mini" || p.BaseURL != "https://example.test/v1" {
		t.Errorf("unexpected provider %s: %+v", name, p)
	}
}
