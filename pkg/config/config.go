package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rahul/insightforge/internal/observability"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig                 `json:"app" yaml:"app"`
	Providers  map[string]ProviderConfig `json:"providers" yaml:"providers"`
	Memory     MemoryConfig              `json:"memory" yaml:"memory"`
	Planner    PlannerConfig             `json:"planner" yaml:"planner"`
	Summarizer SummarizerConfig          `json:"summarizer" yaml:"summarizer"`
	Log        LogConfig                 `json:"log" yaml:"log"`
}

type AppConfig struct {
	Name    string `json:"name" yaml:"name"`
	Dataset string `json:"dataset" yaml:"dataset"` // CSV path; empty uses the sample dataset
	Prompts string `json:"prompts" yaml:"prompts"`
}

type ProviderConfig struct {
	APIKey  string `json:"api_key" yaml:"api_key"`
	Model   string `json:"model" yaml:"model"`
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
}

type MemoryConfig struct {
	Type string `json:"type" yaml:"type"`
	Path string `json:"path" yaml:"path"`
}

type PlannerConfig struct {
	ForbiddenColumns []string `json:"forbidden_columns" yaml:"forbidden_columns"`
}

type SummarizerConfig struct {
	Limit int `json:"limit" yaml:"limit"`
}

type LogConfig struct {
	Events  bool   `json:"events" yaml:"events"`
	LLMPath string `json:"llm_path" yaml:"llm_path"`
}

// Default is the configuration used when no file exists: no model provider,
// in-process run memory and the sample dataset.
func Default() *Config {
	return &Config{
		App:        AppConfig{Name: "insightforge", Prompts: "./prompts"},
		Providers:  map[string]ProviderConfig{},
		Memory:     MemoryConfig{Type: "sqlite", Path: ":memory:"},
		Summarizer: SummarizerConfig{Limit: 400},
		Log:        LogConfig{LLMPath: observability.DefaultLLMLogPath},
	}
}

// Load reads a JSON or YAML (by extension) config file on top of Default
// and applies environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Printf("config file %s not found, using defaults", path)
	case err != nil:
		return nil, fmt.Errorf("failed to open config file: %w", err)
	default:
		if err := decode(path, data, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// LoadConfig is Load for main: any error is fatal.
func LoadConfig(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		log.Fatal(err)
	}
	return cfg
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	default:
		return json.Unmarshal(data, cfg)
	}
}

// applyEnv fills blanks of the openai provider from OPENAI_* variables. The
// provider is created, enabled, when only the environment names a key.
func (c *Config) applyEnv() {
	if c.Providers == nil {
		c.Providers = map[string]ProviderConfig{}
	}
	p, exists := c.Providers["openai"]
	key := os.Getenv("OPENAI_API_KEY")
	if !exists && key == "" {
		return
	}
	if !exists {
		p.Enabled = true
	}
	if p.APIKey == "" {
		p.APIKey = key
	}
	if p.Model == "" {
		p.Model = os.Getenv("OPENAI_MODEL")
	}
	if p.Model == "" {
		p.Model = "gpt-4o-mini"
	}
	if p.BaseURL == "" {
		p.BaseURL = os.Getenv("OPENAI_BASE_URL")
	}
	c.Providers["openai"] = p
}

// GetDefaultProvider returns the first enabled provider by name.
func (c *Config) GetDefaultProvider() (string, ProviderConfig) {
	names := make([]string, 0, len(c.Providers))
	for name := range c.Providers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if p := c.Providers[name]; p.Enabled {
			return name, p
		}
	}
	return "", ProviderConfig{}
}
