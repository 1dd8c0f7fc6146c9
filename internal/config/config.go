package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Load reads .env from the current directory and sets env vars.
// Safe to call multiple times; existing env vars are not overwritten.
func Load() error {
	return godotenv.Load()
}

// LLM holds the language-model backend settings.
type LLM struct {
	Provider    string // "openai" (OpenAI-compatible, e.g. Ollama) or "gemini"
	BaseURL     string
	Model       string
	APIKey      string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// Sandbox holds the isolated-execution backend settings.
// An empty APIKey disables the sandbox and selects the reasoning fallback.
type Sandbox struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Config is the explicit configuration passed into the workflow engine
// and its collaborators at construction. Nothing reads it from globals.
type Config struct {
	LLM     LLM
	Sandbox Sandbox

	DatasetPath        string
	DatasetName        string
	DatasetDescription string

	// Parallel controls whether the five judging calls fan out
	// concurrently or run one at a time.
	Parallel bool

	// UngroundedScore is the uniform score assigned to every metric when
	// no analysis evidence could be gathered. Must be in [1,5].
	UngroundedScore int

	RunsDir  string
	RunsMax  int
	ServeKey string
}

// FromEnv builds a Config from environment variables, applying defaults
// that match a local Ollama judge and the bundled retail dataset.
func FromEnv() (Config, error) {
	cfg := Config{
		LLM: LLM{
			Provider:    envOr("CLAIMCHECK_LLM_PROVIDER", "openai"),
			BaseURL:     envOr("CLAIMCHECK_LLM_BASE_URL", "http://localhost:11434/v1"),
			Model:       envOr("CLAIMCHECK_LLM_MODEL", "llama3.2"),
			APIKey:      os.Getenv("CLAIMCHECK_LLM_API_KEY"),
			Temperature: 0.1,
			MaxTokens:   envIntOr("CLAIMCHECK_LLM_MAX_TOKENS", 2048),
			Timeout:     envDurationOr("CLAIMCHECK_LLM_TIMEOUT", 120*time.Second),
		},
		Sandbox: Sandbox{
			BaseURL: envOr("CLAIMCHECK_SANDBOX_BASE_URL", "https://api.e2b.dev"),
			APIKey:  os.Getenv("E2B_API_KEY"),
			Timeout: envDurationOr("CLAIMCHECK_SANDBOX_TIMEOUT", 300*time.Second),
		},
		DatasetPath:        envOr("CLAIMCHECK_DATASET_PATH", "data/train.csv"),
		DatasetName:        envOr("CLAIMCHECK_DATASET_NAME", "Big Mart Sales"),
		DatasetDescription: envOr("CLAIMCHECK_DATASET_DESCRIPTION", "Retail sales data from Big Mart stores with item and outlet information"),
		Parallel:           os.Getenv("CLAIMCHECK_SEQUENTIAL") != "1",
		UngroundedScore:    envIntOr("CLAIMCHECK_UNGROUNDED_SCORE", 1),
		RunsDir:            envOr("CLAIMCHECK_RUNS_DIR", "data/runs"),
		RunsMax:            envIntOr("CLAIMCHECK_RUNS_MAX", 50),
		ServeKey:           os.Getenv("CLAIMCHECK_API_KEY"),
	}
	if t := os.Getenv("CLAIMCHECK_LLM_TEMPERATURE"); t != "" {
		f, err := strconv.ParseFloat(t, 32)
		if err != nil {
			return Config{}, fmt.Errorf("invalid CLAIMCHECK_LLM_TEMPERATURE: %q", t)
		}
		cfg.LLM.Temperature = float32(f)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.LLM.Provider {
	case "openai", "gemini":
	default:
		return fmt.Errorf("unsupported LLM provider: %q", c.LLM.Provider)
	}
	if c.UngroundedScore < 1 || c.UngroundedScore > 5 {
		return fmt.Errorf("ungrounded score must be in [1,5], got %d", c.UngroundedScore)
	}
	return nil
}

// SandboxEnabled reports whether a sandbox credential is configured.
func (c Config) SandboxEnabled() bool {
	return c.Sandbox.APIKey != ""
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envDurationOr(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return def
}
