package llm

import (
	"os"
	"strconv"
	"time"
)

// Provider identifies which backend adapter handles a request.
type Provider string

const (
	ProviderOllama     Provider = "ollama"     // local, pull-if-missing
	ProviderOpenAI     Provider = "openai"     // hosted chat completions, bearer from env
	ProviderEnterprise Provider = "enterprise" // broker-authenticated chat completions
	ProviderCompletion Provider = "completion" // hosted legacy completions endpoint
)

// TaskType identifies the kind of LLM task being performed. Each task has
// its own default model, temperature, and timeout.
type TaskType string

const (
	TaskAnalysis  TaskType = "analysis"  // plan decomposition (slow reasoning model)
	TaskStructure TaskType = "structure" // schema emission (cheap structured model)
	TaskJudge     TaskType = "judge"     // rubric judging
	TaskCalendar  TaskType = "calendar"  // synthetic calendar batches
)

// TaskConfig holds per-task LLM parameters.
type TaskConfig struct {
	Model       string
	Temperature float64
	MaxTokens   int
	TimeoutMs   int // overrides global if > 0
}

// Config holds all configuration for the LLM gateway.
type Config struct {
	Provider    Provider
	Endpoint    string
	APIKey      string
	TimeoutMs   int
	MaxAttempts int // attempts per request, including the first

	// Rate gate: minimum gap between requests and the base used for
	// exponential 429 backoff.
	MinIntervalMs  int
	RetryBaseMs    int
	ServerRetryMs  int // fixed delay between 5xx retries

	// Enterprise broker settings. Scope and tenant are configuration,
	// never per-request parameters.
	TokenEndpoint string
	ClientID      string
	Scope         string

	Tasks map[TaskType]TaskConfig
}

// DefaultConfig returns a Config with sensible defaults: a local Ollama
// endpoint and the two-model split the planner expects.
func DefaultConfig() Config {
	return Config{
		Provider:      ProviderOllama,
		Endpoint:      "http://localhost:11434",
		TimeoutMs:     120000,
		MaxAttempts:   3,
		MinIntervalMs: 500,
		RetryBaseMs:   1000,
		ServerRetryMs: 2000,
		Tasks: map[TaskType]TaskConfig{
			TaskAnalysis:  {Model: "qwen2.5:32b", Temperature: 1.0, MaxTokens: 8192, TimeoutMs: 300000},
			TaskStructure: {Model: "llama3.2", Temperature: 0.2, MaxTokens: 4096, TimeoutMs: 120000},
			TaskJudge:     {Model: "llama3.2", Temperature: 0.1, MaxTokens: 4096, TimeoutMs: 180000},
			TaskCalendar:  {Model: "llama3.2", Temperature: 0.8, MaxTokens: 8192, TimeoutMs: 240000},
		},
	}
}

// LoadConfig reads gateway configuration from environment variables,
// falling back to defaults for any unset values.
func LoadConfig() Config {
	cfg := DefaultConfig()

	if v := os.Getenv("WORKBACK_LLM_PROVIDER"); v != "" {
		cfg.Provider = Provider(v)
	}
	if v := os.Getenv("WORKBACK_LLM_ENDPOINT"); v != "" {
		cfg.Endpoint = v
	}
	if v := os.Getenv("WORKBACK_LLM_API_KEY"); v != "" {
		cfg.APIKey = v
	} else if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("WORKBACK_LLM_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.TimeoutMs = n
		}
	}
	if v := os.Getenv("WORKBACK_LLM_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxAttempts = n
		}
	}
	if v := os.Getenv("WORKBACK_LLM_MIN_INTERVAL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.MinIntervalMs = n
		}
	}
	if v := os.Getenv("WORKBACK_TOKEN_ENDPOINT"); v != "" {
		cfg.TokenEndpoint = v
	}
	if v := os.Getenv("WORKBACK_CLIENT_ID"); v != "" {
		cfg.ClientID = v
	}
	if v := os.Getenv("WORKBACK_SCOPE"); v != "" {
		cfg.Scope = v
	}

	applyTaskModelEnv(&cfg, TaskAnalysis, "WORKBACK_ANALYSIS_MODEL")
	applyTaskModelEnv(&cfg, TaskStructure, "WORKBACK_STRUCTURE_MODEL")
	applyTaskModelEnv(&cfg, TaskJudge, "WORKBACK_JUDGE_MODEL")
	applyTaskModelEnv(&cfg, TaskCalendar, "WORKBACK_CALENDAR_MODEL")

	return cfg
}

// TaskTimeout returns the effective timeout for a given task type.
// Uses the task-specific timeout if set, otherwise the global timeout.
func (c Config) TaskTimeout(task TaskType) time.Duration {
	if tc, ok := c.Tasks[task]; ok && tc.TimeoutMs > 0 {
		return time.Duration(tc.TimeoutMs) * time.Millisecond
	}
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// MinInterval returns the rate gate's minimum inter-request gap.
func (c Config) MinInterval() time.Duration {
	return time.Duration(c.MinIntervalMs) * time.Millisecond
}

func applyTaskModelEnv(cfg *Config, task TaskType, envName string) {
	v := os.Getenv(envName)
	if v == "" {
		return
	}
	tc := cfg.Tasks[task]
	tc.Model = v
	cfg.Tasks[task] = tc
}
