package llm

import (
	"fmt"
	"os"
	"time"
)

// Provider names accepted in Config.Provider.
const (
	ProviderNone       = "none"
	ProviderAnthropic  = "anthropic"
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderMock       = "mock"
)

// Config holds all LLM provider configuration. Fields are populated by
// cleanenv from the `llm` section of the config file and KGTUTOR_* env vars.
type Config struct {
	// Provider selects which LLM provider to use. Empty or "none" disables
	// the advisory features entirely.
	Provider string `yaml:"provider" env:"KGTUTOR_LLM_PROVIDER" env-default:""`

	Anthropic  AnthropicConfig  `yaml:"anthropic"`
	OpenAI     OpenAIConfig     `yaml:"openai"`
	Gemini     GeminiConfig     `yaml:"gemini"`
	OpenRouter OpenRouterConfig `yaml:"openrouter"`
	Retry      RetryConfig      `yaml:"retry"`
}

type AnthropicConfig struct {
	APIKey string `yaml:"-" env:"KGTUTOR_ANTHROPIC_API_KEY"`
	Model  string `yaml:"model" env:"KGTUTOR_ANTHROPIC_MODEL" env-default:"claude-haiku"`
}

type OpenAIConfig struct {
	APIKey  string `yaml:"-" env:"KGTUTOR_OPENAI_API_KEY"`
	Model   string `yaml:"model" env:"KGTUTOR_OPENAI_MODEL" env-default:"gpt-4o-mini"`
	BaseURL string `yaml:"base_url" env:"KGTUTOR_OPENAI_BASE_URL" env-default:""`
}

type GeminiConfig struct {
	APIKey string `yaml:"-" env:"KGTUTOR_GEMINI_API_KEY"`
	Model  string `yaml:"model" env:"KGTUTOR_GEMINI_MODEL" env-default:"gemini-flash"`
}

type OpenRouterConfig struct {
	APIKey  string `yaml:"-" env:"KGTUTOR_OPENROUTER_API_KEY"`
	Model   string `yaml:"model" env:"KGTUTOR_OPENROUTER_MODEL" env-default:"google/gemini-2.0-flash-exp"`
	BaseURL string `yaml:"base_url" env:"KGTUTOR_OPENROUTER_BASE_URL" env-default:""`
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" env:"KGTUTOR_LLM_RETRY_ATTEMPTS" env-default:"2"`
	InitialWait time.Duration `yaml:"initial_wait" env:"KGTUTOR_LLM_RETRY_INITIAL_WAIT" env-default:"500ms"`
	MaxWait     time.Duration `yaml:"max_wait" env:"KGTUTOR_LLM_RETRY_MAX_WAIT" env-default:"4s"`
	Multiplier  float64       `yaml:"multiplier" env:"KGTUTOR_LLM_RETRY_MULTIPLIER" env-default:"2"`
}

// DefaultConfig mirrors the env-default tags for callers that do not go
// through cleanenv (tests, library use).
func DefaultConfig() Config {
	return Config{
		Anthropic:  AnthropicConfig{Model: "claude-haiku"},
		OpenAI:     OpenAIConfig{Model: "gpt-4o-mini"},
		Gemini:     GeminiConfig{Model: "gemini-flash"},
		OpenRouter: OpenRouterConfig{Model: "google/gemini-2.0-flash-exp"},
		Retry: RetryConfig{
			MaxAttempts: 2,
			InitialWait: 500 * time.Millisecond,
			MaxWait:     4 * time.Second,
			Multiplier:  2.0,
		},
	}
}

// Disabled reports whether no provider is selected.
func (c Config) Disabled() bool {
	return c.Provider == "" || c.Provider == ProviderNone
}

// DiscoverConfig fills in a provider from the vendors' standard API key env
// vars when none was configured explicitly. Priority: Gemini, OpenAI,
// Anthropic, OpenRouter. Returns false when no key is found.
func DiscoverConfig(cfg Config) (Config, bool) {
	if k := os.Getenv("GEMINI_API_KEY"); k != "" {
		cfg.Provider = ProviderGemini
		cfg.Gemini.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("OPENAI_API_KEY"); k != "" {
		cfg.Provider = ProviderOpenAI
		cfg.OpenAI.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("ANTHROPIC_API_KEY"); k != "" {
		cfg.Provider = ProviderAnthropic
		cfg.Anthropic.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("OPENROUTER_API_KEY"); k != "" {
		cfg.Provider = ProviderOpenRouter
		cfg.OpenRouter.APIKey = k
		return cfg, true
	}
	return cfg, false
}

// Validate checks that the selected provider has its required API key set.
func (c Config) Validate() error {
	switch c.Provider {
	case "", ProviderNone, ProviderMock:
		return nil
	case ProviderAnthropic:
		if c.Anthropic.APIKey == "" {
			return fmt.Errorf("KGTUTOR_ANTHROPIC_API_KEY is required for the anthropic provider")
		}
	case ProviderOpenAI:
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("KGTUTOR_OPENAI_API_KEY is required for the openai provider")
		}
	case ProviderGemini:
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("KGTUTOR_GEMINI_API_KEY is required for the gemini provider")
		}
	case ProviderOpenRouter:
		if c.OpenRouter.APIKey == "" {
			return fmt.Errorf("KGTUTOR_OPENROUTER_API_KEY is required for the openrouter provider")
		}
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("llm retry max_attempts must be >= 1, got %d", c.Retry.MaxAttempts)
	}
	return nil
}
