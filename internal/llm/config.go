package llm

import (
	"os"
	"strings"
	"time"
)

// Candidate names one model to try at pipeline construction, in fallback
// order. Provider values: "gemini", "openai", "anthropic".
type Candidate struct {
	Provider string
	Model    string
}

// Config holds all model provider configuration.
type Config struct {
	// Candidates is the ordered fallback list tried at construction time.
	// The first candidate whose provider initializes successfully is used.
	Candidates []Candidate

	Anthropic AnthropicConfig
	OpenAI    OpenAIConfig
	Gemini    GeminiConfig
	Retry     RetryConfig

	// Timeout is the maximum duration for a single model request.
	Timeout time.Duration
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey string
}

// OpenAIConfig holds OpenAI-specific configuration.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string // Optional. Override for OpenRouter or compatible APIs.
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey string
}

// RetryConfig configures retry behavior for transient transport failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig returns a Config with the standard candidate list. Gemini
// models lead, matching the provider the quiz prompt was tuned on; the
// cross-provider alternates only engage when a Gemini key is absent or
// initialization fails.
func DefaultConfig() Config {
	return Config{
		Candidates: []Candidate{
			{Provider: "gemini", Model: "gemini-2.5-flash"},
			{Provider: "gemini", Model: "gemini-2.5-pro"},
			{Provider: "gemini", Model: "gemini-flash-latest"},
			{Provider: "gemini", Model: "gemini-pro-latest"},
			{Provider: "openai", Model: "gpt-4o-mini"},
			{Provider: "anthropic", Model: "claude-haiku"},
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 1 * time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 60 * time.Second,
	}
}

// ConfigFromEnv builds a Config from environment variables, falling back to
// defaults for unset values. A WIKIQUIZ_MODEL override is promoted to the
// front of the candidate list.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if k := os.Getenv("WIKIQUIZ_GEMINI_API_KEY"); k != "" {
		cfg.Gemini.APIKey = k
	} else if k := os.Getenv("GEMINI_API_KEY"); k != "" {
		cfg.Gemini.APIKey = k
	}

	if k := os.Getenv("WIKIQUIZ_OPENAI_API_KEY"); k != "" {
		cfg.OpenAI.APIKey = k
	} else if k := os.Getenv("OPENAI_API_KEY"); k != "" {
		cfg.OpenAI.APIKey = k
	}
	if u := os.Getenv("WIKIQUIZ_OPENAI_BASE_URL"); u != "" {
		cfg.OpenAI.BaseURL = u
	}

	if k := os.Getenv("WIKIQUIZ_ANTHROPIC_API_KEY"); k != "" {
		cfg.Anthropic.APIKey = k
	} else if k := os.Getenv("ANTHROPIC_API_KEY"); k != "" {
		cfg.Anthropic.APIKey = k
	}

	if m := os.Getenv("WIKIQUIZ_MODEL"); m != "" {
		cfg.Candidates = promoteCandidate(cfg.Candidates, m)
	}

	return cfg
}

// promoteCandidate moves (or inserts) the named model at the front of the
// candidate list, inferring the provider from the model name.
func promoteCandidate(candidates []Candidate, model string) []Candidate {
	preferred := Candidate{Provider: inferProvider(model), Model: model}

	out := []Candidate{preferred}
	for _, c := range candidates {
		if c.Model != model {
			out = append(out, c)
		}
	}
	return out
}

func inferProvider(model string) string {
	switch {
	case strings.HasPrefix(model, "gpt-") || strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3"):
		return "openai"
	case strings.HasPrefix(model, "claude"):
		return "anthropic"
	default:
		return "gemini"
	}
}
