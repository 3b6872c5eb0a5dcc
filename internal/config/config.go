package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/abhisek/wikiquiz/internal/llm"
)

// Config holds all process-wide settings. It is constructed once at startup
// and passed by reference into every component constructor.
type Config struct {
	// AppEnv selects logger behavior. Values: "development", "production".
	AppEnv string

	// Host and Port for the HTTP server.
	Host string
	Port int

	// AllowedOrigins for CORS.
	AllowedOrigins []string

	// DatabaseDSN is the GORM DSN. Interpreted as a Postgres DSN when
	// DatabaseDriver is "postgres", a file path for "sqlite".
	DatabaseDriver string
	DatabaseDSN    string

	// RedisAddr enables the Redis-backed HTTP validator cache when non-empty.
	RedisAddr     string
	RedisPassword string

	// RequestTimeout bounds a single outbound fetch.
	RequestTimeout time.Duration

	// MinBodyChars is the minimum extracted body length accepted for
	// generation. Shorter bodies are treated as extraction failure.
	MinBodyChars int

	// ArticleCharLimit hard-caps article text sent to the model.
	ArticleCharLimit int

	// DefaultMinQuestions and DefaultMaxQuestions apply when the request
	// omits them.
	DefaultMinQuestions int
	DefaultMaxQuestions int

	// MaxPageSize clamps the history page_size parameter.
	MaxPageSize int

	// LLMConcurrency bounds simultaneous model calls process-wide.
	LLMConcurrency int64

	// LLM carries provider credentials, model candidates and retry policy.
	LLM llm.Config
}

// Default returns a Config with sensible defaults. API keys are empty and
// must come from the environment.
func Default() Config {
	return Config{
		AppEnv:              "development",
		Host:                "0.0.0.0",
		Port:                8000,
		AllowedOrigins:      []string{"http://localhost:5173", "http://localhost:3000"},
		DatabaseDriver:      "sqlite",
		DatabaseDSN:         "wikiquiz.db",
		RequestTimeout:      15 * time.Second,
		MinBodyChars:        200,
		ArticleCharLimit:    80_000,
		DefaultMinQuestions: 7,
		DefaultMaxQuestions: 10,
		MaxPageSize:         50,
		LLMConcurrency:      1,
		LLM:                 llm.DefaultConfig(),
	}
}

// Load builds a Config from a .env file (if present) and environment
// variables, falling back to defaults for unset values.
func Load() (Config, error) {
	// Missing .env is fine; env vars still apply.
	_ = godotenv.Load()

	cfg := Default()

	if v := os.Getenv("WIKIQUIZ_ENV"); v != "" {
		cfg.AppEnv = v
	}
	if v := os.Getenv("WIKIQUIZ_HOST"); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv("WIKIQUIZ_PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("WIKIQUIZ_PORT: %w", err)
		}
		cfg.Port = p
	}
	if v := os.Getenv("WIKIQUIZ_ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = splitAndTrim(v)
	}
	if v := os.Getenv("WIKIQUIZ_DB_DRIVER"); v != "" {
		cfg.DatabaseDriver = v
	}
	if v := os.Getenv("WIKIQUIZ_DB_DSN"); v != "" {
		cfg.DatabaseDSN = v
	}
	if v := os.Getenv("WIKIQUIZ_REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("WIKIQUIZ_REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("WIKIQUIZ_REQUEST_TIMEOUT_SECONDS"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("WIKIQUIZ_REQUEST_TIMEOUT_SECONDS: %w", err)
		}
		cfg.RequestTimeout = time.Duration(secs) * time.Second
	}

	cfg.LLM = llm.ConfigFromEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func splitAndTrim(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks internal consistency. Provider keys are validated lazily at
// pipeline construction, not here, because the rule-based fallback works
// without any key.
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port out of range: %d", c.Port)
	}
	switch c.DatabaseDriver {
	case "sqlite", "postgres", "memory":
	default:
		return fmt.Errorf("unknown database driver: %q", c.DatabaseDriver)
	}
	if c.DefaultMinQuestions > c.DefaultMaxQuestions {
		return fmt.Errorf("default min_questions %d exceeds max_questions %d",
			c.DefaultMinQuestions, c.DefaultMaxQuestions)
	}
	if c.LLMConcurrency < 1 {
		return fmt.Errorf("llm concurrency must be at least 1")
	}
	return nil
}
