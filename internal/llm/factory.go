package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// newBaseProvider constructs the raw provider for one candidate.
func newBaseProvider(ctx context.Context, cfg Config, cand Candidate) (Provider, error) {
	switch cand.Provider {
	case "anthropic":
		return NewAnthropicProvider(cfg.Anthropic, cand.Model)
	case "openai":
		return NewOpenAIProvider(cfg.OpenAI, cand.Model)
	case "gemini":
		return NewGeminiProvider(ctx, cfg.Gemini, cand.Model)
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown model provider: %q", cand.Provider)
	}
}

// FirstAvailable walks the ordered candidate list and returns a provider for
// the first candidate that initializes. The provider is wrapped with logging
// and transport retry middleware: caller → retry → logging → base.
//
// Returns *ErrNoProvider when every candidate fails to initialize.
func FirstAvailable(ctx context.Context, cfg Config, log *zap.Logger) (Provider, error) {
	var tried []string
	var lastErr error

	for _, cand := range cfg.Candidates {
		id := cand.Provider + "/" + cand.Model
		base, err := newBaseProvider(ctx, cfg, cand)
		if err != nil {
			log.Debug("model candidate unavailable",
				zap.String("candidate", id), zap.Error(err))
			tried = append(tried, id)
			lastErr = err
			continue
		}

		logged := WithLogging(base, log)
		return WithRetry(logged, cfg.Retry), nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("candidate list is empty")
	}
	return nil, &ErrNoProvider{Tried: tried, LastErr: lastErr}
}
