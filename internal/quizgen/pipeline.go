package quizgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/abhisek/wikiquiz/internal/llm"
)

// Pipeline drives schema-constrained quiz generation:
// Drafting → Validating → (Repairing, at most once) → Normalizing → Done.
// A rate limit aborts immediately; everything else invalid after the single
// repair attempt fails with ErrGenerationInvalid.
type Pipeline struct {
	provider    llm.Provider
	gate        *semaphore.Weighted
	log         *zap.Logger
	maxTokens   int
	temperature float64
}

const (
	// constructAttempts bounds pipeline construction retries. This covers
	// transient initialization failures only, never content validation.
	constructAttempts = 2

	defaultMaxTokens   = 8192
	defaultTemperature = 0.3
)

// NewPipeline selects the first available model candidate and wires the
// concurrency gate. Construction is retried with exponential backoff plus
// jitter; when no candidate initializes the returned error unwraps to
// *llm.ErrNoProvider.
func NewPipeline(ctx context.Context, cfg llm.Config, gate *semaphore.Weighted, log *zap.Logger) (*Pipeline, error) {
	var provider llm.Provider
	var err error

	for attempt := range constructAttempts {
		provider, err = llm.FirstAvailable(ctx, cfg, log)
		if err == nil {
			break
		}
		if attempt == constructAttempts-1 {
			break
		}

		wait := constructBackoff(attempt)
		log.Warn("model selection failed, retrying",
			zap.Duration("wait", wait), zap.Error(err))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		provider:    provider,
		gate:        gate,
		log:         log,
		maxTokens:   defaultMaxTokens,
		temperature: defaultTemperature,
	}, nil
}

// ModelID reports the model identifier serving this pipeline.
func (p *Pipeline) ModelID() string {
	return p.provider.ModelID()
}

// Generate runs the full state machine for one article and returns a
// payload that passed the final schema gate.
func (p *Pipeline) Generate(ctx context.Context, input Input) (*QuizPayload, error) {
	if input.MinQuestions > input.MaxQuestions {
		return nil, fmt.Errorf("min_questions %d exceeds max_questions %d",
			input.MinQuestions, input.MaxQuestions)
	}

	schema := RequestSchema(input.MinQuestions, input.MaxQuestions)

	req := llm.Request{
		System:      systemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: buildUserMessage(input)}},
		Schema:      schema,
		MaxTokens:   p.maxTokens,
		Temperature: p.temperature,
	}

	resp, err := p.invoke(llm.WithPurpose(ctx, "quiz-gen"), req)
	if err != nil {
		var invalid *llm.ErrInvalidResponse
		if !errors.As(err, &invalid) {
			// Rate limits and transport failures surface untouched; the
			// repair budget is reserved for schema mismatches.
			return nil, err
		}
		resp, err = p.repair(ctx, input, schema, invalid)
		if err != nil {
			return nil, err
		}
	}

	var obj map[string]any
	if err := json.Unmarshal(resp.Content, &obj); err != nil {
		return nil, &ErrGenerationInvalid{Err: fmt.Errorf("parse model output: %w", err)}
	}

	return Finalize(obj, input.MinQuestions, input.MaxQuestions)
}

// repair re-invokes the model exactly once with the validation error text
// embedded in the prompt. A second schema failure is final.
func (p *Pipeline) repair(ctx context.Context, input Input, schema *llm.Schema, cause *llm.ErrInvalidResponse) (*llm.Response, error) {
	p.log.Info("attempting self-repair", zap.String("cause", cause.Err.Error()))

	req := llm.Request{
		System:      systemPrompt + repairInstruction,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: buildRepairMessage(input, cause.Err.Error())}},
		Schema:      schema,
		MaxTokens:   p.maxTokens,
		Temperature: p.temperature,
	}

	resp, err := p.invoke(llm.WithPurpose(ctx, "quiz-repair"), req)
	if err != nil {
		var invalid *llm.ErrInvalidResponse
		if errors.As(err, &invalid) {
			return nil, &ErrGenerationInvalid{Err: invalid.Err}
		}
		return nil, err
	}
	return resp, nil
}

// invoke holds the global concurrency gate across the model call only.
func (p *Pipeline) invoke(ctx context.Context, req llm.Request) (*llm.Response, error) {
	if p.gate != nil {
		if err := p.gate.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		defer p.gate.Release(1)
	}
	return p.provider.Generate(ctx, req)
}

func constructBackoff(attempt int) time.Duration {
	wait := float64(time.Second) * math.Pow(2, float64(attempt))
	wait += wait * 0.2 * (2*rand.Float64() - 1)
	return time.Duration(wait)
}
