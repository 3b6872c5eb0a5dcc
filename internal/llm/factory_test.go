package llm

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
)

func TestFirstAvailable_PicksFirstWorkingCandidate(t *testing.T) {
	cfg := Config{
		Candidates: []Candidate{
			{Provider: "nonsense", Model: "nope"},
			{Provider: "mock", Model: "mock"},
		},
		Retry: RetryConfig{MaxAttempts: 1},
	}

	p, err := FirstAvailable(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("expected a provider, got: %v", err)
	}
	if p.ModelID() != "mock" {
		t.Fatalf("expected mock provider, got %q", p.ModelID())
	}
}

func TestFirstAvailable_AllCandidatesFail(t *testing.T) {
	cfg := Config{
		Candidates: []Candidate{
			{Provider: "nonsense", Model: "a"},
			{Provider: "bogus", Model: "b"},
		},
	}

	_, err := FirstAvailable(context.Background(), cfg, zap.NewNop())
	var noProv *ErrNoProvider
	if !errors.As(err, &noProv) {
		t.Fatalf("expected ErrNoProvider, got: %v", err)
	}
	if len(noProv.Tried) != 2 {
		t.Fatalf("expected 2 tried candidates, got %d", len(noProv.Tried))
	}
}

func TestFirstAvailable_EmptyCandidateList(t *testing.T) {
	_, err := FirstAvailable(context.Background(), Config{}, zap.NewNop())
	var noProv *ErrNoProvider
	if !errors.As(err, &noProv) {
		t.Fatalf("expected ErrNoProvider, got: %v", err)
	}
}

func TestPromoteCandidate_InfersProvider(t *testing.T) {
	cands := DefaultConfig().Candidates

	promoted := promoteCandidate(cands, "gpt-4o")
	if promoted[0].Provider != "openai" || promoted[0].Model != "gpt-4o" {
		t.Fatalf("unexpected front candidate: %+v", promoted[0])
	}

	promoted = promoteCandidate(cands, "claude-haiku")
	if promoted[0].Provider != "anthropic" {
		t.Fatalf("expected anthropic, got %q", promoted[0].Provider)
	}
	// Promotion deduplicates the promoted model.
	for _, c := range promoted[1:] {
		if c.Model == "claude-haiku" {
			t.Fatal("promoted model still present later in the list")
		}
	}

	promoted = promoteCandidate(cands, "gemini-2.0-flash")
	if promoted[0].Provider != "gemini" {
		t.Fatalf("expected gemini, got %q", promoted[0].Provider)
	}
}
