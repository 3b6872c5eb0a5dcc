package llm

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ErrRateLimit indicates the provider returned a rate limit error (429).
// RetryAfter carries the provider's hint when one was supplied; zero when
// unknown. The pipeline surfaces this to the caller instead of attempting
// repair, so the client can back off.
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("rate limited: %v", e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrInvalidResponse indicates the model returned content that does not
// conform to the requested schema. Content holds the offending output so the
// repair pass can show the model what it produced.
type ErrInvalidResponse struct {
	Content json.RawMessage
	Err     error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("invalid model response: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrProviderUnavailable indicates the provider is down or unreachable.
type ErrProviderUnavailable struct {
	Err error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("model provider unavailable: %v", e.Err)
	}
	return "model provider unavailable"
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// ErrMaxTokensExceeded indicates the response was truncated at MaxTokens.
type ErrMaxTokensExceeded struct {
	Content json.RawMessage
}

func (e *ErrMaxTokensExceeded) Error() string {
	return "model response truncated: max tokens exceeded"
}

// ErrNoProvider indicates no model candidate could be initialized.
// Tried lists the candidate identifiers in the order they were attempted.
type ErrNoProvider struct {
	Tried   []string
	LastErr error
}

func (e *ErrNoProvider) Error() string {
	return fmt.Sprintf("no model candidate could be initialized (tried: %s): %v",
		strings.Join(e.Tried, ", "), e.LastErr)
}

func (e *ErrNoProvider) Unwrap() error { return e.LastErr }
