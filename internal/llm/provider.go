package llm

import (
	"context"
	"encoding/json"
)

// Provider is the single capability abstraction for model interaction.
// The quiz pipeline talks only to this interface, so alternate backends
// are swappable without touching pipeline logic.
type Provider interface {
	// Generate sends a prompt to the model and returns structured output.
	// When the request carries a Schema, the provider uses its native
	// structured-output mechanism and the response Content is JSON that
	// already passed schema validation.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured with.
	ModelID() string
}

// Request describes what to send to the model.
type Request struct {
	// System sets the model's role and output constraints.
	System string

	// Messages is the conversation. Quiz generation is single-turn, so this
	// holds one user message; the repair pass sends a fresh single message
	// embedding the validation error.
	Messages []Message

	// Schema is the JSON Schema the response must conform to. When nil the
	// response Content is raw text wrapped as json.RawMessage.
	Schema *Schema

	// MaxTokens caps the response length.
	MaxTokens int

	// Temperature controls randomness, 0.0-1.0. Zero means deterministic.
	Temperature float64
}

// Message is a single conversation message.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema defines the JSON structure expected from the model.
type Schema struct {
	// Name identifies this schema (tool name for Anthropic, schema name for
	// OpenAI). Kebab-case, e.g. "quiz-payload".
	Name string

	// Description is sent to the model to guide generation.
	Description string

	// Definition is the JSON Schema definition as a map.
	Definition map[string]any
}

// Response holds the model's output.
type Response struct {
	// Content is the generated output. Validated JSON when a Schema was
	// requested, raw text otherwise.
	Content json.RawMessage

	// Usage reports token consumption for this request.
	Usage Usage

	// Model is the actual model that served the request.
	Model string

	// StopReason is normalized to: "end", "max_tokens", "error".
	StopReason string
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
