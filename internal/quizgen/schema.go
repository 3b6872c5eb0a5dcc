package quizgen

import (
	"fmt"

	"github.com/abhisek/wikiquiz/internal/llm"
)

// RequestSchema builds the JSON schema sent with the model request. The
// difficulty field is left as a described string here: providers drift on
// enum casing, and case repair belongs to the normalization guardrail, not
// the repair loop.
func RequestSchema(minQuestions, maxQuestions int) *llm.Schema {
	return &llm.Schema{
		Name:        fmt.Sprintf("quiz-payload-%d-%d", minQuestions, maxQuestions),
		Description: "A multiple-choice quiz derived strictly from one encyclopedia article",
		Definition:  payloadDefinition(minQuestions, maxQuestions, false),
	}
}

// FinalSchema builds the strict schema applied as the final safety gate
// after normalization. Difficulty must be an exact lowercase enum member.
func FinalSchema(minQuestions, maxQuestions int) *llm.Schema {
	return &llm.Schema{
		Name:        fmt.Sprintf("quiz-payload-%d-%d-final", minQuestions, maxQuestions),
		Description: "Validated quiz payload ready for persistence",
		Definition:  payloadDefinition(minQuestions, maxQuestions, true),
	}
}

func payloadDefinition(minQuestions, maxQuestions int, strict bool) map[string]any {
	difficulty := map[string]any{
		"type":        "string",
		"description": "Exactly one of: easy, medium, hard (lowercase)",
	}
	if strict {
		difficulty["enum"] = []any{"easy", "medium", "hard"}
	}

	item := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"question": map[string]any{
				"type":        "string",
				"description": "The question prompt, answerable from the article text alone",
			},
			"options": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"minItems":    4,
				"maxItems":    4,
				"description": "Exactly 4 distinct options, one of which is the answer",
			},
			"answer": map[string]any{
				"type":        "string",
				"description": "The text of the correct option",
			},
			"difficulty": difficulty,
			"explanation": map[string]any{
				"type":        "string",
				"description": "Why the answer is correct, citing the article",
			},
			"evidence_span": map[string]any{
				"type":        "string",
				"description": "Short quote or section title supporting the question",
			},
		},
		"required": []any{"question", "options", "answer", "difficulty", "explanation", "evidence_span"},
	}

	entityList := map[string]any{
		"type":  "array",
		"items": map[string]any{"type": "string"},
	}

	// Providers drift on the key_entities shape (some return a flat
	// name→description mapping). The request schema keeps it a loose
	// object so the drift reaches the normalization guardrail instead of
	// burning the single repair attempt; the final gate pins it down.
	keyEntities := map[string]any{"type": "object"}
	required := []any{"title", "summary", "quiz"}
	if strict {
		keyEntities = map[string]any{
			"type": "object",
			"properties": map[string]any{
				"people":        entityList,
				"organizations": entityList,
				"locations":     entityList,
			},
			"required": []any{"people", "organizations", "locations"},
		}
		required = []any{"title", "summary", "key_entities", "sections", "quiz", "related_topics"}
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title":        map[string]any{"type": "string"},
			"summary":      map[string]any{"type": "string"},
			"key_entities": keyEntities,
			"sections":     entityList,
			"quiz": map[string]any{
				"type":     "array",
				"items":    item,
				"minItems": minQuestions,
				"maxItems": maxQuestions,
			},
			"related_topics": entityList,
			"notes": map[string]any{
				"type":        "string",
				"description": "Optional caveats when the article is ambiguous",
			},
		},
		"required": required,
	}
}
