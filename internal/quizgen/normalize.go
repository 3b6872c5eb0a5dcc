package quizgen

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/abhisek/wikiquiz/internal/llm"
)

// Normalize is the guardrail pass reconciling provider output drift with the
// target shape. It is pure and idempotent: it repairs shape losslessly but
// never masks a genuine validation failure, which the final gate still
// catches.
//
// Rules:
//   - key_entities present as a flat mapping lacking the three categories:
//     flatten its keys into people, set the other two empty.
//   - key_entities absent: default all three categories empty.
//   - entity categories: duplicates dropped by lowercase key, order kept.
//   - every item difficulty: trimmed and lowercased.
//   - sections and related_topics: default to empty sequences when absent.
func Normalize(obj map[string]any) map[string]any {
	ke, ok := obj["key_entities"].(map[string]any)
	switch {
	case ok && !hasEntityCategories(ke):
		names := make([]any, 0, len(ke))
		for name := range ke {
			names = append(names, name)
		}
		sortAnyStrings(names)
		obj["key_entities"] = map[string]any{
			"people":        names,
			"organizations": []any{},
			"locations":     []any{},
		}
	case !ok:
		obj["key_entities"] = map[string]any{
			"people":        []any{},
			"organizations": []any{},
			"locations":     []any{},
		}
	}

	// Entity categories are set-like: drop duplicates by lowercase key,
	// keeping first-seen order.
	if ke, ok := obj["key_entities"].(map[string]any); ok {
		for _, k := range []string{"people", "organizations", "locations"} {
			if list, ok := ke[k].([]any); ok {
				ke[k] = dedupeAnyStrings(list)
			}
		}
	}

	if quiz, ok := obj["quiz"].([]any); ok {
		for _, q := range quiz {
			item, ok := q.(map[string]any)
			if !ok {
				continue
			}
			if d, ok := item["difficulty"].(string); ok {
				item["difficulty"] = strings.ToLower(strings.TrimSpace(d))
			}
		}
	}

	if _, ok := obj["sections"]; !ok {
		obj["sections"] = []any{}
	}
	if _, ok := obj["related_topics"]; !ok {
		obj["related_topics"] = []any{}
	}

	return obj
}

func hasEntityCategories(ke map[string]any) bool {
	for _, k := range []string{"people", "organizations", "locations"} {
		if _, ok := ke[k]; !ok {
			return false
		}
	}
	return true
}

// sortAnyStrings orders flattened entity names so normalization output does
// not depend on map iteration order.
func sortAnyStrings(items []any) {
	for i := 1; i < len(items); i++ {
		for j := i; j > 0; j-- {
			a, _ := items[j-1].(string)
			b, _ := items[j].(string)
			if a <= b {
				break
			}
			items[j-1], items[j] = items[j], items[j-1]
		}
	}
}

func dedupeAnyStrings(items []any) []any {
	seen := make(map[string]bool, len(items))
	out := make([]any, 0, len(items))
	for _, it := range items {
		s, ok := it.(string)
		if !ok {
			out = append(out, it)
			continue
		}
		key := strings.ToLower(strings.TrimSpace(s))
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, it)
	}
	return out
}

// Finalize normalizes a raw object, applies the strict schema gate, and
// decodes the result into a QuizPayload. Any failure here is fatal for the
// request; the repair budget is spent before this point.
func Finalize(obj map[string]any, minQuestions, maxQuestions int) (*QuizPayload, error) {
	obj = Normalize(obj)

	if err := llm.ValidateAgainst(FinalSchema(minQuestions, maxQuestions), obj); err != nil {
		return nil, &ErrGenerationInvalid{Err: err}
	}

	raw, err := json.Marshal(obj)
	if err != nil {
		return nil, &ErrGenerationInvalid{Err: fmt.Errorf("marshal payload: %w", err)}
	}

	var payload QuizPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, &ErrGenerationInvalid{Err: fmt.Errorf("decode payload: %w", err)}
	}

	return &payload, nil
}
