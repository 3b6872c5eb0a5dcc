package quizgen

import (
	"fmt"
	"strings"
)

const systemPrompt = `You are an expert quiz writer with rigorous attention to textual accuracy.

Rules:
- Use ONLY facts present in the provided Article Text.
- If information is missing, use the exact string "insufficient evidence in article".
- Return valid JSON only that satisfies the provided schema (no prose).
- Every question has exactly 4 options; the answer must equal one option verbatim.
- difficulty must be exactly one of: "easy", "medium", "hard" (lowercase).
- Include an evidence_span for every question (short quote or section title).
- If the article is ambiguous, set a short root-level notes string.`

const repairInstruction = `
IMPORTANT: Your previous JSON did not match the schema. You must correct it.`

// hardCharLimit caps article text sent to the model to bound input tokens.
const hardCharLimit = 80_000

// buildUserMessage constructs the drafting message for one article.
func buildUserMessage(input Input) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Title: %s\n", input.Title)
	fmt.Fprintf(&b, "Sections: %s\n", strings.Join(input.Sections, "; "))
	fmt.Fprintf(&b, "MinQuestions: %d\n", input.MinQuestions)
	fmt.Fprintf(&b, "MaxQuestions: %d\n", input.MaxQuestions)
	fmt.Fprintf(&b, "Article Text:\n%s\n", trimArticle(input.Body, hardCharLimit))
	b.WriteString("Respond with JSON only.")

	return b.String()
}

// buildRepairMessage embeds the verbatim validation error so the model can
// re-emit a single corrected object.
func buildRepairMessage(input Input, validationErr string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "VALIDATION_ERROR:\n%s\n\n", validationErr)
	b.WriteString("Re-output a SINGLE JSON object that exactly matches the schema.\n")
	b.WriteString(buildUserMessage(input))

	return b.String()
}

// trimArticle hard-cuts text to limit characters, preferring a whitespace
// boundary in the final fifth so a sentence isn't sliced mid-word.
func trimArticle(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	cut := text[:limit]
	if sp := strings.LastIndexAny(cut, " \n"); sp > limit*8/10 {
		cut = cut[:sp]
	}
	return cut
}
