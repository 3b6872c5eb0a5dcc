package quizgen

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"
)

// FallbackGenerator is the deterministic, rule-based quiz builder used when
// the model pipeline is unavailable. Given the same seed and input it always
// produces the same payload, so tests can run without any external model.
type FallbackGenerator struct {
	seed uint64
}

// DefaultFallbackSeed keeps production fallback output stable across runs.
const DefaultFallbackSeed = 42

// NewFallbackGenerator creates a generator with the given seed.
func NewFallbackGenerator(seed uint64) *FallbackGenerator {
	return &FallbackGenerator{seed: seed}
}

// titleStopwords excludes capitalized sentence-leading function words from
// entity candidates.
var titleStopwords = map[string]bool{
	"The": true, "A": true, "An": true, "In": true, "On": true,
	"And": true, "But": true, "For": true, "With": true, "As": true,
	"By": true, "Of": true, "To": true,
}

var entityPattern = regexp.MustCompile(`\b[A-Z][\w]*(?:\s+[A-Z][\w]*)*\b`)

// sentenceBoundary marks sentence-ending punctuation followed by the start
// of a capitalized or numeric sentence.
var sentenceBoundary = regexp.MustCompile(`[.!?]\s+[A-Z0-9]`)

var genericDistractors = []string{
	"A different historical event",
	"An unrelated scientific topic",
	"A fictional character",
	"A random geographic location",
	"A general cultural reference",
	"None of the above",
}

const minSentenceLen = 40

// Generate builds a complete payload from article text alone. It always
// returns at least one question, even for a near-empty article.
func (g *FallbackGenerator) Generate(input Input) *QuizPayload {
	rng := rand.New(rand.NewPCG(g.seed, g.seed))

	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = "Untitled Article"
	}
	sections := normalizeSections(input.Sections)
	body := strings.TrimSpace(input.Body)

	sentences := splitSentences(body)
	if len(sentences) == 0 {
		if body != "" {
			sentences = []string{body}
		} else {
			sentences = []string{fmt.Sprintf("%s is the focus of this article.", title)}
		}
	}

	entities := collectEntities(sentences, 80)

	summarySentences := sentences
	if len(summarySentences) > 3 {
		summarySentences = summarySentences[:3]
	}
	summary := strings.Join(summarySentences, " ")
	if summary == "" {
		summary = "Overview of " + title
	}

	keyCount := min(5, len(entities))
	keyEntities := bucketEntities(entities[:keyCount])

	var items []QuizItem
	for _, sentence := range sentences {
		if len(items) >= input.MaxQuestions {
			break
		}
		candidates := extractEntities(sentence)
		if len(candidates) == 0 {
			continue
		}
		answer := candidates[0]
		items = append(items, buildQuestion(sentence, answer, distractorsFor(answer, entities, rng), rng))
	}

	// Pad with questions about unused entities, then generic ones.
	unused := entitiesExcluding(entities, entities[:keyCount])
	for _, ent := range unused {
		if len(items) >= input.MinQuestions {
			break
		}
		sentence := title
		if len(summarySentences) > 0 {
			sentence = summarySentences[0]
		}
		items = append(items, buildQuestion(sentence, ent, distractorsFor(ent, entities, rng), rng))
	}
	for len(items) < input.MinQuestions {
		items = append(items, genericQuestion(title, rng))
	}
	if len(items) > input.MaxQuestions {
		items = items[:input.MaxQuestions]
	}
	if len(items) == 0 {
		items = append(items, genericQuestion(title, rng))
	}

	payloadSections := sections
	if len(payloadSections) > 10 {
		payloadSections = payloadSections[:10]
	}
	related := sections
	if len(related) > 6 {
		related = related[:6]
	}

	return &QuizPayload{
		Title:         title,
		Summary:       summary,
		KeyEntities:   keyEntities,
		Sections:      payloadSections,
		Quiz:          items,
		RelatedTopics: related,
		Notes:         "Generated using rule-based fallback due to primary model being unavailable.",
	}
}

// splitSentences breaks text at sentence-ending punctuation followed by a
// capital or digit, keeping sentences longer than minSentenceLen.
func splitSentences(text string) []string {
	var out []string
	start := 0
	for _, loc := range sentenceBoundary.FindAllStringIndex(text, -1) {
		// loc[0] is the punctuation; the next sentence begins at the
		// trailing capital/digit, one byte before the match end.
		sentence := strings.TrimSpace(text[start : loc[0]+1])
		if len(sentence) > minSentenceLen {
			out = append(out, sentence)
		}
		start = loc[1] - 1
	}
	if tail := strings.TrimSpace(text[start:]); len(tail) > minSentenceLen {
		out = append(out, tail)
	}
	return out
}

// extractEntities returns capitalized multi-word phrases from one sentence,
// excluding stopword-led phrases, pure-uppercase tokens, and short matches.
func extractEntities(sentence string) []string {
	var out []string
	for _, m := range entityPattern.FindAllString(sentence, -1) {
		item := strings.TrimSpace(m)
		if len(item) < 3 {
			continue
		}
		head := strings.Fields(item)[0]
		if titleStopwords[head] {
			continue
		}
		if item == strings.ToUpper(item) {
			continue
		}
		out = append(out, item)
	}
	return out
}

// collectEntities gathers document-wide entity candidates in first-seen
// order, deduplicated by lowercase key.
func collectEntities(sentences []string, limit int) []string {
	seen := make(map[string]bool)
	var out []string
	for _, sentence := range sentences {
		for _, ent := range extractEntities(sentence) {
			norm := strings.ToLower(ent)
			if seen[norm] {
				continue
			}
			seen[norm] = true
			out = append(out, ent)
			if len(out) >= limit {
				return out
			}
		}
	}
	return out
}

// bucketEntities sorts key entities into people/organizations/locations by
// keyword heuristic; everything unmatched lands in people.
func bucketEntities(entities []string) KeyEntities {
	ke := KeyEntities{
		People:        []string{},
		Organizations: []string{},
		Locations:     []string{},
	}
	for _, ent := range entities {
		lower := strings.ToLower(ent)
		switch {
		case strings.Contains(lower, "university") || strings.Contains(lower, "company") || strings.Contains(lower, "association"):
			ke.Organizations = append(ke.Organizations, ent)
		case strings.Contains(lower, "city") || strings.Contains(lower, "state") || strings.Contains(lower, "country") || strings.Contains(lower, "river"):
			ke.Locations = append(ke.Locations, ent)
		default:
			ke.People = append(ke.People, ent)
		}
	}
	return ke
}

func distractorsFor(answer string, entities []string, rng *rand.Rand) []string {
	var out []string
	for _, ent := range entities {
		if ent != answer {
			out = append(out, ent)
		}
	}
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

func entitiesExcluding(entities, exclude []string) []string {
	excluded := make(map[string]bool, len(exclude))
	for _, e := range exclude {
		excluded[e] = true
	}
	var out []string
	for _, e := range entities {
		if !excluded[e] {
			out = append(out, e)
		}
	}
	return out
}

// buildQuestion blanks the answer's first occurrence in the sentence and
// offers it alongside three distractors. Options are padded from the
// generic pool when the document yields too few entities, keeping all four
// distinct.
func buildQuestion(sentence, answer string, distractors []string, rng *rand.Rand) QuizItem {
	blanked := strings.Replace(sentence, answer, "____", 1)

	options := []string{answer}
	for _, d := range distractors {
		if len(options) == 4 {
			break
		}
		options = append(options, d)
	}
	for _, g := range genericDistractors {
		if len(options) == 4 {
			break
		}
		if !containsString(options, g) {
			options = append(options, g)
		}
	}
	rng.Shuffle(len(options), func(i, j int) { options[i], options[j] = options[j], options[i] })

	return QuizItem{
		Question: fmt.Sprintf("In the context of this article, which option best completes the statement:\n%q",
			strings.TrimSpace(blanked)),
		Options:      options,
		Answer:       answer,
		Difficulty:   DifficultyMedium,
		Explanation:  fmt.Sprintf("The original sentence states %q which identifies %s.", strings.TrimSpace(sentence), answer),
		EvidenceSpan: strings.TrimSpace(sentence),
	}
}

func genericQuestion(title string, rng *rand.Rand) QuizItem {
	pool := make([]string, 0, len(genericDistractors))
	for _, d := range genericDistractors {
		if d != title {
			pool = append(pool, d)
		}
	}
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	options := append([]string{title}, pool[:3]...)
	rng.Shuffle(len(options), func(i, j int) { options[i], options[j] = options[j], options[i] })

	return QuizItem{
		Question:     fmt.Sprintf("What subject does the article %q primarily discuss?", title),
		Options:      options,
		Answer:       title,
		Difficulty:   DifficultyEasy,
		Explanation:  fmt.Sprintf("The article overview centers on %s.", title),
		EvidenceSpan: fmt.Sprintf("The article focuses on %s.", title),
	}
}

func normalizeSections(sections []string) []string {
	var out []string
	for _, s := range sections {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	if len(out) > 20 {
		out = out[:20]
	}
	return out
}

func containsString(items []string, target string) bool {
	for _, it := range items {
		if it == target {
			return true
		}
	}
	return false
}
