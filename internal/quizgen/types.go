package quizgen

// QuizItem is a single multiple-choice question. The answer is stored as
// option text, not an index; grading re-derives the index from it.
type QuizItem struct {
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	Answer       string   `json:"answer"`
	Difficulty   string   `json:"difficulty"`
	Explanation  string   `json:"explanation"`
	EvidenceSpan string   `json:"evidence_span"`
}

// KeyEntities groups named entities mentioned by the article.
type KeyEntities struct {
	People        []string `json:"people"`
	Organizations []string `json:"organizations"`
	Locations     []string `json:"locations"`
}

// QuizPayload is the unit of caching, storage and the API response body.
type QuizPayload struct {
	Title         string      `json:"title"`
	Summary       string      `json:"summary"`
	KeyEntities   KeyEntities `json:"key_entities"`
	Sections      []string    `json:"sections"`
	Quiz          []QuizItem  `json:"quiz"`
	RelatedTopics []string    `json:"related_topics"`
	Notes         string      `json:"notes,omitempty"`
}

// Input holds everything the pipeline needs to draft a quiz for one article.
type Input struct {
	Title        string
	Sections     []string
	Body         string
	MinQuestions int
	MaxQuestions int
}

// Difficulty levels accepted on a QuizItem.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// InsufficientEvidence is the fixed literal the model must use for facts it
// cannot trace to the article text.
const InsufficientEvidence = "insufficient evidence in article"
