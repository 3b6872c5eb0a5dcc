package grade

import (
	"fmt"
	"math"
	"strings"

	"github.com/abhisek/wikiquiz/internal/quizgen"
)

// ErrAnswerCountMismatch indicates a submission whose length differs from the
// stored quiz.
type ErrAnswerCountMismatch struct {
	Want int
	Got  int
}

func (e *ErrAnswerCountMismatch) Error() string {
	return fmt.Sprintf("expected %d answers, got %d", e.Want, e.Got)
}

// ItemResult reports the outcome for a single question.
type ItemResult struct {
	Index        int    `json:"index"`
	Chosen       int    `json:"chosen"`
	Correct      int    `json:"correct"`
	IsCorrect    bool   `json:"is_correct"`
	Explanation  string `json:"explanation"`
	EvidenceSpan string `json:"evidence_span"`
}

// Result is a fully graded submission.
type Result struct {
	Total   int          `json:"total"`
	Right   int          `json:"correct"`
	Score   float64      `json:"score"`
	Results []ItemResult `json:"results"`
}

// Grade scores a submission against the stored quiz. The correct index is
// derived from the stored answer text at grading time, never persisted, so a
// question whose answer no longer matches any option (index -1) is counted
// wrong regardless of the chosen option.
func Grade(items []quizgen.QuizItem, answers []int) (*Result, error) {
	if len(answers) != len(items) {
		return nil, &ErrAnswerCountMismatch{Want: len(items), Got: len(answers)}
	}

	res := &Result{
		Total:   len(items),
		Results: make([]ItemResult, 0, len(items)),
	}

	for i, item := range items {
		correct := CorrectIndex(item)
		chosen := answers[i]
		ok := correct >= 0 && chosen == correct
		if ok {
			res.Right++
		}
		res.Results = append(res.Results, ItemResult{
			Index:        i,
			Chosen:       chosen,
			Correct:      correct,
			IsCorrect:    ok,
			Explanation:  item.Explanation,
			EvidenceSpan: item.EvidenceSpan,
		})
	}

	if res.Total > 0 {
		res.Score = round2(float64(res.Right) / float64(res.Total) * 100)
	}
	return res, nil
}

// CorrectIndex locates the stored answer among the options: first by exact
// string equality, then case- and whitespace-insensitively. Returns -1 when
// the answer matches no option.
func CorrectIndex(item quizgen.QuizItem) int {
	for i, opt := range item.Options {
		if opt == item.Answer {
			return i
		}
	}
	want := foldSpace(item.Answer)
	for i, opt := range item.Options {
		if foldSpace(opt) == want {
			return i
		}
	}
	return -1
}

func foldSpace(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
