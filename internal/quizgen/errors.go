package quizgen

import "fmt"

// ErrGenerationInvalid indicates model output failed schema validation even
// after the single repair attempt, or failed the final safety gate.
type ErrGenerationInvalid struct {
	Err error
}

func (e *ErrGenerationInvalid) Error() string {
	return fmt.Sprintf("quiz generation produced invalid output: %v", e.Err)
}

func (e *ErrGenerationInvalid) Unwrap() error { return e.Err }
