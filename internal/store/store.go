package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
)

// ErrNotFound is returned when no quiz matches the requested ID or
// fingerprint pair.
var ErrNotFound = errors.New("quiz not found")

// QuizRecord is one persisted quiz. IDs are auto-incremented by the backend
// and the (url_fingerprint, content_fingerprint) pair is unique, so a
// re-generation of unchanged content dedupes to the existing row.
type QuizRecord struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	URL                string         `gorm:"size:2048" json:"url"`
	URLFingerprint     string         `gorm:"size:64;uniqueIndex:idx_quiz_fingerprints,priority:1" json:"-"`
	Title              string         `gorm:"size:512" json:"title"`
	ScrapedContent     string         `json:"-"`
	ContentFingerprint string         `gorm:"size:64;uniqueIndex:idx_quiz_fingerprints,priority:2" json:"-"`
	ETag               string         `gorm:"size:256" json:"-"`
	LastModified       string         `gorm:"size:128" json:"-"`
	FullQuizData       datatypes.JSON `json:"full_quiz_data"`
	CreatedAt          time.Time      `json:"date_generated"`
}

// Store persists quizzes and serves dedup lookups and history pages.
type Store interface {
	// Create inserts a record and fills its ID and CreatedAt.
	Create(ctx context.Context, rec *QuizRecord) error
	// GetByID returns the record or ErrNotFound.
	GetByID(ctx context.Context, id uint) (*QuizRecord, error)
	// Lookup finds an existing quiz for the exact fingerprint pair, or
	// ErrNotFound.
	Lookup(ctx context.Context, urlFingerprint, contentFingerprint string) (*QuizRecord, error)
	// List returns one history page, newest first, plus the total count.
	List(ctx context.Context, page, pageSize int) ([]QuizRecord, int64, error)
}
