package store

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store with optional record expiry. It backs
// the "memory" database driver and the test suite.
type MemoryStore struct {
	mu     sync.Mutex
	nextID uint
	recs   []QuizRecord
	ttl    time.Duration
	now    func() time.Time
}

// NewMemoryStore creates an empty store. A zero ttl means records never
// expire.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{nextID: 1, ttl: ttl, now: time.Now}
}

func (s *MemoryStore) Create(_ context.Context, rec *QuizRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec.ID = s.nextID
	s.nextID++
	rec.CreatedAt = s.now()
	s.recs = append(s.recs, *rec)
	return nil
}

func (s *MemoryStore) GetByID(_ context.Context, id uint) (*QuizRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.recs {
		if s.recs[i].ID == id && !s.expired(s.recs[i]) {
			rec := s.recs[i]
			return &rec, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) Lookup(_ context.Context, urlFingerprint, contentFingerprint string) (*QuizRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.recs {
		r := s.recs[i]
		if r.URLFingerprint == urlFingerprint && r.ContentFingerprint == contentFingerprint && !s.expired(r) {
			rec := r
			return &rec, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) List(_ context.Context, page, pageSize int) ([]QuizRecord, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	live := make([]QuizRecord, 0, len(s.recs))
	for _, r := range s.recs {
		if !s.expired(r) {
			live = append(live, r)
		}
	}
	// Newest first.
	for i, j := 0, len(live)-1; i < j; i, j = i+1, j-1 {
		live[i], live[j] = live[j], live[i]
	}

	total := int64(len(live))
	start := (page - 1) * pageSize
	if start >= len(live) {
		return []QuizRecord{}, total, nil
	}
	end := min(start+pageSize, len(live))
	return live[start:end], total, nil
}

func (s *MemoryStore) expired(rec QuizRecord) bool {
	return s.ttl > 0 && s.now().Sub(rec.CreatedAt) > s.ttl
}
