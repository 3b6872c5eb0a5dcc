package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/datatypes"
)

func testRecord(url string) *QuizRecord {
	return &QuizRecord{
		URL:                url,
		URLFingerprint:     "urlfp-" + url,
		Title:              "Title for " + url,
		ContentFingerprint: "contentfp-" + url,
		FullQuizData:       datatypes.JSON(`{"title":"t","quiz":[]}`),
	}
}

func TestMemoryStore_CreateAssignsSequentialIDs(t *testing.T) {
	s := NewMemoryStore(0)
	ctx := context.Background()

	a := testRecord("a")
	b := testRecord("b")
	if err := s.Create(ctx, a); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := s.Create(ctx, b); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if a.ID != 1 || b.ID != 2 {
		t.Fatalf("expected sequential ids 1,2 got %d,%d", a.ID, b.ID)
	}
	if a.CreatedAt.IsZero() {
		t.Fatal("create must stamp CreatedAt")
	}
}

func TestMemoryStore_GetByID(t *testing.T) {
	s := NewMemoryStore(0)
	ctx := context.Background()

	rec := testRecord("a")
	s.Create(ctx, rec)

	got, err := s.GetByID(ctx, rec.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.URL != "a" {
		t.Fatalf("unexpected record: %+v", got)
	}

	if _, err := s.GetByID(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

func TestMemoryStore_Lookup(t *testing.T) {
	s := NewMemoryStore(0)
	ctx := context.Background()

	rec := testRecord("a")
	s.Create(ctx, rec)

	got, err := s.Lookup(ctx, rec.URLFingerprint, rec.ContentFingerprint)
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if got.ID != rec.ID {
		t.Fatalf("unexpected record: %+v", got)
	}

	if _, err := s.Lookup(ctx, rec.URLFingerprint, "different-content"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("changed content must miss, got: %v", err)
	}
}

func TestMemoryStore_ListNewestFirst(t *testing.T) {
	s := NewMemoryStore(0)
	ctx := context.Background()

	for _, u := range []string{"a", "b", "c"} {
		s.Create(ctx, testRecord(u))
	}

	recs, total, err := s.List(ctx, 1, 2)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected total 3, got %d", total)
	}
	if len(recs) != 2 || recs[0].URL != "c" || recs[1].URL != "b" {
		t.Fatalf("unexpected page: %+v", recs)
	}

	recs, _, err = s.List(ctx, 2, 2)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(recs) != 1 || recs[0].URL != "a" {
		t.Fatalf("unexpected second page: %+v", recs)
	}

	recs, _, err = s.List(ctx, 5, 2)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("past-the-end page must be empty, got %+v", recs)
	}
}

func TestMemoryStore_TTLExpiry(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	ctx := context.Background()

	rec := testRecord("a")
	s.Create(ctx, rec)

	now := time.Now()
	s.now = func() time.Time { return now.Add(2 * time.Minute) }

	if _, err := s.GetByID(ctx, rec.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired record must be not found, got: %v", err)
	}
	if _, total, _ := s.List(ctx, 1, 10); total != 0 {
		t.Fatalf("expired record still listed, total %d", total)
	}
}
