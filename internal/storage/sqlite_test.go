package storage

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// TestMigrationsIdempotent runs Open twice on the same database and verifies
// the schema_version count stays correct (migration not re-applied).
func TestMigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()

	s1, err := Open(dir)
	if err != nil {
		t.Fatalf("first Open failed: %v", err)
	}

	v1, err := s1.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	s1.Close()

	s2, err := Open(dir)
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	defer s2.Close()

	v2, err := s2.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}

	if len(v1) != len(v2) {
		t.Errorf("migration count changed: %d -> %d", len(v1), len(v2))
	}
}

// TestMigrationsOrdered verifies migrations are applied in ascending numeric order.
func TestMigrationsOrdered(t *testing.T) {
	s := openTestStore(t)

	versions, err := s.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	if len(versions) == 0 {
		t.Fatal("no migrations applied")
	}
	for i := 1; i < len(versions); i++ {
		if versions[i] <= versions[i-1] {
			t.Errorf("migrations out of order: %v", versions)
		}
	}
}

func TestRatingSummaryEmpty(t *testing.T) {
	s := openTestStore(t)

	sum, err := s.RatingSummaryView()
	if err != nil {
		t.Fatalf("RatingSummaryView: %v", err)
	}
	if sum.Average != 0 || sum.Count != 0 {
		t.Errorf("summary = {%v, %d}, want {0, 0}", sum.Average, sum.Count)
	}
}

func TestRatingSummaryMean(t *testing.T) {
	s := openTestStore(t)

	for _, v := range []int{2, 4, 5} {
		if err := s.SaveRating(Rating{ID: uuid.New().String(), Value: v}); err != nil {
			t.Fatalf("SaveRating(%d): %v", v, err)
		}
	}

	sum, err := s.RatingSummaryView()
	if err != nil {
		t.Fatalf("RatingSummaryView: %v", err)
	}
	if sum.Count != 3 {
		t.Errorf("Count = %d, want 3", sum.Count)
	}
	want := float64(2+4+5) / 3
	if sum.Average != want {
		t.Errorf("Average = %v, want %v", sum.Average, want)
	}
}

// TestRatingAppendOnly verifies repeated identical submissions each produce
// their own row; there is no dedup key.
func TestRatingAppendOnly(t *testing.T) {
	s := openTestStore(t)

	for i := 0; i < 3; i++ {
		if err := s.SaveRating(Rating{ID: uuid.New().String(), Value: 4}); err != nil {
			t.Fatalf("SaveRating: %v", err)
		}
	}

	sum, err := s.RatingSummaryView()
	if err != nil {
		t.Fatalf("RatingSummaryView: %v", err)
	}
	if sum.Count != 3 || sum.Average != 4 {
		t.Errorf("summary = {%v, %d}, want {4, 3}", sum.Average, sum.Count)
	}
}

func TestContactMessageRoundTrip(t *testing.T) {
	s := openTestStore(t)

	m := ContactMessage{
		ID:        uuid.New().String(),
		Name:      "A",
		Email:     "a@x.com",
		Message:   "hi",
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	if err := s.SaveContactMessage(m); err != nil {
		t.Fatalf("SaveContactMessage: %v", err)
	}

	got, err := s.GetContactMessage(m.ID)
	if err != nil {
		t.Fatalf("GetContactMessage: %v", err)
	}
	if got.Name != m.Name || got.Email != m.Email || got.Message != m.Message {
		t.Errorf("got %+v, want %+v", got, m)
	}
	if !got.CreatedAt.Equal(m.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, m.CreatedAt)
	}
}

// TestContactMessageEmptyFields verifies empty values are stored as-is; the
// intake path performs no field validation.
func TestContactMessageEmptyFields(t *testing.T) {
	s := openTestStore(t)

	m := ContactMessage{ID: uuid.New().String(), CreatedAt: time.Now().UTC()}
	if err := s.SaveContactMessage(m); err != nil {
		t.Fatalf("SaveContactMessage: %v", err)
	}

	got, err := s.GetContactMessage(m.ID)
	if err != nil {
		t.Fatalf("GetContactMessage: %v", err)
	}
	if got.Name != "" || got.Email != "" || got.Message != "" {
		t.Errorf("expected empty fields, got %+v", got)
	}
}

func TestListContactMessagesNewestFirst(t *testing.T) {
	s := openTestStore(t)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		m := ContactMessage{
			ID:        fmt.Sprintf("msg-%d", i),
			Message:   fmt.Sprintf("message %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.SaveContactMessage(m); err != nil {
			t.Fatalf("SaveContactMessage: %v", err)
		}
	}

	msgs, err := s.ListContactMessages(10)
	if err != nil {
		t.Fatalf("ListContactMessages: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("len = %d, want 3", len(msgs))
	}
	if msgs[0].ID != "msg-2" || msgs[2].ID != "msg-0" {
		t.Errorf("unexpected order: %s, %s, %s", msgs[0].ID, msgs[1].ID, msgs[2].ID)
	}
}

func TestGetContactMessageNotFound(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.GetContactMessage("nope"); err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListAboutEntriesSeeded(t *testing.T) {
	s := openTestStore(t)

	entries, err := s.ListAboutEntries()
	if err != nil {
		t.Fatalf("ListAboutEntries: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("expected seeded about entries")
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].Position < entries[i-1].Position {
			t.Errorf("entries out of position order: %+v", entries)
		}
	}
}
