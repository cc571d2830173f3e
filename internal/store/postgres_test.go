package store

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/amishk599/shortlist/internal/model"
)

// Postgres tests run only when SHORTLIST_TEST_DATABASE_URL points at a
// disposable database.
func newPostgresTestStore(t *testing.T) *PostgresStore {
	t.Helper()
	dsn := os.Getenv("SHORTLIST_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("SHORTLIST_TEST_DATABASE_URL not set")
	}
	s, err := NewPostgresStore(context.Background(), dsn)
	if err != nil {
		t.Fatalf("NewPostgresStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPostgresLinkCandidateAlreadyLinked(t *testing.T) {
	s := newPostgresTestStore(t)
	ctx := context.Background()

	// Unique IDs keep reruns against the same database independent.
	posID := "pos-" + uuid.NewString()
	candID := "cand-" + uuid.NewString()

	if err := s.UpsertPosition(ctx, model.PositionRecord{ID: posID, Title: "Data Engineer"}); err != nil {
		t.Fatalf("UpsertPosition: %v", err)
	}
	if err := s.UpsertCandidate(ctx, model.CandidateRecord{ID: candID, Name: "Ada"}); err != nil {
		t.Fatalf("UpsertCandidate: %v", err)
	}

	sub := model.Submission{PositionID: posID, CandidateID: candID}
	if err := s.LinkCandidate(ctx, sub); err != nil {
		t.Fatalf("first LinkCandidate: %v", err)
	}
	if err := s.LinkCandidate(ctx, sub); !errors.Is(err, model.ErrAlreadyLinked) {
		t.Fatalf("second LinkCandidate = %v, want ErrAlreadyLinked", err)
	}

	ids, err := s.ListPipelineCandidateIDs(ctx, posID)
	if err != nil {
		t.Fatalf("ListPipelineCandidateIDs: %v", err)
	}
	if len(ids) != 1 || ids[0] != candID {
		t.Errorf("pipeline = %v, want [%s]", ids, candID)
	}
}

func TestPostgresGetCandidateNullExperience(t *testing.T) {
	s := newPostgresTestStore(t)
	ctx := context.Background()
	id := "cand-" + uuid.NewString()

	if err := s.UpsertCandidate(ctx, model.CandidateRecord{ID: id, Skills: nil}); err != nil {
		t.Fatalf("UpsertCandidate: %v", err)
	}
	c, err := s.GetCandidate(ctx, id)
	if err != nil {
		t.Fatalf("GetCandidate: %v", err)
	}
	if c == nil || c.ExperienceYears != nil {
		t.Errorf("GetCandidate = %+v, want record with nil ExperienceYears", c)
	}
}
