package matcher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/amishk599/shortlist/internal/model"
	"github.com/amishk599/shortlist/internal/pool"
	"github.com/amishk599/shortlist/internal/store"
)

// --- Fakes ---

// InMemoryStore is a map-backed store. LinkCandidate enforces uniqueness per
// (position, candidate) the way the database constraint does.
type InMemoryStore struct {
	mu         sync.Mutex
	positions  map[string]model.PositionRecord
	candidates []model.CandidateRecord
	links      map[string]map[string]model.Submission
	listErr    error
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		positions: map[string]model.PositionRecord{
			"pos-1": {ID: "pos-1", Title: "Backend Engineer", Skills: []string{"Go", "SQL"}, Location: "Remote"},
		},
		candidates: []model.CandidateRecord{
			{ID: "ada", Name: "Ada", Role: "Backend Engineer", Skills: []string{"go", "sql"}, Location: "Remote"},
			{ID: "bo", Name: "Bo", CurrentRole: "Backend Developer", Skills: []string{"go"}},
			{ID: "cy", Name: "Cy", Role: "Backend Engineer", Status: "Placed"},
			{ID: "di", Name: "Di", Role: "Chef"},
		},
		links: map[string]map[string]model.Submission{},
	}
}

func (s *InMemoryStore) GetPosition(_ context.Context, id string) (*model.PositionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.positions[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *InMemoryStore) ListActiveCandidates(_ context.Context) ([]model.CandidateRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []model.CandidateRecord
	for _, c := range s.candidates {
		if !model.IsPlacedStatus(c.Status) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *InMemoryStore) ListPipelineCandidateIDs(_ context.Context, positionID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for id := range s.links[positionID] {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *InMemoryStore) GetCandidate(_ context.Context, id string) (*model.CandidateRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.candidates {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, nil
}

func (s *InMemoryStore) LinkCandidate(_ context.Context, sub model.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.links[sub.PositionID] == nil {
		s.links[sub.PositionID] = map[string]model.Submission{}
	}
	if _, ok := s.links[sub.PositionID][sub.CandidateID]; ok {
		return model.ErrAlreadyLinked
	}
	s.links[sub.PositionID][sub.CandidateID] = sub
	return nil
}

// RecordingNotifier records every event it is asked to send.
type RecordingNotifier struct {
	mu       sync.Mutex
	Notified []model.LinkEvent
	Err      error
}

func (n *RecordingNotifier) Notify(_ context.Context, events []model.LinkEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Notified = append(n.Notified, events...)
	return n.Err
}

// --- Helpers ---

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(store *InMemoryStore, notifier model.Notifier) *Service {
	logger := discardLogger()
	return NewService(pool.NewLoader(store, logger), store, store, notifier, logger)
}

func matchedIDs(r *Result) []string {
	out := make([]string, len(r.Matches))
	for i, m := range r.Matches {
		out[i] = m.CandidateID
	}
	return out
}

// --- Tests ---

func TestMatches_RanksEligiblePool(t *testing.T) {
	svc := newTestService(NewInMemoryStore(), &RecordingNotifier{})

	res, err := svc.Matches(context.Background(), "pos-1")
	if err != nil {
		t.Fatalf("Matches: %v", err)
	}

	got := matchedIDs(res)
	if len(got) != 2 || got[0] != "ada" || got[1] != "bo" {
		t.Fatalf("matches = %v, want [ada bo]", got)
	}
	if res.PoolSize != 3 {
		t.Errorf("PoolSize = %d, want 3 (placed dropped)", res.PoolSize)
	}
	if res.Candidates["bo"].Role != "Backend Developer" {
		t.Errorf("candidate details missing for bo: %+v", res.Candidates["bo"])
	}
	if _, ok := res.Candidates["di"]; ok {
		t.Error("unranked candidate included in Candidates")
	}
}

func TestMatches_UnknownPosition(t *testing.T) {
	svc := newTestService(NewInMemoryStore(), &RecordingNotifier{})

	_, err := svc.Matches(context.Background(), "missing")
	if !errors.Is(err, model.ErrPositionNotFound) {
		t.Fatalf("Matches(missing) = %v, want ErrPositionNotFound", err)
	}
}

func TestMatches_LoadFailureReturnsNoResult(t *testing.T) {
	store := NewInMemoryStore()
	store.listErr = errors.New("db down")
	svc := newTestService(store, &RecordingNotifier{})

	res, err := svc.Matches(context.Background(), "pos-1")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if res != nil {
		t.Errorf("expected nil result on load failure, got %+v", res)
	}
	var le *pool.LoadError
	if !errors.As(err, &le) {
		t.Errorf("error %v does not carry a LoadError", err)
	}
}

func TestAddToPipeline_ThenExcludedFromNextPass(t *testing.T) {
	store := NewInMemoryStore()
	notifier := &RecordingNotifier{}
	svc := newTestService(store, notifier)
	ctx := context.Background()

	sub, err := svc.AddToPipeline(ctx, "pos-1", "ada", "")
	if err != nil {
		t.Fatalf("AddToPipeline: %v", err)
	}
	if sub.Stage != model.StageSubmitted || sub.ID == "" {
		t.Errorf("submission = %+v, want default stage and generated ID", sub)
	}
	if len(notifier.Notified) != 1 || notifier.Notified[0].Candidate.Name != "Ada" {
		t.Errorf("notified = %+v, want one event for Ada", notifier.Notified)
	}

	res, err := svc.Matches(ctx, "pos-1")
	if err != nil {
		t.Fatalf("Matches: %v", err)
	}
	for _, id := range matchedIDs(res) {
		if id == "ada" {
			t.Fatal("linked candidate still offered on the next pass")
		}
	}
	if res.Excluded != 1 {
		t.Errorf("Excluded = %d, want 1", res.Excluded)
	}
}

func TestAddToPipeline_AlreadyLinked(t *testing.T) {
	notifier := &RecordingNotifier{}
	svc := newTestService(NewInMemoryStore(), notifier)
	ctx := context.Background()

	if _, err := svc.AddToPipeline(ctx, "pos-1", "bo", "Screening"); err != nil {
		t.Fatalf("first AddToPipeline: %v", err)
	}
	_, err := svc.AddToPipeline(ctx, "pos-1", "bo", "")
	if !errors.Is(err, model.ErrAlreadyLinked) {
		t.Fatalf("second AddToPipeline = %v, want ErrAlreadyLinked", err)
	}
	var le *model.LinkError
	if !errors.As(err, &le) || le.CandidateID != "bo" || le.PositionID != "pos-1" {
		t.Errorf("error %v is not a LinkError for bo/pos-1", err)
	}
	if len(notifier.Notified) != 1 {
		t.Errorf("notified %d times, want 1", len(notifier.Notified))
	}
}

func TestAddToPipeline_ConcurrentExactlyOneSucceeds(t *testing.T) {
	svc := newTestService(NewInMemoryStore(), &RecordingNotifier{})

	const workers = 10
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.AddToPipeline(context.Background(), "pos-1", "ada", "")
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else if !errors.Is(err, model.ErrAlreadyLinked) {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Errorf("successful links = %d, want 1", wins)
	}
}

func TestAddToPipeline_Validation(t *testing.T) {
	tests := []struct {
		name      string
		position  string
		candidate string
		stage     string
		want      error
	}{
		{"unknown position", "nope", "ada", "", model.ErrPositionNotFound},
		{"unknown candidate", "pos-1", "zed", "", model.ErrCandidateNotFound},
		{"placed candidate", "pos-1", "cy", "", model.ErrCandidateIneligible},
		{"bad stage", "pos-1", "ada", "Hired?", model.ErrInvalidStage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notifier := &RecordingNotifier{}
			svc := newTestService(NewInMemoryStore(), notifier)

			_, err := svc.AddToPipeline(context.Background(), tt.position, tt.candidate, tt.stage)
			if !errors.Is(err, tt.want) {
				t.Fatalf("AddToPipeline = %v, want %v", err, tt.want)
			}
			if len(notifier.Notified) != 0 {
				t.Error("notifier called on failed link")
			}
		})
	}
}

func TestAddToPipeline_NotifyFailureIsNotReturned(t *testing.T) {
	store := NewInMemoryStore()
	svc := newTestService(store, &RecordingNotifier{Err: errors.New("slack down")})

	if _, err := svc.AddToPipeline(context.Background(), "pos-1", "di", "interview"); err != nil {
		t.Fatalf("AddToPipeline = %v, want nil despite notifier failure", err)
	}
	if got := store.links["pos-1"]["di"].Stage; got != model.StageInterview {
		t.Errorf("stored stage = %q, want %q", got, model.StageInterview)
	}
}

func TestAddToPipeline_EventCarriesScore(t *testing.T) {
	notifier := &RecordingNotifier{}
	svc := newTestService(NewInMemoryStore(), notifier)

	if _, err := svc.AddToPipeline(context.Background(), "pos-1", "ada", ""); err != nil {
		t.Fatalf("AddToPipeline: %v", err)
	}
	// Exact title 35 + both skills 40 + same location 20.
	if got := notifier.Notified[0].Match.Score; got != 95 {
		t.Errorf("event score = %d, want 95", got)
	}
}

func TestAddToPipeline_DryRunWritesAndAnnouncesNothing(t *testing.T) {
	mem := NewInMemoryStore()
	notifier := &RecordingNotifier{}
	logger := discardLogger()
	svc := NewService(pool.NewLoader(mem, logger), mem, store.NewDryRunLinker(mem), notifier, logger)
	svc.SetDryRun(true)

	sub, err := svc.AddToPipeline(context.Background(), "pos-1", "ada", "screening")
	if err != nil {
		t.Fatalf("AddToPipeline: %v", err)
	}
	if sub.Stage != model.StageScreening {
		t.Errorf("stage = %q, want %q", sub.Stage, model.StageScreening)
	}
	if len(mem.links["pos-1"]) != 0 {
		t.Errorf("links = %v, want nothing written", mem.links["pos-1"])
	}
	if len(notifier.Notified) != 0 {
		t.Errorf("notified %d events for a link that was never written", len(notifier.Notified))
	}
}

func TestAddToPipeline_DryRunStillReportsExistingLink(t *testing.T) {
	mem := NewInMemoryStore()
	live := newTestService(mem, &RecordingNotifier{})
	if _, err := live.AddToPipeline(context.Background(), "pos-1", "ada", ""); err != nil {
		t.Fatalf("first AddToPipeline: %v", err)
	}

	notifier := &RecordingNotifier{}
	logger := discardLogger()
	dry := NewService(pool.NewLoader(mem, logger), mem, store.NewDryRunLinker(mem), notifier, logger)
	dry.SetDryRun(true)

	_, err := dry.AddToPipeline(context.Background(), "pos-1", "ada", "")
	if !errors.Is(err, model.ErrAlreadyLinked) {
		t.Fatalf("dry-run AddToPipeline = %v, want ErrAlreadyLinked", err)
	}
	if len(notifier.Notified) != 0 {
		t.Errorf("notified %d events, want none", len(notifier.Notified))
	}
}
