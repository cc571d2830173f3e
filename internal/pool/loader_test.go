package pool

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/amishk599/shortlist/internal/model"
)

// --- Fakes ---

// FakeSource serves canned records and can fail any single read.
type FakeSource struct {
	Positions   map[string]model.PositionRecord
	Candidates  []model.CandidateRecord
	Pipelines   map[string][]string
	PositionErr error
	ListErr     error
	PipelineErr error
}

func (f *FakeSource) GetPosition(_ context.Context, id string) (*model.PositionRecord, error) {
	if f.PositionErr != nil {
		return nil, f.PositionErr
	}
	rec, ok := f.Positions[id]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (f *FakeSource) ListActiveCandidates(_ context.Context) ([]model.CandidateRecord, error) {
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	return f.Candidates, nil
}

func (f *FakeSource) ListPipelineCandidateIDs(_ context.Context, positionID string) ([]string, error) {
	if f.PipelineErr != nil {
		return nil, f.PipelineErr
	}
	return f.Pipelines[positionID], nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFakeSource() *FakeSource {
	return &FakeSource{
		Positions: map[string]model.PositionRecord{
			"pos-1": {
				ID:           "pos-1",
				Title:        " Backend Engineer ",
				Skills:       []string{"Go", "SQL"},
				Requirements: []string{"sql", "Kafka", ""},
				Location:     "Remote",
			},
		},
		Candidates: []model.CandidateRecord{
			{ID: "c1", Role: "Backend Engineer", Skills: []string{"go"}, Status: "active"},
			{ID: "c2", CurrentRole: "Data Engineer", Status: "Interviewing"},
			{ID: "c3", Role: "SRE", Status: " Placed "},
			{ID: "c4"},
		},
		Pipelines: map[string][]string{"pos-1": {"c2"}},
	}
}

// --- Tests ---

func TestLoad_NormalizesAndExcludes(t *testing.T) {
	l := NewLoader(newFakeSource(), discardLogger())

	p, err := l.Load(context.Background(), "pos-1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if p.Position.Title != "Backend Engineer" {
		t.Errorf("Title = %q, want trimmed", p.Position.Title)
	}
	wantSkills := []string{"Go", "SQL", "Kafka"}
	if !reflect.DeepEqual(p.Position.Skills, wantSkills) {
		t.Errorf("Skills = %v, want %v", p.Position.Skills, wantSkills)
	}

	var gotIDs []string
	for _, c := range p.Candidates {
		gotIDs = append(gotIDs, c.ID)
	}
	if !reflect.DeepEqual(gotIDs, []string{"c1", "c2", "c4"}) {
		t.Errorf("candidate IDs = %v, want [c1 c2 c4] (placed dropped, sparse kept)", gotIDs)
	}
	if p.Candidates[1].Role != "Data Engineer" {
		t.Errorf("current_role alias not applied: %q", p.Candidates[1].Role)
	}
	if p.Candidates[2].Skills == nil {
		t.Error("missing skills should normalize to an empty slice")
	}

	if !p.Excluded.Contains("c2") || len(p.Excluded) != 1 {
		t.Errorf("Excluded = %v, want {c2}", p.Excluded)
	}
}

func TestLoad_UnknownPosition(t *testing.T) {
	l := NewLoader(newFakeSource(), discardLogger())

	_, err := l.Load(context.Background(), "nope")
	if !IsNotFound(err) {
		t.Fatalf("Load(nope) error = %v, want ErrPositionNotFound", err)
	}
}

func TestLoad_ExclusionFailureIsFatal(t *testing.T) {
	src := newFakeSource()
	src.PipelineErr = errors.New("connection reset")
	l := NewLoader(src, discardLogger())

	p, err := l.Load(context.Background(), "pos-1")
	if err == nil {
		t.Fatal("Load: expected error when exclusion set cannot be read")
	}
	if p != nil {
		t.Errorf("Load returned a pool alongside the error: %+v", p)
	}

	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("error %T is not *LoadError", err)
	}
	if le.Input != InputExclusions {
		t.Errorf("Input = %q, want %q", le.Input, InputExclusions)
	}
}

func TestLoad_CandidateFailureIsFatal(t *testing.T) {
	src := newFakeSource()
	src.ListErr = errors.New("timeout")
	l := NewLoader(src, discardLogger())

	_, err := l.Load(context.Background(), "pos-1")
	var le *LoadError
	if !errors.As(err, &le) || le.Input != InputCandidates {
		t.Fatalf("Load error = %v, want LoadError for candidates", err)
	}
}

func TestLoad_ReadsFreshEachTime(t *testing.T) {
	src := newFakeSource()
	l := NewLoader(src, discardLogger())

	first, err := l.Load(context.Background(), "pos-1")
	if err != nil {
		t.Fatalf("first Load: %v", err)
	}
	if first.Excluded.Contains("c1") {
		t.Fatal("c1 unexpectedly excluded before linking")
	}

	src.Pipelines["pos-1"] = append(src.Pipelines["pos-1"], "c1")

	second, err := l.Load(context.Background(), "pos-1")
	if err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if !second.Excluded.Contains("c1") {
		t.Error("newly linked candidate missing from exclusion set on reload")
	}
}

func TestNormalizeCandidate_RolePrecedence(t *testing.T) {
	tests := []struct {
		name string
		rec  model.CandidateRecord
		want string
	}{
		{"role only", model.CandidateRecord{Role: "Designer"}, "Designer"},
		{"current_role only", model.CandidateRecord{CurrentRole: "Analyst"}, "Analyst"},
		{"both prefers role", model.CandidateRecord{Role: "Lead", CurrentRole: "Analyst"}, "Lead"},
		{"blank role falls back", model.CandidateRecord{Role: "   ", CurrentRole: "Analyst"}, "Analyst"},
		{"neither", model.CandidateRecord{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeCandidate(tt.rec).Role; got != tt.want {
				t.Errorf("Role = %q, want %q", got, tt.want)
			}
		})
	}
}
