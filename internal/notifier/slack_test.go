package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amishk599/shortlist/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleEvent(name, title string) model.LinkEvent {
	return model.LinkEvent{
		Submission: model.Submission{ID: "sub-1", PositionID: "pos-1", CandidateID: "cand-1", Stage: model.StageSubmitted},
		Position:   model.Position{ID: "pos-1", Title: title, Client: "Acme Corp"},
		Candidate:  model.Candidate{ID: "cand-1", Name: name, Role: "Backend Engineer", Location: "Remote, US", Skills: []string{"Go", "SQL"}},
		Match:      model.Match{CandidateID: "cand-1", Score: 88},
	}
}

func TestSlackNotifier_EmptyEvents(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL, srv.Client(), discardLogger())

	if err := n.Notify(context.Background(), nil); err != nil {
		t.Errorf("Notify(nil) = %v, want nil", err)
	}
	if err := n.Notify(context.Background(), []model.LinkEvent{}); err != nil {
		t.Errorf("Notify([]) = %v, want nil", err)
	}
	if c := calls.Load(); c != 0 {
		t.Errorf("expected 0 HTTP calls, got %d", c)
	}
}

func TestSlackNotifier_SingleEvent(t *testing.T) {
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL, srv.Client(), discardLogger())

	if err := n.Notify(context.Background(), []model.LinkEvent{sampleEvent("Ada Lovelace", "Backend Engineer")}); err != nil {
		t.Fatalf("Notify() = %v, want nil", err)
	}

	var payload slackPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}

	header := payload.Blocks[0]
	if header.Text.Text != "Ada Lovelace added to Backend Engineer" {
		t.Errorf("header text = %q", header.Text.Text)
	}

	clientField := payload.Blocks[1].Fields[0]
	if clientField.Text != "*Client:*\nAcme Corp" {
		t.Errorf("client field = %q", clientField.Text)
	}

	if got := payload.Blocks[1].Fields[2].Text; got != "*Match score:*\n88/100" {
		t.Errorf("score field = %q", got)
	}

	skills := payload.Blocks[3].Text.Text
	if skills != "*Skills:* Go, SQL" {
		t.Errorf("skills section = %q", skills)
	}
}

func TestSlackNotifier_AllFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL, srv.Client(), discardLogger())
	events := []model.LinkEvent{
		sampleEvent("A", "X"),
		sampleEvent("B", "Y"),
	}

	if err := n.Notify(context.Background(), events); err == nil {
		t.Error("expected error when all messages fail, got nil")
	}
}

func TestSlackNotifier_PartialFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL, srv.Client(), discardLogger())
	events := []model.LinkEvent{
		sampleEvent("Fails", "A"),
		sampleEvent("Succeeds", "B"),
	}

	if err := n.Notify(context.Background(), events); err != nil {
		t.Errorf("expected nil (partial success), got %v", err)
	}
}

func TestSlackNotifier_RateLimited(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL, srv.Client(), discardLogger())
	if err := n.Notify(context.Background(), []model.LinkEvent{sampleEvent("Rate", "Limited")}); err != nil {
		t.Fatalf("expected nil after retry, got %v", err)
	}
	if c := calls.Load(); c != 2 {
		t.Errorf("expected 2 HTTP calls (initial + retry), got %d", c)
	}
}

func TestSlackNotifier_CancelledContextStopsPosting(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL, srv.Client(), discardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := n.Notify(ctx, []model.LinkEvent{sampleEvent("A", "B"), sampleEvent("C", "D")})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Notify() = %v, want context.Canceled", err)
	}
	if c := calls.Load(); c != 0 {
		t.Errorf("expected no HTTP calls after cancellation, got %d", c)
	}
}

func TestSlackNotifier_CancelDuringRetryAfter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL, srv.Client(), discardLogger())
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := n.Notify(ctx, []model.LinkEvent{sampleEvent("Slow", "Down")})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Notify() = %v, want context.DeadlineExceeded", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Notify waited %v, want it to stop at the deadline", elapsed)
	}
}

func TestSlackNotifier_PayloadFormat(t *testing.T) {
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL, srv.Client(), discardLogger())
	event := model.LinkEvent{
		Submission: model.Submission{Stage: model.StageSubmitted},
		Position:   model.Position{ID: "pos-9", Title: "SRE"},
		// No name and no skills: header falls back to the ID and the skills block is skipped.
		Candidate: model.Candidate{ID: "cand-9"},
	}

	if err := n.Notify(context.Background(), []model.LinkEvent{event}); err != nil {
		t.Fatalf("Notify() = %v", err)
	}

	var payload slackPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if len(payload.Blocks) != 5 {
		t.Fatalf("expected 5 blocks, got %d", len(payload.Blocks))
	}
	if payload.Blocks[0].Text.Text != "cand-9 added to SRE" {
		t.Errorf("header = %q", payload.Blocks[0].Text.Text)
	}
	if got := payload.Blocks[1].Fields[0].Text; got != "*Client:*\n-" {
		t.Errorf("client field = %q, want dash placeholder", got)
	}
	if payload.Blocks[3].Type != "context" || !strings.Contains(payload.Blocks[3].Elements[0].Text, "cand-9") {
		t.Errorf("block[3] = %+v, want context with IDs", payload.Blocks[3])
	}
	if payload.Blocks[4].Type != "divider" {
		t.Errorf("block[4] type = %q, want divider", payload.Blocks[4].Type)
	}
}

func TestSendTestMessage(t *testing.T) {
	rec := &recordingNotifier{}
	if err := SendTestMessage(context.Background(), rec); err != nil {
		t.Fatalf("SendTestMessage: %v", err)
	}
	if len(rec.events) != 1 || rec.events[0].Candidate.Name == "" {
		t.Errorf("events = %+v, want one named test event", rec.events)
	}
}

type recordingNotifier struct {
	events []model.LinkEvent
}

func (r *recordingNotifier) Notify(_ context.Context, events []model.LinkEvent) error {
	r.events = append(r.events, events...)
	return nil
}
