// Package matcher runs matching passes for a position and adds chosen
// candidates to its pipeline.
package matcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/amishk599/shortlist/internal/match"
	"github.com/amishk599/shortlist/internal/model"
	"github.com/amishk599/shortlist/internal/pool"
)

// Result is the outcome of one matching pass.
type Result struct {
	Position   model.Position
	Matches    []model.Match
	Candidates map[string]model.Candidate // ranked candidates by ID
	PoolSize   int
	Excluded   int
}

// Service owns the match pipeline for positions:
// load → exclude → score → rank, and the atomic add-to-pipeline write.
type Service struct {
	loader     *pool.Loader
	candidates model.CandidateGetter
	linker     model.PipelineLinker
	notifier   model.Notifier
	logger     *slog.Logger
	now        func() time.Time
	dryRun     bool
}

// NewService creates a service wired with all its dependencies.
func NewService(
	loader *pool.Loader,
	candidates model.CandidateGetter,
	linker model.PipelineLinker,
	notifier model.Notifier,
	logger *slog.Logger,
) *Service {
	return &Service{
		loader:     loader,
		candidates: candidates,
		linker:     linker,
		notifier:   notifier,
		logger:     logger,
		now:        time.Now,
	}
}

// SetDryRun marks the service as running against a linker that does not
// write. AddToPipeline then reports what it would do and sends no
// notifications.
func (s *Service) SetDryRun(enabled bool) {
	s.dryRun = enabled
}

// Matches runs a full pass for positionID. Every call reloads the position,
// the pool and the exclusion set. A load failure of any input is returned
// and nothing is scored.
func (s *Service) Matches(ctx context.Context, positionID string) (*Result, error) {
	p, err := s.loader.Load(ctx, positionID)
	if err != nil {
		return nil, fmt.Errorf("matching %s: %w", positionID, err)
	}

	ranked := match.Rank(p.Position, p.Candidates, p.Excluded)

	byID := make(map[string]model.Candidate, len(ranked))
	for _, c := range p.Candidates {
		byID[c.ID] = c
	}
	shown := make(map[string]model.Candidate, len(ranked))
	for _, m := range ranked {
		shown[m.CandidateID] = byID[m.CandidateID]
	}

	s.logger.Info("matched position",
		"position", positionID,
		"pool", len(p.Candidates),
		"excluded", len(p.Excluded),
		"ranked", len(ranked),
	)

	return &Result{
		Position:   p.Position,
		Matches:    ranked,
		Candidates: shown,
		PoolSize:   len(p.Candidates),
		Excluded:   len(p.Excluded),
	}, nil
}

// AddToPipeline links candidateID to positionID at stage (blank means
// Submitted). All failures are returned as *model.LinkError; use errors.Is
// with model.ErrAlreadyLinked to detect a lost race.
func (s *Service) AddToPipeline(ctx context.Context, positionID, candidateID, stage string) (*model.Submission, error) {
	fail := func(err error) (*model.Submission, error) {
		return nil, &model.LinkError{PositionID: positionID, CandidateID: candidateID, Err: err}
	}

	canonical, ok := model.ParseStage(stage)
	if !ok {
		return fail(fmt.Errorf("%w: %q", model.ErrInvalidStage, stage))
	}

	position, err := s.loader.LoadPosition(ctx, positionID)
	if err != nil {
		return fail(err)
	}

	rec, err := s.candidates.GetCandidate(ctx, candidateID)
	if err != nil {
		return fail(fmt.Errorf("getting candidate: %w", err))
	}
	if rec == nil {
		return fail(model.ErrCandidateNotFound)
	}
	if model.IsPlacedStatus(rec.Status) {
		return fail(model.ErrCandidateIneligible)
	}

	sub := model.Submission{
		ID:          uuid.NewString(),
		PositionID:  positionID,
		CandidateID: candidateID,
		Stage:       canonical,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.linker.LinkCandidate(ctx, sub); err != nil {
		if errors.Is(err, model.ErrAlreadyLinked) {
			s.logger.Info("candidate already in pipeline", "position", positionID, "candidate", candidateID)
		}
		return fail(err)
	}

	if s.dryRun {
		s.logger.Info("dry run: candidate can be added to pipeline",
			"position", positionID,
			"candidate", candidateID,
			"stage", canonical,
		)
		return &sub, nil
	}

	s.logger.Info("added candidate to pipeline",
		"position", positionID,
		"candidate", candidateID,
		"stage", canonical,
	)

	cand := pool.NormalizeCandidate(*rec)
	event := model.LinkEvent{
		Submission: sub,
		Position:   *position,
		Candidate:  cand,
		Match:      match.Score(*position, cand),
	}
	if err := s.notifier.Notify(ctx, []model.LinkEvent{event}); err != nil {
		s.logger.Error("pipeline notification failed", "position", positionID, "candidate", candidateID, "error", err)
	}

	return &sub, nil
}
