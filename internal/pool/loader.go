// Package pool assembles the inputs of a matching pass: the position profile,
// the eligible candidate pool and the position's exclusion set.
package pool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/amishk599/shortlist/internal/model"
)

// Input names used in LoadError.
const (
	InputPosition   = "position"
	InputCandidates = "candidates"
	InputExclusions = "exclusion set"
)

// LoadError reports which input of a pass could not be fetched. A pass that
// fails with a LoadError must not be scored.
type LoadError struct {
	Input      string
	PositionID string
	Err        error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading %s for position %s: %v", e.Input, e.PositionID, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Pool is the fully normalized input triple for the ranker.
type Pool struct {
	Position   model.Position
	Candidates []model.Candidate
	Excluded   model.ExclusionSet
}

// Loader reads a pool from a model.PoolSource. It holds no state between
// calls; every Load goes back to the source.
type Loader struct {
	source model.PoolSource
	logger *slog.Logger
}

// NewLoader returns a Loader reading from source.
func NewLoader(source model.PoolSource, logger *slog.Logger) *Loader {
	return &Loader{source: source, logger: logger}
}

// Load fetches the position, the eligible candidates and the exclusion set
// concurrently. Any failure aborts the whole pass. An unknown position
// yields an error wrapping model.ErrPositionNotFound.
func (l *Loader) Load(ctx context.Context, positionID string) (*Pool, error) {
	var (
		position   *model.Position
		candidates []model.Candidate
		excluded   model.ExclusionSet
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := l.LoadPosition(gctx, positionID)
		if err != nil {
			return err
		}
		position = p
		return nil
	})
	g.Go(func() error {
		c, err := l.LoadEligibleCandidates(gctx)
		if err != nil {
			return &LoadError{Input: InputCandidates, PositionID: positionID, Err: err}
		}
		candidates = c
		return nil
	})
	g.Go(func() error {
		ex, err := l.LoadExclusionSet(gctx, positionID)
		if err != nil {
			return err
		}
		excluded = ex
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	l.logger.Debug("pool loaded",
		"position", positionID,
		"candidates", len(candidates),
		"excluded", len(excluded),
	)

	return &Pool{
		Position:   *position,
		Candidates: candidates,
		Excluded:   excluded,
	}, nil
}

// LoadPosition fetches and normalizes a single position.
func (l *Loader) LoadPosition(ctx context.Context, positionID string) (*model.Position, error) {
	rec, err := l.source.GetPosition(ctx, positionID)
	if err != nil {
		return nil, &LoadError{Input: InputPosition, PositionID: positionID, Err: err}
	}
	if rec == nil {
		return nil, &LoadError{Input: InputPosition, PositionID: positionID, Err: model.ErrPositionNotFound}
	}
	p := NormalizePosition(*rec)
	return &p, nil
}

// LoadEligibleCandidates returns every candidate that is not placed. Records
// with missing optional fields are kept.
func (l *Loader) LoadEligibleCandidates(ctx context.Context) ([]model.Candidate, error) {
	recs, err := l.source.ListActiveCandidates(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing candidates: %w", err)
	}

	out := make([]model.Candidate, 0, len(recs))
	for _, rec := range recs {
		if model.IsPlacedStatus(rec.Status) {
			continue
		}
		out = append(out, NormalizeCandidate(rec))
	}
	return out, nil
}

// LoadExclusionSet returns the IDs of candidates already in the position's
// pipeline. A failure here is never downgraded to an empty set.
func (l *Loader) LoadExclusionSet(ctx context.Context, positionID string) (model.ExclusionSet, error) {
	ids, err := l.source.ListPipelineCandidateIDs(ctx, positionID)
	if err != nil {
		return nil, &LoadError{Input: InputExclusions, PositionID: positionID, Err: err}
	}
	return model.NewExclusionSet(ids...), nil
}

// IsNotFound reports whether err means the requested position does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, model.ErrPositionNotFound)
}

// NormalizePosition merges the Skills and Requirements aliases into a single
// deduplicated list, keeping first-seen order and original casing.
func NormalizePosition(rec model.PositionRecord) model.Position {
	return model.Position{
		ID:          rec.ID,
		Title:       strings.TrimSpace(rec.Title),
		Client:      rec.Client,
		Skills:      mergeSkills(rec.Skills, rec.Requirements),
		Location:    strings.TrimSpace(rec.Location),
		Description: rec.Description,
	}
}

// NormalizeCandidate resolves the Role/CurrentRole alias. Role wins when it is
// not blank.
func NormalizeCandidate(rec model.CandidateRecord) model.Candidate {
	role := strings.TrimSpace(rec.Role)
	if role == "" {
		role = strings.TrimSpace(rec.CurrentRole)
	}
	skills := rec.Skills
	if skills == nil {
		skills = []string{}
	}
	return model.Candidate{
		ID:              rec.ID,
		Name:            rec.Name,
		Role:            role,
		Skills:          skills,
		Summary:         rec.Summary,
		Location:        strings.TrimSpace(rec.Location),
		ExperienceYears: rec.ExperienceYears,
		Status:          rec.Status,
	}
}

func mergeSkills(lists ...[]string) []string {
	out := []string{}
	seen := make(map[string]struct{})
	for _, list := range lists {
		for _, s := range list {
			s = strings.TrimSpace(s)
			key := strings.ToLower(s)
			if key == "" {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}
