// Package dataset reads YAML fixtures of positions, candidates and pipeline
// entries and writes them to a store.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/amishk599/shortlist/internal/model"
)

// File is the on-disk fixture layout. Positions accept both skills and
// requirements; candidates accept both role and current_role.
type File struct {
	Positions  []Position  `yaml:"positions"`
	Candidates []Candidate `yaml:"candidates"`
	Pipeline   []Link      `yaml:"pipeline"`
}

type Position struct {
	ID           string   `yaml:"id"`
	Title        string   `yaml:"title"`
	Client       string   `yaml:"client"`
	Skills       []string `yaml:"skills"`
	Requirements []string `yaml:"requirements"`
	Location     string   `yaml:"location"`
	Description  string   `yaml:"description"`
	Status       string   `yaml:"status"`
}

type Candidate struct {
	ID              string   `yaml:"id"`
	Name            string   `yaml:"name"`
	Role            string   `yaml:"role"`
	CurrentRole     string   `yaml:"current_role"`
	Skills          []string `yaml:"skills"`
	Summary         string   `yaml:"summary"`
	Location        string   `yaml:"location"`
	ExperienceYears *int     `yaml:"experience_years"`
	Status          string   `yaml:"status"`
}

type Link struct {
	PositionID  string `yaml:"position_id"`
	CandidateID string `yaml:"candidate_id"`
	Stage       string `yaml:"stage"`
}

// Writer is the subset of a store that Apply writes to.
type Writer interface {
	UpsertPosition(ctx context.Context, p model.PositionRecord) error
	UpsertCandidate(ctx context.Context, c model.CandidateRecord) error
	model.PipelineLinker
}

// Summary counts what Apply wrote.
type Summary struct {
	Positions     int
	Candidates    int
	Links         int
	AlreadyLinked int
}

// Parse decodes a fixture and checks that every record has an ID.
func Parse(r io.Reader) (*File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse dataset: %w", err)
	}

	for i, p := range f.Positions {
		if strings.TrimSpace(p.ID) == "" {
			return nil, fmt.Errorf("positions[%d]: id is required", i)
		}
	}
	for i, c := range f.Candidates {
		if strings.TrimSpace(c.ID) == "" {
			return nil, fmt.Errorf("candidates[%d]: id is required", i)
		}
	}
	for i, l := range f.Pipeline {
		if l.PositionID == "" || l.CandidateID == "" {
			return nil, fmt.Errorf("pipeline[%d]: position_id and candidate_id are required", i)
		}
		if _, ok := model.ParseStage(l.Stage); !ok {
			return nil, fmt.Errorf("pipeline[%d]: %w: %q", i, model.ErrInvalidStage, l.Stage)
		}
	}
	return &f, nil
}

// Apply upserts positions and candidates by ID, then links pipeline entries.
// Links that already exist are counted and skipped.
func Apply(ctx context.Context, w Writer, f *File, logger *slog.Logger) (Summary, error) {
	var sum Summary

	for _, p := range f.Positions {
		rec := model.PositionRecord{
			ID:           p.ID,
			Title:        p.Title,
			Client:       p.Client,
			Skills:       p.Skills,
			Requirements: p.Requirements,
			Location:     p.Location,
			Description:  p.Description,
			Status:       p.Status,
		}
		if err := w.UpsertPosition(ctx, rec); err != nil {
			return sum, err
		}
		sum.Positions++
	}

	for _, c := range f.Candidates {
		rec := model.CandidateRecord{
			ID:              c.ID,
			Name:            c.Name,
			Role:            c.Role,
			CurrentRole:     c.CurrentRole,
			Skills:          c.Skills,
			Summary:         c.Summary,
			Location:        c.Location,
			ExperienceYears: c.ExperienceYears,
			Status:          c.Status,
		}
		if err := w.UpsertCandidate(ctx, rec); err != nil {
			return sum, err
		}
		sum.Candidates++
	}

	for _, l := range f.Pipeline {
		stage, _ := model.ParseStage(l.Stage)
		err := w.LinkCandidate(ctx, model.Submission{
			PositionID:  l.PositionID,
			CandidateID: l.CandidateID,
			Stage:       stage,
		})
		switch {
		case err == nil:
			sum.Links++
		case errors.Is(err, model.ErrAlreadyLinked):
			logger.Debug("pipeline entry exists, skipping", "position", l.PositionID, "candidate", l.CandidateID)
			sum.AlreadyLinked++
		default:
			return sum, fmt.Errorf("linking %s to %s: %w", l.CandidateID, l.PositionID, err)
		}
	}

	return sum, nil
}
