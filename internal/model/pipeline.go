package model

import (
	"context"
	"strings"
	"time"
)

// Pipeline stages a submission can be in. Any stage counts as "linked".
const (
	StageSubmitted = "Submitted"
	StageScreening = "Screening"
	StageInterview = "Interview"
	StageOffer     = "Offer"
	StagePlaced    = "Placed"
	StageRejected  = "Rejected"
)

// Stages lists every known pipeline stage in funnel order.
var Stages = []string{StageSubmitted, StageScreening, StageInterview, StageOffer, StagePlaced, StageRejected}

// ParseStage returns the canonical spelling of stage. A blank stage means
// StageSubmitted.
func ParseStage(stage string) (string, bool) {
	stage = strings.TrimSpace(stage)
	if stage == "" {
		return StageSubmitted, true
	}
	for _, s := range Stages {
		if strings.EqualFold(s, stage) {
			return s, true
		}
	}
	return "", false
}

// Submission links a candidate to a position's pipeline at a given stage.
type Submission struct {
	ID          string
	PositionID  string
	CandidateID string
	Stage       string
	CreatedAt   time.Time
}

// ExclusionSet holds candidate IDs already present in a position's pipeline.
type ExclusionSet map[string]struct{}

// NewExclusionSet builds a set from a list of candidate IDs.
func NewExclusionSet(ids ...string) ExclusionSet {
	s := make(ExclusionSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Contains reports whether id is in the set. A nil set contains nothing.
func (s ExclusionSet) Contains(id string) bool {
	_, ok := s[id]
	return ok
}

// Breakdown explains how a score was assembled.
type Breakdown struct {
	Title         float64
	Skills        float64
	Location      float64
	Seniority     float64
	MatchedSkills []string // required skills that matched, lower-cased
}

// Match is one ranked suggestion for a position. It is never persisted.
type Match struct {
	CandidateID string
	Score       int // 0..100
	Breakdown   Breakdown
}

// LinkEvent describes a candidate that was just added to a pipeline.
type LinkEvent struct {
	Submission Submission
	Position   Position
	Candidate  Candidate
	Match      Match
}

// PoolSource reads the raw inputs of a matching pass from the data layer.
type PoolSource interface {
	// GetPosition returns nil, nil when no position has the given ID.
	GetPosition(ctx context.Context, id string) (*PositionRecord, error)
	// ListActiveCandidates returns every candidate whose status is not placed.
	ListActiveCandidates(ctx context.Context) ([]CandidateRecord, error)
	// ListPipelineCandidateIDs returns candidate IDs with a submission for the
	// position, regardless of stage.
	ListPipelineCandidateIDs(ctx context.Context, positionID string) ([]string, error)
}

// PipelineLinker writes pipeline entries. LinkCandidate must fail with
// ErrAlreadyLinked when the (position, candidate) pair already exists.
type PipelineLinker interface {
	LinkCandidate(ctx context.Context, sub Submission) error
}

// CandidateGetter fetches a single candidate; nil, nil when absent.
type CandidateGetter interface {
	GetCandidate(ctx context.Context, id string) (*CandidateRecord, error)
}

// Notifier announces new pipeline links.
type Notifier interface {
	Notify(ctx context.Context, events []LinkEvent) error
}
