package model

import (
	"errors"
	"fmt"
)

var (
	// ErrPositionNotFound is returned when a position ID does not exist.
	ErrPositionNotFound = errors.New("position not found")
	// ErrCandidateNotFound is returned when a candidate ID does not exist.
	ErrCandidateNotFound = errors.New("candidate not found")
	// ErrCandidateIneligible is returned when linking a placed candidate.
	ErrCandidateIneligible = errors.New("candidate is not eligible")
	// ErrAlreadyLinked is returned when the candidate is already in the
	// position's pipeline.
	ErrAlreadyLinked = errors.New("candidate already in pipeline")
	// ErrInvalidStage is returned for a pipeline stage outside Stages.
	ErrInvalidStage = errors.New("invalid pipeline stage")
)

// LinkError wraps a failed attempt to add a candidate to a pipeline.
type LinkError struct {
	PositionID  string
	CandidateID string
	Err         error
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("link %s to %s: %v", e.CandidateID, e.PositionID, e.Err)
}

func (e *LinkError) Unwrap() error {
	return e.Err
}
