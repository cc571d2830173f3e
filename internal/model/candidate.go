package model

import "strings"

// StatusPlaced is the terminal candidate status. Placed candidates are never
// offered as matches.
const StatusPlaced = "placed"

// CandidateRecord is a candidate as stored by the data layer. The current role
// lives under Role on newer records and CurrentRole on older ones.
type CandidateRecord struct {
	ID              string
	Name            string
	Role            string
	CurrentRole     string
	Skills          []string
	Summary         string
	Location        string
	ExperienceYears *int // nil when unknown
	Status          string
}

// Candidate is the canonical candidate profile used for scoring.
type Candidate struct {
	ID              string
	Name            string
	Role            string
	Skills          []string
	Summary         string
	Location        string
	ExperienceYears *int
	Status          string
}

// IsPlacedStatus reports whether status is the terminal "placed" state.
func IsPlacedStatus(status string) bool {
	return strings.EqualFold(strings.TrimSpace(status), StatusPlaced)
}
