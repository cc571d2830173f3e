// Package match scores candidates against a position and ranks them.
package match

import (
	"math"
	"strings"

	"github.com/amishk599/shortlist/internal/model"
)

// Component caps. The token-overlap title branch tops out at
// titleOverlapPoints, below the exact-match titleExactPoints.
const (
	titleExactPoints   = 35.0
	titleOverlapPoints = 30.0
	skillPoints        = 40.0
	locationPoints     = 20.0
	remotePoints       = 15.0
	seniorityPoints    = 5.0
)

// Score computes the relevance of c for p. It never fails; missing fields
// simply contribute nothing.
func Score(p model.Position, c model.Candidate) model.Match {
	title := normalizeText(p.Title)
	role := normalizeText(c.Role)

	var b model.Breakdown
	b.Title = titleScore(title, role)
	b.Skills, b.MatchedSkills = skillScore(p.Skills, c.Skills, c.Summary)
	b.Location = locationScore(p.Location, c.Location)
	b.Seniority = seniorityScore(title, role, c.ExperienceYears)

	total := b.Title + b.Skills + b.Location + b.Seniority
	total = math.Max(0, math.Min(100, total))

	return model.Match{
		CandidateID: c.ID,
		Score:       int(math.Round(total)),
		Breakdown:   b,
	}
}

func titleScore(title, role string) float64 {
	if role != "" && role == title {
		return titleExactPoints
	}

	titleTokens := tokenSet(title)
	if len(titleTokens) == 0 {
		return 0
	}
	roleTokens := tokenSet(role)

	shared := 0
	for t := range titleTokens {
		if _, ok := roleTokens[t]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(titleTokens)) * titleOverlapPoints
}

// skillScore returns the skill component and the required skills that
// matched. A requirement counts once whether it matched a tag, the summary,
// or both.
func skillScore(required, candidateSkills []string, summary string) (float64, []string) {
	req := lowerSkills(required)
	if len(req) == 0 {
		return 0, nil
	}
	have := lowerSkills(candidateSkills)
	summary = strings.ToLower(summary)

	var matched []string
	for _, r := range req {
		if matchesAnySkill(r, have) || strings.Contains(summary, r) {
			matched = append(matched, r)
		}
	}
	return float64(len(matched)) / float64(len(req)) * skillPoints, matched
}

// matchesAnySkill reports whether req and some candidate skill contain one
// another.
func matchesAnySkill(req string, have []string) bool {
	for _, h := range have {
		if strings.Contains(h, req) || strings.Contains(req, h) {
			return true
		}
	}
	return false
}

func locationScore(positionLoc, candidateLoc string) float64 {
	pl := strings.ToLower(strings.TrimSpace(positionLoc))
	cl := strings.ToLower(strings.TrimSpace(candidateLoc))

	if pl != "" && cl != "" && (strings.Contains(pl, cl) || strings.Contains(cl, pl)) {
		return locationPoints
	}
	if strings.Contains(pl, "remote") && strings.Contains(cl, "remote") {
		return remotePoints
	}
	return 0
}

func seniorityScore(title, role string, years *int) float64 {
	if !strings.Contains(title, "senior") {
		return 0
	}
	if strings.Contains(role, "senior") || (years != nil && *years > 5) {
		return seniorityPoints
	}
	return 0
}
