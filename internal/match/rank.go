package match

import (
	"fmt"
	"sort"
	"strings"

	"github.com/amishk599/shortlist/internal/model"
)

const (
	// MaxResults caps the length of a ranked list.
	MaxResults = 20
	// MinScore is the exclusive lower bound for a match to be kept.
	MinScore = 5
)

// Rank scores every candidate not in excluded, drops scores at or below
// MinScore, and returns the best MaxResults in descending order. Ties keep
// their input order. Excluded candidates are skipped before scoring.
func Rank(p model.Position, candidates []model.Candidate, excluded model.ExclusionSet) []model.Match {
	ranked := make([]model.Match, 0, min(len(candidates), MaxResults))
	for _, c := range candidates {
		if excluded.Contains(c.ID) {
			continue
		}
		m := Score(p, c)
		if m.Score <= MinScore {
			continue
		}
		ranked = append(ranked, m)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if len(ranked) > MaxResults {
		ranked = ranked[:MaxResults]
	}
	return ranked
}

// Explain renders a short human-readable reason for a match.
func Explain(m model.Match) string {
	b := m.Breakdown
	var parts []string

	switch {
	case b.Title >= titleExactPoints:
		parts = append(parts, "Exact title match")
	case b.Title > 0:
		parts = append(parts, fmt.Sprintf("Partial title match (%.0f/%.0f)", b.Title, titleOverlapPoints))
	}

	if len(b.MatchedSkills) > 0 {
		parts = append(parts, fmt.Sprintf("Skills %s (%.0f/%.0f)", strings.Join(b.MatchedSkills, ", "), b.Skills, skillPoints))
	} else {
		parts = append(parts, "No skill matches")
	}

	switch b.Location {
	case locationPoints:
		parts = append(parts, "Same location")
	case remotePoints:
		parts = append(parts, "Both remote")
	}

	if b.Seniority > 0 {
		parts = append(parts, "Senior")
	}
	return strings.Join(parts, ". ")
}
