package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/amishk599/shortlist/internal/match"
	"github.com/amishk599/shortlist/internal/matcher"
	"github.com/amishk599/shortlist/internal/pool"
	"github.com/spf13/cobra"
)

var (
	matchJSON    bool
	matchExplain bool
)

var matchCmd = &cobra.Command{
	Use:   "match <position-id>",
	Short: "Rank candidates for a position",
	Long:  "Runs one matching pass and prints up to 20 ranked candidates not already in the position's pipeline.",
	Args:  cobra.ExactArgs(1),
	RunE:  runMatch,
}

func init() {
	matchCmd.Flags().BoolVar(&matchJSON, "json", false, "print results as JSON")
	matchCmd.Flags().BoolVar(&matchExplain, "explain", false, "print a one-line explanation under each match")
	rootCmd.AddCommand(matchCmd)
}

func runMatch(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug, logJSON)
	ctx := context.Background()

	cfg, st := mustSetup(ctx, logger)
	defer st.Close()

	httpClient := &http.Client{Timeout: 30 * time.Second}
	svc := buildService(cfg, st, st, setupNotifier(cfg, httpClient, logger), logger)

	res, err := svc.Matches(ctx, args[0])
	if err != nil {
		if pool.IsNotFound(err) {
			fmt.Fprintf(os.Stderr, "position %s not found\n", args[0])
		} else {
			logger.Error("matching failed", "position", args[0], "error", err)
		}
		os.Exit(1)
	}

	if matchJSON {
		return printMatchesJSON(res)
	}
	printMatches(res)
	return nil
}

func printMatches(res *matcher.Result) {
	fmt.Printf("%s", res.Position.Title)
	if res.Position.Client != "" {
		fmt.Printf(" @ %s", res.Position.Client)
	}
	fmt.Printf("  [%s]\n\n", res.Position.ID)

	if len(res.Matches) == 0 {
		fmt.Println("No matching candidates.")
	} else {
		fmt.Printf("%-4s %-6s %-25s %-30s %s\n", "#", "Score", "Candidate", "Role", "ID")
		fmt.Println(strings.Repeat("─", 80))
		for i, m := range res.Matches {
			c := res.Candidates[m.CandidateID]
			fmt.Printf("%-4d %-6d %-25s %-30s %s\n", i+1, m.Score, truncate(c.Name, 25), truncate(c.Role, 30), m.CandidateID)
			if matchExplain {
				fmt.Printf("     %s\n", match.Explain(m))
			}
		}
	}

	fmt.Printf("\nPool: %d eligible, %d already in pipeline, %d shown\n", res.PoolSize, res.Excluded, len(res.Matches))
}

type jsonMatch struct {
	CandidateID   string   `json:"candidate_id"`
	Name          string   `json:"name"`
	Score         int      `json:"score"`
	Title         float64  `json:"title"`
	Skills        float64  `json:"skills"`
	Location      float64  `json:"location"`
	Seniority     float64  `json:"seniority"`
	MatchedSkills []string `json:"matched_skills"`
	Explanation   string   `json:"explanation"`
}

func printMatchesJSON(res *matcher.Result) error {
	out := make([]jsonMatch, 0, len(res.Matches))
	for _, m := range res.Matches {
		out = append(out, jsonMatch{
			CandidateID:   m.CandidateID,
			Name:          res.Candidates[m.CandidateID].Name,
			Score:         m.Score,
			Title:         m.Breakdown.Title,
			Skills:        m.Breakdown.Skills,
			Location:      m.Breakdown.Location,
			Seniority:     m.Breakdown.Seniority,
			MatchedSkills: m.Breakdown.MatchedSkills,
			Explanation:   match.Explain(m),
		})
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
