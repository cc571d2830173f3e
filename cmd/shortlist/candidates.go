package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/amishk599/shortlist/internal/model"
	"github.com/amishk599/shortlist/internal/pool"
	"github.com/spf13/cobra"
)

var candidatesAll bool

var candidatesCmd = &cobra.Command{
	Use:   "candidates",
	Short: "List stored candidates",
	Long:  "Prints the candidate pool. Placed candidates are hidden unless --all is given.",
	RunE:  runCandidates,
}

func init() {
	candidatesCmd.Flags().BoolVar(&candidatesAll, "all", false, "include placed candidates")
	rootCmd.AddCommand(candidatesCmd)
}

func runCandidates(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug, logJSON)
	ctx := context.Background()

	_, st := mustSetup(ctx, logger)
	defer st.Close()

	recs, err := st.ListCandidates(ctx, candidatesAll)
	if err != nil {
		logger.Error("failed to list candidates", "error", err)
		os.Exit(1)
	}

	fmt.Printf("%-20s %-25s %-30s %s\n", "ID", "Name", "Role", "Status")
	fmt.Println(strings.Repeat("─", 90))

	placed := 0
	for _, rec := range recs {
		c := pool.NormalizeCandidate(rec)
		if model.IsPlacedStatus(c.Status) {
			placed++
		}
		fmt.Printf("%-20s %-25s %-30s %s\n", truncate(c.ID, 20), truncate(c.Name, 25), truncate(c.Role, 30), orDash(c.Status))
	}

	fmt.Printf("\nTotal: %d candidates (%d placed)\n", len(recs), placed)
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
