package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var pipelineCmd = &cobra.Command{
	Use:   "pipeline <position-id>",
	Short: "Show a position's pipeline",
	Args:  cobra.ExactArgs(1),
	RunE:  runPipeline,
}

func init() {
	rootCmd.AddCommand(pipelineCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug, logJSON)
	ctx := context.Background()

	_, st := mustSetup(ctx, logger)
	defer st.Close()

	positionID := args[0]
	p, err := st.GetPosition(ctx, positionID)
	if err != nil {
		logger.Error("failed to get position", "error", err)
		os.Exit(1)
	}
	if p == nil {
		fmt.Fprintf(os.Stderr, "position %s not found\n", positionID)
		os.Exit(1)
	}

	subs, err := st.ListSubmissions(ctx, positionID)
	if err != nil {
		logger.Error("failed to list pipeline", "error", err)
		os.Exit(1)
	}

	fmt.Printf("%s  [%s]\n\n", p.Title, p.ID)
	fmt.Printf("%-20s %-12s %s\n", "Candidate", "Stage", "Added")
	fmt.Println(strings.Repeat("─", 55))
	for _, s := range subs {
		fmt.Printf("%-20s %-12s %s\n", truncate(s.CandidateID, 20), s.Stage, s.CreatedAt.Local().Format("2006-01-02 15:04"))
	}

	fmt.Printf("\nTotal: %d in pipeline\n", len(subs))
	return nil
}
