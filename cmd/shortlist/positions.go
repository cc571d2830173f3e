package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var positionsCmd = &cobra.Command{
	Use:   "positions",
	Short: "List stored positions",
	RunE:  runPositions,
}

func init() {
	rootCmd.AddCommand(positionsCmd)
}

func runPositions(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug, logJSON)
	ctx := context.Background()

	_, st := mustSetup(ctx, logger)
	defer st.Close()

	positions, err := st.ListPositions(ctx)
	if err != nil {
		logger.Error("failed to list positions", "error", err)
		os.Exit(1)
	}

	fmt.Printf("%-20s %-30s %-20s %s\n", "ID", "Title", "Client", "Location")
	fmt.Println(strings.Repeat("─", 90))
	for _, p := range positions {
		fmt.Printf("%-20s %-30s %-20s %s\n", truncate(p.ID, 20), truncate(p.Title, 30), truncate(p.Client, 20), p.Location)
	}

	fmt.Printf("\nTotal: %d positions\n", len(positions))
	return nil
}
