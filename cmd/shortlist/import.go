package main

import (
	"context"
	"fmt"
	"os"

	"github.com/amishk599/shortlist/internal/dataset"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Load positions, candidates and pipeline entries from YAML",
	Long:  "Upserts positions and candidates by ID, then links pipeline entries. Entries already in a pipeline are skipped.",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug, logJSON)
	ctx := context.Background()

	f, err := os.Open(args[0])
	if err != nil {
		logger.Error("failed to open dataset", "error", err)
		os.Exit(1)
	}
	defer f.Close()

	data, err := dataset.Parse(f)
	if err != nil {
		logger.Error("invalid dataset", "file", args[0], "error", err)
		os.Exit(1)
	}

	_, st := mustSetup(ctx, logger)
	defer st.Close()

	sum, err := dataset.Apply(ctx, st, data, logger)
	if err != nil {
		logger.Error("import failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Imported %d positions, %d candidates, %d pipeline entries (%d already present)\n",
		sum.Positions, sum.Candidates, sum.Links, sum.AlreadyLinked)
	return nil
}
