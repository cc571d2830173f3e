package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/amishk599/shortlist/internal/model"
	"github.com/amishk599/shortlist/internal/store"
	"github.com/spf13/cobra"
)

var (
	linkStage  string
	linkDryRun bool
)

var linkCmd = &cobra.Command{
	Use:   "link <position-id> <candidate-id>",
	Short: "Add a candidate to a position's pipeline",
	Long:  "Links a candidate to a position at the given stage. A candidate can be linked to a position only once.",
	Args:  cobra.ExactArgs(2),
	RunE:  runLink,
}

func init() {
	linkCmd.Flags().StringVar(&linkStage, "stage", model.StageSubmitted, "pipeline stage")
	linkCmd.Flags().BoolVar(&linkDryRun, "dry-run", false, "validate the link without writing it")
	rootCmd.AddCommand(linkCmd)
}

func runLink(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug, logJSON)
	ctx := context.Background()

	cfg, st := mustSetup(ctx, logger)
	defer st.Close()

	var linker model.PipelineLinker = st
	if linkDryRun {
		logger.Info("dry-run mode enabled, pipeline will not be written")
		linker = store.NewDryRunLinker(st)
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}
	svc := buildService(cfg, st, linker, setupNotifier(cfg, httpClient, logger), logger)
	svc.SetDryRun(linkDryRun)

	positionID, candidateID := args[0], args[1]
	sub, err := svc.AddToPipeline(ctx, positionID, candidateID, linkStage)
	switch {
	case err == nil:
	case errors.Is(err, model.ErrAlreadyLinked):
		fmt.Printf("%s is already in the pipeline for %s\n", candidateID, positionID)
		return nil
	default:
		logger.Error("failed to add candidate", "error", err)
		os.Exit(1)
	}

	verb := "Added"
	if linkDryRun {
		verb = "Would add"
	}
	fmt.Printf("%s %s to %s at stage %s\n", verb, sub.CandidateID, sub.PositionID, sub.Stage)
	return nil
}
