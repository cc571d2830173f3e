package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/amishk599/shortlist/internal/matcher"
	"github.com/amishk599/shortlist/internal/picker"
	"github.com/spf13/cobra"
)

var pickCmd = &cobra.Command{
	Use:   "pick",
	Short: "Browse matches interactively (TUI)",
	Long:  "Shows the position picker TUI, then the split-pane match view for the chosen position.",
	RunE:  runPick,
}

func init() {
	rootCmd.AddCommand(pickCmd)
}

func runPick(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug, logJSON)
	ctx := context.Background()

	cfg, st := mustSetup(ctx, logger)
	defer st.Close()

	// The TUI owns the terminal; any log line written after the alt-screen
	// starts corrupts the display. Notifications still go out, only their
	// log lines are dropped.
	silentLogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	httpClient := &http.Client{Timeout: 30 * time.Second}
	svc := buildService(cfg, st, st, setupNotifier(cfg, httpClient, silentLogger), silentLogger)

	for {
		positions, err := st.ListPositions(ctx)
		if err != nil {
			logger.Error("failed to list positions", "error", err)
			os.Exit(1)
		}
		if len(positions) == 0 {
			fmt.Println("No positions stored. Load some with `shortlist import`.")
			return nil
		}

		choice, err := picker.RunPositionPicker(positions)
		if err != nil {
			fmt.Printf("Picker error: %v\n", err)
			return nil
		}
		if choice < 0 {
			return nil
		}
		positionID := positions[choice].ID

		res, loadErr := picker.RunLoader(positions[choice].Title, func(ctx context.Context) (*matcher.Result, error) {
			return svc.Matches(ctx, positionID)
		})

		wantQuit, err := picker.RunMatchTUI(svc, positionID, res, loadErr)
		if err != nil {
			fmt.Printf("TUI error: %v\n", err)
		}
		if wantQuit {
			return nil
		}
		// else: back to the picker
	}
}
