package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/amishk599/shortlist/internal/notifier"
	"github.com/spf13/cobra"
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Check the configured notifier",
}

var notifyTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Announce a sample pipeline addition",
	Long:  "Sends a fake \"candidate added to pipeline\" event through the notifier from the config, so a Slack webhook can be checked before real links go out.",
	Args:  cobra.NoArgs,
	RunE:  runNotifyTest,
}

func init() {
	notifyCmd.AddCommand(notifyTestCmd)
	rootCmd.AddCommand(notifyCmd)
}

func runNotifyTest(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug, logJSON)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n := setupNotifier(cfg, &http.Client{Timeout: 30 * time.Second}, logger)
	if err := notifier.SendTestMessage(ctx, n); err != nil {
		logger.Error("sample notification was not delivered", "type", cfg.Notification.Type, "error", err)
		os.Exit(1)
	}
	logger.Info("sample notification delivered", "type", cfg.Notification.Type)
	return nil
}
