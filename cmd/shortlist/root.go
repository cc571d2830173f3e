package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/amishk599/shortlist/internal/config"
	"github.com/amishk599/shortlist/internal/matcher"
	"github.com/amishk599/shortlist/internal/model"
	"github.com/amishk599/shortlist/internal/notifier"
	"github.com/amishk599/shortlist/internal/pool"
	"github.com/amishk599/shortlist/internal/retry"
	"github.com/amishk599/shortlist/internal/store"
	"github.com/spf13/cobra"
)

var (
	cfgPath string
	debug   bool
	logJSON bool
)

var rootCmd = &cobra.Command{
	Use:   "shortlist",
	Short: "Candidate matching for open positions",
	Long:  "Shortlist ranks candidates against a position and adds the ones you pick to its pipeline.",
	// Bare `shortlist` opens the interactive picker.
	RunE: runPick,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: SHORTLIST_CONFIG env var or ./shortlist.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "emit logs as JSON")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > SHORTLIST_CONFIG env var > "./shortlist.yaml"
func loadConfig(path string) (*config.Config, error) {
	return config.LoadResolved(path)
}

// setupLogger writes to stderr so command output on stdout stays pipeable.
func setupLogger(dbg, asJSON bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: logLevel}
	if asJSON {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func setupNotifier(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) model.Notifier {
	switch cfg.Notification.Type {
	case "slack":
		logger.Debug("using slack notifier")
		return notifier.NewSlackNotifier(cfg.Notification.WebhookURL, httpClient, logger)
	default:
		return notifier.NewLogNotifier(logger)
	}
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	logger.Debug("store opened", "driver", cfg.Database.Driver)
	return st, nil
}

// buildService wires the matcher over st. Pool reads go through the retrying
// source; writes go to linker, which is st itself unless running dry.
func buildService(cfg *config.Config, st store.Store, linker model.PipelineLinker, n model.Notifier, logger *slog.Logger) *matcher.Service {
	source := retry.NewSource(st, cfg.Retry.MaxRetries, cfg.Retry.BaseDelay, logger)
	loader := pool.NewLoader(source, logger)
	return matcher.NewService(loader, st, linker, n, logger)
}

// mustSetup loads config and opens the store, exiting on failure the way
// every command expects.
func mustSetup(ctx context.Context, logger *slog.Logger) (*config.Config, store.Store) {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	return cfg, st
}
