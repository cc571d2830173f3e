package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amishk599/shortlist/internal/server"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long:  "Serves matches and pipeline writes over HTTP; blocks until SIGINT/SIGTERM.",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug, logJSON)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, st := mustSetup(ctx, logger)
	defer st.Close()

	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}
	svc := buildService(cfg, st, st, setupNotifier(cfg, httpClient, logger), logger)

	srv := server.New(server.Config{
		Addr:         cfg.Server.Addr,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, svc, st, logger)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("goodbye")
	return nil
}
