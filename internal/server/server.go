// Package server provides the HTTP API for matching and pipeline management.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/amishk599/shortlist/internal/matcher"
	"github.com/amishk599/shortlist/internal/model"
)

// Matcher runs matching passes and pipeline links.
type Matcher interface {
	Matches(ctx context.Context, positionID string) (*matcher.Result, error)
	AddToPipeline(ctx context.Context, positionID, candidateID, stage string) (*model.Submission, error)
}

// Catalog lists stored positions and pipelines.
type Catalog interface {
	ListPositions(ctx context.Context) ([]model.PositionRecord, error)
	GetPosition(ctx context.Context, id string) (*model.PositionRecord, error)
	ListSubmissions(ctx context.Context, positionID string) ([]model.Submission, error)
}

// Config holds server configuration
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server is the HTTP API server.
type Server struct {
	httpServer *http.Server
	matcher    Matcher
	catalog    Catalog
	validator  *validator.Validate
	logger     *slog.Logger
}

// New creates a new server instance
func New(cfg Config, m Matcher, c Catalog, logger *slog.Logger) *Server {
	s := &Server{
		matcher:   m,
		catalog:   c,
		validator: validator.New(),
		logger:    logger,
	}

	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /positions", s.handleListPositions)
	mux.HandleFunc("GET /positions/{id}/matches", s.handleMatches)
	mux.HandleFunc("GET /positions/{id}/pipeline", s.handleListPipeline)
	mux.HandleFunc("POST /positions/{id}/pipeline", s.handleAddToPipeline)
	return s.withLogging(mux)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// statusRecorder captures the response status for logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("encoding JSON response", "error", err)
	}
}

// errorResponse writes an error JSON response derived from err.
func (s *Server) errorResponse(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	body := errorBody{Error: err.Error(), Code: ErrorCode(err)}
	if status == http.StatusServiceUnavailable {
		body.Retryable = true
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
		body.Error = "internal error"
	}
	s.jsonResponse(w, status, body)
}

type errorBody struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Retryable bool   `json:"retryable,omitempty"`
}
