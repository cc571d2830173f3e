// Package retry decorates a model.PoolSource with retries for transient
// read failures.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/amishk599/shortlist/internal/model"
)

// Ensure Source implements model.PoolSource.
var _ model.PoolSource = (*Source)(nil)

// Source retries transient failures with exponential backoff and jitter
// before delegating to the wrapped PoolSource. Once retries are exhausted the
// last error is returned unchanged so the caller can abort the pass.
type Source struct {
	inner      model.PoolSource
	maxRetries int
	baseDelay  time.Duration
	logger     *slog.Logger
}

// NewSource wraps a PoolSource with retry logic.
// maxRetries is the number of additional attempts after the first failure.
// baseDelay is the delay before the first retry, doubled on each subsequent retry.
func NewSource(inner model.PoolSource, maxRetries int, baseDelay time.Duration, logger *slog.Logger) *Source {
	return &Source{
		inner:      inner,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		logger:     logger,
	}
}

func (s *Source) GetPosition(ctx context.Context, id string) (*model.PositionRecord, error) {
	return do(ctx, s, "get position", func() (*model.PositionRecord, error) {
		return s.inner.GetPosition(ctx, id)
	})
}

func (s *Source) ListActiveCandidates(ctx context.Context) ([]model.CandidateRecord, error) {
	return do(ctx, s, "list candidates", func() ([]model.CandidateRecord, error) {
		return s.inner.ListActiveCandidates(ctx)
	})
}

func (s *Source) ListPipelineCandidateIDs(ctx context.Context, positionID string) ([]string, error) {
	return do(ctx, s, "list pipeline", func() ([]string, error) {
		return s.inner.ListPipelineCandidateIDs(ctx, positionID)
	})
}

func do[T any](ctx context.Context, s *Source, op string, fn func() (T, error)) (T, error) {
	out, err := fn()
	if err == nil || !isRetryable(err) {
		return out, err
	}

	var zero T
	lastErr := err
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		delay := s.backoffDelay(attempt)

		s.logger.Warn("retrying after transient error",
			"op", op,
			"attempt", attempt,
			"max_retries", s.maxRetries,
			"delay", delay,
			"error", lastErr,
		)

		select {
		case <-ctx.Done():
			return zero, fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-time.After(delay):
		}

		out, err = fn()
		if err == nil {
			return out, nil
		}
		if !isRetryable(err) {
			return zero, err
		}
		lastErr = err
	}

	return zero, lastErr
}

// backoffDelay computes the delay for a given attempt with ±30% jitter.
func (s *Source) backoffDelay(attempt int) time.Duration {
	// Exponential: baseDelay * 2^(attempt-1)
	delay := s.baseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
	}

	jitter := float64(delay) * 0.3
	return time.Duration(float64(delay) + (rand.Float64()*2-1)*jitter)
}

// isRetryable reports whether err is a transient failure worth retrying.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, model.ErrPositionNotFound) {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if len(pgErr.Code) < 2 {
			return false
		}
		switch pgErr.Code[:2] {
		case "08", // connection exception
			"40", // transaction rollback (serialization, deadlock)
			"53", // insufficient resources
			"57": // operator intervention (admin shutdown, cannot connect now)
			return true
		}
		return false
	}

	// Driver, network and busy errors.
	return true
}
