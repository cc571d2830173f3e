// Package store persists positions, candidates and pipeline entries.
package store

import (
	"context"
	"fmt"

	"github.com/amishk599/shortlist/internal/model"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Store is the full persistence surface used by the CLI and the HTTP server.
type Store interface {
	model.PoolSource
	model.PipelineLinker
	model.CandidateGetter

	ListPositions(ctx context.Context) ([]model.PositionRecord, error)
	UpsertPosition(ctx context.Context, p model.PositionRecord) error
	ListCandidates(ctx context.Context, includePlaced bool) ([]model.CandidateRecord, error)
	UpsertCandidate(ctx context.Context, c model.CandidateRecord) error
	ListSubmissions(ctx context.Context, positionID string) ([]model.Submission, error)
	Close() error
}

// Open connects to the configured database and makes sure its schema exists.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case DriverSQLite, "":
		return NewSQLiteStore(dsn)
	case DriverPostgres:
		return NewPostgresStore(ctx, dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}
