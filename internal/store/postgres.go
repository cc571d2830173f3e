package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amishk599/shortlist/internal/model"
)

// Ensure PostgresStore implements Store.
var _ Store = (*PostgresStore)(nil)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS positions (
	id           TEXT PRIMARY KEY,
	title        TEXT NOT NULL DEFAULT '',
	client       TEXT NOT NULL DEFAULT '',
	skills       TEXT[] NOT NULL DEFAULT '{}',
	requirements TEXT[] NOT NULL DEFAULT '{}',
	location     TEXT NOT NULL DEFAULT '',
	description  TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL DEFAULT 'open',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS candidates (
	id               TEXT PRIMARY KEY,
	name             TEXT NOT NULL DEFAULT '',
	role             TEXT NOT NULL DEFAULT '',
	current_role     TEXT NOT NULL DEFAULT '',
	skills           TEXT[] NOT NULL DEFAULT '{}',
	summary          TEXT NOT NULL DEFAULT '',
	location         TEXT NOT NULL DEFAULT '',
	experience_years INTEGER,
	status           TEXT NOT NULL DEFAULT '',
	created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS submissions (
	id           TEXT PRIMARY KEY,
	position_id  TEXT NOT NULL,
	candidate_id TEXT NOT NULL,
	stage        TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL,
	UNIQUE (position_id, candidate_id)
);`

// PostgresStore is the PostgreSQL-backed Store.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to databaseURL, verifies the connection and
// ensures the schema exists.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) GetPosition(ctx context.Context, id string) (*model.PositionRecord, error) {
	var p model.PositionRecord
	err := s.pool.QueryRow(ctx,
		`SELECT id, title, client, skills, requirements, location, description, status
		 FROM positions WHERE id = $1`, id,
	).Scan(&p.ID, &p.Title, &p.Client, &p.Skills, &p.Requirements, &p.Location, &p.Description, &p.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting position %s: %w", id, err)
	}
	return &p, nil
}

func (s *PostgresStore) ListPositions(ctx context.Context) ([]model.PositionRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, title, client, skills, requirements, location, description, status
		 FROM positions ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("listing positions: %w", err)
	}
	defer rows.Close()

	var out []model.PositionRecord
	for rows.Next() {
		var p model.PositionRecord
		if err := rows.Scan(&p.ID, &p.Title, &p.Client, &p.Skills, &p.Requirements, &p.Location, &p.Description, &p.Status); err != nil {
			return nil, fmt.Errorf("scanning position: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpsertPosition(ctx context.Context, p model.PositionRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO positions (id, title, client, skills, requirements, location, description, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (id) DO UPDATE SET
		   title = EXCLUDED.title, client = EXCLUDED.client, skills = EXCLUDED.skills,
		   requirements = EXCLUDED.requirements, location = EXCLUDED.location,
		   description = EXCLUDED.description, status = EXCLUDED.status`,
		p.ID, p.Title, p.Client, nonNil(p.Skills), nonNil(p.Requirements),
		p.Location, p.Description, orDefault(p.Status, "open"))
	if err != nil {
		return fmt.Errorf("upserting position %s: %w", p.ID, err)
	}
	return nil
}

func (s *PostgresStore) GetCandidate(ctx context.Context, id string) (*model.CandidateRecord, error) {
	var c model.CandidateRecord
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, role, current_role, skills, summary, location, experience_years, status
		 FROM candidates WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name, &c.Role, &c.CurrentRole, &c.Skills, &c.Summary, &c.Location, &c.ExperienceYears, &c.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting candidate %s: %w", id, err)
	}
	return &c, nil
}

func (s *PostgresStore) ListActiveCandidates(ctx context.Context) ([]model.CandidateRecord, error) {
	return s.ListCandidates(ctx, false)
}

func (s *PostgresStore) ListCandidates(ctx context.Context, includePlaced bool) ([]model.CandidateRecord, error) {
	query := `SELECT id, name, role, current_role, skills, summary, location, experience_years, status
		 FROM candidates`
	if !includePlaced {
		query += ` WHERE lower(trim(status)) <> 'placed'`
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing candidates: %w", err)
	}
	defer rows.Close()

	var out []model.CandidateRecord
	for rows.Next() {
		var c model.CandidateRecord
		if err := rows.Scan(&c.ID, &c.Name, &c.Role, &c.CurrentRole, &c.Skills, &c.Summary, &c.Location, &c.ExperienceYears, &c.Status); err != nil {
			return nil, fmt.Errorf("scanning candidate: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpsertCandidate(ctx context.Context, c model.CandidateRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO candidates (id, name, role, current_role, skills, summary, location, experience_years, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO UPDATE SET
		   name = EXCLUDED.name, role = EXCLUDED.role, current_role = EXCLUDED.current_role,
		   skills = EXCLUDED.skills, summary = EXCLUDED.summary, location = EXCLUDED.location,
		   experience_years = EXCLUDED.experience_years, status = EXCLUDED.status`,
		c.ID, c.Name, c.Role, c.CurrentRole, nonNil(c.Skills), c.Summary, c.Location, c.ExperienceYears, c.Status)
	if err != nil {
		return fmt.Errorf("upserting candidate %s: %w", c.ID, err)
	}
	return nil
}

func (s *PostgresStore) ListPipelineCandidateIDs(ctx context.Context, positionID string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT candidate_id FROM submissions WHERE position_id = $1`, positionID)
	if err != nil {
		return nil, fmt.Errorf("listing pipeline for %s: %w", positionID, err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scanning pipeline entries: %w", err)
	}
	return ids, nil
}

func (s *PostgresStore) ListSubmissions(ctx context.Context, positionID string) ([]model.Submission, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, position_id, candidate_id, stage, created_at
		 FROM submissions WHERE position_id = $1 ORDER BY created_at, id`, positionID)
	if err != nil {
		return nil, fmt.Errorf("listing submissions for %s: %w", positionID, err)
	}
	defer rows.Close()

	var out []model.Submission
	for rows.Next() {
		var sub model.Submission
		if err := rows.Scan(&sub.ID, &sub.PositionID, &sub.CandidateID, &sub.Stage, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning submission: %w", err)
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

// LinkCandidate inserts a pipeline entry. When the pair already exists the
// insert returns no row and model.ErrAlreadyLinked is reported.
func (s *PostgresStore) LinkCandidate(ctx context.Context, sub model.Submission) error {
	sub = withDefaults(sub)
	var id string
	err := s.pool.QueryRow(ctx,
		`INSERT INTO submissions (id, position_id, candidate_id, stage, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (position_id, candidate_id) DO NOTHING
		 RETURNING id`,
		sub.ID, sub.PositionID, sub.CandidateID, sub.Stage, sub.CreatedAt,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrAlreadyLinked
		}
		return fmt.Errorf("inserting submission: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
