package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/amishk599/shortlist/internal/model"
)

// Ensure SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS positions (
	id           TEXT PRIMARY KEY,
	title        TEXT NOT NULL DEFAULT '',
	client       TEXT NOT NULL DEFAULT '',
	skills       TEXT NOT NULL DEFAULT '[]',
	requirements TEXT NOT NULL DEFAULT '[]',
	location     TEXT NOT NULL DEFAULT '',
	description  TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL DEFAULT 'open'
);
CREATE TABLE IF NOT EXISTS candidates (
	id               TEXT PRIMARY KEY,
	name             TEXT NOT NULL DEFAULT '',
	role             TEXT NOT NULL DEFAULT '',
	current_role     TEXT NOT NULL DEFAULT '',
	skills           TEXT NOT NULL DEFAULT '[]',
	summary          TEXT NOT NULL DEFAULT '',
	location         TEXT NOT NULL DEFAULT '',
	experience_years INTEGER,
	status           TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS submissions (
	id           TEXT PRIMARY KEY,
	position_id  TEXT NOT NULL,
	candidate_id TEXT NOT NULL,
	stage        TEXT NOT NULL,
	created_at   TEXT NOT NULL,
	UNIQUE (position_id, candidate_id)
);`

// SQLiteStore keeps positions, candidates and pipeline entries in a SQLite
// database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures
// the schema exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	// SQLite allows one writer; a single connection avoids SQLITE_BUSY under
	// concurrent link attempts.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// GetPosition returns the position with the given ID, or nil if none exists.
func (s *SQLiteStore) GetPosition(ctx context.Context, id string) (*model.PositionRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, client, skills, requirements, location, description, status
		 FROM positions WHERE id = ?`, id)
	p, err := scanPosition(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting position %s: %w", id, err)
	}
	return p, nil
}

// ListPositions returns every position in insertion order.
func (s *SQLiteStore) ListPositions(ctx context.Context) ([]model.PositionRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, client, skills, requirements, location, description, status
		 FROM positions ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("listing positions: %w", err)
	}
	defer rows.Close()

	var out []model.PositionRecord
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning position: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// UpsertPosition inserts or replaces a position by ID.
func (s *SQLiteStore) UpsertPosition(ctx context.Context, p model.PositionRecord) error {
	skills, err := encodeList(p.Skills)
	if err != nil {
		return err
	}
	reqs, err := encodeList(p.Requirements)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO positions (id, title, client, skills, requirements, location, description, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   title = excluded.title, client = excluded.client, skills = excluded.skills,
		   requirements = excluded.requirements, location = excluded.location,
		   description = excluded.description, status = excluded.status`,
		p.ID, p.Title, p.Client, skills, reqs, p.Location, p.Description, orDefault(p.Status, "open"))
	if err != nil {
		return fmt.Errorf("upserting position %s: %w", p.ID, err)
	}
	return nil
}

// GetCandidate returns the candidate with the given ID, or nil if none exists.
func (s *SQLiteStore) GetCandidate(ctx context.Context, id string) (*model.CandidateRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, role, current_role, skills, summary, location, experience_years, status
		 FROM candidates WHERE id = ?`, id)
	c, err := scanCandidate(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting candidate %s: %w", id, err)
	}
	return c, nil
}

// ListActiveCandidates returns every candidate not in the placed status, in
// insertion order.
func (s *SQLiteStore) ListActiveCandidates(ctx context.Context) ([]model.CandidateRecord, error) {
	return s.ListCandidates(ctx, false)
}

// ListCandidates returns all candidates in insertion order, optionally
// including placed ones.
func (s *SQLiteStore) ListCandidates(ctx context.Context, includePlaced bool) ([]model.CandidateRecord, error) {
	query := `SELECT id, name, role, current_role, skills, summary, location, experience_years, status
		 FROM candidates`
	if !includePlaced {
		query += ` WHERE lower(trim(status)) <> 'placed'`
	}
	query += ` ORDER BY rowid`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing candidates: %w", err)
	}
	defer rows.Close()

	var out []model.CandidateRecord
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning candidate: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// UpsertCandidate inserts or replaces a candidate by ID.
func (s *SQLiteStore) UpsertCandidate(ctx context.Context, c model.CandidateRecord) error {
	skills, err := encodeList(c.Skills)
	if err != nil {
		return err
	}
	var years sql.NullInt64
	if c.ExperienceYears != nil {
		years = sql.NullInt64{Int64: int64(*c.ExperienceYears), Valid: true}
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO candidates (id, name, role, current_role, skills, summary, location, experience_years, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   name = excluded.name, role = excluded.role, current_role = excluded.current_role,
		   skills = excluded.skills, summary = excluded.summary, location = excluded.location,
		   experience_years = excluded.experience_years, status = excluded.status`,
		c.ID, c.Name, c.Role, c.CurrentRole, skills, c.Summary, c.Location, years, c.Status)
	if err != nil {
		return fmt.Errorf("upserting candidate %s: %w", c.ID, err)
	}
	return nil
}

// ListPipelineCandidateIDs returns the candidates with any submission for the
// position, regardless of stage.
func (s *SQLiteStore) ListPipelineCandidateIDs(ctx context.Context, positionID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT candidate_id FROM submissions WHERE position_id = ?", positionID)
	if err != nil {
		return nil, fmt.Errorf("listing pipeline for %s: %w", positionID, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning pipeline entry: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListSubmissions returns the position's pipeline, oldest first.
func (s *SQLiteStore) ListSubmissions(ctx context.Context, positionID string) ([]model.Submission, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, position_id, candidate_id, stage, created_at
		 FROM submissions WHERE position_id = ? ORDER BY created_at, rowid`, positionID)
	if err != nil {
		return nil, fmt.Errorf("listing submissions for %s: %w", positionID, err)
	}
	defer rows.Close()

	var out []model.Submission
	for rows.Next() {
		var sub model.Submission
		var created string
		if err := rows.Scan(&sub.ID, &sub.PositionID, &sub.CandidateID, &sub.Stage, &created); err != nil {
			return nil, fmt.Errorf("scanning submission: %w", err)
		}
		sub.CreatedAt, err = time.Parse(timeLayout, created)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at %q: %w", created, err)
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

// LinkCandidate inserts a pipeline entry. The UNIQUE (position_id,
// candidate_id) constraint decides races: the losing writer gets
// model.ErrAlreadyLinked and no duplicate row is created.
func (s *SQLiteStore) LinkCandidate(ctx context.Context, sub model.Submission) error {
	sub = withDefaults(sub)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO submissions (id, position_id, candidate_id, stage, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (position_id, candidate_id) DO NOTHING`,
		sub.ID, sub.PositionID, sub.CandidateID, sub.Stage, sub.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("inserting submission: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking inserted rows: %w", err)
	}
	if n == 0 {
		return model.ErrAlreadyLinked
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPosition(r rowScanner) (*model.PositionRecord, error) {
	var p model.PositionRecord
	var skills, reqs string
	if err := r.Scan(&p.ID, &p.Title, &p.Client, &skills, &reqs, &p.Location, &p.Description, &p.Status); err != nil {
		return nil, err
	}
	var err error
	if p.Skills, err = decodeList(skills); err != nil {
		return nil, err
	}
	if p.Requirements, err = decodeList(reqs); err != nil {
		return nil, err
	}
	return &p, nil
}

func scanCandidate(r rowScanner) (*model.CandidateRecord, error) {
	var c model.CandidateRecord
	var skills string
	var years sql.NullInt64
	if err := r.Scan(&c.ID, &c.Name, &c.Role, &c.CurrentRole, &skills, &c.Summary, &c.Location, &years, &c.Status); err != nil {
		return nil, err
	}
	var err error
	if c.Skills, err = decodeList(skills); err != nil {
		return nil, err
	}
	if years.Valid {
		y := int(years.Int64)
		c.ExperienceYears = &y
	}
	return &c, nil
}

// timeLayout is fixed-width so TEXT timestamps sort chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func encodeList(list []string) (string, error) {
	if list == nil {
		list = []string{}
	}
	b, err := json.Marshal(list)
	if err != nil {
		return "", fmt.Errorf("encoding list: %w", err)
	}
	return string(b), nil
}

func decodeList(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, fmt.Errorf("decoding list %q: %w", raw, err)
	}
	return list, nil
}

func withDefaults(sub model.Submission) model.Submission {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	if sub.Stage == "" {
		sub.Stage = model.StageSubmitted
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now()
	}
	return sub
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
