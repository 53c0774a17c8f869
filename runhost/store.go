// Package runhost persists run state to SQLite, hosts many concurrent runs
// behind pause/resume/fork, and recovers in-flight runs after a restart.
package runhost

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    plan_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    status TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS checkpoints (
    run_id TEXT NOT NULL,
    cycle INTEGER NOT NULL,
    snapshot BLOB NOT NULL,
    created_at TIMESTAMP NOT NULL,
    PRIMARY KEY (run_id, cycle)
);

CREATE TABLE IF NOT EXISTS events (
    run_id TEXT NOT NULL,
    seq INTEGER NOT NULL,
    cycle INTEGER NOT NULL,
    inference_id TEXT NOT NULL,
    flow_index TEXT NOT NULL,
    status TEXT NOT NULL,
    steps_json TEXT,
    error TEXT,
    created_at TIMESTAMP NOT NULL,
    PRIMARY KEY (run_id, seq)
);

CREATE TABLE IF NOT EXISTS iteration_history (
    run_id TEXT NOT NULL,
    flow_index TEXT NOT NULL,
    concept_id TEXT NOT NULL,
    iteration INTEGER NOT NULL,
    reference_json TEXT NOT NULL,
    PRIMARY KEY (run_id, flow_index, concept_id, iteration)
);
`

// Store wraps a single SQLite database holding every run this Run Host
// process has ever seen. One *sql.DB is shared across runs to avoid SQLite
// "database is locked" errors under concurrent writers.
type Store struct {
	db *sql.DB
}

// Open opens (creating if absent) the SQLite file at path and applies the
// schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("runhost: opening %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite: serialize writers through one connection
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("runhost: applying schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// CreateRun records a new run row in status "running".
func (s *Store) CreateRun(ctx context.Context, runID, planID, userID string) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, plan_id, user_id, status, created_at, updated_at) VALUES (?, ?, ?, 'running', ?, ?)`,
		runID, planID, userID, now, now)
	return err
}

// RunRow is one row of the runs table, used for listing.
type RunRow struct {
	ID        string
	PlanID    string
	UserID    string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ListRuns returns every run this process has ever recorded, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]RunRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, plan_id, user_id, status, created_at, updated_at FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []RunRow
	for rows.Next() {
		var r RunRow
		if err := rows.Scan(&r.ID, &r.PlanID, &r.UserID, &r.Status, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetRun returns a single run's row.
func (s *Store) GetRun(ctx context.Context, runID string) (RunRow, error) {
	var r RunRow
	err := s.db.QueryRowContext(ctx,
		`SELECT id, plan_id, user_id, status, created_at, updated_at FROM runs WHERE id = ?`, runID,
	).Scan(&r.ID, &r.PlanID, &r.UserID, &r.Status, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

// SetRunStatus updates a run's status (running/paused/stopped/complete/failed).
func (s *Store) SetRunStatus(ctx context.Context, runID, status string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE runs SET status = ?, updated_at = ? WHERE id = ?`, status, time.Now().UTC(), runID)
	return err
}

// RunStatus returns the current status of runID.
func (s *Store) RunStatus(ctx context.Context, runID string) (string, error) {
	var status string
	err := s.db.QueryRowContext(ctx, `SELECT status FROM runs WHERE id = ?`, runID).Scan(&status)
	return status, err
}

// ListRunningOnStartup returns every run whose last recorded status was
// "running" or "paused" before this process started — the recovery set.
func (s *Store) ListRunningOnStartup(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM runs WHERE status IN ('running', 'paused')`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SaveCheckpoint persists one cycle's Blackboard snapshot.
func (s *Store) SaveCheckpoint(ctx context.Context, runID string, cycle int, snapshot []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO checkpoints (run_id, cycle, snapshot, created_at) VALUES (?, ?, ?, ?)`,
		runID, cycle, snapshot, time.Now().UTC())
	return err
}

// LatestCheckpoint returns the highest-cycle snapshot recorded for runID.
func (s *Store) LatestCheckpoint(ctx context.Context, runID string) (cycle int, snapshot []byte, err error) {
	err = s.db.QueryRowContext(ctx,
		`SELECT cycle, snapshot FROM checkpoints WHERE run_id = ? ORDER BY cycle DESC LIMIT 1`, runID,
	).Scan(&cycle, &snapshot)
	return cycle, snapshot, err
}

// CheckpointAt returns the snapshot recorded exactly at cycle, for fork.
func (s *Store) CheckpointAt(ctx context.Context, runID string, cycle int) ([]byte, error) {
	var snapshot []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT snapshot FROM checkpoints WHERE run_id = ? AND cycle = ?`, runID, cycle,
	).Scan(&snapshot)
	return snapshot, err
}

// ListCheckpoints returns every recorded cycle number for runID, ascending.
func (s *Store) ListCheckpoints(ctx context.Context, runID string) ([]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT cycle FROM checkpoints WHERE run_id = ? ORDER BY cycle ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var cycles []int
	for rows.Next() {
		var c int
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		cycles = append(cycles, c)
	}
	return cycles, rows.Err()
}

// AppendEvent appends one execution-log entry for runID.
func (s *Store) AppendEvent(ctx context.Context, runID string, seq, cycle int, inferenceID, flowIndex, status string, steps any, errText string) error {
	stepsJSON, err := json.Marshal(steps)
	if err != nil {
		return fmt.Errorf("runhost: encoding steps: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO events (run_id, seq, cycle, inference_id, flow_index, status, steps_json, error, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, seq, cycle, inferenceID, flowIndex, status, string(stepsJSON), errText, time.Now().UTC())
	return err
}
