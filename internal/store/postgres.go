package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{pool: pool}, nil
}

func (s *Store) Close() { s.pool.Close() }

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

// --- Refresh Runs ---

// QueryOutcome is the per-query result of one refresh run.
type QueryOutcome struct {
	QueryID string `json:"queryId"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// RefreshRun is one recorded batch refresh, with its per-query outcomes.
type RefreshRun struct {
	ID          int64          `json:"id"`
	TriggeredBy string         `json:"triggeredBy"`
	Total       int            `json:"total"`
	Succeeded   int            `json:"succeeded"`
	CreatedAt   time.Time      `json:"createdAt"`
	Results     []QueryOutcome `json:"results"`
}

// RecordRun persists a refresh run and its per-query outcomes in one
// transaction.
func (s *Store) RecordRun(ctx context.Context, triggeredBy string, outcomes []QueryOutcome) (int64, error) {
	succeeded := 0
	for _, o := range outcomes {
		if o.Success {
			succeeded++
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var runID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO refresh_runs (triggered_by, total, succeeded)
		VALUES ($1, $2, $3)
		RETURNING id`, triggeredBy, len(outcomes), succeeded).Scan(&runID)
	if err != nil {
		return 0, err
	}

	for _, o := range outcomes {
		_, err := tx.Exec(ctx, `
			INSERT INTO refresh_results (run_id, query_id, success, error)
			VALUES ($1, $2, $3, $4)`, runID, o.QueryID, o.Success, o.Error)
		if err != nil {
			return 0, err
		}
	}
	return runID, tx.Commit(ctx)
}

// RecentRuns returns the most recent refresh runs, newest first, each
// with its per-query outcomes.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]RefreshRun, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, triggered_by, total, succeeded, created_at
		FROM refresh_runs
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RefreshRun
	for rows.Next() {
		var r RefreshRun
		if err := rows.Scan(&r.ID, &r.TriggeredBy, &r.Total, &r.Succeeded, &r.CreatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range runs {
		outcomes, err := s.runOutcomes(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Results = outcomes
	}
	return runs, nil
}

func (s *Store) runOutcomes(ctx context.Context, runID int64) ([]QueryOutcome, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT query_id, success, error
		FROM refresh_results
		WHERE run_id = $1
		ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var outcomes []QueryOutcome
	for rows.Next() {
		var o QueryOutcome
		if err := rows.Scan(&o.QueryID, &o.Success, &o.Error); err != nil {
			return nil, err
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}

// CleanupOldRuns deletes refresh runs older than the given age. Results
// cascade with their run.
func (s *Store) CleanupOldRuns(ctx context.Context, maxAge time.Duration) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM refresh_runs WHERE created_at < $1`, time.Now().Add(-maxAge))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
