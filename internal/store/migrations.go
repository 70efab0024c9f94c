package store

import "context"

const migrationSQL = `
CREATE TABLE IF NOT EXISTS refresh_runs (
    id BIGSERIAL PRIMARY KEY,
    triggered_by TEXT NOT NULL DEFAULT 'manual',
    total INT NOT NULL DEFAULT 0,
    succeeded INT NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS refresh_results (
    id BIGSERIAL PRIMARY KEY,
    run_id BIGINT NOT NULL REFERENCES refresh_runs(id) ON DELETE CASCADE,
    query_id TEXT NOT NULL,
    success BOOLEAN NOT NULL DEFAULT false,
    error TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_refresh_runs_created_at ON refresh_runs (created_at DESC);
CREATE INDEX IF NOT EXISTS idx_refresh_results_run_id ON refresh_results (run_id);
`

func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, migrationSQL)
	return err
}
