package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the tables the pipeline writes to. Safe to call
// on every startup.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS exchange_rates (
			rate_date TIMESTAMPTZ NOT NULL,
			currency_pair TEXT NOT NULL,
			rate NUMERIC(20,4) NOT NULL,
			base_currency TEXT NOT NULL,
			target_currency TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (rate_date, currency_pair)
		)`,
		`CREATE TABLE IF NOT EXISTS pipeline_runs (
			id UUID PRIMARY KEY,
			state TEXT NOT NULL,
			success BOOLEAN NOT NULL,
			error TEXT NOT NULL DEFAULT '',
			records_processed INTEGER NOT NULL DEFAULT 0,
			started_at TIMESTAMPTZ NOT NULL,
			finished_at TIMESTAMPTZ NOT NULL,
			report JSONB NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_pipeline_runs_started_at
			ON pipeline_runs (started_at DESC)`,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
