package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/danquah/ratefeed/internal/contracts"
)

// RunRepository implements contracts.RunStore on the pipeline_runs
// audit table. The full run report is stored as jsonb next to the
// queryable columns.
type RunRepository struct {
	pool *pgxpool.Pool
}

// NewRunRepository creates a new run repository
func NewRunRepository(pool *pgxpool.Pool) *RunRepository {
	return &RunRepository{pool: pool}
}

// SaveRun records one finished pipeline run
func (r *RunRepository) SaveRun(ctx context.Context, run *contracts.PipelineRun) error {
	report, err := json.Marshal(run)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO pipeline_runs (id, state, success, error, records_processed, started_at, finished_at, report)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			state = EXCLUDED.state,
			success = EXCLUDED.success,
			error = EXCLUDED.error,
			records_processed = EXCLUDED.records_processed,
			finished_at = EXCLUDED.finished_at,
			report = EXCLUDED.report
	`

	_, err = r.pool.Exec(ctx, query,
		run.ID, string(run.State), run.Success, run.Error,
		run.RecordsProcessed(), run.StartedAt, run.FinishedAt, report,
	)
	return err
}

// LatestRun returns the most recently started run, or nil when the
// table is empty.
func (r *RunRepository) LatestRun(ctx context.Context) (*contracts.PipelineRun, error) {
	query := `
		SELECT report
		FROM pipeline_runs
		ORDER BY started_at DESC
		LIMIT 1
	`

	var report []byte
	err := r.pool.QueryRow(ctx, query).Scan(&report)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var run contracts.PipelineRun
	if err := json.Unmarshal(report, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// RunStats summarizes the audit table for the status command
type RunStats struct {
	TotalRuns     int64
	SuccessfulRun int64
	FailedRuns    int64
}

// Stats counts runs by outcome
func (r *RunRepository) Stats(ctx context.Context) (*RunStats, error) {
	query := `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE success),
			COUNT(*) FILTER (WHERE NOT success)
		FROM pipeline_runs
	`

	var s RunStats
	if err := r.pool.QueryRow(ctx, query).Scan(&s.TotalRuns, &s.SuccessfulRun, &s.FailedRuns); err != nil {
		return nil, err
	}
	return &s, nil
}
