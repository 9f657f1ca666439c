package contracts

import (
	"context"
	"time"
)

// RateFetcher is the extraction capability consumed by the pipeline.
// Implementations classify failures as extract.TransientError (retryable)
// or extract.FatalError (not retryable).
type RateFetcher interface {
	// FetchLatest returns raw observations for each configured base
	// currency against the target currency.
	FetchLatest(ctx context.Context) ([]RawRate, error)
}

// RateStore is the persistence capability consumed by the load adapter.
// UpsertBatch must be idempotent: re-submitting the same rows neither
// duplicates nor corrupts previously stored values.
type RateStore interface {
	// UpsertBatch persists rows keyed by (rate_date, currency_pair) as
	// one atomic unit. Either every row in the batch lands or none do.
	UpsertBatch(ctx context.Context, rows []PersistedRate) error
}

// RateReader is the read side consumed by the dashboard API
type RateReader interface {
	LatestRates(ctx context.Context) ([]PersistedRate, error)
	RateHistory(ctx context.Context, pair string, from, to time.Time) ([]PersistedRate, error)
}

// RunStore records pipeline run reports for audit
type RunStore interface {
	SaveRun(ctx context.Context, run *PipelineRun) error
	LatestRun(ctx context.Context) (*PipelineRun, error)
}
