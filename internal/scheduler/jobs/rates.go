package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/danquah/ratefeed/internal/pipeline"
	"github.com/danquah/ratefeed/pkg/config"
	"github.com/danquah/ratefeed/pkg/logger"
)

// DailyRatesJob runs the exchange rate pipeline once a day
type DailyRatesJob struct {
	pipeline *pipeline.Pipeline
	config   *config.Config
	logger   *logger.Logger
}

// NewDailyRatesJob creates a new daily rates job
func NewDailyRatesJob(p *pipeline.Pipeline, cfg *config.Config, log *logger.Logger) *DailyRatesJob {
	return &DailyRatesJob{
		pipeline: p,
		config:   cfg,
		logger:   log,
	}
}

// Name returns the job name
func (j *DailyRatesJob) Name() string {
	return "daily_rates"
}

// Schedule returns the cron schedule (every day at 06:00 UTC, after
// the provider has published the previous day's closing rates)
func (j *DailyRatesJob) Schedule() string {
	return "0 0 6 * * *"
}

// Run executes one pipeline run
func (j *DailyRatesJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled rates pipeline")

	run, err := j.pipeline.Run(ctx, pipeline.RunConfig{
		BaseCurrencies: j.config.RatesAPI.BaseCurrencies,
		TargetCurrency: j.config.RatesAPI.TargetCurrency,
		TargetDate:     time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("pipeline run: %w", err)
	}
	if !run.Success {
		return fmt.Errorf("pipeline run %s finished without storing valid rates", run.ID)
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id":  run.ID,
		"records": run.RecordsProcessed(),
	}).Info("Scheduled rates pipeline finished")

	return nil
}
