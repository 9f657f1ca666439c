package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/danquah/ratefeed/internal/contracts"
	"github.com/danquah/ratefeed/internal/extract"
	"github.com/danquah/ratefeed/internal/load"
	"github.com/danquah/ratefeed/internal/transform"
	"github.com/danquah/ratefeed/pkg/logger"
)

// Stage names as they appear in run reports and logs
const (
	StageExtract   = "extract"
	StageTransform = "transform"
	StageLoad      = "load"
)

// Pipeline coordinates one extract-transform-load run. Retry of
// transient extraction failures lives here; the fetcher itself makes
// exactly one attempt per call.
type Pipeline struct {
	fetcher   contracts.RateFetcher
	cleaner   *transform.Cleaner
	validator *transform.Validator
	loader    *load.Loader
	runs      contracts.RunStore
	retry     Policy
	logger    *logger.Logger

	// test seams
	sleep func(context.Context, time.Duration) error
	now   func() time.Time
	newID func() string
}

// New creates a new Pipeline. runs may be nil when no audit store is
// configured.
func New(
	fetcher contracts.RateFetcher,
	cleaner *transform.Cleaner,
	validator *transform.Validator,
	loader *load.Loader,
	runs contracts.RunStore,
	retry Policy,
	log *logger.Logger,
) *Pipeline {
	return &Pipeline{
		fetcher:   fetcher,
		cleaner:   cleaner,
		validator: validator,
		loader:    loader,
		runs:      runs,
		retry:     retry,
		logger:    log.WithField("module", "pipeline"),
		sleep:     sleepCtx,
		now:       time.Now,
		newID:     func() string { return uuid.NewString() },
	}
}

// RunConfig describes one pipeline execution
type RunConfig struct {
	BaseCurrencies []string
	TargetCurrency string
	TargetDate     time.Time
}

// Run drives the state machine idle -> extracting -> transforming ->
// loading -> completed. Any stage failure sends the run to the
// terminal aborted state with the error recorded; counts and metrics
// produced before the failure stay on the report. The report is always
// returned, alongside the error that aborted the run, if any.
func (p *Pipeline) Run(ctx context.Context, cfg RunConfig) (*contracts.PipelineRun, error) {
	run := &contracts.PipelineRun{
		ID:             p.newID(),
		BaseCurrencies: cfg.BaseCurrencies,
		TargetCurrency: cfg.TargetCurrency,
		TargetDate:     cfg.TargetDate,
		State:          contracts.StateIdle,
		Stages:         make([]contracts.StageOutcome, 0, 3),
		StartedAt:      p.now(),
	}

	p.logger.WithFields(map[string]interface{}{
		"run_id": run.ID,
		"bases":  cfg.BaseCurrencies,
		"target": cfg.TargetCurrency,
	}).Info("Starting pipeline run")

	err := p.execute(ctx, run)
	run.FinishedAt = p.now()
	if err != nil {
		run.Error = err.Error()
	}

	p.saveRun(ctx, run)

	p.logger.WithFields(map[string]interface{}{
		"run_id":   run.ID,
		"state":    string(run.State),
		"success":  run.Success,
		"records":  run.RecordsProcessed(),
		"duration": run.FinishedAt.Sub(run.StartedAt).String(),
	}).Info("Pipeline run finished")

	return run, err
}

func (p *Pipeline) execute(ctx context.Context, run *contracts.PipelineRun) error {
	// EXTRACT
	p.transition(run, contracts.StateExtracting)
	raw, err := p.extractWithRetry(ctx, run)
	if err != nil {
		p.transition(run, contracts.StateAborted)
		return err
	}

	// TRANSFORM
	p.transition(run, contracts.StateTransforming)
	start := p.now()

	clean, cleanReport := p.cleaner.Clean(raw)
	valid, invalid, metrics := p.validator.Validate(clean)
	metrics.DuplicateCount = cleanReport.Duplicates
	metrics.DroppedCount = cleanReport.Dropped
	run.Metrics = &metrics
	run.Stages = append(run.Stages, contracts.StageOutcome{
		Stage:       StageTransform,
		Success:     true,
		RecordCount: len(valid),
		Duration:    p.now().Sub(start),
	})

	p.logger.WithFields(map[string]interface{}{
		"run_id":  run.ID,
		"raw":     len(raw),
		"clean":   len(clean),
		"valid":   len(valid),
		"invalid": len(invalid),
	}).Info("TRANSFORM stage finished")

	// LOAD
	p.transition(run, contracts.StateLoading)
	start = p.now()

	report, err := p.loader.Load(ctx, valid)
	run.Load = &report
	outcome := contracts.StageOutcome{
		Stage:       StageLoad,
		Success:     err == nil,
		RecordCount: report.SuccessCount,
		Duration:    p.now().Sub(start),
	}
	if err != nil {
		outcome.Error = err.Error()
		run.Stages = append(run.Stages, outcome)
		p.transition(run, contracts.StateAborted)
		return fmt.Errorf("load stage: %w", err)
	}
	run.Stages = append(run.Stages, outcome)

	p.logger.WithFields(map[string]interface{}{
		"run_id": run.ID,
		"loaded": report.SuccessCount,
		"failed": report.ErrorCount,
		"chunks": report.ChunkCount,
	}).Info("LOAD stage finished")

	p.transition(run, contracts.StateCompleted)
	run.Success = len(valid) > 0 && report.ErrorCount == 0
	return nil
}

// extractWithRetry calls the fetcher up to retry.MaxAttempts times.
// Only transient failures are retried; a fatal failure aborts at once.
func (p *Pipeline) extractWithRetry(ctx context.Context, run *contracts.PipelineRun) ([]contracts.RawRate, error) {
	start := p.now()

	var lastErr error
	for attempt := 1; attempt <= p.retry.MaxAttempts; attempt++ {
		raw, err := p.fetcher.FetchLatest(ctx)
		if err == nil {
			run.Stages = append(run.Stages, contracts.StageOutcome{
				Stage:       StageExtract,
				Success:     true,
				RecordCount: len(raw),
				Duration:    p.now().Sub(start),
			})
			p.logger.WithFields(map[string]interface{}{
				"run_id":   run.ID,
				"records":  len(raw),
				"attempts": attempt,
			}).Info("EXTRACT stage finished")
			return raw, nil
		}

		lastErr = err
		if extract.IsFatal(err) {
			p.logger.WithField("run_id", run.ID).WithError(err).Error("Extraction failed, not retryable")
			break
		}

		if attempt == p.retry.MaxAttempts {
			break
		}

		delay := p.retry.Delay(attempt)
		p.logger.WithFields(map[string]interface{}{
			"run_id":  run.ID,
			"attempt": attempt,
			"delay":   delay.String(),
		}).WithError(err).Warn("Extraction failed, retrying")

		if err := p.sleep(ctx, delay); err != nil {
			lastErr = err
			break
		}
	}

	run.Stages = append(run.Stages, contracts.StageOutcome{
		Stage:    StageExtract,
		Success:  false,
		Duration: p.now().Sub(start),
		Error:    lastErr.Error(),
	})
	return nil, fmt.Errorf("extract stage: %w", lastErr)
}

func (p *Pipeline) transition(run *contracts.PipelineRun, next contracts.RunState) {
	p.logger.WithFields(map[string]interface{}{
		"run_id": run.ID,
		"from":   string(run.State),
		"to":     string(next),
	}).Debug("State transition")
	run.State = next
}

// saveRun is best effort: a broken audit store never fails the run
func (p *Pipeline) saveRun(ctx context.Context, run *contracts.PipelineRun) {
	if p.runs == nil {
		return
	}
	if err := p.runs.SaveRun(ctx, run); err != nil {
		p.logger.WithField("run_id", run.ID).WithError(err).Error("Failed to save run report")
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
