package commands

import (
	"github.com/shopspring/decimal"

	"github.com/danquah/ratefeed/internal/extract"
	"github.com/danquah/ratefeed/internal/load"
	"github.com/danquah/ratefeed/internal/pipeline"
	"github.com/danquah/ratefeed/internal/store"
	"github.com/danquah/ratefeed/internal/transform"
	"github.com/danquah/ratefeed/pkg/config"
	"github.com/danquah/ratefeed/pkg/database"
	"github.com/danquah/ratefeed/pkg/httputil"
	"github.com/danquah/ratefeed/pkg/logger"
	"github.com/danquah/ratefeed/pkg/redis"
)

// buildPipeline wires the full extract-transform-load stack. Retry of
// the provider call belongs to the pipeline, so the HTTP client's own
// retry stays off. Rate limiting is shared through Redis when it is
// configured and falls back to a local token bucket otherwise.
func buildPipeline(cfg *config.Config, log *logger.Logger, db *database.DB, rdb *redis.Client) *pipeline.Pipeline {
	httpClient := httputil.New(cfg, log).DisableRetry()
	if rdb != nil && rdb.Enabled() {
		limiter := redis.NewRateLimiter(rdb, "ratefeed")
		httpClient = httpClient.WithRateLimiter(limiter, redis.RateLimitConfig{
			Key:    "rates_api",
			Limit:  cfg.RatesAPI.RateLimit,
			Window: cfg.RatesAPI.RateLimitWindow,
		})
	} else {
		httpClient = httpClient.WithLocalRateLimit(cfg.RatesAPI.RateLimit, cfg.RatesAPI.RateLimitWindow)
	}

	fetcher := extract.NewClient(httpClient, cfg, log)

	rateRepo := store.NewRateRepository(db.Pool)
	runRepo := store.NewRunRepository(db.Pool)

	cleaner := transform.NewCleaner(log)
	validator := transform.NewValidator(transform.ValidatorConfig{
		MaxPlausibleRate: decimal.NewFromFloat(cfg.Pipeline.MaxPlausibleRate),
	}, log)
	loader := load.NewLoader(rateRepo, cfg.Pipeline.BatchSize, log)

	return pipeline.New(fetcher, cleaner, validator, loader, runRepo, pipeline.Policy{
		MaxAttempts: cfg.Pipeline.MaxFetchAttempts,
		BaseDelay:   cfg.Pipeline.RetryBaseDelay,
		MaxDelay:    cfg.Pipeline.RetryMaxDelay,
	}, log)
}

// loadConfig loads configuration, honoring the global verbose flag
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}
