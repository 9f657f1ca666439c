package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/danquah/ratefeed/internal/pipeline"
	"github.com/danquah/ratefeed/internal/store"
	"github.com/danquah/ratefeed/pkg/database"
	"github.com/danquah/ratefeed/pkg/logger"
	"github.com/danquah/ratefeed/pkg/redis"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the rates pipeline once",
	Long: `Runs one extract-transform-load cycle:

- fetches the latest rates from the provider
- cleans and validates the batch
- upserts the valid records into Postgres
- records the run report for audit

Example:
  go run ./cmd/ratefeed run`,
	RunE: runPipeline,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	fmt.Println("=== ratefeed pipeline run ===")

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := store.EnsureSchema(ctx, db.Pool); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	rdb, err := redis.New(cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, using local rate limiting")
		rdb = nil
	} else {
		defer rdb.Close()
	}

	p := buildPipeline(cfg, log, db, rdb)

	run, runErr := p.Run(ctx, pipeline.RunConfig{
		BaseCurrencies: cfg.RatesAPI.BaseCurrencies,
		TargetCurrency: cfg.RatesAPI.TargetCurrency,
		TargetDate:     time.Now().UTC(),
	})

	fmt.Printf("\nRun %s finished in state %q\n", run.ID, run.State)
	if run.Metrics != nil {
		fmt.Printf("  records: %d  valid: %d  invalid: %d  dropped: %d  duplicates: %d\n",
			run.Metrics.RecordCount, run.Metrics.ValidCount, run.Metrics.InvalidCount,
			run.Metrics.DroppedCount, run.Metrics.DuplicateCount)
		fmt.Printf("  completeness: %.2f  validity: %.2f\n",
			run.Metrics.Completeness, run.Metrics.ValidityRate)
	}
	if run.Load != nil {
		fmt.Printf("  loaded: %d  failed: %d  chunks: %d\n",
			run.Load.SuccessCount, run.Load.ErrorCount, run.Load.ChunkCount)
	}

	if runErr != nil {
		fmt.Printf("\n❌ Pipeline aborted: %v\n", runErr)
		return runErr
	}
	if !run.Success {
		fmt.Println("\n❌ Pipeline completed but stored no valid rates")
		return fmt.Errorf("run %s stored no valid rates", run.ID)
	}

	fmt.Printf("\n✅ Stored %d rates in %s\n",
		run.RecordsProcessed(), run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
	return nil
}
