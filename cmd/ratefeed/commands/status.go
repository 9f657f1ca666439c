package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danquah/ratefeed/internal/store"
	"github.com/danquah/ratefeed/pkg/database"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show stored data and run history",
	Long: `Checks the state of the database:

- how many rates are stored and for which period
- how many pipeline runs succeeded and failed
- the outcome of the most recent run

Example:
  go run ./cmd/ratefeed status`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	fmt.Println("=== ratefeed status ===")
	fmt.Println()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := store.EnsureSchema(ctx, db.Pool); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	rateRepo := store.NewRateRepository(db.Pool)
	runRepo := store.NewRunRepository(db.Pool)

	fmt.Println("📊 Stored rates (exchange_rates)")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	coverage, err := rateRepo.Coverage(ctx)
	if err != nil {
		return fmt.Errorf("read coverage: %w", err)
	}
	fmt.Printf("  rows: %d  pairs: %d\n", coverage.RowCount, coverage.PairCount)
	if coverage.RowCount > 0 {
		fmt.Printf("  period: %s ~ %s\n",
			coverage.FirstDate.Format("2006-01-02"), coverage.LastDate.Format("2006-01-02"))
	}
	fmt.Println()

	fmt.Println("🔁 Pipeline runs (pipeline_runs)")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	stats, err := runRepo.Stats(ctx)
	if err != nil {
		return fmt.Errorf("read run stats: %w", err)
	}
	fmt.Printf("  total: %d  succeeded: %d  failed: %d\n",
		stats.TotalRuns, stats.SuccessfulRun, stats.FailedRuns)

	last, err := runRepo.LatestRun(ctx)
	if err != nil {
		return fmt.Errorf("read latest run: %w", err)
	}
	if last == nil {
		fmt.Println("  no runs recorded yet")
		return nil
	}

	fmt.Printf("\nLast run %s\n", last.ID)
	fmt.Printf("  state: %s  success: %t  records: %d\n",
		last.State, last.Success, last.RecordsProcessed())
	fmt.Printf("  started: %s  finished: %s\n",
		last.StartedAt.Format("2006-01-02 15:04:05"), last.FinishedAt.Format("2006-01-02 15:04:05"))
	if last.Error != "" {
		fmt.Printf("  error: %s\n", last.Error)
	}

	return nil
}
