package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/danquah/ratefeed/internal/scheduler"
	"github.com/danquah/ratefeed/internal/scheduler/jobs"
	"github.com/danquah/ratefeed/internal/store"
	"github.com/danquah/ratefeed/pkg/database"
	"github.com/danquah/ratefeed/pkg/logger"
	"github.com/danquah/ratefeed/pkg/redis"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run the pipeline on a daily schedule",
	Long: `Starts the scheduler daemon.

Registered jobs:
  daily_rates - every day at 06:00 UTC, runs the full pipeline

Pass --now to also run the pipeline immediately on startup.
Stop with Ctrl+C.

Example:
  go run ./cmd/ratefeed scheduler
  go run ./cmd/ratefeed scheduler --now`,
	RunE: runScheduler,
}

var runImmediately bool

func init() {
	rootCmd.AddCommand(schedulerCmd)

	schedulerCmd.Flags().BoolVar(&runImmediately, "now", false, "run the pipeline once at startup")
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== ratefeed scheduler ===")

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

	if err := store.EnsureSchema(context.Background(), db.Pool); err != nil {
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

	sched := scheduler.New(log)
	job := jobs.NewDailyRatesJob(p, cfg, log)
	if err := sched.AddJob(job); err != nil {
		return fmt.Errorf("register job: %w", err)
	}

	sched.Start()

	if runImmediately {
		if err := sched.RunJob(job.Name()); err != nil {
			return fmt.Errorf("run job: %w", err)
		}
	}

	fmt.Printf("\n✅ Scheduler running, %s scheduled at %q\n", job.Name(), job.Schedule())
	fmt.Println("Press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	sched.Stop()

	for name, stats := range sched.GetJobStats() {
		log.WithFields(map[string]interface{}{
			"job":      name,
			"runs":     stats.TotalRuns,
			"failures": stats.FailureCount,
		}).Info("Job summary")
	}

	return nil
}
