package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/danquah/ratefeed/internal/api"
	"github.com/danquah/ratefeed/internal/api/handlers"
	"github.com/danquah/ratefeed/internal/api/sample"
	"github.com/danquah/ratefeed/internal/contracts"
	"github.com/danquah/ratefeed/internal/pipeline"
	"github.com/danquah/ratefeed/internal/store"
	"github.com/danquah/ratefeed/pkg/database"
	"github.com/danquah/ratefeed/pkg/logger"
	"github.com/danquah/ratefeed/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the dashboard API server",
	Long: `Starts the REST API backing the rates dashboard.

Endpoints:
  GET  /health            - Health check
  GET  /api/rates/latest  - Latest rate per currency pair
  GET  /api/rates/history - One pair's daily series
  GET  /api/runs/latest   - Most recent pipeline run report
  POST /api/runs/trigger  - Run the pipeline now

When the database is unreachable or empty the rate endpoints serve
deterministic sample data, so the dashboard works out of the box.

Example:
  go run ./cmd/ratefeed api
  go run ./cmd/ratefeed api --port 8080`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (overrides PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== ratefeed API server ===")

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if apiPort != "" {
		cfg.Port = apiPort
	}

	log := logger.New(cfg)

	// The API stays up without its backends: rate endpoints fall back
	// to sample data and run endpoints report unavailability.
	var reader contracts.RateReader
	var runStore contracts.RunStore
	var trigger handlers.TriggerFunc

	db, err := database.New(cfg)
	if err != nil {
		log.WithError(err).Warn("Database unavailable, serving sample data only")
	} else {
		defer db.Close()
		if err := store.EnsureSchema(context.Background(), db.Pool); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
		reader = store.NewRateRepository(db.Pool)
		runStore = store.NewRunRepository(db.Pool)
	}

	rdb, err := redis.New(cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, responses will not be cached")
		rdb = nil
	} else {
		defer rdb.Close()
	}

	var cache *redis.Cache
	if rdb != nil && rdb.Enabled() {
		cache = redis.NewCache(rdb, "ratefeed")
	}

	if db != nil {
		p := buildPipeline(cfg, log, db, rdb)
		trigger = func(ctx context.Context) (*contracts.PipelineRun, error) {
			return p.Run(ctx, pipeline.RunConfig{
				BaseCurrencies: cfg.RatesAPI.BaseCurrencies,
				TargetCurrency: cfg.RatesAPI.TargetCurrency,
				TargetDate:     time.Now().UTC(),
			})
		}
	}

	gen := sample.NewGenerator(cfg.RatesAPI.BaseCurrencies, cfg.RatesAPI.TargetCurrency)
	ratesHandler := handlers.NewRatesHandler(reader, cache, gen, log)
	runsHandler := handlers.NewRunsHandler(runStore, trigger, log)

	router := api.NewRouter(ratesHandler, runsHandler, log)
	server := api.New(cfg, log, router)

	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nAvailable endpoints:")
	fmt.Println("  GET  /health")
	fmt.Println("  GET  /api/rates/latest")
	fmt.Println("  GET  /api/rates/history?pair=USD/GHS")
	fmt.Println("  GET  /api/runs/latest")
	fmt.Println("  POST /api/runs/trigger")
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
