package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
// Environment variables are read here and nowhere else.
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// External rates API
	RatesAPI RatesAPIConfig

	// Pipeline
	Pipeline PipelineConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RatesAPIConfig holds the exchange-rate source API configuration
type RatesAPIConfig struct {
	APIKey  string
	BaseURL string

	// Currency pairs to ingest: each base against the target
	BaseCurrencies []string
	TargetCurrency string

	// Outbound request budget (sliding window)
	RateLimit       int
	RateLimitWindow time.Duration
}

// PipelineConfig holds ETL pipeline tuning
type PipelineConfig struct {
	BatchSize        int
	MaxFetchAttempts int
	RetryBaseDelay   time.Duration
	RetryMaxDelay    time.Duration

	// Upper bound of the rate plausibility band; the lower bound is always 0
	MaxPlausibleRate float64
}

// Load reads configuration from environment variables.
// Only this function calls os.Getenv().
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		// External rates API
		RatesAPI: RatesAPIConfig{
			APIKey:          getEnv("RATES_API_KEY", ""),
			BaseURL:         getEnv("RATES_API_BASE_URL", "https://api.exchangerate.host"),
			BaseCurrencies:  getEnvAsList("BASE_CURRENCIES", "USD,EUR,GBP"),
			TargetCurrency:  getEnv("TARGET_CURRENCY", "GHS"),
			RateLimit:       getEnvAsInt("RATES_API_RATE_LIMIT", 30),
			RateLimitWindow: getEnvAsDuration("RATES_API_RATE_WINDOW", "1m"),
		},

		// Pipeline
		Pipeline: PipelineConfig{
			BatchSize:        getEnvAsInt("BATCH_SIZE", 100),
			MaxFetchAttempts: getEnvAsInt("MAX_FETCH_ATTEMPTS", 3),
			RetryBaseDelay:   getEnvAsDuration("RETRY_BASE_DELAY", "2s"),
			RetryMaxDelay:    getEnvAsDuration("RETRY_MAX_DELAY", "30s"),
			MaxPlausibleRate: getEnvAsFloat("MAX_PLAUSIBLE_RATE", 1000000),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Pipeline.BatchSize < 1 {
		return fmt.Errorf("BATCH_SIZE must be at least 1")
	}

	if c.Pipeline.MaxFetchAttempts < 1 {
		return fmt.Errorf("MAX_FETCH_ATTEMPTS must be at least 1")
	}

	if c.Pipeline.MaxPlausibleRate <= 0 {
		return fmt.Errorf("MAX_PLAUSIBLE_RATE must be positive")
	}

	if len(c.RatesAPI.BaseCurrencies) == 0 {
		return fmt.Errorf("BASE_CURRENCIES must not be empty")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

func getEnvAsList(key string, defaultValue string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
