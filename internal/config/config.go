package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all application configuration
type Config struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Detection engine
	ReferenceSize        int     `env:"REFERENCE_SIZE" envDefault:"1000"`
	BatchSize            int     `env:"BATCH_SIZE" envDefault:"100"`
	ThresholdPercentile  float64 `env:"THRESHOLD_PERCENTILE" envDefault:"95"`
	ClusterMaxIterations int     `env:"CLUSTER_MAX_ITERATIONS" envDefault:"100"`
	ClusterSeed          uint64  `env:"CLUSTER_SEED" envDefault:"42"`
	NormalizationMode    string  `env:"NORMALIZATION_MODE" envDefault:"batch"` // batch | reference

	// Synthetic source
	GeneratorSeed uint64  `env:"GENERATOR_SEED" envDefault:"1"`
	AnomalyRate   float64 `env:"ANOMALY_RATE" envDefault:"0.15"`

	// Live feed; empty base URL means the synthetic generator is used
	FeedBaseURL    string        `env:"FEED_BASE_URL" envDefault:""`
	FeedTimespan   string        `env:"FEED_TIMESPAN" envDefault:"1year"`
	RequestTimeout int           `env:"REQUEST_TIMEOUT" envDefault:"30"` // seconds
	RequestsPerSec int           `env:"REQUESTS_PER_SEC" envDefault:"5"`
	PollInterval   time.Duration `env:"POLL_INTERVAL" envDefault:"1m"`

	// Result store; empty driver disables persistence
	DBDriver   string `env:"DB_DRIVER" envDefault:""` // postgres | sqlite
	DBHost     string `env:"DB_HOST"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER"`
	DBPassword string `env:"DB_PASSWORD"`
	DBName     string `env:"DB_NAME"`
	DBSSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
	DBDSN      string `env:"DB_DSN"` // overrides the individual DB_* fields

	// Alerts; empty token disables Telegram
	TelegramBotToken   string  `env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID     int64   `env:"TELEGRAM_CHAT_ID"`
	AlertMinConfidence float64 `env:"ALERT_MIN_CONFIDENCE" envDefault:"75"`
	AlertsPerMinute    int     `env:"ALERTS_PER_MINUTE" envDefault:"20"`

	MetricsAddr string `env:"METRICS_ADDR" envDefault:":9090"`
	EvalRounds  int    `env:"EVAL_ROUNDS" envDefault:"10"`
}

// Load initializes configuration from environment variables
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	var cfg Config

	cfg.LogLevel = getEnvWithDefault("LOG_LEVEL", "info")

	cfg.ReferenceSize = getEnvIntWithDefault("REFERENCE_SIZE", 1000)
	cfg.BatchSize = getEnvIntWithDefault("BATCH_SIZE", 100)
	cfg.ThresholdPercentile = getEnvFloatWithDefault("THRESHOLD_PERCENTILE", 95)
	cfg.ClusterMaxIterations = getEnvIntWithDefault("CLUSTER_MAX_ITERATIONS", 100)
	cfg.ClusterSeed = getEnvUintWithDefault("CLUSTER_SEED", 42)
	cfg.NormalizationMode = getEnvWithDefault("NORMALIZATION_MODE", "batch")

	cfg.GeneratorSeed = getEnvUintWithDefault("GENERATOR_SEED", 1)
	cfg.AnomalyRate = getEnvFloatWithDefault("ANOMALY_RATE", 0.15)

	cfg.FeedBaseURL = os.Getenv("FEED_BASE_URL")
	cfg.FeedTimespan = getEnvWithDefault("FEED_TIMESPAN", "1year")
	cfg.RequestTimeout = getEnvIntWithDefault("REQUEST_TIMEOUT", 30)
	cfg.RequestsPerSec = getEnvIntWithDefault("REQUESTS_PER_SEC", 5)
	cfg.PollInterval = getEnvDurationWithDefault("POLL_INTERVAL", time.Minute)

	cfg.DBDriver = os.Getenv("DB_DRIVER")
	cfg.DBHost = os.Getenv("DB_HOST")
	cfg.DBPort = getEnvWithDefault("DB_PORT", "5432")
	cfg.DBUser = os.Getenv("DB_USER")
	cfg.DBPassword = os.Getenv("DB_PASSWORD")
	cfg.DBName = os.Getenv("DB_NAME")
	cfg.DBSSLMode = getEnvWithDefault("DB_SSLMODE", "disable")
	cfg.DBDSN = os.Getenv("DB_DSN")

	cfg.TelegramBotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.TelegramChatID = int64(getEnvIntWithDefault("TELEGRAM_CHAT_ID", 0))
	cfg.AlertMinConfidence = getEnvFloatWithDefault("ALERT_MIN_CONFIDENCE", 75)
	cfg.AlertsPerMinute = getEnvIntWithDefault("ALERTS_PER_MINUTE", 20)

	cfg.MetricsAddr = getEnvWithDefault("METRICS_ADDR", ":9090")
	cfg.EvalRounds = getEnvIntWithDefault("EVAL_ROUNDS", 10)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the engine cannot run with
func (c *Config) Validate() error {
	if c.ReferenceSize <= 0 {
		return fmt.Errorf("REFERENCE_SIZE must be positive, got %d", c.ReferenceSize)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("BATCH_SIZE must be positive, got %d", c.BatchSize)
	}
	if c.ThresholdPercentile <= 0 || c.ThresholdPercentile > 100 {
		return fmt.Errorf("THRESHOLD_PERCENTILE must be in (0, 100], got %v", c.ThresholdPercentile)
	}
	if c.NormalizationMode != "batch" && c.NormalizationMode != "reference" {
		return fmt.Errorf("NORMALIZATION_MODE must be batch or reference, got %q", c.NormalizationMode)
	}
	if c.AnomalyRate < 0 || c.AnomalyRate > 1 {
		return fmt.Errorf("ANOMALY_RATE must be in [0, 1], got %v", c.AnomalyRate)
	}
	if c.DBDriver != "" && c.DBDriver != "postgres" && c.DBDriver != "sqlite" {
		return fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.DBDriver)
	}
	if c.TelegramBotToken != "" && c.TelegramChatID == 0 {
		return fmt.Errorf("TELEGRAM_CHAT_ID is required when TELEGRAM_BOT_TOKEN is set")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive, got %s", c.PollInterval)
	}
	return nil
}

// DSN returns the database connection string for the configured driver
func (c *Config) DSN() string {
	if c.DBDSN != "" {
		return c.DBDSN
	}
	if c.DBDriver == "sqlite" {
		return "chainguard.db"
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvUintWithDefault(key string, defaultValue uint64) uint64 {
	if value := os.Getenv(key); value != "" {
		if uintValue, err := strconv.ParseUint(value, 10, 64); err == nil {
			return uintValue
		}
	}
	return defaultValue
}

func getEnvFloatWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
