// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for databases and model artifacts (always absolute)
	Port     int
	DevMode  bool
	LogLevel string
	Currency string // Quote currency for provider requests (lowercase, e.g. "usd")

	// Market-data provider
	CoinGeckoBaseURL    string
	CoinGeckoAPIKey     string        // Optional demo/pro API key
	ProviderTimeout     time.Duration // Per-request timeout
	ProviderMinInterval time.Duration // Minimum spacing between provider requests

	// Provider response cache TTLs
	SeriesCacheTTL time.Duration
	QuoteCacheTTL  time.Duration

	Prediction PredictionConfig
	Schedules  ScheduleConfig
	Backup     *BackupConfig
}

// PredictionConfig holds the tunables of the prediction pipeline
type PredictionConfig struct {
	MinHistory      int     // Minimum usable rows for training
	MinPredict      int     // Minimum usable rows for inference
	HoldoutFraction float64 // Temporal holdout size for MAE/RMSE reporting
}

// ScheduleConfig holds cron specs for background jobs
type ScheduleConfig struct {
	CacheCleanup string
	Retrain      string
	Backup       string
}

// BackupConfig holds S3-compatible backup storage settings.
// Backups are disabled unless both Endpoint and Bucket are configured.
type BackupConfig struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
	Keep            int // Number of newest backups to retain remotely
}

// Enabled reports whether cloud backups are configured
func (b *BackupConfig) Enabled() bool {
	return b != nil && b.Endpoint != "" && b.Bucket != ""
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("CRYPTODECK_DATA_DIR", "")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to determine home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".cryptodeck")
	}

	// Always resolve to absolute path and ensure the directory exists
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:  absDataDir,
		Port:     getEnvAsInt("PORT", 8090),
		DevMode:  getEnvAsBool("DEV_MODE", false),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Currency: getEnv("QUOTE_CURRENCY", "usd"),

		CoinGeckoBaseURL:    getEnv("COINGECKO_BASE_URL", "https://api.coingecko.com/api/v3"),
		CoinGeckoAPIKey:     getEnv("COINGECKO_API_KEY", ""),
		ProviderTimeout:     getEnvAsSeconds("PROVIDER_TIMEOUT_SEC", 10),
		ProviderMinInterval: getEnvAsSeconds("PROVIDER_MIN_INTERVAL_SEC", 1.2),

		SeriesCacheTTL: getEnvAsSeconds("SERIES_CACHE_TTL_SEC", 3600),
		QuoteCacheTTL:  getEnvAsSeconds("QUOTE_CACHE_TTL_SEC", 60),

		Prediction: PredictionConfig{
			MinHistory:      getEnvAsInt("MIN_HISTORY", 30),
			MinPredict:      getEnvAsInt("MIN_PREDICT", 10),
			HoldoutFraction: getEnvAsFloat("HOLDOUT_FRACTION", 0.2),
		},

		Schedules: ScheduleConfig{
			CacheCleanup: getEnv("SCHEDULE_CACHE_CLEANUP", "0 * * * *"),
			Retrain:      getEnv("SCHEDULE_RETRAIN", "0 3 * * *"),
			Backup:       getEnv("SCHEDULE_BACKUP", "30 3 * * *"),
		},

		Backup: loadBackupConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that configuration values are usable
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.Prediction.MinPredict > c.Prediction.MinHistory {
		return fmt.Errorf("MIN_PREDICT (%d) must not exceed MIN_HISTORY (%d)",
			c.Prediction.MinPredict, c.Prediction.MinHistory)
	}
	if c.Prediction.HoldoutFraction <= 0 || c.Prediction.HoldoutFraction >= 1 {
		return fmt.Errorf("HOLDOUT_FRACTION must be in (0, 1), got %f", c.Prediction.HoldoutFraction)
	}
	return nil
}

// ModelsDir returns the directory holding persisted model artifacts
func (c *Config) ModelsDir() string {
	return filepath.Join(c.DataDir, "models")
}

func loadBackupConfig() *BackupConfig {
	endpoint := getEnv("BACKUP_S3_ENDPOINT", "")
	bucket := getEnv("BACKUP_S3_BUCKET", "")
	if endpoint == "" && bucket == "" {
		return nil
	}
	return &BackupConfig{
		Endpoint:        endpoint,
		Region:          getEnv("BACKUP_S3_REGION", "auto"),
		Bucket:          bucket,
		AccessKeyID:     getEnv("BACKUP_S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("BACKUP_S3_SECRET_ACCESS_KEY", ""),
		Prefix:          getEnv("BACKUP_S3_PREFIX", "cryptodeck/"),
		Keep:            getEnvAsInt("BACKUP_KEEP", 7),
	}
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsSeconds(key string, defaultValue float64) time.Duration {
	seconds := getEnvAsFloat(key, defaultValue)
	return time.Duration(seconds * float64(time.Second))
}
