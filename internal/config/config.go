package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all environment configuration for the client
type Config struct {
	RPC     RPCConfig
	Storage StorageConfig
	Logging LoggingConfig
	Metrics MetricsConfig
}

// RPCConfig holds node connection settings
type RPCConfig struct {
	Host         string
	Port         int
	URL          string // overrides Host and Port when set
	AccountIndex int
	TxTimeout    time.Duration
	PollInterval time.Duration
}

// StorageConfig holds journal storage configuration
type StorageConfig struct {
	Enabled  bool
	Type     string // "sqlite" or "postgres"
	Postgres PostgresConfig
	SQLite   SQLiteConfig
}

// PostgresConfig holds Postgres connection settings
type PostgresConfig struct {
	URL string
}

// SQLiteConfig holds SQLite settings
type SQLiteConfig struct {
	Path string
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string
	Format string // "text" or "json"
}

// MetricsConfig holds metrics settings
type MetricsConfig struct {
	TextfilePath string // empty disables the textfile
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		RPC: RPCConfig{
			Host:         getEnv("MATCHFUND_HOST", "localhost"),
			Port:         getEnvInt("MATCHFUND_PORT", 8545),
			URL:          getEnv("MATCHFUND_RPC_URL", ""),
			AccountIndex: getEnvInt("MATCHFUND_ACCOUNT_INDEX", 0),
			TxTimeout:    time.Duration(getEnvInt("MATCHFUND_TX_TIMEOUT_SECONDS", 120)) * time.Second,
			PollInterval: time.Duration(getEnvInt("MATCHFUND_POLL_INTERVAL_MS", 1000)) * time.Millisecond,
		},
		Storage: StorageConfig{
			Enabled: getEnvBool("MATCHFUND_JOURNAL", true),
			Type:    getEnv("STORAGE_TYPE", "sqlite"),
			Postgres: PostgresConfig{
				URL: getEnv("DATABASE_URL", ""),
			},
			SQLite: SQLiteConfig{
				Path: getEnv("SQLITE_PATH", filepath.Join(DataDir(), "journal.db")),
			},
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "warn"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
		Metrics: MetricsConfig{
			TextfilePath: getEnv("MATCHFUND_METRICS_FILE", ""),
		},
	}

	// If DATABASE_URL is set, default to postgres
	if cfg.Storage.Postgres.URL != "" && cfg.Storage.Type == "sqlite" {
		cfg.Storage.Type = "postgres"
	}

	return cfg, nil
}

// DataDir returns the per-user directory for the journal and global config.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".matchfund"
	}
	return filepath.Join(home, ".matchfund")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}
