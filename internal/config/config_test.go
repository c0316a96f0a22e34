package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"MATCHFUND_HOST", "MATCHFUND_PORT", "MATCHFUND_RPC_URL", "MATCHFUND_ACCOUNT_INDEX",
		"MATCHFUND_TX_TIMEOUT_SECONDS", "MATCHFUND_POLL_INTERVAL_MS", "MATCHFUND_JOURNAL",
		"STORAGE_TYPE", "DATABASE_URL", "SQLITE_PATH", "LOG_LEVEL", "LOG_FORMAT", "MATCHFUND_METRICS_FILE",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.RPC.Host)
	assert.Equal(t, 8545, cfg.RPC.Port)
	assert.Empty(t, cfg.RPC.URL)
	assert.Equal(t, 2*time.Minute, cfg.RPC.TxTimeout)
	assert.Equal(t, time.Second, cfg.RPC.PollInterval)
	assert.True(t, cfg.Storage.Enabled)
	assert.Equal(t, "sqlite", cfg.Storage.Type)
	assert.Equal(t, filepath.Join(DataDir(), "journal.db"), cfg.Storage.SQLite.Path)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Empty(t, cfg.Metrics.TextfilePath)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("MATCHFUND_PORT", "9545")
	t.Setenv("MATCHFUND_ACCOUNT_INDEX", "2")
	t.Setenv("MATCHFUND_TX_TIMEOUT_SECONDS", "5")
	t.Setenv("MATCHFUND_POLL_INTERVAL_MS", "250")
	t.Setenv("MATCHFUND_JOURNAL", "false")
	t.Setenv("STORAGE_TYPE", "")
	t.Setenv("DATABASE_URL", "postgres://localhost/matchfund")
	t.Setenv("MATCHFUND_METRICS_FILE", "/tmp/matchfund.prom")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9545, cfg.RPC.Port)
	assert.Equal(t, 2, cfg.RPC.AccountIndex)
	assert.Equal(t, 5*time.Second, cfg.RPC.TxTimeout)
	assert.Equal(t, 250*time.Millisecond, cfg.RPC.PollInterval)
	assert.False(t, cfg.Storage.Enabled)
	assert.Equal(t, "postgres", cfg.Storage.Type, "DATABASE_URL selects postgres")
	assert.Equal(t, "/tmp/matchfund.prom", cfg.Metrics.TextfilePath)
}

func TestGetEnvIntInvalid(t *testing.T) {
	t.Setenv("MATCHFUND_PORT", "not-a-number")
	assert.Equal(t, 8545, getEnvInt("MATCHFUND_PORT", 8545))
}
