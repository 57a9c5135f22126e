package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barstream/ohlcv-aggregation-service/internal/config"
)

func TestLoad(t *testing.T) {
	t.Run("missing file falls back to defaults", func(t *testing.T) {
		cfg, err := config.Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
		require.NoError(t, err)

		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, "file://migrations", cfg.Database.MigrationsPath)
		assert.Equal(t, "https://data.alpaca.markets", cfg.Provider.BaseURL)
		assert.Equal(t, "iex", cfg.Provider.Feed)
		assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
		assert.Equal(t, "market-data.events", cfg.Kafka.Topic)
		assert.Equal(t, "data/bars", cfg.Storage.BaseDir)
		assert.Equal(t, []int{5, 15, 60, 1440}, cfg.Storage.Timeframes)
		assert.Equal(t, "info", cfg.Logging.Level)
		assert.Equal(t, "json", cfg.Logging.Format)
	})

	t.Run("yaml file values are applied", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9999
storage:
  base_dir: /var/lib/bars
  timeframes: [5, 30]
ingest:
  symbols: [AAPL, MSFT]
`), 0o644))

		cfg, err := config.Load(path)
		require.NoError(t, err)

		assert.Equal(t, 9999, cfg.Server.Port)
		assert.Equal(t, "/var/lib/bars", cfg.Storage.BaseDir)
		assert.Equal(t, []int{5, 30}, cfg.Storage.Timeframes)
		assert.Equal(t, []string{"AAPL", "MSFT"}, cfg.Ingest.Symbols)
	})

	t.Run("environment overrides file and defaults", func(t *testing.T) {
		t.Setenv("SERVER_PORT", "7777")
		t.Setenv("KAFKA_BROKERS", "broker-1:9092,broker-2:9092")
		t.Setenv("INGEST_SYMBOLS", "TSLA")
		t.Setenv("PROVIDER_TIMEOUT", "30s")

		cfg, err := config.Load(filepath.Join(t.TempDir(), "none.yaml"))
		require.NoError(t, err)

		assert.Equal(t, 7777, cfg.Server.Port)
		assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.Kafka.Brokers)
		assert.Equal(t, []string{"TSLA"}, cfg.Ingest.Symbols)
		assert.Equal(t, 30*time.Second, cfg.Provider.Timeout)
	})

	t.Run("malformed yaml fails", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0o644))

		_, err := config.Load(path)
		assert.Error(t, err)
	})
}

func TestConfig_Validate(t *testing.T) {
	valid := func(t *testing.T) *config.Config {
		cfg, err := config.Load(filepath.Join(t.TempDir(), "none.yaml"))
		require.NoError(t, err)
		cfg.Ingest.Symbols = []string{"AAPL"}
		return cfg
	}

	t.Run("valid configuration passes", func(t *testing.T) {
		assert.NoError(t, valid(t).Validate())
	})

	t.Run("rejects invalid port", func(t *testing.T) {
		cfg := valid(t)
		cfg.Server.Port = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("requires at least one symbol", func(t *testing.T) {
		cfg := valid(t)
		cfg.Ingest.Symbols = nil
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects non-positive timeframes", func(t *testing.T) {
		cfg := valid(t)
		cfg.Storage.Timeframes = []int{5, 0}
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects unknown log level", func(t *testing.T) {
		cfg := valid(t)
		cfg.Logging.Level = "verbose"
		assert.Error(t, cfg.Validate())
	})
}

func TestProviderConfig_MaskedSecret(t *testing.T) {
	cfg := config.ProviderConfig{SecretKey: "super-secret-key"}
	assert.Equal(t, "************-key", cfg.MaskedSecret())

	short := config.ProviderConfig{SecretKey: "abc"}
	assert.Equal(t, "***", short.MaskedSecret())
}
