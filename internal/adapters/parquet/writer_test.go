package parquet_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	parquetgo "github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barstream/ohlcv-aggregation-service/internal/adapters/parquet"
	"github.com/barstream/ohlcv-aggregation-service/internal/domain"
)

// readRecord mirrors the writer's row layout for read-back assertions
type readRecord struct {
	Timestamp  int64   `parquet:"t"`
	Open       float64 `parquet:"o"`
	High       float64 `parquet:"h"`
	Low        float64 `parquet:"l"`
	Close      float64 `parquet:"c"`
	Volume     int64   `parquet:"v"`
	VWAP       float64 `parquet:"vw,optional"`
	TradeCount int64   `parquet:"n,optional"`
}

func testBar(t *testing.T) *domain.OHLCVBar {
	t.Helper()

	bar, err := domain.NewOHLCVBar(
		domain.MustSymbol("AAPL"),
		domain.NewTimestampUTC(2024, time.January, 2, 14, 30, 0),
		domain.MustPrice("187.15"),
		domain.MustPrice("187.49"),
		domain.MustPrice("187.05"),
		domain.MustPrice("187.32"),
		domain.MustVolume(12500),
	)
	require.NoError(t, err)
	require.NoError(t, bar.SetTradeCount(210))
	bar.SetVWAP(domain.MustPrice("187.28"))
	return bar
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestWriter_WriteBars(t *testing.T) {
	symbol := domain.MustSymbol("AAPL")
	date := domain.NewTradingDate(2024, time.January, 2)

	t.Run("writes a partitioned file and reads back", func(t *testing.T) {
		baseDir := t.TempDir()
		writer := parquet.NewWriter(baseDir, testLogger())

		bar := testBar(t)
		require.NoError(t, writer.WriteBars(context.Background(), symbol, date, "1m", []*domain.OHLCVBar{bar}))

		path := filepath.Join(baseDir, "symbol=AAPL", "year=2024", "month=01", "day=02", "bars_1m.parquet")
		require.FileExists(t, path)

		rows, err := parquetgo.ReadFile[readRecord](path)
		require.NoError(t, err)
		require.Len(t, rows, 1)

		assert.Equal(t, bar.Timestamp().Time().UnixMilli(), rows[0].Timestamp)
		assert.InDelta(t, 187.15, rows[0].Open, 1e-9)
		assert.InDelta(t, 187.49, rows[0].High, 1e-9)
		assert.InDelta(t, 187.05, rows[0].Low, 1e-9)
		assert.InDelta(t, 187.32, rows[0].Close, 1e-9)
		assert.Equal(t, int64(12500), rows[0].Volume)
		assert.InDelta(t, 187.28, rows[0].VWAP, 1e-9)
		assert.Equal(t, int64(210), rows[0].TradeCount)
	})

	t.Run("one file per timeframe in the same partition", func(t *testing.T) {
		baseDir := t.TempDir()
		writer := parquet.NewWriter(baseDir, testLogger())
		bars := []*domain.OHLCVBar{testBar(t)}

		require.NoError(t, writer.WriteBars(context.Background(), symbol, date, "5m", bars))
		require.NoError(t, writer.WriteBars(context.Background(), symbol, date, "1d", bars))

		partition := filepath.Join(baseDir, "symbol=AAPL", "year=2024", "month=01", "day=02")
		assert.FileExists(t, filepath.Join(partition, "bars_5m.parquet"))
		assert.FileExists(t, filepath.Join(partition, "bars_1d.parquet"))
	})

	t.Run("empty input writes nothing", func(t *testing.T) {
		baseDir := t.TempDir()
		writer := parquet.NewWriter(baseDir, testLogger())

		require.NoError(t, writer.WriteBars(context.Background(), symbol, date, "1m", nil))

		entries, err := os.ReadDir(baseDir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("cancelled context aborts before writing", func(t *testing.T) {
		baseDir := t.TempDir()
		writer := parquet.NewWriter(baseDir, testLogger())

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := writer.WriteBars(ctx, symbol, date, "1m", []*domain.OHLCVBar{testBar(t)})
		assert.ErrorIs(t, err, context.Canceled)
	})
}
