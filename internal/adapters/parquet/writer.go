package parquet

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	"github.com/barstream/ohlcv-aggregation-service/internal/domain"
	"github.com/barstream/ohlcv-aggregation-service/internal/ports"
)

// barRecord is the columnar row layout. Shared by every timeframe;
// optional columns are written as zero when absent.
type barRecord struct {
	Timestamp  int64   `parquet:"t"` // Unix timestamp in milliseconds
	Open       float64 `parquet:"o"`
	High       float64 `parquet:"h"`
	Low        float64 `parquet:"l"`
	Close      float64 `parquet:"c"`
	Volume     int64   `parquet:"v"`
	VWAP       float64 `parquet:"vw,optional"`
	TradeCount int64   `parquet:"n,optional"`
}

// Writer persists bars as Parquet files partitioned by
// symbol=/year=/month=/day=, one file per timeframe
type Writer struct {
	baseDir string
	logger  *slog.Logger
}

// NewWriter creates a writer rooted at baseDir
func NewWriter(baseDir string, logger *slog.Logger) *Writer {
	return &Writer{
		baseDir: baseDir,
		logger:  logger.With("component", "parquet_writer"),
	}
}

// WriteBars writes bars for one symbol-day and timeframe, replacing
// any existing file for the same partition
func (w *Writer) WriteBars(ctx context.Context, symbol domain.Symbol, date domain.TradingDate, timeframe string, bars []*domain.OHLCVBar) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(bars) == 0 {
		return nil
	}

	dir := filepath.Join(w.baseDir,
		fmt.Sprintf("symbol=%s", symbol),
		fmt.Sprintf("year=%04d", date.Year),
		fmt.Sprintf("month=%02d", int(date.Month)),
		fmt.Sprintf("day=%02d", date.Day),
	)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create partition dir: %w", err)
	}

	records := make([]barRecord, len(bars))
	for i, bar := range bars {
		records[i] = toRecord(bar)
	}

	path := filepath.Join(dir, fmt.Sprintf("bars_%s.parquet", timeframe))
	if err := parquet.WriteFile(path, records); err != nil {
		return fmt.Errorf("write parquet file %s: %w", path, err)
	}

	w.logger.Debug("wrote bars",
		"path", path,
		"rows", len(records),
	)

	return nil
}

func toRecord(bar *domain.OHLCVBar) barRecord {
	rec := barRecord{
		Timestamp: bar.Timestamp().Time().UnixMilli(),
		Open:      bar.Open().Float64(),
		High:      bar.High().Float64(),
		Low:       bar.Low().Float64(),
		Close:     bar.Close().Float64(),
		Volume:    bar.Volume().Int64(),
	}
	if vwap, ok := bar.VWAP(); ok {
		rec.VWAP = vwap.Float64()
	}
	if n, ok := bar.TradeCount(); ok {
		rec.TradeCount = n
	}
	return rec
}

// Ensure Writer implements ports.BarStore
var _ ports.BarStore = (*Writer)(nil)
