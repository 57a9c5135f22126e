package ports

import (
	"context"
	"time"

	"github.com/barstream/ohlcv-aggregation-service/internal/domain"
)

// IngestService defines the contract for routing bars into per
// symbol-day aggregates and closing them out
type IngestService interface {
	// IngestBars feeds bars into their aggregates and publishes the
	// resulting events. Returns the number of bars accepted; bars
	// rejected by aggregate invariants are skipped and reported in
	// the returned error.
	IngestBars(ctx context.Context, providerID, feed string, bars []*domain.OHLCVBar) (int, error)

	// Summary returns the current summary for a symbol-day: a live
	// preview while the aggregate is open, the stored summary after
	// the day has been closed.
	Summary(ctx context.Context, symbol domain.Symbol, date domain.TradingDate) (*domain.DailySummary, error)

	// CloseDay completes the aggregate, persists its summary and the
	// resampled timeframes, and returns the summary
	CloseDay(ctx context.Context, symbol domain.Symbol, date domain.TradingDate) (*domain.DailySummary, error)

	// OpenAggregates returns the number of aggregates still collecting
	OpenAggregates() int
}

// MetricsService defines the contract for operational metrics
type MetricsService interface {
	// GetMetrics returns current operational metrics
	GetMetrics(ctx context.Context) (*domain.Metrics, error)

	// RecordIngestSuccess records a successful ingestion run
	RecordIngestSuccess(duration time.Duration, barCount int)

	// RecordIngestError records a failed ingestion run
	RecordIngestError(duration time.Duration)
}
