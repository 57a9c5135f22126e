package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/barstream/ohlcv-aggregation-service/internal/domain"
)

// SummaryRepository defines the contract for daily summary persistence
type SummaryRepository interface {
	// Save stores a daily summary, replacing any existing row for the
	// same symbol-day
	Save(ctx context.Context, summary *domain.DailySummary) error

	// Get retrieves the summary for a symbol-day
	Get(ctx context.Context, symbol domain.Symbol, date domain.TradingDate) (*domain.DailySummary, error)

	// ListBySymbol returns the most recent summaries for a symbol
	ListBySymbol(ctx context.Context, symbol domain.Symbol, limit int) ([]*domain.DailySummary, error)

	// Count returns the total number of stored summaries
	Count(ctx context.Context) (int64, error)
}

// JobRepository defines the contract for ingestion job tracking
type JobRepository interface {
	// Create stores a new job
	Create(ctx context.Context, job *domain.IngestionJob) error

	// Update persists status, bar count and error of an existing job
	Update(ctx context.Context, job *domain.IngestionJob) error

	// GetByID retrieves a job by its identifier
	GetByID(ctx context.Context, id uuid.UUID) (*domain.IngestionJob, error)

	// ListRecent returns the most recently created jobs
	ListRecent(ctx context.Context, limit int) ([]*domain.IngestionJob, error)

	// CountByStatus returns the number of jobs in the given status
	CountByStatus(ctx context.Context, status string) (int64, error)
}

// BarStore defines the contract for persisting resampled bars as
// partitioned columnar files
type BarStore interface {
	// WriteBars writes bars for one symbol-day and timeframe.
	// Timeframe is a label such as "5m" or "1h".
	WriteBars(ctx context.Context, symbol domain.Symbol, date domain.TradingDate, timeframe string, bars []*domain.OHLCVBar) error
}
