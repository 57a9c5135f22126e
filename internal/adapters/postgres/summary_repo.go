package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/barstream/ohlcv-aggregation-service/internal/domain"
	"github.com/barstream/ohlcv-aggregation-service/internal/ports"
)

// SummaryRepository implements the ports.SummaryRepository interface
type SummaryRepository struct {
	db *DB
}

// NewSummaryRepository creates a PostgreSQL summary repository
func NewSummaryRepository(db *DB) ports.SummaryRepository {
	return &SummaryRepository{db: db}
}

// Save stores a daily summary, replacing any existing row for the
// same symbol-day
func (r *SummaryRepository) Save(ctx context.Context, summary *domain.DailySummary) error {
	query := `
		INSERT INTO daily_summaries
			(symbol, trading_date, open, close, high, low, volume, vwap, bar_count, first_bar_at, last_bar_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (symbol, trading_date) DO UPDATE SET
			open = EXCLUDED.open,
			close = EXCLUDED.close,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			volume = EXCLUDED.volume,
			vwap = EXCLUDED.vwap,
			bar_count = EXCLUDED.bar_count,
			first_bar_at = EXCLUDED.first_bar_at,
			last_bar_at = EXCLUDED.last_bar_at
	`

	var vwap decimal.NullDecimal
	if summary.VWAP != nil {
		vwap = decimal.NullDecimal{Decimal: summary.VWAP.Decimal(), Valid: true}
	}

	_, err := r.db.Pool.Exec(ctx, query,
		summary.Symbol.String(),
		summary.TradingDate.String(),
		summary.Open.Decimal(),
		summary.Close.Decimal(),
		summary.High.Decimal(),
		summary.Low.Decimal(),
		summary.Volume.Int64(),
		vwap,
		summary.BarCount,
		summary.FirstBarAt.Time(),
		summary.LastBarAt.Time(),
	)
	if err != nil {
		return fmt.Errorf("failed to save summary: %w", err)
	}

	return nil
}

// Get retrieves the summary for a symbol-day
func (r *SummaryRepository) Get(ctx context.Context, symbol domain.Symbol, date domain.TradingDate) (*domain.DailySummary, error) {
	query := `
		SELECT symbol, trading_date, open, close, high, low, volume, vwap, bar_count, first_bar_at, last_bar_at
		FROM daily_summaries
		WHERE symbol = $1 AND trading_date = $2
	`

	row := r.db.Pool.QueryRow(ctx, query, symbol.String(), date.String())
	summary, err := scanSummary(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSummaryNotFound
		}
		return nil, fmt.Errorf("failed to get summary: %w", err)
	}

	return summary, nil
}

// ListBySymbol returns the most recent summaries for a symbol
func (r *SummaryRepository) ListBySymbol(ctx context.Context, symbol domain.Symbol, limit int) ([]*domain.DailySummary, error) {
	query := `
		SELECT symbol, trading_date, open, close, high, low, volume, vwap, bar_count, first_bar_at, last_bar_at
		FROM daily_summaries
		WHERE symbol = $1
		ORDER BY trading_date DESC
		LIMIT $2
	`

	rows, err := r.db.Pool.Query(ctx, query, symbol.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list summaries: %w", err)
	}
	defer rows.Close()

	var summaries []*domain.DailySummary
	for rows.Next() {
		summary, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		summaries = append(summaries, summary)
	}

	return summaries, rows.Err()
}

// Count returns the total number of stored summaries
func (r *SummaryRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM daily_summaries`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count summaries: %w", err)
	}
	return count, nil
}

func scanSummary(row pgx.Row) (*domain.DailySummary, error) {
	var (
		symbolStr  string
		dateStr    string
		open       decimal.Decimal
		clos       decimal.Decimal
		high       decimal.Decimal
		low        decimal.Decimal
		volume     int64
		vwap       decimal.NullDecimal
		barCount   int
		firstBarAt time.Time
		lastBarAt  time.Time
	)

	if err := row.Scan(&symbolStr, &dateStr, &open, &clos, &high, &low,
		&volume, &vwap, &barCount, &firstBarAt, &lastBarAt); err != nil {
		return nil, err
	}

	symbol, err := domain.NewSymbol(symbolStr)
	if err != nil {
		return nil, err
	}
	date, err := domain.ParseTradingDate(dateStr)
	if err != nil {
		return nil, err
	}

	summary := &domain.DailySummary{
		Symbol:      symbol,
		TradingDate: date,
		BarCount:    barCount,
		FirstBarAt:  domain.NewTimestamp(firstBarAt.UTC()),
		LastBarAt:   domain.NewTimestamp(lastBarAt.UTC()),
	}

	if summary.Open, err = domain.NewPrice(open); err != nil {
		return nil, err
	}
	if summary.Close, err = domain.NewPrice(clos); err != nil {
		return nil, err
	}
	if summary.High, err = domain.NewPrice(high); err != nil {
		return nil, err
	}
	if summary.Low, err = domain.NewPrice(low); err != nil {
		return nil, err
	}
	if summary.Volume, err = domain.NewVolume(volume); err != nil {
		return nil, err
	}
	if vwap.Valid {
		price, err := domain.NewPrice(vwap.Decimal)
		if err != nil {
			return nil, err
		}
		summary.VWAP = &price
	}

	return summary, nil
}
