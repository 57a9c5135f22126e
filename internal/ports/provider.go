package ports

import (
	"context"

	"github.com/barstream/ohlcv-aggregation-service/internal/domain"
)

// MarketDataProvider defines the contract for fetching minute bars from
// an external market data source
type MarketDataProvider interface {
	// GetBars fetches all minute bars for a symbol on a trading date.
	// Bars are returned in non-decreasing timestamp order.
	GetBars(ctx context.Context, symbol domain.Symbol, date domain.TradingDate) ([]*domain.OHLCVBar, error)

	// Ping checks if the provider is reachable
	Ping(ctx context.Context) error

	// ProviderID identifies the provider in events and logs
	ProviderID() string

	// Feed identifies the data feed the provider serves
	Feed() string
}
