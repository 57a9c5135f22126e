package domain

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OHLCVBar is a single timestamped bar for one symbol. The OHLC
// consistency invariant is enforced at construction and the bar is
// immutable afterwards, except for trade count and VWAP: those arrive
// late from some providers, so they are settable after the fact and
// bump an internal revision counter.
type OHLCVBar struct {
	id        uuid.UUID
	symbol    Symbol
	timestamp Timestamp
	open      Price
	high      Price
	low       Price
	close     Price
	volume    Volume

	tradeCount *int64
	vwap       *Price
	revision   int
}

// NewOHLCVBar creates a bar, enforcing high >= {open, close, low} and
// low <= {open, close}
func NewOHLCVBar(symbol Symbol, timestamp Timestamp, open, high, low, clos Price, volume Volume) (*OHLCVBar, error) {
	if high.LessThan(open) || high.LessThan(clos) || high.LessThan(low) {
		return nil, fmt.Errorf("%w: high %s below open %s, close %s or low %s",
			ErrInvalidBar, high, open, clos, low)
	}
	if low.GreaterThan(open) || low.GreaterThan(clos) {
		return nil, fmt.Errorf("%w: low %s above open %s or close %s",
			ErrInvalidBar, low, open, clos)
	}

	return &OHLCVBar{
		id:        uuid.New(),
		symbol:    symbol,
		timestamp: timestamp,
		open:      open,
		high:      high,
		low:       low,
		close:     clos,
		volume:    volume,
	}, nil
}

// ID returns the generated bar identity
func (b *OHLCVBar) ID() uuid.UUID { return b.id }

// Symbol returns the bar's ticker symbol
func (b *OHLCVBar) Symbol() Symbol { return b.symbol }

// Timestamp returns the bar's bucket start instant
func (b *OHLCVBar) Timestamp() Timestamp { return b.timestamp }

// Open returns the opening price
func (b *OHLCVBar) Open() Price { return b.open }

// High returns the highest price
func (b *OHLCVBar) High() Price { return b.high }

// Low returns the lowest price
func (b *OHLCVBar) Low() Price { return b.low }

// Close returns the closing price
func (b *OHLCVBar) Close() Price { return b.close }

// Volume returns the traded volume
func (b *OHLCVBar) Volume() Volume { return b.volume }

// TradeCount returns the trade count if it has been set
func (b *OHLCVBar) TradeCount() (int64, bool) {
	if b.tradeCount == nil {
		return 0, false
	}
	return *b.tradeCount, true
}

// VWAP returns the provider-reported VWAP if it has been set
func (b *OHLCVBar) VWAP() (Price, bool) {
	if b.vwap == nil {
		return Price{}, false
	}
	return *b.vwap, true
}

// Revision returns the enrichment revision counter. It starts at zero
// and increments on every SetTradeCount/SetVWAP call.
func (b *OHLCVBar) Revision() int { return b.revision }

// SetTradeCount sets the late-arriving trade count
func (b *OHLCVBar) SetTradeCount(n int64) error {
	if n < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeCount, n)
	}
	b.tradeCount = &n
	b.revision++
	return nil
}

// SetVWAP sets the late-arriving provider VWAP
func (b *OHLCVBar) SetVWAP(p Price) {
	b.vwap = &p
	b.revision++
}

// TypicalPrice returns (high + low + close) / 3, unquantized.
// Used as the per-bar price when no provider VWAP is present.
func (b *OHLCVBar) TypicalPrice() decimal.Decimal {
	sum := b.high.Decimal().Add(b.low.Decimal()).Add(b.close.Decimal())
	return sum.Div(decimal.NewFromInt(3))
}

// SortedByTimestamp returns a chronologically sorted copy of bars.
// The input slice is not modified.
func SortedByTimestamp(bars []*OHLCVBar) []*OHLCVBar {
	sorted := make([]*OHLCVBar, len(bars))
	copy(sorted, bars)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].timestamp.Before(sorted[j].timestamp)
	})
	return sorted
}
