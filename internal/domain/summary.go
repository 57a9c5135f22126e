package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DailySummary is an immutable snapshot of one symbol-day: open of the
// first bar, close of the last, extrema, total volume and VWAP. It is
// computed on demand and never stored inside the aggregate; persistence
// is the caller's responsibility.
type DailySummary struct {
	Symbol      Symbol
	TradingDate TradingDate
	Open        Price
	Close       Price
	High        Price
	Low         Price
	Volume      Volume
	// VWAP is nil when the day traded no volume: the metric is
	// undefined, not an error.
	VWAP       *Price
	BarCount   int
	FirstBarAt Timestamp
	LastBarAt  Timestamp
}

// ComputeVWAP computes the volume-weighted average price of a set of
// bars. The per-bar price is the bar's own VWAP when present, otherwise
// its typical price (high+low+close)/3. Accumulation uses decimal
// arithmetic throughout; binary floating point would drift across a
// full session of bars.
//
// Fails with ErrNoBars on an empty input and ErrNoVolume when every
// bar has zero volume.
func ComputeVWAP(bars []*OHLCVBar) (Price, error) {
	if len(bars) == 0 {
		return Price{}, ErrNoBars
	}

	totalValue := decimal.Zero
	totalVolume := decimal.Zero

	for _, bar := range bars {
		if bar.Volume().IsZero() {
			continue
		}

		price := bar.TypicalPrice()
		if vwap, ok := bar.VWAP(); ok {
			price = vwap.Decimal()
		}

		vol := decimal.NewFromInt(bar.Volume().Int64())
		totalValue = totalValue.Add(price.Mul(vol))
		totalVolume = totalVolume.Add(vol)
	}

	if totalVolume.IsZero() {
		return Price{}, ErrNoVolume
	}

	return NewPrice(totalValue.Div(totalVolume))
}

// NewDailySummary reduces bars for a single symbol-day into a summary.
// Every bar is validated against the first bar's symbol and trading
// date; the input is re-sorted defensively before picking open/close.
// A zero-volume day yields a nil VWAP rather than an error.
func NewDailySummary(bars []*OHLCVBar) (*DailySummary, error) {
	if len(bars) == 0 {
		return nil, ErrNoBars
	}

	symbol := bars[0].Symbol()
	date := bars[0].Timestamp().TradingDate()

	for _, bar := range bars {
		if bar.Symbol() != symbol {
			return nil, fmt.Errorf("%w: %s and %s", ErrMixedSymbols, symbol, bar.Symbol())
		}
		if bar.Timestamp().TradingDate() != date {
			return nil, fmt.Errorf("%w: %s and %s", ErrMixedDates, date, bar.Timestamp().TradingDate())
		}
	}

	sorted := SortedByTimestamp(bars)

	first := sorted[0]
	last := sorted[len(sorted)-1]

	high := first.High()
	low := first.Low()
	volume := Volume{}
	for _, bar := range sorted {
		if bar.High().GreaterThan(high) {
			high = bar.High()
		}
		if bar.Low().LessThan(low) {
			low = bar.Low()
		}
		volume = volume.Add(bar.Volume())
	}

	summary := &DailySummary{
		Symbol:      symbol,
		TradingDate: date,
		Open:        first.Open(),
		Close:       last.Close(),
		High:        high,
		Low:         low,
		Volume:      volume,
		BarCount:    len(sorted),
		FirstBarAt:  first.Timestamp(),
		LastBarAt:   last.Timestamp(),
	}

	vwap, err := ComputeVWAP(sorted)
	if err == nil {
		summary.VWAP = &vwap
	}

	return summary, nil
}
