package services

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/barstream/ohlcv-aggregation-service/internal/domain"
)

// PriceField selects which bar price an indicator reads
type PriceField string

const (
	PriceFieldOpen  PriceField = "open"
	PriceFieldHigh  PriceField = "high"
	PriceFieldLow   PriceField = "low"
	PriceFieldClose PriceField = "close"
)

// CalculationService holds the pure bar algorithms: VWAP, daily
// summaries, resampling and derived indicators. It carries no state
// and every method is safe to call from concurrent contexts.
type CalculationService struct{}

// NewCalculationService creates a calculation service
func NewCalculationService() *CalculationService {
	return &CalculationService{}
}

// VWAP computes the volume-weighted average price of the bars.
// Fails on an empty input or when every bar has zero volume.
func (s *CalculationService) VWAP(bars []*domain.OHLCVBar) (domain.Price, error) {
	return domain.ComputeVWAP(bars)
}

// DailySummary reduces bars for a single symbol-day into a summary.
// Fails when the bars span more than one symbol or trading date.
func (s *CalculationService) DailySummary(bars []*domain.OHLCVBar) (*domain.DailySummary, error) {
	return domain.NewDailySummary(bars)
}

// Resample reduces fine-grained bars into coarser bars of frameSeconds
// each. Input bars must be pre-sorted ascending by timestamp and belong
// to a single symbol; both preconditions are validated.
//
// Period boundaries are wall-clock aligned: each bar buckets into the
// period starting at the largest multiple of frameSeconds since its
// own midnight, not since market open. Only periods containing at
// least one input bar produce output; gaps are absent, not
// zero-volume placeholders.
func (s *CalculationService) Resample(bars []*domain.OHLCVBar, frameSeconds int) ([]*domain.OHLCVBar, error) {
	if frameSeconds <= 0 {
		return nil, fmt.Errorf("%w: %d", domain.ErrInvalidFrame, frameSeconds)
	}
	if len(bars) == 0 {
		return nil, nil
	}

	symbol := bars[0].Symbol()
	for i, bar := range bars {
		if bar.Symbol() != symbol {
			return nil, fmt.Errorf("%w: %s and %s", domain.ErrMixedSymbols, symbol, bar.Symbol())
		}
		if i > 0 && bar.Timestamp().Before(bars[i-1].Timestamp()) {
			return nil, fmt.Errorf("%w: %s after %s", domain.ErrUnsortedBars,
				bar.Timestamp(), bars[i-1].Timestamp())
		}
	}

	frame := time.Duration(frameSeconds) * time.Second

	var out []*domain.OHLCVBar
	var group []*domain.OHLCVBar
	var groupStart time.Time

	for _, bar := range bars {
		start := periodStart(bar.Timestamp().Time(), frame)

		if len(group) > 0 && !start.Equal(groupStart) {
			resampled, err := s.reduceGroup(symbol, groupStart, group)
			if err != nil {
				return nil, err
			}
			out = append(out, resampled)
			group = group[:0]
		}

		groupStart = start
		group = append(group, bar)
	}

	if len(group) > 0 {
		resampled, err := s.reduceGroup(symbol, groupStart, group)
		if err != nil {
			return nil, err
		}
		out = append(out, resampled)
	}

	return out, nil
}

// AggregateBarsToTimeframe resamples bars into timeframeMinutes buckets
func (s *CalculationService) AggregateBarsToTimeframe(bars []*domain.OHLCVBar, timeframeMinutes int) ([]*domain.OHLCVBar, error) {
	if timeframeMinutes <= 0 {
		return nil, fmt.Errorf("%w: %d minutes", domain.ErrInvalidFrame, timeframeMinutes)
	}
	return s.Resample(bars, timeframeMinutes*60)
}

// SMA computes the trailing simple moving average of the chosen price
// field. The result has one entry per input bar; the first period-1
// entries are nil because no full window exists yet.
func (s *CalculationService) SMA(bars []*domain.OHLCVBar, period int, field PriceField) ([]*decimal.Decimal, error) {
	if period <= 0 {
		return nil, fmt.Errorf("%w: sma period must be positive, got %d", domain.ErrInvalidPeriod, period)
	}
	selectPrice, err := priceSelector(field)
	if err != nil {
		return nil, err
	}

	out := make([]*decimal.Decimal, len(bars))
	if len(bars) < period {
		return out, nil
	}

	// Rolling window sum keeps this O(n) regardless of period.
	window := decimal.Zero
	for i, bar := range bars {
		window = window.Add(selectPrice(bar).Decimal())
		if i >= period {
			window = window.Sub(selectPrice(bars[i-period]).Decimal())
		}
		if i >= period-1 {
			mean := window.Div(decimal.NewFromInt(int64(period)))
			out[i] = &mean
		}
	}

	return out, nil
}

// Volatility computes the trailing sample standard deviation of log
// close-to-close returns over a window of size period. The result has
// one entry per input bar; entries are nil until period returns exist,
// i.e. the first value appears at index period.
func (s *CalculationService) Volatility(bars []*domain.OHLCVBar, period int) ([]*float64, error) {
	if period <= 1 {
		return nil, fmt.Errorf("%w: volatility period must be greater than 1, got %d", domain.ErrInvalidPeriod, period)
	}

	out := make([]*float64, len(bars))
	if len(bars) < period+1 {
		return out, nil
	}

	// returns[i] is the log return from bar i-1 to bar i; index 0 unused.
	returns := make([]float64, len(bars))
	for i := 1; i < len(bars); i++ {
		prev := bars[i-1].Close().Float64()
		cur := bars[i].Close().Float64()
		if prev <= 0 || cur <= 0 {
			return nil, fmt.Errorf("%w: log return undefined for close %s after %s",
				domain.ErrInvalidBar, bars[i].Close(), bars[i-1].Close())
		}
		returns[i] = math.Log(cur / prev)
	}

	for i := period; i < len(bars); i++ {
		window := returns[i-period+1 : i+1]

		var sum float64
		for _, r := range window {
			sum += r
		}
		mean := sum / float64(period)

		var variance float64
		for _, r := range window {
			variance += (r - mean) * (r - mean)
		}
		variance /= float64(period - 1)

		sd := math.Sqrt(variance)
		out[i] = &sd
	}

	return out, nil
}

// reduceGroup collapses one period's bars into a single synthetic bar
// with a fresh identity: open of the first, close of the last, extrema,
// summed volume, summed trade count when every bar carries one, and
// the group VWAP (absent when the group traded no volume).
func (s *CalculationService) reduceGroup(symbol domain.Symbol, start time.Time, group []*domain.OHLCVBar) (*domain.OHLCVBar, error) {
	first := group[0]
	last := group[len(group)-1]

	high := first.High()
	low := first.Low()
	volume := domain.Volume{}
	tradeCount := int64(0)
	haveAllCounts := true

	for _, bar := range group {
		if bar.High().GreaterThan(high) {
			high = bar.High()
		}
		if bar.Low().LessThan(low) {
			low = bar.Low()
		}
		volume = volume.Add(bar.Volume())

		if n, ok := bar.TradeCount(); ok {
			tradeCount += n
		} else {
			haveAllCounts = false
		}
	}

	bar, err := domain.NewOHLCVBar(symbol, domain.NewTimestamp(start),
		first.Open(), high, low, last.Close(), volume)
	if err != nil {
		return nil, fmt.Errorf("resample %s period %s: %w", symbol, start.Format(time.RFC3339), err)
	}

	if haveAllCounts {
		if err := bar.SetTradeCount(tradeCount); err != nil {
			return nil, err
		}
	}

	if vwap, err := domain.ComputeVWAP(group); err == nil {
		bar.SetVWAP(vwap)
	}

	return bar, nil
}

// periodStart floors t to the nearest multiple of frame since t's own
// midnight, keeping the timestamp's zone
func periodStart(t time.Time, frame time.Duration) time.Time {
	y, m, d := t.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	offset := t.Sub(midnight)
	return midnight.Add(offset - offset%frame)
}

func priceSelector(field PriceField) (func(*domain.OHLCVBar) domain.Price, error) {
	switch field {
	case PriceFieldOpen:
		return (*domain.OHLCVBar).Open, nil
	case PriceFieldHigh:
		return (*domain.OHLCVBar).High, nil
	case PriceFieldLow:
		return (*domain.OHLCVBar).Low, nil
	case PriceFieldClose:
		return (*domain.OHLCVBar).Close, nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidPriceField, field)
	}
}
