package domain

import (
	"fmt"
	"sort"
)

// regularSessionMinutes is the bar count of a full 6.5-hour regular
// session of minute bars, used by the gap heuristic.
const regularSessionMinutes = 390

// SymbolBarsAggregate is the consistency boundary for one symbol's bars
// on one trading date. It is the sole authority for which bars exist
// and whether the collection is done: symbol match, date match,
// timestamp uniqueness and the completion lock are enforced here and
// nowhere else.
//
// The aggregate is single-writer: callers must serialize mutating calls
// for the same instance. Different aggregates share no state.
type SymbolBarsAggregate struct {
	symbol      Symbol
	tradingDate TradingDate

	bars map[int64]*OHLCVBar // keyed by bar timestamp, unix nanos

	runningHigh   *Price
	runningLow    *Price
	runningVolume Volume

	version           int
	collectionStarted bool
	complete          bool

	events []Event
}

// NewSymbolBarsAggregate creates an empty aggregate for a symbol-day
func NewSymbolBarsAggregate(symbol Symbol, tradingDate TradingDate) *SymbolBarsAggregate {
	return &SymbolBarsAggregate{
		symbol:      symbol,
		tradingDate: tradingDate,
		bars:        make(map[int64]*OHLCVBar),
	}
}

// Symbol returns the aggregate's symbol
func (a *SymbolBarsAggregate) Symbol() Symbol { return a.symbol }

// TradingDate returns the aggregate's trading date
func (a *SymbolBarsAggregate) TradingDate() TradingDate { return a.tradingDate }

// Version returns the optimistic-concurrency version counter
func (a *SymbolBarsAggregate) Version() int { return a.version }

// CollectionStarted reports whether collection has begun
func (a *SymbolBarsAggregate) CollectionStarted() bool { return a.collectionStarted }

// IsComplete reports whether the collection is in its terminal state
func (a *SymbolBarsAggregate) IsComplete() bool { return a.complete }

// BarCount returns the number of bars collected so far
func (a *SymbolBarsAggregate) BarCount() int { return len(a.bars) }

// StartCollection transitions the aggregate into the collecting state.
// Calling it twice is an error.
func (a *SymbolBarsAggregate) StartCollection() error {
	if a.collectionStarted {
		return fmt.Errorf("%w: %s %s", ErrAlreadyStarted, a.symbol, a.tradingDate)
	}

	a.collectionStarted = true
	a.version++
	a.events = append(a.events, NewBarCollectionStarted(a.symbol, a.tradingDate))
	return nil
}

// AddBar validates and stores a single bar. All checks run before any
// mutation: a rejected bar leaves the aggregate untouched. The first
// accepted bar implicitly starts the collection.
func (a *SymbolBarsAggregate) AddBar(bar *OHLCVBar) error {
	if bar.Symbol() != a.symbol {
		return fmt.Errorf("%w: got %s, want %s", ErrSymbolMismatch, bar.Symbol(), a.symbol)
	}
	if bar.Timestamp().TradingDate() != a.tradingDate {
		return fmt.Errorf("%w: got %s, want %s", ErrDateMismatch, bar.Timestamp().TradingDate(), a.tradingDate)
	}
	if a.complete {
		return fmt.Errorf("%w: %s %s", ErrAlreadyComplete, a.symbol, a.tradingDate)
	}

	key := bar.Timestamp().UnixNano()
	if _, exists := a.bars[key]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTimestamp, bar.Timestamp())
	}

	if !a.collectionStarted {
		a.collectionStarted = true
		a.version++
		a.events = append(a.events, NewBarCollectionStarted(a.symbol, a.tradingDate))
	}

	a.bars[key] = bar

	high := bar.High()
	if a.runningHigh == nil || high.GreaterThan(*a.runningHigh) {
		a.runningHigh = &high
	}
	low := bar.Low()
	if a.runningLow == nil || low.LessThan(*a.runningLow) {
		a.runningLow = &low
	}
	a.runningVolume = a.runningVolume.Add(bar.Volume())

	a.version++
	a.events = append(a.events, NewMarketDataReceived(a.symbol, a.tradingDate, 1))
	return nil
}

// Bar returns the bar stored at the exact timestamp, if any
func (a *SymbolBarsAggregate) Bar(ts Timestamp) (*OHLCVBar, bool) {
	bar, ok := a.bars[ts.UnixNano()]
	return bar, ok
}

// Bars returns all bars in chronological order
func (a *SymbolBarsAggregate) Bars() []*OHLCVBar {
	keys := make([]int64, 0, len(a.bars))
	for k := range a.bars {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	bars := make([]*OHLCVBar, 0, len(keys))
	for _, k := range keys {
		bars = append(bars, a.bars[k])
	}
	return bars
}

// BarsInRange returns the bars whose timestamps fall inside the
// half-open range, in chronological order
func (a *SymbolBarsAggregate) BarsInRange(r TimeRange) []*OHLCVBar {
	var bars []*OHLCVBar
	for _, bar := range a.Bars() {
		if r.Contains(bar.Timestamp().Time()) {
			bars = append(bars, bar)
		}
	}
	return bars
}

// RunningHigh returns the incrementally maintained session high
func (a *SymbolBarsAggregate) RunningHigh() (Price, bool) {
	if a.runningHigh == nil {
		return Price{}, false
	}
	return *a.runningHigh, true
}

// RunningLow returns the incrementally maintained session low
func (a *SymbolBarsAggregate) RunningLow() (Price, bool) {
	if a.runningLow == nil {
		return Price{}, false
	}
	return *a.runningLow, true
}

// RunningVolume returns the incrementally maintained volume sum
func (a *SymbolBarsAggregate) RunningVolume() Volume { return a.runningVolume }

// HasGaps reports whether the collection looks incomplete. This is a
// coarse heuristic: fewer bars than a full regular session when at
// least two bars are present. It is not calendar-aware and overreports
// on early-close days and sparsely traded symbols.
func (a *SymbolBarsAggregate) HasGaps() bool {
	return len(a.bars) >= 2 && len(a.bars) < regularSessionMinutes
}

// CompleteCollection marks the collection terminal. It requires a
// started collection and is idempotent: completing twice is a no-op
// and emits no duplicate event.
func (a *SymbolBarsAggregate) CompleteCollection() error {
	if !a.collectionStarted {
		return fmt.Errorf("%w: %s %s", ErrNotStarted, a.symbol, a.tradingDate)
	}
	if a.complete {
		return nil
	}

	a.complete = true
	a.version++
	a.events = append(a.events, NewBarCollectionCompleted(a.symbol, a.tradingDate, len(a.bars), a.HasGaps()))
	return nil
}

// CloseDay completes the collection and returns the daily summary.
// It requires at least one bar.
func (a *SymbolBarsAggregate) CloseDay() (*DailySummary, error) {
	if len(a.bars) == 0 {
		return nil, fmt.Errorf("%w: cannot close %s %s", ErrNoBars, a.symbol, a.tradingDate)
	}

	if err := a.CompleteCollection(); err != nil {
		return nil, err
	}

	return NewDailySummary(a.Bars())
}

// CalculateDailySummary computes the same summary as CloseDay without
// touching completion state, for interim previews while the collection
// is still open
func (a *SymbolBarsAggregate) CalculateDailySummary() (*DailySummary, error) {
	return NewDailySummary(a.Bars())
}

// UncommittedEvents returns a copy of the pending event queue. The
// aggregate never clears the queue itself: callers publish the copy
// and then acknowledge with MarkEventsCommitted, so a failed publish
// cannot lose events.
func (a *SymbolBarsAggregate) UncommittedEvents() []Event {
	events := make([]Event, len(a.events))
	copy(events, a.events)
	return events
}

// MarkEventsCommitted clears the pending event queue
func (a *SymbolBarsAggregate) MarkEventsCommitted() {
	a.events = a.events[:0]
}
