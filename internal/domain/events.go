package domain

import (
	"time"

	"github.com/google/uuid"
)

// Event type names, used as routing keys by external publishers
const (
	EventTypeBarCollectionStarted   = "market_data.bar_collection.started"
	EventTypeBarCollectionCompleted = "market_data.bar_collection.completed"
	EventTypeMarketDataReceived     = "market_data.received"
	EventTypeValidationFailed       = "market_data.validation_failed"
)

// Event is an immutable record of something that already happened.
// Events are queued on the producing aggregate and drained explicitly;
// publishing them is the host application's concern.
type Event interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time

	// AggregateSymbol returns the symbol whose aggregate produced the
	// event. Publishers use it as the partition key so per-symbol event
	// order survives transport.
	AggregateSymbol() string
}

// eventMeta carries the identity and occurrence time every event gets
// at creation
type eventMeta struct {
	id         uuid.UUID
	occurredAt time.Time
}

func newEventMeta() eventMeta {
	return eventMeta{
		id:         uuid.New(),
		occurredAt: time.Now().UTC(),
	}
}

func (m eventMeta) EventID() uuid.UUID    { return m.id }
func (m eventMeta) OccurredAt() time.Time { return m.occurredAt }

// BarCollectionStarted signals that an aggregate began collecting bars
type BarCollectionStarted struct {
	eventMeta
	Symbol      string `json:"symbol"`
	TradingDate string `json:"trading_date"`
}

// NewBarCollectionStarted creates a collection-started event
func NewBarCollectionStarted(symbol Symbol, date TradingDate) *BarCollectionStarted {
	return &BarCollectionStarted{
		eventMeta:   newEventMeta(),
		Symbol:      symbol.String(),
		TradingDate: date.String(),
	}
}

func (*BarCollectionStarted) EventType() string { return EventTypeBarCollectionStarted }

func (e *BarCollectionStarted) AggregateSymbol() string { return e.Symbol }

// BarCollectionCompleted signals that an aggregate finished its day
type BarCollectionCompleted struct {
	eventMeta
	Symbol      string `json:"symbol"`
	TradingDate string `json:"trading_date"`
	BarCount    int    `json:"bar_count"`
	HasGaps     bool   `json:"has_gaps"`
}

// NewBarCollectionCompleted creates a collection-completed event
func NewBarCollectionCompleted(symbol Symbol, date TradingDate, barCount int, hasGaps bool) *BarCollectionCompleted {
	return &BarCollectionCompleted{
		eventMeta:   newEventMeta(),
		Symbol:      symbol.String(),
		TradingDate: date.String(),
		BarCount:    barCount,
		HasGaps:     hasGaps,
	}
}

func (*BarCollectionCompleted) EventType() string { return EventTypeBarCollectionCompleted }

func (e *BarCollectionCompleted) AggregateSymbol() string { return e.Symbol }

// MarketDataReceived signals that bars were accepted into an aggregate.
// ProviderID and DataFeed are "unknown" when emitted by the aggregate
// itself; the ingestion layer enriches them before publishing.
type MarketDataReceived struct {
	eventMeta
	Symbol      string `json:"symbol"`
	TradingDate string `json:"trading_date"`
	RecordCount int    `json:"record_count"`
	ProviderID  string `json:"provider_id"`
	DataFeed    string `json:"data_feed"`
}

// NewMarketDataReceived creates a market-data-received event
func NewMarketDataReceived(symbol Symbol, date TradingDate, recordCount int) *MarketDataReceived {
	return &MarketDataReceived{
		eventMeta:   newEventMeta(),
		Symbol:      symbol.String(),
		TradingDate: date.String(),
		RecordCount: recordCount,
		ProviderID:  "unknown",
		DataFeed:    "unknown",
	}
}

func (*MarketDataReceived) EventType() string { return EventTypeMarketDataReceived }

func (e *MarketDataReceived) AggregateSymbol() string { return e.Symbol }

// ValidationFailed carries business-rule findings for a batch of bars
type ValidationFailed struct {
	eventMeta
	Symbol      string   `json:"symbol"`
	TradingDate string   `json:"trading_date"`
	Findings    []string `json:"findings"`
}

// NewValidationFailed creates a validation-failed event
func NewValidationFailed(symbol Symbol, date TradingDate, findings []string) *ValidationFailed {
	return &ValidationFailed{
		eventMeta:   newEventMeta(),
		Symbol:      symbol.String(),
		TradingDate: date.String(),
		Findings:    findings,
	}
}

func (*ValidationFailed) EventType() string { return EventTypeValidationFailed }

func (e *ValidationFailed) AggregateSymbol() string { return e.Symbol }
