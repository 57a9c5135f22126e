package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/barstream/ohlcv-aggregation-service/internal/domain"
	"github.com/barstream/ohlcv-aggregation-service/internal/ports"
)

// defaultTimeframes are the coarser timeframes persisted on day close,
// in minutes. The daily frame is 1440 minutes: resample buckets are
// midnight-aligned, so a full calendar day yields exactly one bar per
// trading day, where a session-length frame would split the session
// across two wall-clock buckets.
var defaultTimeframes = []int{5, 15, 60, 1440}

type aggregateKey struct {
	symbol domain.Symbol
	date   domain.TradingDate
}

// IngestService routes incoming bars into per symbol-day aggregates,
// publishes their domain events and closes days out: summary to the
// summary repository, resampled timeframes to the bar store.
//
// Aggregates are single-writer; the service's mutex is what serializes
// all access to any one aggregate. Holding one lock across all
// aggregates is deliberate: ingestion arrives in per-symbol batches,
// so finer-grained locking has nothing to win here.
type IngestService struct {
	validator  *ValidationService
	calc       *CalculationService
	publisher  ports.EventPublisher
	summaries  ports.SummaryRepository
	barStore   ports.BarStore
	timeframes []int
	logger     *slog.Logger

	mu         sync.Mutex
	aggregates map[aggregateKey]*domain.SymbolBarsAggregate
}

// NewIngestService creates an ingest service. Timeframes are the
// resample targets persisted on day close, in minutes; nil selects
// the defaults (5m, 15m, 1h, 1d).
func NewIngestService(
	publisher ports.EventPublisher,
	summaries ports.SummaryRepository,
	barStore ports.BarStore,
	timeframes []int,
	logger *slog.Logger,
) *IngestService {
	if len(timeframes) == 0 {
		timeframes = defaultTimeframes
	}
	return &IngestService{
		validator:  NewValidationService(),
		calc:       NewCalculationService(),
		publisher:  publisher,
		summaries:  summaries,
		barStore:   barStore,
		timeframes: timeframes,
		logger:     logger.With("component", "ingest_service"),
		aggregates: make(map[aggregateKey]*domain.SymbolBarsAggregate),
	}
}

// IngestBars validates and feeds bars into their aggregates, then
// publishes the queued events enriched with provider identity.
// Bars rejected by aggregate invariants are skipped; the accepted
// count and a joined rejection error are returned.
func (s *IngestService) IngestBars(ctx context.Context, providerID, feed string, bars []*domain.OHLCVBar) (int, error) {
	if len(bars) == 0 {
		return 0, nil
	}

	if findings := s.validator.ValidateBatch(bars); len(findings) > 0 {
		s.logger.Warn("validation findings on incoming batch",
			"symbol", bars[0].Symbol().String(),
			"count", len(findings),
		)
		event := domain.NewValidationFailed(bars[0].Symbol(), bars[0].Timestamp().TradingDate(), findings)
		s.publisher.Publish(ctx, event)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	accepted := 0
	var rejections []error
	touched := make(map[aggregateKey]*domain.SymbolBarsAggregate)

	for _, bar := range bars {
		key := aggregateKey{symbol: bar.Symbol(), date: bar.Timestamp().TradingDate()}

		agg, ok := s.aggregates[key]
		if !ok {
			agg = domain.NewSymbolBarsAggregate(key.symbol, key.date)
			s.aggregates[key] = agg
		}

		if err := agg.AddBar(bar); err != nil {
			rejections = append(rejections, err)
			continue
		}
		accepted++
		touched[key] = agg
	}

	for _, agg := range touched {
		s.publishEvents(ctx, agg, providerID, feed)
	}

	if len(rejections) > 0 {
		return accepted, fmt.Errorf("rejected %d of %d bars: %w",
			len(rejections), len(bars), errors.Join(rejections...))
	}
	return accepted, nil
}

// Summary returns the live preview summary while the aggregate is
// open, or the stored summary once the day has been closed
func (s *IngestService) Summary(ctx context.Context, symbol domain.Symbol, date domain.TradingDate) (*domain.DailySummary, error) {
	s.mu.Lock()
	agg, ok := s.aggregates[aggregateKey{symbol: symbol, date: date}]
	s.mu.Unlock()

	if ok {
		return agg.CalculateDailySummary()
	}
	return s.summaries.Get(ctx, symbol, date)
}

// CloseDay completes the aggregate, persists the summary and the
// resampled timeframes, publishes the completion events and drops the
// aggregate from memory
func (s *IngestService) CloseDay(ctx context.Context, symbol domain.Symbol, date domain.TradingDate) (*domain.DailySummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := aggregateKey{symbol: symbol, date: date}
	agg, ok := s.aggregates[key]
	if !ok {
		return nil, fmt.Errorf("%w: no open aggregate for %s %s", domain.ErrNoBars, symbol, date)
	}

	summary, err := agg.CloseDay()
	if err != nil {
		return nil, err
	}

	if err := s.summaries.Save(ctx, summary); err != nil {
		return nil, fmt.Errorf("save summary %s %s: %w", symbol, date, err)
	}

	bars := agg.Bars()
	for _, minutes := range s.timeframes {
		resampled, err := s.calc.AggregateBarsToTimeframe(bars, minutes)
		if err != nil {
			return nil, fmt.Errorf("resample %s %s to %dm: %w", symbol, date, minutes, err)
		}
		label := timeframeLabel(minutes)
		if err := s.barStore.WriteBars(ctx, symbol, date, label, resampled); err != nil {
			return nil, fmt.Errorf("write %s bars for %s %s: %w", label, symbol, date, err)
		}
	}

	s.publishEvents(ctx, agg, "", "")
	delete(s.aggregates, key)

	s.logger.Info("day closed",
		"symbol", symbol.String(),
		"date", date.String(),
		"bars", summary.BarCount,
		"volume", summary.Volume.Int64(),
	)

	return summary, nil
}

// OpenAggregates returns the number of aggregates still collecting
func (s *IngestService) OpenAggregates() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.aggregates)
}

// publishEvents drains the aggregate's outbox two-phase: publish the
// copied events first, acknowledge only afterwards. MarketDataReceived
// events are enriched with the real provider identity before they
// leave the process.
func (s *IngestService) publishEvents(ctx context.Context, agg *domain.SymbolBarsAggregate, providerID, feed string) {
	events := agg.UncommittedEvents()
	if len(events) == 0 {
		return
	}

	for _, event := range events {
		if received, ok := event.(*domain.MarketDataReceived); ok && providerID != "" {
			received.ProviderID = providerID
			received.DataFeed = feed
		}
	}

	s.publisher.PublishMany(ctx, events)
	agg.MarkEventsCommitted()
}

// Ensure IngestService implements ports.IngestService
var _ ports.IngestService = (*IngestService)(nil)

// timeframeLabel renders minutes as a storage partition label
func timeframeLabel(minutes int) string {
	switch {
	case minutes == 1440:
		return "1d"
	case minutes%60 == 0:
		return fmt.Sprintf("%dh", minutes/60)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}
