package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/barstream/ohlcv-aggregation-service/internal/domain"
	"github.com/barstream/ohlcv-aggregation-service/internal/ports"
)

const runTimeout = 2 * time.Minute

// Ingestor runs scheduled ingestion and end-of-day close passes over
// the configured symbols. Schedules use six-field cron specs with a
// seconds column.
type Ingestor struct {
	provider  ports.MarketDataProvider
	ingestSvc ports.IngestService
	jobs      ports.JobRepository
	metrics   ports.MetricsService
	symbols   []domain.Symbol
	cronSpec  string
	closeSpec string
	logger    *slog.Logger

	mu      sync.Mutex
	running bool
	cron    *cron.Cron
}

// NewIngestor creates a scheduled ingestor for the given symbols
func NewIngestor(
	provider ports.MarketDataProvider,
	ingestSvc ports.IngestService,
	jobs ports.JobRepository,
	metrics ports.MetricsService,
	symbols []domain.Symbol,
	cronSpec, closeSpec string,
	logger *slog.Logger,
) *Ingestor {
	return &Ingestor{
		provider:  provider,
		ingestSvc: ingestSvc,
		jobs:      jobs,
		metrics:   metrics,
		symbols:   symbols,
		cronSpec:  cronSpec,
		closeSpec: closeSpec,
		logger:    logger.With("component", "ingestor"),
	}
}

// Start registers the cron entries and begins scheduling
func (w *Ingestor) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	c := cron.New(cron.WithSeconds())

	if _, err := c.AddFunc(w.cronSpec, func() { w.runIngest(ctx) }); err != nil {
		return fmt.Errorf("invalid ingest schedule %q: %w", w.cronSpec, err)
	}
	if _, err := c.AddFunc(w.closeSpec, func() { w.runClose(ctx) }); err != nil {
		return fmt.Errorf("invalid close schedule %q: %w", w.closeSpec, err)
	}

	c.Start()
	w.cron = c
	w.running = true

	w.logger.Info("ingestor started",
		"symbols", len(w.symbols),
		"ingest_schedule", w.cronSpec,
		"close_schedule", w.closeSpec,
	)

	return nil
}

// Stop halts scheduling and waits for any in-flight run to finish
func (w *Ingestor) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	c := w.cron
	w.mu.Unlock()

	w.logger.Info("stopping ingestor")

	stopCtx := c.Stop()
	select {
	case <-stopCtx.Done():
		return nil
	case <-time.After(10 * time.Second):
		return context.DeadlineExceeded
	}
}

// IsRunning returns whether the ingestor is currently scheduled
func (w *Ingestor) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// RunIngestOnce performs a single ingestion pass outside the schedule
func (w *Ingestor) RunIngestOnce(ctx context.Context) {
	w.runIngest(ctx)
}

func (w *Ingestor) runIngest(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	date := domain.TradingDateOf(time.Now().UTC())
	start := time.Now()
	totalBars := 0
	failed := false

	for _, symbol := range w.symbols {
		count, err := w.ingestSymbol(runCtx, symbol, date)
		totalBars += count
		if err != nil {
			failed = true
			w.logger.Error("ingestion failed",
				"symbol", symbol.String(),
				"trading_date", date.String(),
				"error", err,
			)
		}
	}

	duration := time.Since(start)
	if failed {
		w.metrics.RecordIngestError(duration)
	} else {
		w.metrics.RecordIngestSuccess(duration, totalBars)
	}

	w.logger.Info("ingestion run complete",
		"symbols", len(w.symbols),
		"bars", totalBars,
		"duration_ms", duration.Milliseconds(),
		"failed", failed,
	)
}

func (w *Ingestor) ingestSymbol(ctx context.Context, symbol domain.Symbol, date domain.TradingDate) (int, error) {
	job := domain.NewIngestionJob(symbol, date, map[string]any{
		"provider": w.provider.ProviderID(),
		"feed":     w.provider.Feed(),
	})
	if err := w.jobs.Create(ctx, job); err != nil {
		w.logger.Warn("failed to record job", "symbol", symbol.String(), "error", err)
	}

	job.Status = domain.JobStatusRunning
	w.updateJob(ctx, job)

	bars, err := w.provider.GetBars(ctx, symbol, date)
	if err != nil {
		w.failJob(ctx, job, err)
		return 0, err
	}

	accepted, err := w.ingestSvc.IngestBars(ctx, w.provider.ProviderID(), w.provider.Feed(), bars)
	job.BarCount = accepted
	if err != nil {
		// Duplicate timestamps are expected when fetch windows overlap
		// between runs; a batch rejected for anything else fails the job.
		if !onlyDuplicateRejections(err) {
			w.failJob(ctx, job, err)
			return accepted, err
		}
		job.Error = err.Error()
	}

	job.Status = domain.JobStatusCompleted
	w.updateJob(ctx, job)
	return accepted, nil
}

// onlyDuplicateRejections reports whether every rejection inside a
// possibly joined ingestion error is a duplicate timestamp. A single
// non-duplicate rejection anywhere in the join makes the batch a
// failure.
func onlyDuplicateRejections(err error) bool {
	if err == nil {
		return false
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			if !onlyDuplicateRejections(e) {
				return false
			}
		}
		return true
	}
	if unwrapped := errors.Unwrap(err); unwrapped != nil {
		return onlyDuplicateRejections(unwrapped)
	}
	return errors.Is(err, domain.ErrDuplicateTimestamp)
}

func (w *Ingestor) runClose(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	date := domain.TradingDateOf(time.Now().UTC())

	for _, symbol := range w.symbols {
		summary, err := w.ingestSvc.CloseDay(runCtx, symbol, date)
		if err != nil {
			if errors.Is(err, domain.ErrNoBars) {
				w.logger.Info("no bars to close",
					"symbol", symbol.String(),
					"trading_date", date.String(),
				)
				continue
			}
			w.logger.Error("close-day failed",
				"symbol", symbol.String(),
				"trading_date", date.String(),
				"error", err,
			)
			continue
		}

		w.logger.Info("trading day closed",
			"symbol", symbol.String(),
			"trading_date", date.String(),
			"bar_count", summary.BarCount,
		)
	}
}

func (w *Ingestor) updateJob(ctx context.Context, job *domain.IngestionJob) {
	if err := w.jobs.Update(ctx, job); err != nil {
		w.logger.Warn("failed to update job",
			"job_id", job.ID.String(),
			"error", err,
		)
	}
}

func (w *Ingestor) failJob(ctx context.Context, job *domain.IngestionJob, cause error) {
	job.Status = domain.JobStatusFailed
	job.Error = cause.Error()
	w.updateJob(ctx, job)
}
