package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/barstream/ohlcv-aggregation-service/internal/domain"
	"github.com/barstream/ohlcv-aggregation-service/internal/ports"
)

// MetricsService implements the ports.MetricsService interface
type MetricsService struct {
	summaries ports.SummaryRepository
	jobs      ports.JobRepository
	provider  ports.MarketDataProvider
	ingest    ports.IngestService
	symbols   int
	startTime time.Time
	logger    *slog.Logger

	mu                 sync.RWMutex
	lastIngestTime     *time.Time
	lastIngestDuration time.Duration
	ingestSuccessCount int64
	ingestErrorCount   int64
	barsIngested       int64
}

// NewMetricsService creates a new metrics service
func NewMetricsService(
	summaries ports.SummaryRepository,
	jobs ports.JobRepository,
	provider ports.MarketDataProvider,
	ingest ports.IngestService,
	trackedSymbols int,
	logger *slog.Logger,
) *MetricsService {
	return &MetricsService{
		summaries: summaries,
		jobs:      jobs,
		provider:  provider,
		ingest:    ingest,
		symbols:   trackedSymbols,
		startTime: time.Now(),
		logger:    logger.With("component", "metrics_service"),
	}
}

// GetMetrics returns current operational metrics
func (m *MetricsService) GetMetrics(ctx context.Context) (*domain.Metrics, error) {
	m.mu.RLock()
	lastIngestTime := m.lastIngestTime
	lastIngestDuration := m.lastIngestDuration
	ingestSuccessCount := m.ingestSuccessCount
	ingestErrorCount := m.ingestErrorCount
	barsIngested := m.barsIngested
	m.mu.RUnlock()

	totalSummaries, err := m.summaries.Count(ctx)
	if err != nil {
		m.logger.Error("failed to count summaries", "error", err)
		totalSummaries = 0
	}

	completedJobs, err := m.jobs.CountByStatus(ctx, domain.JobStatusCompleted)
	if err != nil {
		m.logger.Error("failed to count completed jobs", "error", err)
		completedJobs = 0
	}

	failedJobs, err := m.jobs.CountByStatus(ctx, domain.JobStatusFailed)
	if err != nil {
		m.logger.Error("failed to count failed jobs", "error", err)
		failedJobs = 0
	}

	dbStatus := "healthy"
	if _, err := m.summaries.Count(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	providerStatus := "healthy"
	if err := m.provider.Ping(ctx); err != nil {
		providerStatus = "unhealthy"
	}

	return &domain.Metrics{
		Uptime:             time.Since(m.startTime).Seconds(),
		TrackedSymbols:     m.symbols,
		OpenAggregates:     m.ingest.OpenAggregates(),
		TotalSummaries:     totalSummaries,
		CompletedJobs:      completedJobs,
		FailedJobs:         failedJobs,
		LastIngestTime:     lastIngestTime,
		LastIngestDuration: float64(lastIngestDuration.Milliseconds()),
		IngestSuccessCount: ingestSuccessCount,
		IngestErrorCount:   ingestErrorCount,
		BarsIngested:       barsIngested,
		DatabaseStatus:     dbStatus,
		ProviderStatus:     providerStatus,
	}, nil
}

// RecordIngestSuccess records a successful ingestion run
func (m *MetricsService) RecordIngestSuccess(duration time.Duration, barCount int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	m.lastIngestTime = &now
	m.lastIngestDuration = duration
	m.ingestSuccessCount++
	m.barsIngested += int64(barCount)
}

// RecordIngestError records a failed ingestion run
func (m *MetricsService) RecordIngestError(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	m.lastIngestTime = &now
	m.lastIngestDuration = duration
	m.ingestErrorCount++
}

// Ensure MetricsService implements ports.MetricsService
var _ ports.MetricsService = (*MetricsService)(nil)
