package worker_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barstream/ohlcv-aggregation-service/internal/domain"
	"github.com/barstream/ohlcv-aggregation-service/internal/worker"
)

// Mock implementations for testing

type mockProvider struct {
	bars   []*domain.OHLCVBar
	err    error
	called int
}

func (m *mockProvider) GetBars(ctx context.Context, symbol domain.Symbol, date domain.TradingDate) ([]*domain.OHLCVBar, error) {
	m.called++
	return m.bars, m.err
}

func (m *mockProvider) Ping(ctx context.Context) error { return nil }
func (m *mockProvider) ProviderID() string             { return "mock" }
func (m *mockProvider) Feed() string                   { return "test" }

type mockIngest struct {
	accepted  int
	ingestErr error
	closeErr  error
}

func (m *mockIngest) IngestBars(ctx context.Context, providerID, feed string, bars []*domain.OHLCVBar) (int, error) {
	return m.accepted, m.ingestErr
}

func (m *mockIngest) Summary(ctx context.Context, symbol domain.Symbol, date domain.TradingDate) (*domain.DailySummary, error) {
	return nil, domain.ErrSummaryNotFound
}

func (m *mockIngest) CloseDay(ctx context.Context, symbol domain.Symbol, date domain.TradingDate) (*domain.DailySummary, error) {
	if m.closeErr != nil {
		return nil, m.closeErr
	}
	return &domain.DailySummary{Symbol: symbol, TradingDate: date}, nil
}

func (m *mockIngest) OpenAggregates() int { return 0 }

type mockJobs struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*domain.IngestionJob
}

func newMockJobs() *mockJobs {
	return &mockJobs{jobs: make(map[uuid.UUID]*domain.IngestionJob)}
}

func (m *mockJobs) Create(ctx context.Context, job *domain.IngestionJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *job
	m.jobs[job.ID] = &copied
	return nil
}

func (m *mockJobs) Update(ctx context.Context, job *domain.IngestionJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *job
	m.jobs[job.ID] = &copied
	return nil
}

func (m *mockJobs) GetByID(ctx context.Context, id uuid.UUID) (*domain.IngestionJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	return job, nil
}

func (m *mockJobs) ListRecent(ctx context.Context, limit int) ([]*domain.IngestionJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.IngestionJob
	for _, job := range m.jobs {
		out = append(out, job)
	}
	return out, nil
}

func (m *mockJobs) CountByStatus(ctx context.Context, status string) (int64, error) {
	return 0, nil
}

func (m *mockJobs) single(t *testing.T) *domain.IngestionJob {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.Len(t, m.jobs, 1)
	for _, job := range m.jobs {
		return job
	}
	return nil
}

type mockMetrics struct {
	successes int
	errors    int
	lastBars  int
}

func (m *mockMetrics) GetMetrics(ctx context.Context) (*domain.Metrics, error) {
	return &domain.Metrics{}, nil
}

func (m *mockMetrics) RecordIngestSuccess(duration time.Duration, barCount int) {
	m.successes++
	m.lastBars = barCount
}

func (m *mockMetrics) RecordIngestError(duration time.Duration) {
	m.errors++
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testBar(t *testing.T) *domain.OHLCVBar {
	t.Helper()

	now := time.Now().UTC()
	bar, err := domain.NewOHLCVBar(
		domain.MustSymbol("AAPL"),
		domain.NewTimestamp(now),
		domain.MustPrice("100"), domain.MustPrice("100"),
		domain.MustPrice("100"), domain.MustPrice("100"),
		domain.MustVolume(100),
	)
	require.NoError(t, err)
	return bar
}

func newTestIngestor(provider *mockProvider, ingest *mockIngest, jobs *mockJobs, metrics *mockMetrics) *worker.Ingestor {
	return worker.NewIngestor(
		provider,
		ingest,
		jobs,
		metrics,
		[]domain.Symbol{domain.MustSymbol("AAPL")},
		"0 */5 * * * *",
		"0 15 21 * * 1-5",
		testLogger(),
	)
}

func TestIngestor_RunIngestOnce(t *testing.T) {
	t.Run("successful run completes the job and records metrics", func(t *testing.T) {
		provider := &mockProvider{bars: []*domain.OHLCVBar{testBar(t)}}
		ingest := &mockIngest{accepted: 1}
		jobs := newMockJobs()
		metrics := &mockMetrics{}

		w := newTestIngestor(provider, ingest, jobs, metrics)
		w.RunIngestOnce(context.Background())

		assert.Equal(t, 1, provider.called)
		assert.Equal(t, 1, metrics.successes)
		assert.Equal(t, 1, metrics.lastBars)
		assert.Zero(t, metrics.errors)

		job := jobs.single(t)
		assert.Equal(t, domain.JobStatusCompleted, job.Status)
		assert.Equal(t, 1, job.BarCount)
		assert.Empty(t, job.Error)
	})

	t.Run("provider failure fails the job and records an error", func(t *testing.T) {
		provider := &mockProvider{err: domain.ErrProviderUnavailable}
		jobs := newMockJobs()
		metrics := &mockMetrics{}

		w := newTestIngestor(provider, &mockIngest{}, jobs, metrics)
		w.RunIngestOnce(context.Background())

		assert.Equal(t, 1, metrics.errors)
		assert.Zero(t, metrics.successes)

		job := jobs.single(t)
		assert.Equal(t, domain.JobStatusFailed, job.Status)
		assert.NotEmpty(t, job.Error)
	})

	t.Run("duplicate rejections still complete the job", func(t *testing.T) {
		provider := &mockProvider{bars: []*domain.OHLCVBar{testBar(t)}}
		ingest := &mockIngest{accepted: 0, ingestErr: fmt.Errorf("rejected 2 of 2 bars: %w", errors.Join(
			fmt.Errorf("%w: 14:30", domain.ErrDuplicateTimestamp),
			fmt.Errorf("%w: 14:31", domain.ErrDuplicateTimestamp),
		))}
		jobs := newMockJobs()
		metrics := &mockMetrics{}

		w := newTestIngestor(provider, ingest, jobs, metrics)
		w.RunIngestOnce(context.Background())

		assert.Equal(t, 1, metrics.successes)

		job := jobs.single(t)
		assert.Equal(t, domain.JobStatusCompleted, job.Status)
		assert.NotEmpty(t, job.Error, "rejection detail is kept on the job")
	})

	t.Run("other rejections fail the job", func(t *testing.T) {
		provider := &mockProvider{bars: []*domain.OHLCVBar{testBar(t)}}
		ingest := &mockIngest{accepted: 0, ingestErr: domain.ErrSymbolMismatch}
		jobs := newMockJobs()
		metrics := &mockMetrics{}

		w := newTestIngestor(provider, ingest, jobs, metrics)
		w.RunIngestOnce(context.Background())

		assert.Equal(t, 1, metrics.errors)
		assert.Equal(t, domain.JobStatusFailed, jobs.single(t).Status)
	})

	t.Run("duplicates mixed with other rejections fail the job", func(t *testing.T) {
		provider := &mockProvider{bars: []*domain.OHLCVBar{testBar(t)}}
		ingest := &mockIngest{accepted: 1, ingestErr: fmt.Errorf("rejected 2 of 3 bars: %w", errors.Join(
			fmt.Errorf("%w: 14:30", domain.ErrDuplicateTimestamp),
			fmt.Errorf("%w: got MSFT, want AAPL", domain.ErrSymbolMismatch),
		))}
		jobs := newMockJobs()
		metrics := &mockMetrics{}

		w := newTestIngestor(provider, ingest, jobs, metrics)
		w.RunIngestOnce(context.Background())

		assert.Equal(t, 1, metrics.errors)
		assert.Zero(t, metrics.successes)
		assert.Equal(t, domain.JobStatusFailed, jobs.single(t).Status)
	})
}

func TestIngestor_StartStop(t *testing.T) {
	t.Run("start and stop are clean", func(t *testing.T) {
		w := newTestIngestor(&mockProvider{}, &mockIngest{}, newMockJobs(), &mockMetrics{})

		require.NoError(t, w.Start(context.Background()))
		assert.True(t, w.IsRunning())

		// Starting twice is a no-op.
		require.NoError(t, w.Start(context.Background()))

		require.NoError(t, w.Stop())
		assert.False(t, w.IsRunning())

		// Stopping twice is a no-op.
		require.NoError(t, w.Stop())
	})

	t.Run("invalid schedule fails to start", func(t *testing.T) {
		w := worker.NewIngestor(
			&mockProvider{}, &mockIngest{}, newMockJobs(), &mockMetrics{},
			[]domain.Symbol{domain.MustSymbol("AAPL")},
			"not-a-cron-spec",
			"0 15 21 * * 1-5",
			testLogger(),
		)
		assert.Error(t, w.Start(context.Background()))
		assert.False(t, w.IsRunning())
	})
}
