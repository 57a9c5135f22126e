package domain

import (
	"time"

	"github.com/google/uuid"
)

// Job statuses
const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// IngestionJob tracks one ingestion run for a symbol-day. The
// configuration map is stored JSON-serialized by the repository.
type IngestionJob struct {
	ID          uuid.UUID      `json:"id"`
	Symbol      string         `json:"symbol"`
	TradingDate string         `json:"trading_date"`
	Status      string         `json:"status"`
	Config      map[string]any `json:"config"`
	BarCount    int            `json:"bar_count"`
	Error       string         `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// NewIngestionJob creates a pending job for a symbol-day
func NewIngestionJob(symbol Symbol, date TradingDate, config map[string]any) *IngestionJob {
	now := time.Now().UTC()
	return &IngestionJob{
		ID:          uuid.New(),
		Symbol:      symbol.String(),
		TradingDate: date.String(),
		Status:      JobStatusPending,
		Config:      config,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Metrics represents operational metrics of the ingestion service
type Metrics struct {
	Uptime             float64    `json:"uptime_seconds"`
	TrackedSymbols     int        `json:"tracked_symbols"`
	OpenAggregates     int        `json:"open_aggregates"`
	TotalSummaries     int64      `json:"total_summaries"`
	CompletedJobs      int64      `json:"completed_jobs"`
	FailedJobs         int64      `json:"failed_jobs"`
	LastIngestTime     *time.Time `json:"last_ingest_time,omitempty"`
	LastIngestDuration float64    `json:"last_ingest_duration_ms"`
	IngestSuccessCount int64      `json:"ingest_success_count"`
	IngestErrorCount   int64      `json:"ingest_error_count"`
	BarsIngested       int64      `json:"bars_ingested"`
	DatabaseStatus     string     `json:"database_status"`
	ProviderStatus     string     `json:"provider_status"`
}
