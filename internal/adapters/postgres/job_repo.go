package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/barstream/ohlcv-aggregation-service/internal/domain"
	"github.com/barstream/ohlcv-aggregation-service/internal/ports"
)

// JobRepository implements the ports.JobRepository interface
type JobRepository struct {
	db *DB
}

// NewJobRepository creates a PostgreSQL job repository
func NewJobRepository(db *DB) ports.JobRepository {
	return &JobRepository{db: db}
}

// Create stores a new job
func (r *JobRepository) Create(ctx context.Context, job *domain.IngestionJob) error {
	configJSON, err := json.Marshal(job.Config)
	if err != nil {
		return fmt.Errorf("failed to encode job config: %w", err)
	}

	query := `
		INSERT INTO ingestion_jobs (id, symbol, trading_date, status, config, bar_count, error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = r.db.Pool.Exec(ctx, query,
		job.ID.String(),
		job.Symbol,
		job.TradingDate,
		job.Status,
		configJSON,
		job.BarCount,
		job.Error,
		job.CreatedAt,
		job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}

	return nil
}

// Update persists status, bar count and error of an existing job
func (r *JobRepository) Update(ctx context.Context, job *domain.IngestionJob) error {
	job.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE ingestion_jobs
		SET status = $2, bar_count = $3, error = $4, updated_at = $5
		WHERE id = $1
	`

	tag, err := r.db.Pool.Exec(ctx, query,
		job.ID.String(),
		job.Status,
		job.BarCount,
		job.Error,
		job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrJobNotFound
	}

	return nil
}

// GetByID retrieves a job by its identifier
func (r *JobRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.IngestionJob, error) {
	query := `
		SELECT id, symbol, trading_date, status, config, bar_count, error, created_at, updated_at
		FROM ingestion_jobs
		WHERE id = $1
	`

	job, err := scanJob(r.db.Pool.QueryRow(ctx, query, id.String()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return job, nil
}

// ListRecent returns the most recently created jobs
func (r *JobRepository) ListRecent(ctx context.Context, limit int) ([]*domain.IngestionJob, error) {
	query := `
		SELECT id, symbol, trading_date, status, config, bar_count, error, created_at, updated_at
		FROM ingestion_jobs
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.db.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*domain.IngestionJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, job)
	}

	return jobs, rows.Err()
}

// CountByStatus returns the number of jobs in the given status
func (r *JobRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	err := r.db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM ingestion_jobs WHERE status = $1`, status).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count jobs: %w", err)
	}
	return count, nil
}

func scanJob(row pgx.Row) (*domain.IngestionJob, error) {
	var (
		idStr      string
		configJSON []byte
		job        domain.IngestionJob
	)

	if err := row.Scan(&idStr, &job.Symbol, &job.TradingDate, &job.Status,
		&configJSON, &job.BarCount, &job.Error, &job.CreatedAt, &job.UpdatedAt); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("invalid job id %q: %w", idStr, err)
	}
	job.ID = id

	if len(configJSON) > 0 {
		if err := json.Unmarshal(configJSON, &job.Config); err != nil {
			return nil, fmt.Errorf("invalid job config: %w", err)
		}
	}

	return &job, nil
}
