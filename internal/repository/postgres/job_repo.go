package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mshra/Multi-Vendor-Service/internal/domain"
	"github.com/mshra/Multi-Vendor-Service/internal/repository"
)

// Ensure pgJobRepo implements repository.JobRepository.
var _ repository.JobRepository = (*pgJobRepo)(nil)

type pgJobRepo struct {
	pool *pgxpool.Pool
}

// NewPostgresJobRepository creates a new PostgreSQL-backed job repository.
func NewPostgresJobRepository(pool *pgxpool.Pool) repository.JobRepository {
	return &pgJobRepo{pool: pool}
}

func (r *pgJobRepo) Create(ctx context.Context, job *domain.Job) error {
	query := `
		INSERT INTO fetch_jobs (request_id, vendor, status, job_data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	now := time.Now().UTC()
	_, err := r.pool.Exec(ctx, query,
		job.RequestID, job.Vendor, job.Status, job.JobData, now, now,
	)
	if err != nil {
		return fmt.Errorf("postgres: create job: %w", err)
	}
	job.CreatedAt = now
	job.UpdatedAt = now
	return nil
}

func (r *pgJobRepo) GetByRequestID(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	query := `
		SELECT request_id, vendor, status, job_data, result, created_at, updated_at
		FROM fetch_jobs
		WHERE request_id = $1`

	job := &domain.Job{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&job.RequestID, &job.Vendor, &job.Status,
		&job.JobData, &job.Result,
		&job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("postgres: get job by request id: %w", err)
	}
	return job, nil
}

func (r *pgJobRepo) MarkProcessing(ctx context.Context, id uuid.UUID) error {
	// The status guard keeps terminal states immutable under redelivery.
	query := `
		UPDATE fetch_jobs
		SET status = $1, updated_at = $2
		WHERE request_id = $3 AND status IN ($4, $5)`

	tag, err := r.pool.Exec(ctx, query,
		domain.StatusProcessing, time.Now().UTC(), id,
		domain.StatusPending, domain.StatusProcessing,
	)
	if err != nil {
		return fmt.Errorf("postgres: mark processing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.classifyGuardMiss(ctx, id)
	}
	return nil
}

func (r *pgJobRepo) Complete(ctx context.Context, id uuid.UUID, result json.RawMessage) error {
	query := `
		UPDATE fetch_jobs
		SET status = $1, result = $2, updated_at = $3
		WHERE request_id = $4 AND status IN ($5, $6)`

	tag, err := r.pool.Exec(ctx, query,
		domain.StatusComplete, result, time.Now().UTC(), id,
		domain.StatusPending, domain.StatusProcessing,
	)
	if err != nil {
		return fmt.Errorf("postgres: complete job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// A repeated completion (vendor retried its callback) is a no-op;
		// only a FAILED job rejects the write.
		err := r.classifyGuardMiss(ctx, id)
		if errors.Is(err, domain.ErrJobFinalized) {
			job, getErr := r.GetByRequestID(ctx, id)
			if getErr == nil && job.Status == domain.StatusComplete {
				return nil
			}
		}
		return err
	}
	return nil
}

func (r *pgJobRepo) Fail(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE fetch_jobs
		SET status = $1, updated_at = $2
		WHERE request_id = $3 AND status IN ($4, $5)`

	tag, err := r.pool.Exec(ctx, query,
		domain.StatusFailed, time.Now().UTC(), id,
		domain.StatusPending, domain.StatusProcessing,
	)
	if err != nil {
		return fmt.Errorf("postgres: fail job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.classifyGuardMiss(ctx, id)
	}
	return nil
}

func (r *pgJobRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM fetch_jobs WHERE request_id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: delete job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}

// classifyGuardMiss distinguishes a missing row from a terminal-state guard
// rejection after a conditional update touched zero rows.
func (r *pgJobRepo) classifyGuardMiss(ctx context.Context, id uuid.UUID) error {
	var status domain.JobStatus
	err := r.pool.QueryRow(ctx,
		`SELECT status FROM fetch_jobs WHERE request_id = $1`, id,
	).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrJobNotFound
		}
		return fmt.Errorf("postgres: read status: %w", err)
	}
	if status.IsTerminal() {
		return domain.ErrJobFinalized
	}
	return domain.ErrJobNotFound
}
