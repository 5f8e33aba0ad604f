package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/mshra/Multi-Vendor-Service/internal/domain"
)

// JobRepository defines the interface for job persistence operations.
// Implementations must be safe for concurrent use.
type JobRepository interface {
	// Create inserts a new job into the data store.
	Create(ctx context.Context, job *domain.Job) error

	// GetByRequestID retrieves a job by its request ID.
	GetByRequestID(ctx context.Context, id uuid.UUID) (*domain.Job, error)

	// MarkProcessing moves a job to PROCESSING. The transition is guarded:
	// a job already in a terminal state is left untouched and
	// domain.ErrJobFinalized is returned, so redelivered messages can never
	// regress a finished job.
	MarkProcessing(ctx context.Context, id uuid.UUID) error

	// Complete sets status COMPLETE and writes the result exactly once.
	// Applying it to a job that is already COMPLETE is a no-op; applying it
	// to a FAILED job returns domain.ErrJobFinalized.
	Complete(ctx context.Context, id uuid.UUID, result json.RawMessage) error

	// Fail moves a job to FAILED. Terminal jobs are left untouched.
	Fail(ctx context.Context, id uuid.UUID) error

	// Delete removes a job record. Reserved for the compensating rollback
	// of a failed enqueue; no other component deletes jobs.
	Delete(ctx context.Context, id uuid.UUID) error
}

// IdempotencyStore defines the interface for distributed deduplication locks
// guarding against concurrent redelivery of the same dispatch message.
type IdempotencyStore interface {
	// AcquireLock attempts to acquire an exclusive dispatch lock for a job.
	// Returns true if the lock was acquired (first time), false if already
	// locked (duplicate in flight).
	AcquireLock(ctx context.Context, requestID uuid.UUID) (bool, error)

	// ReleaseLock releases the dispatch lock with a TTL for eventual cleanup.
	ReleaseLock(ctx context.Context, requestID uuid.UUID) error
}
