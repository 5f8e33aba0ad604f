package mock

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"github.com/mshra/Multi-Vendor-Service/internal/domain"
	"github.com/mshra/Multi-Vendor-Service/internal/repository"
)

// Ensure JobRepository implements repository.JobRepository.
var _ repository.JobRepository = (*JobRepository)(nil)

// JobRepository is an in-memory test double for repository.JobRepository.
// It enforces the same monotonic status guards as the Postgres implementation.
type JobRepository struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]*domain.Job

	// Hook functions for injecting errors.
	CreateFn         func(ctx context.Context, job *domain.Job) error
	GetByRequestIDFn func(ctx context.Context, id uuid.UUID) (*domain.Job, error)
	MarkProcessingFn func(ctx context.Context, id uuid.UUID) error
	CompleteFn       func(ctx context.Context, id uuid.UUID, result json.RawMessage) error
	FailFn           func(ctx context.Context, id uuid.UUID) error
	DeleteFn         func(ctx context.Context, id uuid.UUID) error

	// Recorded status transitions per job, for state-machine assertions.
	Transitions map[uuid.UUID][]domain.JobStatus
}

// NewJobRepository creates a new mock repository.
func NewJobRepository() *JobRepository {
	return &JobRepository{
		jobs:        make(map[uuid.UUID]*domain.Job),
		Transitions: make(map[uuid.UUID][]domain.JobStatus),
	}
}

func (m *JobRepository) Create(ctx context.Context, job *domain.Job) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, job)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *job
	m.jobs[job.RequestID] = &cp
	m.Transitions[job.RequestID] = append(m.Transitions[job.RequestID], job.Status)
	return nil
}

func (m *JobRepository) GetByRequestID(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	if m.GetByRequestIDFn != nil {
		return m.GetByRequestIDFn(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	cp := *job
	return &cp, nil
}

func (m *JobRepository) MarkProcessing(ctx context.Context, id uuid.UUID) error {
	if m.MarkProcessingFn != nil {
		return m.MarkProcessingFn(ctx, id)
	}
	return m.transition(id, domain.StatusProcessing, nil)
}

func (m *JobRepository) Complete(ctx context.Context, id uuid.UUID, result json.RawMessage) error {
	if m.CompleteFn != nil {
		return m.CompleteFn(ctx, id, result)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return domain.ErrJobNotFound
	}
	if job.Status == domain.StatusComplete {
		return nil // idempotent re-application
	}
	if job.Status.IsTerminal() {
		return domain.ErrJobFinalized
	}
	job.Status = domain.StatusComplete
	job.Result = result
	m.Transitions[id] = append(m.Transitions[id], domain.StatusComplete)
	return nil
}

func (m *JobRepository) Fail(ctx context.Context, id uuid.UUID) error {
	if m.FailFn != nil {
		return m.FailFn(ctx, id)
	}
	return m.transition(id, domain.StatusFailed, nil)
}

func (m *JobRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[id]; !ok {
		return domain.ErrJobNotFound
	}
	delete(m.jobs, id)
	return nil
}

func (m *JobRepository) transition(id uuid.UUID, status domain.JobStatus, result json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return domain.ErrJobNotFound
	}
	if job.Status.IsTerminal() {
		return domain.ErrJobFinalized
	}
	job.Status = status
	if result != nil {
		job.Result = result
	}
	m.Transitions[id] = append(m.Transitions[id], status)
	return nil
}

// GetAll returns all stored jobs (for test assertions).
func (m *JobRepository) GetAll() []*domain.Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Job, 0, len(m.jobs))
	for _, j := range m.jobs {
		result = append(result, j)
	}
	return result
}
