package usecase

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mshra/Multi-Vendor-Service/internal/domain"
	"github.com/mshra/Multi-Vendor-Service/internal/repository"
)

// GetJobUsecase handles the read-only status projection for polling callers.
type GetJobUsecase struct {
	repo   repository.JobRepository
	logger *zap.Logger
}

// NewGetJobUsecase creates a new GetJobUsecase.
func NewGetJobUsecase(repo repository.JobRepository, logger *zap.Logger) *GetJobUsecase {
	return &GetJobUsecase{
		repo:   repo,
		logger: logger,
	}
}

// Execute returns the job's current status, with the result attached only
// once the job is COMPLETE. No partial result is ever exposed.
func (uc *GetJobUsecase) Execute(ctx context.Context, id uuid.UUID) (*domain.StatusResponse, error) {
	job, err := uc.repo.GetByRequestID(ctx, id)
	if err != nil {
		uc.logger.Debug("Job not found", zap.String("request_id", id.String()), zap.Error(err))
		return nil, err
	}

	resp := &domain.StatusResponse{Status: job.Status}
	if job.Status == domain.StatusComplete {
		resp.Result = job.Result
	}
	return resp, nil
}

// Get returns the full job record. Used by the status stream.
func (uc *GetJobUsecase) Get(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	return uc.repo.GetByRequestID(ctx, id)
}
