package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mshra/Multi-Vendor-Service/internal/domain"
	"github.com/mshra/Multi-Vendor-Service/internal/metrics"
	"github.com/mshra/Multi-Vendor-Service/internal/publisher"
	"github.com/mshra/Multi-Vendor-Service/internal/repository"
)

// SubmitJobUsecase handles job submission: a saga-style dual write of the job
// record and the dispatch message, with a compensating delete when the
// publish half fails.
type SubmitJobUsecase struct {
	repo      repository.JobRepository
	publisher publisher.Publisher
	logger    *zap.Logger
}

// NewSubmitJobUsecase creates a new SubmitJobUsecase.
func NewSubmitJobUsecase(repo repository.JobRepository, pub publisher.Publisher, logger *zap.Logger) *SubmitJobUsecase {
	return &SubmitJobUsecase{
		repo:      repo,
		publisher: pub,
		logger:    logger,
	}
}

// Execute validates the submission, persists a PENDING job, publishes the
// dispatch message, and returns the request ID. The store insert happens
// before the publish: a record visible to status queries before it is
// dispatchable beats a dispatchable message with no record to update.
func (uc *SubmitJobUsecase) Execute(ctx context.Context, req *domain.SubmitRequest) (*domain.SubmitResponse, error) {
	if !req.Vendor.IsValid() {
		return nil, domain.ErrInvalidVendor
	}

	// Generate UUIDv7 (time-ordered)
	requestID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate UUIDv7: %w", err)
	}

	job := &domain.Job{
		RequestID: requestID,
		Vendor:    req.Vendor,
		Status:    domain.StatusPending,
		JobData:   req.Data,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	if err := uc.repo.Create(ctx, job); err != nil {
		uc.logger.Error("Failed to create job in database", zap.Error(err), zap.String("request_id", requestID.String()))
		return nil, fmt.Errorf("create job: %w", err)
	}

	if err := uc.publisher.Publish(ctx, job); err != nil {
		uc.logger.Error("Failed to publish dispatch message", zap.Error(err), zap.String("request_id", requestID.String()))

		// Compensating delete: a job that failed to enqueue must not remain
		// in the store. Best effort only; if the delete itself fails the
		// orphan PENDING record is logged and left for reconciliation.
		if delErr := uc.repo.Delete(ctx, requestID); delErr != nil {
			uc.logger.Error("Failed to roll back job after publish failure",
				zap.Error(delErr),
				zap.String("request_id", requestID.String()),
			)
		} else {
			metrics.SubmissionRollbacks.Inc()
			uc.logger.Info("Rolled back job after publish failure", zap.String("request_id", requestID.String()))
		}
		return nil, domain.ErrPublishFailed
	}

	metrics.JobsSubmitted.WithLabelValues(string(req.Vendor)).Inc()
	uc.logger.Info("Job submitted",
		zap.String("request_id", requestID.String()),
		zap.String("vendor", string(req.Vendor)),
	)

	return &domain.SubmitResponse{
		RequestID: requestID,
		Status:    string(domain.StatusPending),
	}, nil
}
