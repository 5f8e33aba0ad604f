package usecase

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/mshra/Multi-Vendor-Service/internal/domain"
	"github.com/mshra/Multi-Vendor-Service/internal/metrics"
	"github.com/mshra/Multi-Vendor-Service/internal/repository"
)

// CompleteJobUsecase applies an async vendor's webhook callback to the
// matching job, exactly once.
type CompleteJobUsecase struct {
	repo   repository.JobRepository
	logger *zap.Logger
}

// NewCompleteJobUsecase creates a new CompleteJobUsecase.
func NewCompleteJobUsecase(repo repository.JobRepository, logger *zap.Logger) *CompleteJobUsecase {
	return &CompleteJobUsecase{
		repo:   repo,
		logger: logger,
	}
}

// Execute marks the job COMPLETE with the vendor's final data. Repeated
// callbacks for an already-COMPLETE job are no-ops; the result is written
// once. A callback racing the worker's failure path loses: a FAILED job stays
// FAILED (first write wins) and the late webhook is dropped with a warning.
func (uc *CompleteJobUsecase) Execute(ctx context.Context, req *domain.WebhookRequest) error {
	err := uc.repo.Complete(ctx, req.RequestID, req.FinalData)
	switch {
	case err == nil:
		metrics.WebhooksApplied.WithLabelValues("applied").Inc()
		uc.logger.Info("Webhook result applied",
			zap.String("request_id", req.RequestID.String()),
		)
		return nil

	case errors.Is(err, domain.ErrJobFinalized):
		metrics.WebhooksApplied.WithLabelValues("dropped").Inc()
		uc.logger.Warn("Webhook arrived for a failed job, dropping callback",
			zap.String("request_id", req.RequestID.String()),
		)
		// Reported as success so the vendor stops retrying a lost race.
		return nil

	case errors.Is(err, domain.ErrJobNotFound):
		metrics.WebhooksApplied.WithLabelValues("not_found").Inc()
		return err

	default:
		metrics.WebhooksApplied.WithLabelValues("error").Inc()
		uc.logger.Error("Failed to apply webhook result",
			zap.Error(err),
			zap.String("request_id", req.RequestID.String()),
		)
		return err
	}
}
