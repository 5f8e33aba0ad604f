package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mshra/Multi-Vendor-Service/internal/backoff"
	"github.com/mshra/Multi-Vendor-Service/internal/domain"
	"github.com/mshra/Multi-Vendor-Service/internal/metrics"
	"github.com/mshra/Multi-Vendor-Service/internal/ratelimit"
	"github.com/mshra/Multi-Vendor-Service/internal/repository"
	"github.com/mshra/Multi-Vendor-Service/internal/sanitize"
	"github.com/mshra/Multi-Vendor-Service/internal/vendorclient"
)

// DefaultMaxAttempts is the vendor call attempt ceiling per dispatch.
const DefaultMaxAttempts = 3

// DispatchJobUsecase runs the per-message dispatch protocol: mark the job
// PROCESSING, re-read the authoritative record, call the vendor under the
// rate limiter with bounded retry, and finalize state for sync vendors.
type DispatchJobUsecase struct {
	repo        repository.JobRepository
	idempotent  repository.IdempotencyStore
	vendor      vendorclient.Client
	limiter     *ratelimit.VendorLimiter
	strategy    backoff.Strategy
	maxAttempts int
	logger      *zap.Logger
}

// NewDispatchJobUsecase creates a new DispatchJobUsecase.
func NewDispatchJobUsecase(
	repo repository.JobRepository,
	idempotent repository.IdempotencyStore,
	client vendorclient.Client,
	limiter *ratelimit.VendorLimiter,
	strategy backoff.Strategy,
	maxAttempts int,
	logger *zap.Logger,
) *DispatchJobUsecase {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if strategy == nil {
		strategy = backoff.DefaultStrategy()
	}
	return &DispatchJobUsecase{
		repo:        repo,
		idempotent:  idempotent,
		vendor:      client,
		limiter:     limiter,
		strategy:    strategy,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// Execute processes one dispatch message. Returns (isDuplicate, error). A nil
// error means the message was handled (including handled vendor failures that
// mark the job FAILED) and must be acked. A non-nil error means an unexpected
// internal fault; the caller nacks with requeue so the broker redelivers.
func (uc *DispatchJobUsecase) Execute(ctx context.Context, msg *domain.Job) (bool, error) {
	id := msg.RequestID
	log := uc.logger.With(zap.String("request_id", id.String()))

	// Step 1: announce PROCESSING. The repository guard makes this a no-op
	// for terminal jobs, so at-least-once redelivery never regresses state.
	if err := uc.repo.MarkProcessing(ctx, id); err != nil {
		switch {
		case errors.Is(err, domain.ErrJobFinalized):
			log.Info("Redelivered message for a finished job, skipping")
			metrics.DispatchesTotal.WithLabelValues(string(msg.Vendor), "duplicate").Inc()
			return true, nil
		case errors.Is(err, domain.ErrJobNotFound):
			// The record was rolled back after enqueue or never existed;
			// redelivery cannot help.
			log.Warn("Dispatch message references an unknown job, dropping")
			metrics.DispatchesTotal.WithLabelValues(string(msg.Vendor), "unknown_job").Inc()
			return true, nil
		default:
			return false, fmt.Errorf("mark processing: %w", err)
		}
	}

	// Step 2: re-read the full record. The message is only a trigger; the
	// store is authoritative for dispatch details.
	job, err := uc.repo.GetByRequestID(ctx, id)
	if err != nil {
		return false, fmt.Errorf("reload job: %w", err)
	}
	if job.Status.IsTerminal() {
		log.Info("Job finished between redeliveries, skipping")
		return true, nil
	}

	// Step 3: dedupe concurrent deliveries of the same message.
	acquired, err := uc.idempotent.AcquireLock(ctx, id)
	if err != nil {
		return false, fmt.Errorf("acquire dispatch lock: %w", err)
	}
	if !acquired {
		log.Info("Duplicate delivery in flight, skipping")
		metrics.DispatchesTotal.WithLabelValues(string(job.Vendor), "duplicate").Inc()
		return true, nil
	}
	defer func() {
		_ = uc.idempotent.ReleaseLock(ctx, id)
	}()

	// Step 4: per-vendor concurrency gate.
	if err := uc.limiter.Acquire(ctx, job.Vendor); err != nil {
		return false, fmt.Errorf("acquire vendor slot: %w", err)
	}
	defer uc.limiter.Release(job.Vendor)

	// Step 5: call the vendor with bounded retry.
	resp, err := uc.callWithRetry(ctx, job, log)
	if err != nil {
		// A cancelled context (worker shutdown, deadline) is an internal
		// fault, not a vendor verdict: propagate so the message is nacked
		// with requeue and the job survives for the next delivery.
		if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return false, fmt.Errorf("vendor call interrupted: %w", err)
		}

		// Transport retries exhausted: a terminal business failure, not an
		// internal fault. Record FAILED and let the message be acked.
		log.Warn("Vendor call retries exhausted", zap.Error(err))
		if failErr := uc.repo.Fail(ctx, id); failErr != nil && !errors.Is(failErr, domain.ErrJobFinalized) {
			return false, fmt.Errorf("mark failed: %w", failErr)
		}
		metrics.DispatchesTotal.WithLabelValues(string(job.Vendor), "transport_failed").Inc()
		return false, nil
	}

	// Step 6: branch on vendor response style.
	return false, uc.finalize(ctx, job, resp, log)
}

func (uc *DispatchJobUsecase) callWithRetry(ctx context.Context, job *domain.Job, log *zap.Logger) (*vendorclient.Response, error) {
	var lastErr error
	for attempt := 1; attempt <= uc.maxAttempts; attempt++ {
		start := time.Now()
		resp, err := uc.vendor.Call(ctx, job)
		metrics.VendorCallDuration.WithLabelValues(string(job.Vendor)).Observe(time.Since(start).Seconds())
		if err == nil {
			return resp, nil
		}

		lastErr = err
		log.Warn("Vendor call failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", uc.maxAttempts),
			zap.Error(err),
		)

		if attempt == uc.maxAttempts {
			break
		}

		delay := uc.strategy.Delay(attempt)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

func (uc *DispatchJobUsecase) finalize(ctx context.Context, job *domain.Job, resp *vendorclient.Response, log *zap.Logger) error {
	id := job.RequestID

	switch job.Vendor {
	case domain.VendorSync:
		if resp.StatusCode == http.StatusOK {
			result := sanitize.Result(resp.Body)
			if err := uc.repo.Complete(ctx, id, result); err != nil {
				return fmt.Errorf("complete job: %w", err)
			}
			metrics.DispatchesTotal.WithLabelValues(string(job.Vendor), "complete").Inc()
			log.Info("Job completed from sync vendor response")
			return nil
		}
		log.Warn("Sync vendor rejected job", zap.Int("status_code", resp.StatusCode))

	case domain.VendorAsync:
		if resp.StatusCode == http.StatusAccepted {
			// Completion is deferred to the webhook; the job stays
			// PROCESSING.
			metrics.DispatchesTotal.WithLabelValues(string(job.Vendor), "accepted").Inc()
			log.Info("Job accepted by async vendor, awaiting webhook")
			return nil
		}
		// The vendor never accepted the work, so no webhook will arrive.
		log.Warn("Async vendor rejected job", zap.Int("status_code", resp.StatusCode))

	default:
		log.Error("Job carries an unknown vendor", zap.String("vendor", string(job.Vendor)))
	}

	if err := uc.repo.Fail(ctx, id); err != nil && !errors.Is(err, domain.ErrJobFinalized) {
		return fmt.Errorf("mark failed: %w", err)
	}
	metrics.DispatchesTotal.WithLabelValues(string(job.Vendor), "failed").Inc()
	return nil
}
