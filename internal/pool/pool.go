package pool

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/mshra/Multi-Vendor-Service/internal/domain"
	"github.com/mshra/Multi-Vendor-Service/internal/metrics"
	"github.com/mshra/Multi-Vendor-Service/internal/usecase"
)

// WorkerPool manages a fixed-size pool of goroutines that run the dispatch
// protocol for queued jobs.
type WorkerPool struct {
	size       int
	jobs       <-chan *domain.JobMessage
	dispatchUC *usecase.DispatchJobUsecase
	logger     *zap.Logger
	wg         sync.WaitGroup
}

// NewWorkerPool creates a new fixed-size worker pool.
func NewWorkerPool(size int, jobs <-chan *domain.JobMessage, dispatchUC *usecase.DispatchJobUsecase, logger *zap.Logger) *WorkerPool {
	return &WorkerPool{
		size:       size,
		jobs:       jobs,
		dispatchUC: dispatchUC,
		logger:     logger,
	}
}

// Start launches all worker goroutines. Call Stop to wait for them to finish.
func (p *WorkerPool) Start(ctx context.Context) {
	p.logger.Info("Starting worker pool", zap.Int("pool_size", p.size))

	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

// Stop waits for all workers to finish their current jobs and exit. In-flight
// dispatches are drained, never abandoned mid-update.
func (p *WorkerPool) Stop() {
	p.wg.Wait()
	p.logger.Info("Worker pool stopped")
}

func (p *WorkerPool) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	p.logger.Debug("Worker started", zap.Int("worker_id", id))

	for {
		select {
		case <-ctx.Done():
			p.logger.Debug("Worker shutting down", zap.Int("worker_id", id))
			return
		case msg, ok := <-p.jobs:
			if !ok {
				p.logger.Debug("Job channel closed", zap.Int("worker_id", id))
				return
			}
			p.handle(ctx, id, msg)
		}
	}
}

// handle dispatches one message and settles its acknowledgement. Recovery is
// scoped to the message: a panic dead-letters that delivery and the worker
// loop keeps running.
func (p *WorkerPool) handle(ctx context.Context, id int, msg *domain.JobMessage) {
	job := msg.Job

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Dispatch panicked",
				zap.Int("worker_id", id),
				zap.String("request_id", job.RequestID.String()),
				zap.Any("panic", r),
			)
			// A message that panics the dispatcher would panic it again on
			// redelivery; route it to the dead-letter queue instead.
			if nackErr := msg.Nack(false); nackErr != nil {
				p.logger.Error("Failed to NACK message after panic",
					zap.String("request_id", job.RequestID.String()),
					zap.Error(nackErr),
				)
			}
		}
	}()

	p.logger.Info("Worker dispatching job",
		zap.Int("worker_id", id),
		zap.String("request_id", job.RequestID.String()),
		zap.String("vendor", string(job.Vendor)),
	)

	metrics.WorkersActive.Inc()
	defer metrics.WorkersActive.Dec()

	isDuplicate, err := p.dispatchUC.Execute(ctx, job)
	if err != nil {
		p.logger.Error("Dispatch hit an internal fault",
			zap.Int("worker_id", id),
			zap.String("request_id", job.RequestID.String()),
			zap.Error(err),
		)

		// Unexpected fault (store or lock failure, shutdown):
		// requeue so the broker redelivers once the fault clears.
		// Handled vendor failures never reach here; they are acked
		// after the job is marked FAILED.
		if nackErr := msg.Nack(true); nackErr != nil {
			p.logger.Error("Failed to NACK message",
				zap.String("request_id", job.RequestID.String()),
				zap.Error(nackErr),
			)
		}
		return
	}

	if isDuplicate {
		p.logger.Debug("Duplicate dispatch skipped",
			zap.Int("worker_id", id),
			zap.String("request_id", job.RequestID.String()),
		)
	}

	// Handled (success, handled failure, or duplicate) — ACK.
	if ackErr := msg.Ack(); ackErr != nil {
		p.logger.Error("Failed to ACK message after dispatch",
			zap.String("request_id", job.RequestID.String()),
			zap.Error(ackErr),
		)
	}
}
