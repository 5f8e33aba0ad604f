package pool

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mshra/Multi-Vendor-Service/internal/backoff"
	"github.com/mshra/Multi-Vendor-Service/internal/domain"
	"github.com/mshra/Multi-Vendor-Service/internal/ratelimit"
	mockrepo "github.com/mshra/Multi-Vendor-Service/internal/repository/mock"
	"github.com/mshra/Multi-Vendor-Service/internal/usecase"
	"github.com/mshra/Multi-Vendor-Service/internal/vendorclient"
	mockvendor "github.com/mshra/Multi-Vendor-Service/internal/vendorclient/mock"
)

// ackRecorder tracks the broker acknowledgement a worker settles a
// delivery with.
type ackRecorder struct {
	mu       sync.Mutex
	acked    bool
	nacked   bool
	requeued bool
	done     chan struct{}
}

func newAckRecorder() *ackRecorder {
	return &ackRecorder{done: make(chan struct{})}
}

func (r *ackRecorder) message(job *domain.Job) *domain.JobMessage {
	return &domain.JobMessage{
		Job: job,
		Ack: func() error {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.acked = true
			close(r.done)
			return nil
		},
		Nack: func(requeue bool) error {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.nacked = true
			r.requeued = requeue
			close(r.done)
			return nil
		},
	}
}

func (r *ackRecorder) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker never settled the delivery")
	}
}

func newPoolFixture(client *mockvendor.Client, repo *mockrepo.JobRepository) (*WorkerPool, chan *domain.JobMessage) {
	uc := usecase.NewDispatchJobUsecase(
		repo,
		&mockrepo.IdempotencyStore{},
		client,
		ratelimit.NewVendorLimiter(2),
		backoff.NewExponential(time.Millisecond, 2*time.Millisecond),
		3,
		zap.NewNop(),
	)
	jobs := make(chan *domain.JobMessage, 4)
	return NewWorkerPool(2, jobs, uc, zap.NewNop()), jobs
}

func seedJob(t *testing.T, repo *mockrepo.JobRepository) *domain.Job {
	t.Helper()
	job := &domain.Job{
		RequestID: uuid.New(),
		Vendor:    domain.VendorSync,
		Status:    domain.StatusPending,
		JobData:   json.RawMessage(`{"x":1}`),
	}
	if err := repo.Create(context.Background(), job); err != nil {
		t.Fatal(err)
	}
	return job
}

func TestWorkerPool_AcksHandledDispatch(t *testing.T) {
	client := &mockvendor.Client{
		CallFn: func(ctx context.Context, job *domain.Job) (*vendorclient.Response, error) {
			return &vendorclient.Response{StatusCode: http.StatusOK, Body: []byte(`{"ok":true}`)}, nil
		},
	}
	repo := mockrepo.NewJobRepository()
	pool, jobs := newPoolFixture(client, repo)
	job := seedJob(t, repo)

	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)

	rec := newAckRecorder()
	jobs <- rec.message(job)
	rec.wait(t)

	cancel()
	close(jobs)
	pool.Stop()

	if !rec.acked {
		t.Error("handled dispatch must be acked")
	}
	stored, _ := repo.GetByRequestID(context.Background(), job.RequestID)
	if stored.Status != domain.StatusComplete {
		t.Errorf("expected COMPLETE, got %s", stored.Status)
	}
}

func TestWorkerPool_AcksHandledFailure(t *testing.T) {
	client := &mockvendor.Client{
		CallFn: func(ctx context.Context, job *domain.Job) (*vendorclient.Response, error) {
			return &vendorclient.Response{StatusCode: http.StatusBadGateway}, nil
		},
	}
	repo := mockrepo.NewJobRepository()
	pool, jobs := newPoolFixture(client, repo)
	job := seedJob(t, repo)

	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)

	rec := newAckRecorder()
	jobs <- rec.message(job)
	rec.wait(t)

	cancel()
	close(jobs)
	pool.Stop()

	// The job is marked FAILED in the store, so the delivery is done.
	if !rec.acked {
		t.Error("a handled vendor failure must be acked, not redelivered")
	}
	stored, _ := repo.GetByRequestID(context.Background(), job.RequestID)
	if stored.Status != domain.StatusFailed {
		t.Errorf("expected FAILED, got %s", stored.Status)
	}
}

func TestWorkerPool_NacksWithRequeueOnStoreFault(t *testing.T) {
	client := &mockvendor.Client{}
	repo := mockrepo.NewJobRepository()
	pool, jobs := newPoolFixture(client, repo)
	job := seedJob(t, repo)

	repo.MarkProcessingFn = func(ctx context.Context, id uuid.UUID) error {
		return errors.New("connection reset")
	}

	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)

	rec := newAckRecorder()
	jobs <- rec.message(job)
	rec.wait(t)

	cancel()
	close(jobs)
	pool.Stop()

	if !rec.nacked {
		t.Fatal("a store fault must nack the delivery")
	}
	if !rec.requeued {
		t.Error("the nack must request redelivery")
	}
	if client.CallCount() != 0 {
		t.Error("no vendor call may happen when the claim fails")
	}
}

func TestWorkerPool_AcksDuplicateDelivery(t *testing.T) {
	client := &mockvendor.Client{
		CallFn: func(ctx context.Context, job *domain.Job) (*vendorclient.Response, error) {
			return &vendorclient.Response{StatusCode: http.StatusOK, Body: []byte(`{"ok":true}`)}, nil
		},
	}
	repo := mockrepo.NewJobRepository()
	pool, jobs := newPoolFixture(client, repo)
	job := seedJob(t, repo)

	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)

	first := newAckRecorder()
	jobs <- first.message(job)
	first.wait(t)

	// Redelivery of the now-terminal job.
	second := newAckRecorder()
	jobs <- second.message(job)
	second.wait(t)

	cancel()
	close(jobs)
	pool.Stop()

	if !second.acked {
		t.Error("a duplicate delivery must be acked to drop it")
	}
	if client.CallCount() != 1 {
		t.Errorf("expected a single vendor call, got %d", client.CallCount())
	}
}

func TestWorkerPool_PanicDeadLettersOnlyThatDelivery(t *testing.T) {
	repo := mockrepo.NewJobRepository()
	poison := seedJob(t, repo)
	healthy := seedJob(t, repo)

	client := &mockvendor.Client{
		CallFn: func(ctx context.Context, job *domain.Job) (*vendorclient.Response, error) {
			if job.RequestID == poison.RequestID {
				panic("unexpected vendor payload shape")
			}
			return &vendorclient.Response{StatusCode: http.StatusOK, Body: []byte(`{"ok":true}`)}, nil
		},
	}
	pool, jobs := newPoolFixture(client, repo)

	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)

	first := newAckRecorder()
	jobs <- first.message(poison)
	first.wait(t)

	// The same worker pool must keep dispatching after the panic.
	second := newAckRecorder()
	jobs <- second.message(healthy)
	second.wait(t)

	cancel()
	close(jobs)
	pool.Stop()

	if !first.nacked {
		t.Fatal("a panicking dispatch must nack its delivery")
	}
	if first.requeued {
		t.Error("the panicking delivery must be dead-lettered, not requeued")
	}
	if !second.acked {
		t.Error("the worker loop must survive a panicking delivery")
	}
	stored, _ := repo.GetByRequestID(context.Background(), healthy.RequestID)
	if stored.Status != domain.StatusComplete {
		t.Errorf("expected COMPLETE for the healthy job, got %s", stored.Status)
	}
}

func TestWorkerPool_DrainsOnChannelClose(t *testing.T) {
	client := &mockvendor.Client{
		CallFn: func(ctx context.Context, job *domain.Job) (*vendorclient.Response, error) {
			return &vendorclient.Response{StatusCode: http.StatusOK, Body: []byte(`{}`)}, nil
		},
	}
	repo := mockrepo.NewJobRepository()
	pool, jobs := newPoolFixture(client, repo)

	pool.Start(context.Background())

	recs := make([]*ackRecorder, 3)
	for i := range recs {
		recs[i] = newAckRecorder()
		jobs <- recs[i].message(seedJob(t, repo))
	}
	close(jobs)
	pool.Stop()

	for i, rec := range recs {
		if !rec.acked {
			t.Errorf("delivery %d not settled before shutdown", i)
		}
	}
}
