package mock

import (
	"context"

	"github.com/mshra/Multi-Vendor-Service/internal/domain"
	"github.com/mshra/Multi-Vendor-Service/internal/publisher"
)

// Ensure Publisher implements publisher.Publisher.
var _ publisher.Publisher = (*Publisher)(nil)

// Publisher is a mock message publisher for testing.
type Publisher struct {
	Published []*domain.Job
	PublishFn func(ctx context.Context, job *domain.Job) error
}

// NewPublisher creates a new mock publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

func (m *Publisher) Publish(ctx context.Context, job *domain.Job) error {
	if m.PublishFn != nil {
		return m.PublishFn(ctx, job)
	}
	m.Published = append(m.Published, job)
	return nil
}

func (m *Publisher) Close() error {
	return nil
}
