package mock

import (
	"context"
	"net/http"
	"sync"

	"github.com/mshra/Multi-Vendor-Service/internal/domain"
	"github.com/mshra/Multi-Vendor-Service/internal/vendorclient"
)

var _ vendorclient.Client = (*Client)(nil)

// Client is a test double for vendorclient.Client.
type Client struct {
	mu sync.Mutex

	CallFn func(ctx context.Context, job *domain.Job) (*vendorclient.Response, error)

	Calls []*domain.Job
}

func (m *Client) Call(ctx context.Context, job *domain.Job) (*vendorclient.Response, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, job)
	m.mu.Unlock()
	if m.CallFn != nil {
		return m.CallFn(ctx, job)
	}
	return &vendorclient.Response{StatusCode: http.StatusOK, Body: []byte(`{}`)}, nil
}

// CallCount returns how many vendor calls were made.
func (m *Client) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
