package vendorclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mshra/Multi-Vendor-Service/internal/domain"
)

const (
	// callTimeout bounds a single vendor call independently of the broker's
	// message-visibility timeout.
	callTimeout = 10 * time.Second

	maxResponseBytes = 4 << 20 // 4 MB
)

// Response is what a vendor answered. A non-2xx StatusCode is a business
// outcome, not a transport failure: it is delivered here, never as an error.
type Response struct {
	StatusCode int
	Body       []byte
}

// Client performs the outbound call to a vendor. An error return means the
// call never produced a response (timeout, connection failure) and is
// eligible for retry.
type Client interface {
	Call(ctx context.Context, job *domain.Job) (*Response, error)
}

type httpClient struct {
	client    *http.Client
	endpoints map[domain.Vendor]string
	logger    *zap.Logger
}

// NewHTTPClient creates a vendor client that POSTs the job snapshot to the
// configured per-vendor endpoint.
func NewHTTPClient(endpoints map[domain.Vendor]string, logger *zap.Logger) Client {
	return &httpClient{
		client:    &http.Client{Timeout: callTimeout},
		endpoints: endpoints,
		logger:    logger,
	}
}

func (c *httpClient) Call(ctx context.Context, job *domain.Job) (*Response, error) {
	endpoint, ok := c.endpoints[job.Vendor]
	if !ok {
		return nil, fmt.Errorf("vendor: no endpoint configured for %q", job.Vendor)
	}

	body, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("vendor: marshal job: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("vendor: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vendor: call %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("vendor: read response: %w", err)
	}

	c.logger.Debug("Vendor responded",
		zap.String("request_id", job.RequestID.String()),
		zap.String("vendor", string(job.Vendor)),
		zap.Int("status_code", resp.StatusCode),
	)

	return &Response{StatusCode: resp.StatusCode, Body: respBody}, nil
}
