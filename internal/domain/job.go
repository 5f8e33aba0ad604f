package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the lifecycle state of a fetch job.
type JobStatus string

const (
	StatusPending    JobStatus = "PENDING"
	StatusProcessing JobStatus = "PROCESSING"
	StatusComplete   JobStatus = "COMPLETE"
	StatusFailed     JobStatus = "FAILED"
)

// IsTerminal returns true if the status represents a final state.
func (s JobStatus) IsTerminal() bool {
	return s == StatusComplete || s == StatusFailed
}

// Vendor identifies the third-party service a job is dispatched to.
type Vendor string

const (
	// VendorSync responds with the final result inline (HTTP 200).
	VendorSync Vendor = "sync"

	// VendorAsync acknowledges with 202 and delivers the result later
	// via the vendor webhook.
	VendorAsync Vendor = "async"
)

// IsValid checks if the vendor is supported.
func (v Vendor) IsValid() bool {
	return v == VendorSync || v == VendorAsync
}

// Job represents a fetch job throughout its lifecycle. RequestID is the sole
// correlation key, both for callers polling status and for vendor callbacks.
type Job struct {
	RequestID uuid.UUID       `json:"request_id"`
	Vendor    Vendor          `json:"vendor"`
	Status    JobStatus       `json:"status"`
	JobData   json.RawMessage `json:"job_data,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// SubmitRequest represents an incoming job submission from the API.
type SubmitRequest struct {
	Vendor Vendor          `json:"vendor" binding:"required"`
	Data   json.RawMessage `json:"data"`
}

// SubmitResponse is returned after a successful submission. The caller treats
// RequestID as an opaque handle for subsequent polling.
type SubmitResponse struct {
	RequestID uuid.UUID `json:"request_id"`
	Status    string    `json:"status"`
}

// StatusResponse is the read-only projection returned by the status query.
// Result is populated only once the job is COMPLETE.
type StatusResponse struct {
	Status JobStatus       `json:"status"`
	Result json.RawMessage `json:"result,omitempty"`
}

// WebhookRequest is the callback payload an async vendor posts once the
// fetched result is ready.
type WebhookRequest struct {
	RequestID uuid.UUID       `json:"request_id" binding:"required"`
	FinalData json.RawMessage `json:"final_data"`
}
