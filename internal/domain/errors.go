package domain

import "errors"

var (
	// ErrJobNotFound is returned when a job cannot be found by request ID.
	ErrJobNotFound = errors.New("job not found")

	// ErrInvalidVendor is returned when an unsupported vendor is submitted.
	ErrInvalidVendor = errors.New("invalid or unsupported vendor")

	// ErrPublishFailed is returned when the message broker publish fails.
	ErrPublishFailed = errors.New("failed to publish job to message queue")

	// ErrJobFinalized is returned when a write targets a job that already
	// reached a terminal state.
	ErrJobFinalized = errors.New("job already reached a terminal state")

	// ErrDatabaseUnavailable is returned when the database is unreachable.
	ErrDatabaseUnavailable = errors.New("database is currently unavailable")
)
