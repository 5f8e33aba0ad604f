package domain

// JobMessage wraps a queue delivery with its acknowledgment callbacks so the
// worker pool can ack or nack after dispatch completes, not on receipt.
type JobMessage struct {
	Job *Job

	// Ack removes the message from the queue.
	Ack func() error

	// Nack rejects the message; requeue controls whether the broker
	// redelivers it or routes it to the dead-letter queue.
	Nack func(requeue bool) error
}
