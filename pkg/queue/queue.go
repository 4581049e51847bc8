package queue

import (
	"context"

	"github.com/cgtestdeepak-cmd/QA/pkg/models"
)

type AckNacker interface {
	Ack() error              // Acknowledge successful processing.
	Nack(requeue bool) error // Reject processing. requeue=true puts back in queue.
}

// Manager defines the interface for the generation job queue.
type Manager interface {
	// EnqueueJob publishes a job message. A missing ID is generated.
	// Returns the ID the job was published under.
	EnqueueJob(ctx context.Context, msg models.JobMessage) (string, error)

	// GetNextJob retrieves the next available job message together with an AckNacker
	// to settle it, or nil if the queue is empty.
	GetNextJob(ctx context.Context) (*models.JobMessage, AckNacker, error)

	// GetQueueSize returns the current number of pending jobs.
	GetQueueSize(ctx context.Context) (int, error)

	// Close releases any resources held by the queue manager (e.g., connections).
	Close() error
}
