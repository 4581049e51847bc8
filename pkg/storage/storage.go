package storage

import (
	"context"
	"errors"
	"io"

	"github.com/cgtestdeepak-cmd/QA/pkg/models"
)

// ErrNotFound is returned when a job or artifact does not exist.
var ErrNotFound = errors.New("not found")

// HistoryStore persists the generation history of one identity as a whole list.
// Entries are never shared between identities.
type HistoryStore interface {
	// Load returns the stored entries, newest first. An unknown identity yields an empty list.
	Load(ctx context.Context, identity string) ([]models.HistoryEntry, error)

	// Save replaces the stored list for the identity.
	Save(ctx context.Context, identity string, entries []models.HistoryEntry) error

	// Update applies fn to the current list and stores the result as one atomic step:
	// concurrent updates of the same identity are serialized. If fn returns an error
	// nothing is written and the error is returned unchanged.
	Update(ctx context.Context, identity string, fn func([]models.HistoryEntry) ([]models.HistoryEntry, error)) error
}

// ArtifactStore keeps uploaded binaries (images) in object storage.
type ArtifactStore interface {
	// StoreArtifact uploads the content and returns a URL pointing at it.
	StoreArtifact(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error)

	// GetArtifact reads an uploaded object back together with its content type.
	GetArtifact(ctx context.Context, objectName string) ([]byte, string, error)
}

// JobStore tracks asynchronous generation jobs.
type JobStore interface {
	// CreatePendingJob saves the initial state when a job is first enqueued.
	CreatePendingJob(ctx context.Context, job *models.GenerationJob) error

	// GetJob retrieves a job by id. Returns ErrNotFound if it does not exist.
	GetJob(ctx context.Context, jobID string) (*models.GenerationJob, error)

	// UpdateJobStatus moves a job to RUNNING (stamping started_at) or another non-terminal status.
	UpdateJobStatus(ctx context.Context, jobID string, status string) error

	// CompleteJob marks the job COMPLETED and records the history entry it produced.
	CompleteJob(ctx context.Context, jobID string, entryID int64) error

	// FailJob marks the job FAILED with a user-facing message.
	FailJob(ctx context.Context, jobID string, message string) error
}

// Store bundles every persistence concern behind one handle.
type Store interface {
	HistoryStore
	ArtifactStore
	JobStore

	// Close releases any resources held by the store (e.g., DB connections).
	Close() error
}
