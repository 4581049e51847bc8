// Package memory is a process-local Store used for local runs and tests.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/cgtestdeepak-cmd/QA/pkg/models"
	"github.com/cgtestdeepak-cmd/QA/pkg/storage"
)

var _ storage.Store = (*Store)(nil)

type object struct {
	data        []byte
	contentType string
}

// Store keeps history, jobs and artifacts in maps guarded by one mutex.
type Store struct {
	mu      sync.RWMutex
	history map[string][]models.HistoryEntry
	jobs    map[string]models.GenerationJob
	objects map[string]object
	now     func() time.Time
}

func NewStore() *Store {
	return &Store{
		history: make(map[string][]models.HistoryEntry),
		jobs:    make(map[string]models.GenerationJob),
		objects: make(map[string]object),
		now:     time.Now,
	}
}

func (s *Store) Close() error { return nil }

func (s *Store) Load(_ context.Context, identity string) ([]models.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.history[identity]
	out := make([]models.HistoryEntry, len(entries))
	copy(out, entries)
	return out, nil
}

func (s *Store) Save(_ context.Context, identity string, entries []models.HistoryEntry) error {
	if identity == "" {
		return fmt.Errorf("cannot save history for empty identity")
	}
	cp := make([]models.HistoryEntry, len(entries))
	copy(cp, entries)
	s.mu.Lock()
	s.history[identity] = cp
	s.mu.Unlock()
	return nil
}

func (s *Store) Update(_ context.Context, identity string, fn func([]models.HistoryEntry) ([]models.HistoryEntry, error)) error {
	if identity == "" {
		return fmt.Errorf("cannot save history for empty identity")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	current := make([]models.HistoryEntry, len(s.history[identity]))
	copy(current, s.history[identity])
	updated, err := fn(current)
	if err != nil {
		return err
	}
	cp := make([]models.HistoryEntry, len(updated))
	copy(cp, updated)
	s.history[identity] = cp
	return nil
}

func (s *Store) StoreArtifact(_ context.Context, objectName string, reader io.Reader, _ int64, contentType string) (string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("failed to read artifact '%s': %w", objectName, err)
	}
	s.mu.Lock()
	s.objects[objectName] = object{data: data, contentType: contentType}
	s.mu.Unlock()
	return "memory://" + objectName, nil
}

func (s *Store) GetArtifact(_ context.Context, objectName string) ([]byte, string, error) {
	s.mu.RLock()
	obj, ok := s.objects[objectName]
	s.mu.RUnlock()
	if !ok {
		return nil, "", fmt.Errorf("artifact '%s': %w", objectName, storage.ErrNotFound)
	}
	return bytes.Clone(obj.data), obj.contentType, nil
}

func (s *Store) CreatePendingJob(_ context.Context, job *models.GenerationJob) error {
	if job == nil || job.ID == "" || job.Identity == "" {
		return fmt.Errorf("invalid job data for creating pending job")
	}
	j := *job
	j.Status = models.JobPending
	s.mu.Lock()
	s.jobs[j.ID] = j
	s.mu.Unlock()
	return nil
}

func (s *Store) GetJob(_ context.Context, jobID string) (*models.GenerationJob, error) {
	s.mu.RLock()
	j, ok := s.jobs[jobID]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("job '%s': %w", jobID, storage.ErrNotFound)
	}
	return &j, nil
}

func (s *Store) UpdateJobStatus(_ context.Context, jobID string, status string) error {
	return s.mutateJob(jobID, func(j *models.GenerationJob) {
		j.Status = status
		if status == models.JobRunning {
			j.StartedAt = s.now().UTC()
		}
	})
}

func (s *Store) CompleteJob(_ context.Context, jobID string, entryID int64) error {
	return s.mutateJob(jobID, func(j *models.GenerationJob) {
		j.Status = models.JobCompleted
		j.EntryID = entryID
		j.Error = ""
		j.EndedAt = s.now().UTC()
	})
}

func (s *Store) FailJob(_ context.Context, jobID string, message string) error {
	return s.mutateJob(jobID, func(j *models.GenerationJob) {
		j.Status = models.JobFailed
		j.Error = message
		j.EndedAt = s.now().UTC()
	})
}

func (s *Store) mutateJob(jobID string, fn func(*models.GenerationJob)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[jobID]
	if !ok {
		return fmt.Errorf("job '%s': %w", jobID, storage.ErrNotFound)
	}
	fn(&j)
	s.jobs[jobID] = j
	return nil
}
