// Package worker drains the generation job queue.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cgtestdeepak-cmd/QA/pkg/generation"
	"github.com/cgtestdeepak-cmd/QA/pkg/history"
	"github.com/cgtestdeepak-cmd/QA/pkg/models"
	"github.com/cgtestdeepak-cmd/QA/pkg/queue"
	"github.com/cgtestdeepak-cmd/QA/pkg/storage"
)

// requeueTimeout bounds the status reset of a job interrupted by shutdown.
const requeueTimeout = 5 * time.Second

// Generator produces test cases for a request; *generation.Service satisfies it.
type Generator interface {
	Generate(ctx context.Context, req models.GenerationRequest) ([]models.TestCase, error)
}

// Store is the slice of storage the worker needs.
type Store interface {
	storage.JobStore
	storage.ArtifactStore
}

// Config tunes the polling loop.
type Config struct {
	PollInterval      time.Duration
	GenerationTimeout time.Duration // 0 leaves the call bounded only by the parent context
}

// Worker pulls one job at a time, runs it and records the outcome.
type Worker struct {
	queue   queue.Manager
	store   Store
	history *history.Service
	gen     Generator
	cfg     Config
	logger  *slog.Logger
	now     func() time.Time
}

func New(q queue.Manager, store Store, hist *history.Service, gen Generator, cfg Config, logger *slog.Logger) *Worker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	return &Worker{
		queue:   q,
		store:   store,
		history: hist,
		gen:     gen,
		cfg:     cfg,
		logger:  logger.With(slog.String("component", "worker")),
		now:     time.Now,
	}
}

// Run polls until ctx is cancelled. An empty queue or a failed poll waits one interval.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("Worker started", slog.Duration("poll_interval", w.cfg.PollInterval))
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		processed, err := w.ProcessNext(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			w.logger.Error("Failed to process job", slog.String("error", err.Error()))
		}
		if processed && err == nil {
			continue
		}
		select {
		case <-ctx.Done():
			w.logger.Info("Worker stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// ProcessNext handles at most one queued job. It reports whether a message was taken.
func (w *Worker) ProcessNext(ctx context.Context) (bool, error) {
	msg, ack, err := w.queue.GetNextJob(ctx)
	if err != nil {
		return false, fmt.Errorf("get next job: %w", err)
	}
	if msg == nil {
		return false, nil
	}
	logger := w.logger.With(slog.String("job_id", msg.ID), slog.String("identity", msg.Identity))

	job, err := w.store.GetJob(ctx, msg.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			logger.Warn("Dropping message for unknown job")
			return true, ack.Nack(false)
		}
		_ = ack.Nack(true)
		return true, fmt.Errorf("load job %s: %w", msg.ID, err)
	}
	if models.IsTerminalJobStatus(job.Status) {
		logger.Info("Skipping job already in terminal state", slog.String("status", job.Status))
		return true, ack.Ack()
	}
	if job.Identity == "" {
		job.Identity = msg.Identity
	}

	if err := w.store.UpdateJobStatus(ctx, job.ID, models.JobRunning); err != nil {
		_ = ack.Nack(true)
		return true, fmt.Errorf("mark job %s running: %w", job.ID, err)
	}

	entryID, runErr := w.run(ctx, job)
	if runErr != nil && ctx.Err() != nil {
		// Shutdown interrupted the job: hand it back to the queue instead of failing it.
		resetCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), requeueTimeout)
		defer cancel()
		if err := w.store.UpdateJobStatus(resetCtx, job.ID, models.JobPending); err != nil {
			logger.Warn("Could not reset interrupted job to pending", slog.String("error", err.Error()))
		}
		logger.Info("Job interrupted by shutdown, requeued")
		return true, ack.Nack(true)
	}
	if runErr != nil {
		logger.Error("Job failed", slog.String("error", runErr.Error()))
		if err := w.store.FailJob(ctx, job.ID, generation.UserMessage(runErr)); err != nil {
			_ = ack.Nack(true)
			return true, fmt.Errorf("mark job %s failed: %w", job.ID, err)
		}
		return true, ack.Ack()
	}

	if err := w.store.CompleteJob(ctx, job.ID, entryID); err != nil {
		_ = ack.Nack(true)
		return true, fmt.Errorf("mark job %s completed: %w", job.ID, err)
	}
	logger.Info("Job completed", slog.Int64("entry_id", entryID))
	return true, ack.Ack()
}

func (w *Worker) run(ctx context.Context, job *models.GenerationJob) (int64, error) {
	req := models.GenerationRequest{
		DocumentText: job.DocumentText,
		DesignLink:   job.DesignLink,
		Focus:        job.Focus,
	}
	urls := make([]string, 0, len(job.Attachments))
	for _, a := range job.Attachments {
		data, contentType, err := w.store.GetArtifact(ctx, a.ObjectName)
		if err != nil {
			return 0, fmt.Errorf("load attachment %s: %w", a.Name, err)
		}
		mime := a.MIMEType
		if mime == "" {
			mime = contentType
		}
		req.Attachments = append(req.Attachments, models.Attachment{Name: a.Name, MIMEType: mime, Data: data})
		urls = append(urls, a.URL)
	}

	genCtx := ctx
	if w.cfg.GenerationTimeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, w.cfg.GenerationTimeout)
		defer cancel()
	}
	cases, err := w.gen.Generate(genCtx, req)
	if err != nil {
		return 0, err
	}

	entry := models.NewHistoryEntry(w.now(), req, cases)
	if len(urls) > 0 {
		entry.AttachmentURLs = urls
	}
	saved, err := w.history.Add(ctx, job.Identity, entry)
	if err != nil {
		return 0, err
	}
	return saved.ID, nil
}
