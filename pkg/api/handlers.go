package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	httperrors "github.com/cgtestdeepak-cmd/QA/errors"
	"github.com/cgtestdeepak-cmd/QA/pkg/attachments"
	"github.com/cgtestdeepak-cmd/QA/pkg/auth"
	"github.com/cgtestdeepak-cmd/QA/pkg/config"
	"github.com/cgtestdeepak-cmd/QA/pkg/extract"
	"github.com/cgtestdeepak-cmd/QA/pkg/history"
	"github.com/cgtestdeepak-cmd/QA/pkg/models"
	"github.com/cgtestdeepak-cmd/QA/pkg/queue"
	"github.com/cgtestdeepak-cmd/QA/pkg/storage"
)

const defaultPriority = 5

// Generator produces test cases for a request; *generation.Service satisfies it.
type Generator interface {
	Generate(ctx context.Context, req models.GenerationRequest) ([]models.TestCase, error)
}

// Store is the slice of storage the handlers need besides history.
type Store interface {
	storage.ArtifactStore
	storage.JobStore
}

type API struct {
	Generator    Generator
	History      *history.Service
	Store        Store
	QueueManager queue.Manager
	Extractor    extract.Extractor
	Auth         *auth.Authenticator
	Logger       *slog.Logger
	Config       *config.Config
	now          func() time.Time
}

func NewAPI(gen Generator, hist *history.Service, store Store, qm queue.Manager, ex extract.Extractor, authn *auth.Authenticator, logger *slog.Logger, cfg *config.Config) *API {
	return &API{
		Generator:    gen,
		History:      hist,
		Store:        store,
		QueueManager: qm,
		Extractor:    ex,
		Auth:         authn,
		Logger:       logger,
		Config:       cfg,
		now:          time.Now,
	}
}

func (a *API) policy() attachments.Policy {
	return attachments.Policy{MaxBytes: a.Config.MaxAttachmentBytes, MaxCount: a.Config.MaxAttachments}
}

// identity returns the caller identity set by the auth middleware.
func (a *API) identity(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (string, bool) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httperrors.Unauthorized(w, logger, nil, "")
	}
	return identity, ok
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// HandleGenerate runs one synchronous generation and saves it to the caller's history.
func (a *API) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	logger := a.Logger.With(slog.String("handler", "HandleGenerate"))
	identity, ok := a.identity(w, r, logger)
	if !ok {
		return
	}
	logger = logger.With(slog.String("identity", identity))

	form, err := a.parseGenerationForm(w, r)
	if err != nil {
		a.formError(w, logger, err)
		return
	}
	req := form.request
	req.Attachments, err = a.encodeImages(r.Context(), form.images)
	if err != nil {
		httperrors.GenerationFailed(w, logger, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), a.Config.GenerationTimeout)
	defer cancel()
	cases, err := a.Generator.Generate(ctx, req)
	if err != nil {
		httperrors.GenerationFailed(w, logger, err)
		return
	}

	entry := models.NewHistoryEntry(a.now(), req, cases)
	entry.AttachmentURLs = a.storeImages(r.Context(), logger, identity, strconv.FormatInt(entry.ID, 10), req.Attachments)

	saved, err := a.History.Add(r.Context(), identity, entry)
	if err != nil {
		httperrors.InternalServerError(w, logger, err, "Test cases were generated but could not be saved to history")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"entry": saved})
}

// encodeImages applies the upload policy, reads the images and checks they are images.
func (a *API) encodeImages(ctx context.Context, files []attachments.File) ([]models.Attachment, error) {
	if err := a.policy().Check(files); err != nil {
		return nil, err
	}
	atts, err := attachments.Encode(ctx, files)
	if err != nil {
		return nil, err
	}
	if err := attachments.RequireImages(atts); err != nil {
		return nil, err
	}
	return atts, nil
}

// storeImages uploads the images of a synchronous generation. Failures are logged and
// leave the entry without URLs; the generation itself already succeeded.
func (a *API) storeImages(ctx context.Context, logger *slog.Logger, identity, ownerKey string, atts []models.Attachment) []string {
	if a.Store == nil || len(atts) == 0 {
		return nil
	}
	urls := make([]string, 0, len(atts))
	for _, att := range atts {
		stored, err := a.storeAttachment(ctx, identity, ownerKey, att)
		if err != nil {
			logger.Warn("Failed to store image", slog.String("name", att.Name), slog.String("error", err.Error()))
			return nil
		}
		urls = append(urls, stored.URL)
	}
	return urls
}

func (a *API) storeAttachment(ctx context.Context, identity, ownerKey string, att models.Attachment) (models.StoredAttachment, error) {
	objectName := artifactObjectName(identity, ownerKey, att.Name)
	url, err := a.Store.StoreArtifact(ctx, objectName, bytes.NewReader(att.Data), int64(len(att.Data)), att.MIMEType)
	if err != nil {
		return models.StoredAttachment{}, fmt.Errorf("failed to store artifact '%s': %w", objectName, err)
	}
	return models.StoredAttachment{Name: att.Name, ObjectName: objectName, MIMEType: att.MIMEType, URL: url}, nil
}

// HandleListHistory returns the caller's entries, newest first.
func (a *API) HandleListHistory(w http.ResponseWriter, r *http.Request) {
	logger := a.Logger.With(slog.String("handler", "HandleListHistory"))
	identity, ok := a.identity(w, r, logger)
	if !ok {
		return
	}
	entries, err := a.History.List(r.Context(), identity)
	if err != nil {
		httperrors.InternalServerError(w, logger, err, "Failed to load history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// HandleClearHistory removes every entry of the caller.
func (a *API) HandleClearHistory(w http.ResponseWriter, r *http.Request) {
	logger := a.Logger.With(slog.String("handler", "HandleClearHistory"))
	identity, ok := a.identity(w, r, logger)
	if !ok {
		return
	}
	if err := a.History.Clear(r.Context(), identity); err != nil {
		httperrors.InternalServerError(w, logger, err, "Failed to clear history")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDeleteHistoryEntry removes one entry by id.
func (a *API) HandleDeleteHistoryEntry(w http.ResponseWriter, r *http.Request) {
	logger := a.Logger.With(slog.String("handler", "HandleDeleteHistoryEntry"))
	identity, ok := a.identity(w, r, logger)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "entryId"), 10, 64)
	if err != nil {
		httperrors.BadRequest(w, logger, err, "Entry id must be an integer")
		return
	}
	if err := a.History.Delete(r.Context(), identity, id); err != nil {
		if errors.Is(err, history.ErrEntryNotFound) {
			httperrors.NotFound(w, logger, nil, fmt.Sprintf("History entry %d not found", id))
			return
		}
		httperrors.InternalServerError(w, logger, err, "Failed to delete history entry")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleEnqueueJob stores the uploads, records a PENDING job and publishes it for the worker.
func (a *API) HandleEnqueueJob(w http.ResponseWriter, r *http.Request) {
	logger := a.Logger.With(slog.String("handler", "HandleEnqueueJob"))
	identity, ok := a.identity(w, r, logger)
	if !ok {
		return
	}
	if a.QueueManager == nil || a.Store == nil {
		httperrors.ServiceUnavailable(w, logger, nil, "Background generation is not configured on this server")
		return
	}

	form, err := a.parseGenerationForm(w, r)
	if err != nil {
		a.formError(w, logger, err)
		return
	}
	atts, err := a.encodeImages(r.Context(), form.images)
	if err != nil {
		httperrors.GenerationFailed(w, logger, err)
		return
	}
	req := form.request
	req.Attachments = atts
	if err := req.Validate(); err != nil {
		httperrors.GenerationFailed(w, logger, err)
		return
	}

	jobID := uuid.NewString()
	logger = logger.With(slog.String("job_id", jobID), slog.String("identity", identity))

	job := &models.GenerationJob{
		ID:           jobID,
		Identity:     identity,
		Status:       models.JobPending,
		DocumentText: req.DocumentText,
		DesignLink:   req.DesignLink,
		Focus:        req.Focus,
		Priority:     form.priority,
		EnqueuedAt:   a.now().UTC(),
	}
	for _, att := range atts {
		stored, err := a.storeAttachment(r.Context(), identity, jobID, att)
		if err != nil {
			httperrors.InternalServerError(w, logger, err, "Failed to store uploaded images")
			return
		}
		job.Attachments = append(job.Attachments, stored)
	}

	if err := a.Store.CreatePendingJob(r.Context(), job); err != nil {
		httperrors.InternalServerError(w, logger, err, "Failed to record job")
		return
	}

	_, err = a.QueueManager.EnqueueJob(r.Context(), models.JobMessage{
		ID:         jobID,
		Identity:   identity,
		Priority:   job.Priority,
		EnqueuedAt: job.EnqueuedAt,
	})
	if err != nil {
		if failErr := a.Store.FailJob(r.Context(), jobID, "Job could not be queued"); failErr != nil {
			logger.Error("Failed to mark unqueued job as failed", slog.String("error", failErr.Error()))
		}
		httperrors.InternalServerError(w, logger, err, "Failed to enqueue job")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": jobID, "status": models.JobPending})
}

// HandleGetJob returns a job owned by the caller.
func (a *API) HandleGetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobId")
	logger := a.Logger.With(slog.String("handler", "HandleGetJob"), slog.String("job_id", jobID))
	identity, ok := a.identity(w, r, logger)
	if !ok {
		return
	}
	if a.Store == nil {
		httperrors.ServiceUnavailable(w, logger, nil, "Background generation is not configured on this server")
		return
	}
	job, err := a.Store.GetJob(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			httperrors.NotFound(w, logger, nil, fmt.Sprintf("Job %s not found", jobID))
			return
		}
		httperrors.InternalServerError(w, logger, err, "Failed to load job")
		return
	}
	// Other identities' jobs look exactly like missing ones.
	if job.Identity != identity {
		httperrors.NotFound(w, logger, nil, fmt.Sprintf("Job %s not found", jobID))
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// HandleGetQueueStatus reports how many jobs wait for the worker.
func (a *API) HandleGetQueueStatus(w http.ResponseWriter, r *http.Request) {
	logger := a.Logger.With(slog.String("handler", "HandleGetQueueStatus"))
	if a.QueueManager == nil {
		httperrors.ServiceUnavailable(w, logger, nil, "Background generation is not configured on this server")
		return
	}
	size, err := a.QueueManager.GetQueueSize(r.Context())
	if err != nil {
		httperrors.InternalServerError(w, logger, err, "Failed to read queue size")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"pending_jobs": size})
}

// HandleGetArtifact streams back an image the caller uploaded.
func (a *API) HandleGetArtifact(w http.ResponseWriter, r *http.Request) {
	logger := a.Logger.With(slog.String("handler", "HandleGetArtifact"))
	identity, ok := a.identity(w, r, logger)
	if !ok {
		return
	}
	if a.Store == nil {
		httperrors.NotFound(w, logger, nil, "Artifact not found")
		return
	}
	ownerKey := chi.URLParam(r, "ownerKey")
	if ownerKey == "" || strings.Contains(ownerKey, "..") {
		httperrors.NotFound(w, logger, nil, "Artifact not found")
		return
	}
	objectName := artifactObjectName(identity, ownerKey, chi.URLParam(r, "name"))
	data, contentType, err := a.Store.GetArtifact(r.Context(), objectName)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			httperrors.NotFound(w, logger, nil, "Artifact not found")
			return
		}
		httperrors.InternalServerError(w, logger, err, "Failed to read artifact")
		return
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
