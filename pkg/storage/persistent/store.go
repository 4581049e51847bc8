package persistent

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path"
	"time"

	"github.com/cgtestdeepak-cmd/QA/pkg/models"
	"github.com/cgtestdeepak-cmd/QA/pkg/storage"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Ensure Store implements storage.Store interface at compile time
var _ storage.Store = (*Store)(nil)

const (
	loadHistorySQL = `SELECT entries FROM generation_history WHERE identity = $1;`

	// Creates the row if needed so that lockHistorySQL always has something to lock.
	ensureHistorySQL = `
		INSERT INTO generation_history (identity, entries, updated_at)
		VALUES ($1, '[]'::jsonb, NOW())
		ON CONFLICT (identity) DO NOTHING;
	`

	lockHistorySQL = `SELECT entries FROM generation_history WHERE identity = $1 FOR UPDATE;`

	// The whole list is rewritten on every save.
	saveHistorySQL = `
		INSERT INTO generation_history (identity, entries, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (identity) DO UPDATE SET
			entries = EXCLUDED.entries,
			updated_at = NOW();
	`

	insertJobSQL = `
		INSERT INTO generation_jobs (job_id, identity, status, request, priority, enqueued_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (job_id) DO UPDATE SET
			status = EXCLUDED.status,
			request = COALESCE(EXCLUDED.request, generation_jobs.request),
			priority = COALESCE(EXCLUDED.priority, generation_jobs.priority),
			enqueued_at = COALESCE(EXCLUDED.enqueued_at, generation_jobs.enqueued_at),
			updated_at = NOW();
	`

	getJobSQL = `
		SELECT job_id, identity, status, request, priority, error_message, entry_id,
			enqueued_at, started_at, ended_at
		FROM generation_jobs
		WHERE job_id = $1;
	`

	updateStatusAndStartSQL = `
		UPDATE generation_jobs
		SET status = $2,
		    started_at = CASE WHEN $3::TIMESTAMPTZ IS NOT NULL THEN $3::TIMESTAMPTZ ELSE started_at END,
			updated_at = NOW()
		WHERE job_id = $1;
	`

	finishJobSQL = `
		UPDATE generation_jobs
		SET status = $2, entry_id = $3, error_message = $4, ended_at = $5, updated_at = NOW()
		WHERE job_id = $1;
	`
)

// jobRequest is the request part of a job kept in the JSONB column.
type jobRequest struct {
	DocumentText string                    `json:"document_text"`
	DesignLink   string                    `json:"design_link,omitempty"`
	Focus        string                    `json:"focus,omitempty"`
	Attachments  []models.StoredAttachment `json:"attachments,omitempty"`
}

// Store implements storage.Store using PostgreSQL and MinIO.
type Store struct {
	db          *pgxpool.Pool // PostgreSQL connection pool
	minioClient *minio.Client // MinIO client
	bucketName  string        // MinIO bucket name
	logger      *slog.Logger
}

// Options holds the connection settings for NewStore.
type Options struct {
	PostgresDSN    string
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	BucketName     string
	UseSSL         bool
}

// NewStore creates a new persistent store instance.
func NewStore(ctx context.Context, opts Options, logger *slog.Logger) (*Store, error) {
	// --- Connect to PostgreSQL ---
	dbpool, err := pgxpool.New(ctx, opts.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	if err := dbpool.Ping(ctx); err != nil {
		dbpool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}
	logger.Info("PostgreSQL connection pool established")

	// --- Connect to MinIO ---
	minioClient, err := minio.New(opts.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.MinioAccessKey, opts.MinioSecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		dbpool.Close()
		return nil, fmt.Errorf("failed to initialize MinIO client: %w", err)
	}
	logger.Info("MinIO client initialized", slog.String("endpoint", opts.MinioEndpoint))

	// --- Ensure MinIO Bucket Exists ---
	bucketCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	err = minioClient.MakeBucket(bucketCtx, opts.BucketName, minio.MakeBucketOptions{})
	if err != nil {
		exists, errBucketExists := minioClient.BucketExists(bucketCtx, opts.BucketName)
		if errBucketExists == nil && exists {
			logger.Info("MinIO bucket already exists", slog.String("bucket", opts.BucketName))
		} else {
			dbpool.Close()
			return nil, fmt.Errorf("failed to make/verify MinIO bucket '%s': %w", opts.BucketName, err)
		}
	} else {
		logger.Info("Successfully created MinIO bucket", slog.String("bucket", opts.BucketName))
	}

	s := &Store{db: dbpool, minioClient: minioClient, bucketName: opts.BucketName, logger: logger}
	if err := s.EnsureSchema(ctx); err != nil {
		dbpool.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection pool.
func (s *Store) Close() error {
	s.logger.Info("Closing persistent storage connections")
	if s.db != nil {
		s.db.Close()
	}
	return nil
}

// Load reads the history list of one identity.
func (s *Store) Load(ctx context.Context, identity string) ([]models.HistoryEntry, error) {
	var raw []byte
	err := s.db.QueryRow(ctx, loadHistorySQL, identity).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []models.HistoryEntry{}, nil
		}
		return nil, fmt.Errorf("failed to query history for %s: %w", identity, err)
	}
	return decodeEntries(raw)
}

// Save replaces the history list of one identity.
func (s *Store) Save(ctx context.Context, identity string, entries []models.HistoryEntry) error {
	if identity == "" {
		return fmt.Errorf("cannot save history for empty identity")
	}
	raw, err := encodeEntries(entries)
	if err != nil {
		return err
	}
	if _, err := s.db.Exec(ctx, saveHistorySQL, identity, raw); err != nil {
		return fmt.Errorf("failed to save history for %s: %w", identity, err)
	}
	s.logger.Debug("Saved history", slog.String("identity", identity), slog.Int("entries", len(entries)))
	return nil
}

// Update runs a load-modify-save cycle inside one transaction. The row lock taken by
// SELECT ... FOR UPDATE serializes concurrent updates of the same identity.
func (s *Store) Update(ctx context.Context, identity string, fn func([]models.HistoryEntry) ([]models.HistoryEntry, error)) error {
	if identity == "" {
		return fmt.Errorf("cannot save history for empty identity")
	}
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin history transaction for %s: %w", identity, err)
	}
	defer tx.Rollback(ctx) // no-op after Commit

	if _, err := tx.Exec(ctx, ensureHistorySQL, identity); err != nil {
		return fmt.Errorf("failed to initialize history for %s: %w", identity, err)
	}
	var raw []byte
	if err := tx.QueryRow(ctx, lockHistorySQL, identity).Scan(&raw); err != nil {
		return fmt.Errorf("failed to lock history for %s: %w", identity, err)
	}
	current, err := decodeEntries(raw)
	if err != nil {
		return err
	}
	updated, err := fn(current)
	if err != nil {
		return err
	}
	encoded, err := encodeEntries(updated)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, saveHistorySQL, identity, encoded); err != nil {
		return fmt.Errorf("failed to save history for %s: %w", identity, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit history for %s: %w", identity, err)
	}
	s.logger.Debug("Updated history", slog.String("identity", identity), slog.Int("entries", len(updated)))
	return nil
}

func encodeEntries(entries []models.HistoryEntry) ([]byte, error) {
	if entries == nil {
		entries = []models.HistoryEntry{}
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal history: %w", err)
	}
	return raw, nil
}

func decodeEntries(raw []byte) ([]models.HistoryEntry, error) {
	entries := []models.HistoryEntry{}
	if len(raw) == 0 || string(raw) == "null" {
		return entries, nil
	}
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal history: %w", err)
	}
	return entries, nil
}

// StoreArtifact uploads data to the configured MinIO bucket.
func (s *Store) StoreArtifact(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error) {
	if s.bucketName == "" {
		return "", fmt.Errorf("minio bucket name is not configured")
	}
	uploadInfo, err := s.minioClient.PutObject(ctx, s.bucketName, objectName, reader, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("failed to upload artifact '%s': %w", objectName, err)
	}
	s.logger.Info("Stored artifact", slog.String("bucket", uploadInfo.Bucket), slog.String("key", uploadInfo.Key), slog.Int64("size", uploadInfo.Size))
	return artifactURL(s.minioClient.EndpointURL(), s.bucketName, objectName), nil
}

func artifactURL(endpoint *url.URL, bucket, objectName string) string {
	u := url.URL{Scheme: "http", Host: endpoint.Host, Path: path.Join(bucket, objectName)}
	if endpoint.Scheme == "https" {
		u.Scheme = "https"
	}
	return u.String()
}

// GetArtifact downloads an object and reports its content type.
func (s *Store) GetArtifact(ctx context.Context, objectName string) ([]byte, string, error) {
	obj, err := s.minioClient.GetObject(ctx, s.bucketName, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, "", fmt.Errorf("failed to get artifact '%s': %w", objectName, err)
	}
	defer obj.Close()

	info, err := obj.Stat()
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, "", fmt.Errorf("artifact '%s': %w", objectName, storage.ErrNotFound)
		}
		return nil, "", fmt.Errorf("failed to stat artifact '%s': %w", objectName, err)
	}
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read artifact '%s': %w", objectName, err)
	}
	return data, info.ContentType, nil
}

// CreatePendingJob saves the initial PENDING state of a job using UPSERT.
func (s *Store) CreatePendingJob(ctx context.Context, job *models.GenerationJob) error {
	if job == nil || job.ID == "" || job.Identity == "" {
		return fmt.Errorf("invalid job data for creating pending job")
	}
	requestJSON, err := json.Marshal(jobRequest{
		DocumentText: job.DocumentText,
		DesignLink:   job.DesignLink,
		Focus:        job.Focus,
		Attachments:  job.Attachments,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal job request: %w", err)
	}

	_, err = s.db.Exec(ctx, insertJobSQL,
		job.ID,
		job.Identity,
		models.JobPending,
		requestJSON,
		sql.NullInt32{Int32: int32(job.Priority), Valid: true},
		sql.NullTime{Time: job.EnqueuedAt, Valid: !job.EnqueuedAt.IsZero()},
	)
	if err != nil {
		return fmt.Errorf("failed to execute upsert for pending job %s: %w", job.ID, err)
	}
	s.logger.Info("Saved pending job state", slog.String("job_id", job.ID))
	return nil
}

// GetJob retrieves a job row.
func (s *Store) GetJob(ctx context.Context, jobID string) (*models.GenerationJob, error) {
	job := &models.GenerationJob{}
	var requestJSON []byte
	var priority sql.NullInt32
	var errMsg sql.NullString
	var entryID sql.NullInt64
	var enqueuedAt, startedAt, endedAt sql.NullTime

	err := s.db.QueryRow(ctx, getJobSQL, jobID).Scan(
		&job.ID, &job.Identity, &job.Status, &requestJSON, &priority, &errMsg, &entryID,
		&enqueuedAt, &startedAt, &endedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("job '%s': %w", jobID, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query job %s: %w", jobID, err)
	}

	job.Priority = uint8(priority.Int32)
	job.Error = errMsg.String
	job.EntryID = entryID.Int64
	job.EnqueuedAt = enqueuedAt.Time
	job.StartedAt = startedAt.Time
	job.EndedAt = endedAt.Time

	if len(requestJSON) > 0 && string(requestJSON) != "null" {
		var req jobRequest
		if err := json.Unmarshal(requestJSON, &req); err != nil {
			s.logger.Warn("Failed to unmarshal job request JSON from DB", slog.String("job_id", jobID), slog.String("error", err.Error()))
		} else {
			job.DocumentText = req.DocumentText
			job.DesignLink = req.DesignLink
			job.Focus = req.Focus
			job.Attachments = req.Attachments
		}
	}
	return job, nil
}

// UpdateJobStatus updates the status and optionally the started_at time for a job.
func (s *Store) UpdateJobStatus(ctx context.Context, jobID string, status string) error {
	if jobID == "" {
		return fmt.Errorf("cannot update status for empty JobID")
	}

	var startedAtArg sql.NullTime
	if status == models.JobRunning {
		startedAtArg = sql.NullTime{Time: time.Now().UTC(), Valid: true}
	}

	cmdTag, err := s.db.Exec(ctx, updateStatusAndStartSQL, jobID, status, startedAtArg)
	if err != nil {
		return fmt.Errorf("failed to execute update status query for job %s: %w", jobID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("job '%s': %w", jobID, storage.ErrNotFound)
	}
	s.logger.Info("Updated job status in storage", slog.String("job_id", jobID), slog.String("new_status", status))
	return nil
}

// CompleteJob marks a job COMPLETED with the history entry it produced.
func (s *Store) CompleteJob(ctx context.Context, jobID string, entryID int64) error {
	return s.finishJob(ctx, jobID, models.JobCompleted, sql.NullInt64{Int64: entryID, Valid: true}, sql.NullString{})
}

// FailJob marks a job FAILED with a user-facing message.
func (s *Store) FailJob(ctx context.Context, jobID string, message string) error {
	return s.finishJob(ctx, jobID, models.JobFailed, sql.NullInt64{}, sql.NullString{String: message, Valid: true})
}

func (s *Store) finishJob(ctx context.Context, jobID, status string, entryID sql.NullInt64, message sql.NullString) error {
	cmdTag, err := s.db.Exec(ctx, finishJobSQL, jobID, status, entryID, message, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to finish job %s: %w", jobID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("job '%s': %w", jobID, storage.ErrNotFound)
	}
	s.logger.Info("Finished job", slog.String("job_id", jobID), slog.String("status", status))
	return nil
}
