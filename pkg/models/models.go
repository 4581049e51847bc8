package models

import (
	"errors"
	"strings"
	"time"
)

// ErrEmptyRequest is returned when a request carries no material to generate from.
var ErrEmptyRequest = errors.New("provide a requirements document, a design link or at least one image")

// Attachment is an inline, transport-ready binary (an image sent alongside the prompt).
type Attachment struct {
	Name     string `json:"name"`
	MIMEType string `json:"mime_type"`
	Data     []byte `json:"-"`
}

// GenerationRequest is the input bundle for one generation.
type GenerationRequest struct {
	DocumentText string       `json:"document_text"`         // Extracted requirements text (may be empty)
	DesignLink   string       `json:"design_link,omitempty"` // External design reference, e.g. a Figma URL
	Focus        string       `json:"focus,omitempty"`       // Free-text hint on what to concentrate on
	Attachments  []Attachment `json:"-"`
}

// Validate rejects a request that has nothing to generate from.
func (r GenerationRequest) Validate() error {
	if strings.TrimSpace(r.DocumentText) == "" && strings.TrimSpace(r.DesignLink) == "" && len(r.Attachments) == 0 {
		return ErrEmptyRequest
	}
	return nil
}

// AttachmentNames lists attachment names in request order.
func (r GenerationRequest) AttachmentNames() []string {
	if len(r.Attachments) == 0 {
		return nil
	}
	names := make([]string, len(r.Attachments))
	for i, a := range r.Attachments {
		names[i] = a.Name
	}
	return names
}

// HistoryEntry is one saved generation. Its ID is the creation time in unix milliseconds.
type HistoryEntry struct {
	ID              int64      `json:"id"`
	CreatedAt       time.Time  `json:"created_at"`
	DocumentText    string     `json:"document_text"`
	DesignLink      string     `json:"design_link,omitempty"`
	Focus           string     `json:"focus,omitempty"`
	AttachmentNames []string   `json:"attachment_names,omitempty"`
	AttachmentURLs  []string   `json:"attachment_urls,omitempty"` // URLs of the stored images
	TestCases       []TestCase `json:"test_cases"`
}

// NewHistoryEntry stamps a generation result with its creation time.
func NewHistoryEntry(now time.Time, req GenerationRequest, cases []TestCase) HistoryEntry {
	now = now.UTC()
	return HistoryEntry{
		ID:              now.UnixMilli(),
		CreatedAt:       now,
		DocumentText:    req.DocumentText,
		DesignLink:      req.DesignLink,
		Focus:           req.Focus,
		AttachmentNames: req.AttachmentNames(),
		TestCases:       cases,
	}
}

// Constants for generation job status
const (
	JobPending   = "PENDING"
	JobRunning   = "RUNNING"
	JobCompleted = "COMPLETED"
	JobFailed    = "FAILED"
)

// IsTerminalJobStatus reports whether a job has finished processing.
func IsTerminalJobStatus(status string) bool {
	return status == JobCompleted || status == JobFailed
}

// StoredAttachment points at an uploaded image kept in object storage.
type StoredAttachment struct {
	Name       string `json:"name"`
	ObjectName string `json:"object_name"`
	MIMEType   string `json:"mime_type"`
	URL        string `json:"url"`
}

// GenerationJob is an asynchronous generation tracked in storage.
type GenerationJob struct {
	ID           string             `json:"id"`
	Identity     string             `json:"-"`
	Status       string             `json:"status"`
	DocumentText string             `json:"document_text"`
	DesignLink   string             `json:"design_link,omitempty"`
	Focus        string             `json:"focus,omitempty"`
	Attachments  []StoredAttachment `json:"attachments,omitempty"`
	Priority     uint8              `json:"priority"`
	Error        string             `json:"error,omitempty"`    // User-facing failure message
	EntryID      int64              `json:"entry_id,omitempty"` // History entry produced on success
	EnqueuedAt   time.Time          `json:"enqueued_at"`
	StartedAt    time.Time          `json:"started_at,omitempty"`
	EndedAt      time.Time          `json:"ended_at,omitempty"`
}

// JobMessage is the structure published to RabbitMQ
type JobMessage struct {
	ID         string    `json:"id"`
	Identity   string    `json:"identity"`
	Priority   uint8     `json:"priority"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}
