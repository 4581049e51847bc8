package httperrors

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/cgtestdeepak-cmd/QA/pkg/attachments"
	"github.com/cgtestdeepak-cmd/QA/pkg/generation"
	"github.com/cgtestdeepak-cmd/QA/pkg/models"
	"github.com/cgtestdeepak-cmd/QA/pkg/normalize"
)

// ErrorResponse defines the standard JSON error structure.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

// RespondWithError sends a JSON error response.
func RespondWithError(w http.ResponseWriter, logger *slog.Logger, status int, internalError error, userMessage string) {
	// Log the internal error for debugging
	if internalError != nil {
		logger.Error("API Error",
			slog.Int("status", status),
			slog.String("user_message", userMessage),
			slog.String("internal_error", internalError.Error()),
		)
	} else {
		logger.Warn("API Response Error",
			slog.Int("status", status),
			slog.String("user_message", userMessage),
		)
	}

	errResp := ErrorResponse{
		Error:   http.StatusText(status),
		Message: userMessage,
		Status:  status,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(errResp); err != nil {
		logger.Error("Failed to encode error response", slog.String("encoding_error", err.Error()))
	}
}

// Convenience functions for common errors

func BadRequest(w http.ResponseWriter, logger *slog.Logger, err error, message string) {
	RespondWithError(w, logger, http.StatusBadRequest, err, message)
}

func Unauthorized(w http.ResponseWriter, logger *slog.Logger, err error, message string) {
	if message == "" {
		message = "Missing or invalid bearer token."
	}
	RespondWithError(w, logger, http.StatusUnauthorized, err, message)
}

func NotFound(w http.ResponseWriter, logger *slog.Logger, err error, message string) {
	RespondWithError(w, logger, http.StatusNotFound, err, message)
}

func InternalServerError(w http.ResponseWriter, logger *slog.Logger, err error, message string) {
	if message == "" {
		message = "An unexpected error occurred."
	}
	RespondWithError(w, logger, http.StatusInternalServerError, err, message)
}

func ServiceUnavailable(w http.ResponseWriter, logger *slog.Logger, err error, message string) {
	if message == "" {
		message = "This feature is not available on this server."
	}
	RespondWithError(w, logger, http.StatusServiceUnavailable, err, message)
}

// StatusForGeneration maps a generation pipeline error to an HTTP status.
// Upstream failures (rejected key, unusable model output) are 502.
func StatusForGeneration(err error) int {
	switch {
	case errors.Is(err, models.ErrEmptyRequest),
		errors.Is(err, attachments.ErrNotAnImage),
		errors.Is(err, attachments.ErrEmptyContent),
		errors.Is(err, attachments.ErrTooMany):
		return http.StatusBadRequest
	case errors.Is(err, attachments.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, generation.ErrInvalidCredential),
		errors.Is(err, normalize.ErrEmptyResponse),
		errors.Is(err, normalize.ErrNotAnArray),
		errors.Is(err, normalize.ErrMalformedUnrecoverable),
		errors.Is(err, normalize.ErrInvalidRecord):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// GenerationFailed writes the one-message error body for a failed generation.
// Upload policy errors already read as user-facing text and are passed through.
func GenerationFailed(w http.ResponseWriter, logger *slog.Logger, err error) {
	message := generation.UserMessage(err)
	if isAttachmentError(err) {
		message = err.Error()
	}
	RespondWithError(w, logger, StatusForGeneration(err), err, message)
}

func isAttachmentError(err error) bool {
	return errors.Is(err, attachments.ErrTooLarge) ||
		errors.Is(err, attachments.ErrTooMany) ||
		errors.Is(err, attachments.ErrNotAnImage) ||
		errors.Is(err, attachments.ErrEmptyContent)
}
