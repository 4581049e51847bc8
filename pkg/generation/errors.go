package generation

import (
	"context"
	"errors"
	"strings"

	"github.com/cgtestdeepak-cmd/QA/pkg/models"
	"github.com/cgtestdeepak-cmd/QA/pkg/normalize"
)

// ErrInvalidCredential marks an authentication failure reported by the model transport.
var ErrInvalidCredential = errors.New("invalid model API credential")

const credentialMessage = "The AI service rejected the configured API key. Check GEMINI_API_KEY and try again."

// credentialSignatures are lower-cased fragments the transport uses for rejected keys.
var credentialSignatures = []string{
	"api key not valid",
	"api_key_invalid",
	"invalid api key",
	"permission_denied",
	"unauthenticated",
	"error 401",
	"error 403",
}

// CredentialError wraps a transport error that was recognised as an invalid credential.
type CredentialError struct {
	Err error
}

func (e *CredentialError) Error() string { return credentialMessage }

func (e *CredentialError) Unwrap() error { return e.Err }

func (e *CredentialError) Is(target error) bool { return target == ErrInvalidCredential }

// ClassifyError rewrites invalid-credential transport errors into a *CredentialError.
// Every other error is returned unchanged.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}
	var credErr *CredentialError
	if errors.As(err, &credErr) {
		return err
	}
	msg := strings.ToLower(err.Error())
	for _, sig := range credentialSignatures {
		if strings.Contains(msg, sig) {
			return &CredentialError{Err: err}
		}
	}
	return err
}

// UserMessage resolves any pipeline error into one human-readable sentence.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, models.ErrEmptyRequest):
		return "Please provide a requirements document, a design link or at least one image."
	case errors.Is(err, ErrInvalidCredential):
		return credentialMessage
	case errors.Is(err, normalize.ErrEmptyResponse):
		return "The AI service returned an empty response. Please try again."
	case errors.Is(err, normalize.ErrNotAnArray):
		return "The AI service did not return a list of test cases. Please try again."
	case errors.Is(err, normalize.ErrMalformedUnrecoverable), errors.Is(err, normalize.ErrInvalidRecord):
		return "The AI service returned test cases in an unreadable format. Please try again."
	case errors.Is(err, context.DeadlineExceeded):
		return "The AI service took too long to respond. Please try again."
	default:
		return "Test case generation failed: " + err.Error()
	}
}
