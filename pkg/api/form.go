package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"path"
	"strconv"
	"strings"

	httperrors "github.com/cgtestdeepak-cmd/QA/errors"
	"github.com/cgtestdeepak-cmd/QA/pkg/attachments"
	"github.com/cgtestdeepak-cmd/QA/pkg/models"
)

const (
	maxUploadMemory  = 32 << 20 // 32 MB kept in memory, the rest spills to temp files
	maxRequestBytes  = 64 << 20
	maxDocumentBytes = 20 << 20

	fieldDocumentText = "documentText"
	fieldDocument     = "document"
	fieldDesignLink   = "designLink"
	fieldFocus        = "focus"
	fieldImages       = "images"
	fieldPriority     = "priority"
)

// errForm marks a request the client has to fix.
var errForm = errors.New("invalid generation form")

type generationForm struct {
	request  models.GenerationRequest // Attachments are left empty
	images   []attachments.File
	priority uint8
}

// jsonGenerationRequest is the body accepted when no files are uploaded.
type jsonGenerationRequest struct {
	DocumentText string `json:"documentText"`
	DesignLink   string `json:"designLink"`
	Focus        string `json:"focus"`
	Priority     *uint8 `json:"priority"`
}

// parseGenerationForm reads either a multipart form or a JSON body.
func (a *API) parseGenerationForm(w http.ResponseWriter, r *http.Request) (generationForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	form := generationForm{priority: defaultPriority}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var body jsonGenerationRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return form, fmt.Errorf("%w: invalid JSON request body: %v", errForm, err)
		}
		form.request = models.GenerationRequest{
			DocumentText: strings.TrimSpace(body.DocumentText),
			DesignLink:   strings.TrimSpace(body.DesignLink),
			Focus:        strings.TrimSpace(body.Focus),
		}
		if body.Priority != nil {
			form.priority = *body.Priority
		}
		return form, nil
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return form, fmt.Errorf("%w: failed to parse multipart form: %v", errForm, err)
	}

	text := strings.TrimSpace(r.FormValue(fieldDocumentText))
	extracted, err := a.readDocument(r)
	if err != nil {
		return form, err
	}
	if extracted != "" {
		if text != "" {
			text += "\n\n"
		}
		text += extracted
	}
	form.request = models.GenerationRequest{
		DocumentText: text,
		DesignLink:   strings.TrimSpace(r.FormValue(fieldDesignLink)),
		Focus:        strings.TrimSpace(r.FormValue(fieldFocus)),
	}

	if p := strings.TrimSpace(r.FormValue(fieldPriority)); p != "" {
		v, err := strconv.ParseUint(p, 10, 8)
		if err != nil {
			return form, fmt.Errorf("%w: priority must be an integer between 0 and 255", errForm)
		}
		form.priority = uint8(v)
	}

	if r.MultipartForm != nil {
		for _, fh := range r.MultipartForm.File[fieldImages] {
			form.images = append(form.images, fileFromHeader(fh))
		}
	}
	return form, nil
}

// readDocument extracts text from the optional uploaded requirements document.
func (a *API) readDocument(r *http.Request) (string, error) {
	file, fh, err := r.FormFile(fieldDocument)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil
		}
		return "", fmt.Errorf("%w: failed to read document: %v", errForm, err)
	}
	defer file.Close()

	if fh.Size > maxDocumentBytes {
		return "", fmt.Errorf("%w: document %s is larger than %d bytes", errForm, fh.Filename, maxDocumentBytes)
	}
	data, err := io.ReadAll(io.LimitReader(file, maxDocumentBytes))
	if err != nil {
		return "", fmt.Errorf("%w: failed to read document: %v", errForm, err)
	}
	text, err := a.Extractor.Extract(r.Context(), fh.Filename, data)
	if err != nil {
		return "", fmt.Errorf("%w: could not extract text from %s: %v", errForm, fh.Filename, err)
	}
	return text, nil
}

func fileFromHeader(fh *multipart.FileHeader) attachments.File {
	return attachments.File{
		Name: fh.Filename,
		Size: fh.Size,
		Open: func() (io.ReadCloser, error) { return fh.Open() },
	}
}

func (a *API) formError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large") {
		httperrors.RespondWithError(w, logger, http.StatusRequestEntityTooLarge, err, "Upload is too large")
		return
	}
	httperrors.BadRequest(w, logger, err, strings.TrimPrefix(err.Error(), errForm.Error()+": "))
}

// artifactObjectName builds "<identity>/<entryOrJobID>/<filename>" with a flattened filename.
func artifactObjectName(identity, ownerKey, filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "attachment"
	}
	return identity + "/" + ownerKey + "/" + name
}
