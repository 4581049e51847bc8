package main

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	httperrors "github.com/cgtestdeepak-cmd/QA/errors"
	"github.com/cgtestdeepak-cmd/QA/pkg/models"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api request failed with status %d: %s", e.Status, e.Message)
}

// Client talks to the generation API on behalf of one bearer token.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient builds a client for baseURL (e.g. https://localhost:8080/api/v1).
// When caCertFile is set, the server certificate is validated against it.
func NewClient(baseURL, token, caCertFile string, timeout time.Duration) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("API base URL is not set")
	}
	tr := &http.Transport{}
	if caCertFile != "" {
		caCert, err := os.ReadFile(caCertFile)
		if err != nil {
			return nil, fmt.Errorf("error reading server certificate file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("no certificates found in %s", caCertFile)
		}
		tr.TLSClientConfig = &tls.Config{RootCAs: pool}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Transport: tr, Timeout: timeout},
	}, nil
}

// GenerateInput holds the form fields sent for a generation or a job.
type GenerateInput struct {
	DocumentText string
	DocumentPath string
	DesignLink   string
	Focus        string
	ImagePaths   []string
	Priority     *uint8
}

// Generate runs a synchronous generation and returns the saved history entry.
func (c *Client) Generate(ctx context.Context, in GenerateInput) (*models.HistoryEntry, error) {
	body, contentType, err := buildForm(in)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Entry models.HistoryEntry `json:"entry"`
	}
	if err := c.do(ctx, http.MethodPost, "/generations", contentType, body, &resp); err != nil {
		return nil, err
	}
	return &resp.Entry, nil
}

// EnqueueJob submits a background generation and returns its job id.
func (c *Client) EnqueueJob(ctx context.Context, in GenerateInput) (string, error) {
	body, contentType, err := buildForm(in)
	if err != nil {
		return "", err
	}
	var resp struct {
		JobID  string `json:"job_id"`
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodPost, "/jobs", contentType, body, &resp); err != nil {
		return "", err
	}
	return resp.JobID, nil
}

func (c *Client) GetJob(ctx context.Context, jobID string) (*models.GenerationJob, error) {
	var job models.GenerationJob
	if err := c.do(ctx, http.MethodGet, "/jobs/"+jobID, "", nil, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (c *Client) QueueSize(ctx context.Context) (int, error) {
	var resp struct {
		PendingJobs int `json:"pending_jobs"`
	}
	if err := c.do(ctx, http.MethodGet, "/queue/status", "", nil, &resp); err != nil {
		return 0, err
	}
	return resp.PendingJobs, nil
}

func (c *Client) ListHistory(ctx context.Context) ([]models.HistoryEntry, error) {
	var resp struct {
		Entries []models.HistoryEntry `json:"entries"`
	}
	if err := c.do(ctx, http.MethodGet, "/history", "", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Entries, nil
}

func (c *Client) DeleteEntry(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/history/"+strconv.FormatInt(id, 10), "", nil, nil)
}

func (c *Client) ClearHistory(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/history", "", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", url, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	bodyBytes, _ := io.ReadAll(resp.Body)
	var errResp httperrors.ErrorResponse
	if err := json.Unmarshal(bodyBytes, &errResp); err == nil && errResp.Message != "" {
		return &APIError{Status: resp.StatusCode, Message: errResp.Message}
	}
	return &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(bodyBytes))}
}

func buildForm(in GenerateInput) (io.Reader, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	fields := [][2]string{
		{"documentText", in.DocumentText},
		{"designLink", in.DesignLink},
		{"focus", in.Focus},
	}
	if in.Priority != nil {
		fields = append(fields, [2]string{"priority", strconv.Itoa(int(*in.Priority))})
	}
	for _, f := range fields {
		if f[1] == "" {
			continue
		}
		if err := writer.WriteField(f[0], f[1]); err != nil {
			return nil, "", fmt.Errorf("failed to write form field '%s': %w", f[0], err)
		}
	}

	if in.DocumentPath != "" {
		if err := attachFile(writer, "document", in.DocumentPath); err != nil {
			return nil, "", err
		}
	}
	for _, p := range in.ImagePaths {
		if err := attachFile(writer, "images", p); err != nil {
			return nil, "", err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}
	return body, writer.FormDataContentType(), nil
}

func attachFile(writer *multipart.Writer, field, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer file.Close()

	// Only the base name is sent so local directory layout never reaches the server.
	part, err := writer.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return fmt.Errorf("failed to create form file for %s (%s): %w", field, path, err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("failed to copy file content for %s (%s): %w", field, path, err)
	}
	return nil
}
