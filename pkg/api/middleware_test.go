package api

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructuredRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	r := chi.NewRouter()
	r.Use(StructuredRequestLogger(logger))
	r.Get("/jobs/{jobId}", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "jobId") == "missing" {
			http.Error(w, strings.Repeat("x", 2*maxLoggedBody), http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"secret":"test cases"}`))
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/jobs/abc", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/jobs/missing", nil))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var ok, failed map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &ok))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &failed))

	assert.Equal(t, "INFO", ok["level"])
	assert.Equal(t, "/jobs/{jobId}", ok["route"])
	assert.Equal(t, float64(http.StatusOK), ok["status"])
	assert.NotContains(t, ok, "response_body")

	assert.Equal(t, "WARN", failed["level"])
	assert.Equal(t, float64(http.StatusNotFound), failed["status"])
	assert.Len(t, failed["response_body"], maxLoggedBody)
}
