package api

import (
	"bytes"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// maxLoggedBody caps how much of an error response ends up in the request log.
const maxLoggedBody = 512

// responseWriterInterceptor captures the status code and the head of the response body.
type responseWriterInterceptor struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func newResponseWriterInterceptor(w http.ResponseWriter) *responseWriterInterceptor {
	return &responseWriterInterceptor{
		ResponseWriter: w,
		statusCode:     http.StatusOK, // Default to 200
		body:           new(bytes.Buffer),
	}
}

// WriteHeader captures the status code.
func (rwi *responseWriterInterceptor) WriteHeader(statusCode int) {
	rwi.statusCode = statusCode
	rwi.ResponseWriter.WriteHeader(statusCode)
}

// Write keeps up to maxLoggedBody bytes and calls the underlying Write.
func (rwi *responseWriterInterceptor) Write(b []byte) (int, error) {
	if room := maxLoggedBody - rwi.body.Len(); room > 0 {
		if len(b) < room {
			room = len(b)
		}
		rwi.body.Write(b[:room])
	}
	return rwi.ResponseWriter.Write(b)
}

// StructuredRequestLogger logs every request with slog. Error bodies are included,
// success bodies are not (they carry generated test cases).
func StructuredRequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			rwi := newResponseWriterInterceptor(ww)

			start := time.Now()
			defer func() {
				attrs := []any{
					slog.String("request_id", middleware.GetReqID(r.Context())),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("route", routePattern(r)),
					slog.String("remote_addr", r.RemoteAddr),
					slog.Int64("request_bytes", r.ContentLength),
					slog.Int("status", rwi.statusCode),
					slog.Int("bytes_written", ww.BytesWritten()),
					slog.Duration("latency", time.Since(start)),
				}
				if rwi.statusCode >= http.StatusBadRequest {
					attrs = append(attrs, slog.String("response_body", rwi.body.String()))
					logger.Warn("http request", attrs...)
					return
				}
				logger.Info("http request", attrs...)
			}()

			next.ServeHTTP(rwi, r)
		})
	}
}

// routePattern returns the matched chi pattern (e.g. /api/v1/jobs/{jobId}) so job and
// entry ids do not fragment the logs. Unmatched requests report an empty route.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		return rctx.RoutePattern()
	}
	return ""
}
