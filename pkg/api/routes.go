package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRouter initializes the Chi router and defines the API endpoints.
func SetupRouter(api *API) http.Handler {
	r := chi.NewRouter()

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins:   api.Config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	})

	// --- Standard Middleware Stack ---
	r.Use(corsMiddleware.Handler)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(StructuredRequestLogger(api.Logger))
	r.Use(middleware.Recoverer)

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(api.Auth.Middleware(api.Logger))

		// Model calls get their own, longer budget.
		r.With(middleware.Timeout(api.Config.GenerationTimeout+5*time.Second)).
			Post("/generations", api.HandleGenerate)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(api.Config.RequestTimeout))

			r.Route("/history", func(r chi.Router) {
				r.Get("/", api.HandleListHistory)
				r.Delete("/", api.HandleClearHistory)
				r.Delete("/{entryId}", api.HandleDeleteHistoryEntry)
			})

			r.Route("/jobs", func(r chi.Router) {
				r.Post("/", api.HandleEnqueueJob)
				r.Get("/{jobId}", api.HandleGetJob)
			})

			r.Get("/queue/status", api.HandleGetQueueStatus)
			r.Get("/artifacts/{ownerKey}/{name}", api.HandleGetArtifact)
		})
	})

	return r
}
