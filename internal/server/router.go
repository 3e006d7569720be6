package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sevigo/repodigest/internal/metrics"
	"github.com/sevigo/repodigest/internal/server/handler"
)

// NewRouter builds the HTTP router: health check, Prometheus scrape endpoint, and the
// POST /summarize edge. Middleware stack grounded on the teacher's internal/server/router.go.
func NewRouter(summarizer handler.Summarizer, m *metrics.Metrics, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	if m != nil {
		r.Get("/metrics", m.Handler().ServeHTTP)
	}

	summarizeHandler := handler.NewSummarizeHandler(summarizer, logger)
	r.Post("/summarize", summarizeHandler.Handle)

	return r
}
