package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/split-proj/atmsplit/internal/config"
)

// NewRouter mounts h under /api behind the shared middleware.
func NewRouter(h *Handler, cfg config.ServerConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(ContextualLogger)
	r.Use(CORS(cfg.AllowedOrigins))
	if cfg.RateEvery > 0 {
		r.Use(RateLimit(rate.NewLimiter(rate.Every(cfg.RateEvery), cfg.RateBurst)))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.HandleHealth)
		r.Post("/upload-file", h.HandleUpload)
		r.Get("/processing-status/{id}", h.HandleStatus)
		r.Get("/summary/{id}", h.HandleSummary)
		r.Post("/generate-report", h.HandleReport)
	})
	return r
}
