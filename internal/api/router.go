package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
)

// NewRouter builds and returns the chi router with all routes configured.
// The lookup endpoint is unauthenticated; per-IP rate limiting (60 requests
// per minute) is the only guard. CORS is applied before the limiter so even
// 429 responses carry the header.
func NewRouter(handlers *Handlers, pinger CachePinger, log *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(CORS)
	r.Use(httprate.LimitByIP(60, time.Minute))

	r.Get("/api/v1/health", HealthHandlerFunc(pinger, log))
	r.Get("/api/v1/air", handlers.GetAirQuality)

	return r
}

// Ensure chi.Mux implements http.Handler.
var _ http.Handler = (*chi.Mux)(nil)
