package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/iconidentify/instafetch/internal/api/handler"
	mw "github.com/iconidentify/instafetch/internal/api/middleware"
)

// NewRouter creates the operational HTTP router.
func NewRouter(healthHandler *handler.HealthHandler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.CleanPath)
	r.Use(middleware.RealIP)
	r.Use(mw.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler.Live)
	r.Get("/stats", healthHandler.Stats)

	return r
}
