package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kozaktomas/band-gallery/internal/web/handlers"
	"github.com/kozaktomas/band-gallery/internal/web/middleware"
)

type routeHandlers struct {
	photos   *handlers.PhotosHandler
	clusters *handlers.ClustersHandler
	health   *handlers.HealthHandler
}

func (s *Server) setupRoutes(h routeHandlers) {
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/api", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", h.health.Check)

		// Public gallery
		r.Get("/photos", h.photos.List)
		r.Get("/photos/{id}", h.photos.Get)
		r.Get("/photos/{id}/position", h.photos.Position)

		// Admin routes require an admin bearer token
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin(s.config.Auth.AdminJWTSecret))

			r.Get("/photo-clusters", h.clusters.List)
			r.Post("/photo-clusters", h.clusters.Create)
			r.Get("/photo-clusters/{id}", h.clusters.Get)
			r.Put("/photo-clusters/{id}", h.clusters.Update)
			r.Delete("/photo-clusters/{id}", h.clusters.Delete)
		})
	})

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"not found"}`))
	})
}
