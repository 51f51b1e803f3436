package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/kozaktomas/band-gallery/internal/config"
	"github.com/kozaktomas/band-gallery/internal/database"
	"github.com/kozaktomas/band-gallery/internal/gallery"
	"github.com/kozaktomas/band-gallery/internal/web/handlers"
	"github.com/kozaktomas/band-gallery/internal/web/middleware"
)

// requestTimeout bounds every API request, including its store queries.
const requestTimeout = 30 * time.Second

// Server represents the web server
type Server struct {
	config     *config.Config
	router     *chi.Mux
	httpServer *http.Server
}

// NewServer creates a new web server over the registered database backend.
// db is pinged by the health endpoint and may be nil.
func NewServer(ctx context.Context, cfg *config.Config, db handlers.Pinger) (*Server, error) {
	photos, err := database.GetPhotoReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("photo reader: %w", err)
	}
	clusters, err := database.GetClusterWriter(ctx)
	if err != nil {
		return nil, fmt.Errorf("cluster writer: %w", err)
	}

	r := chi.NewRouter()
	s := &Server{
		config: cfg,
		router: r,
	}

	// Set up middleware stack
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger(log.Logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(requestTimeout))
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	r.Use(middleware.SecurityHeaders())

	svc := gallery.NewService(photos, clusters, cfg.Gallery)
	s.setupRoutes(routeHandlers{
		photos:   handlers.NewPhotosHandler(svc, photos),
		clusters: handlers.NewClustersHandler(clusters, photos),
		health:   handlers.NewHealthHandler(db),
	})

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: requestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Start starts the HTTP server
func (s *Server) Start() error {
	log.Info().Str("addr", s.httpServer.Addr).Msg("Starting web server")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Shutting down web server")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing
func (s *Server) Router() *chi.Mux {
	return s.router
}
