package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"slidecast/config"
	"slidecast/internal/domain"
	"slidecast/internal/logger"
	"slidecast/internal/usecase"
)

// Server exposes the publish endpoint and the studio API.
type Server struct {
	cfg      *config.Config
	studio   *usecase.Studio
	uploader domain.Uploader
	router   chi.Router
	server   *http.Server
}

// NewServer creates a new HTTP server. A nil studio disables the studio
// routes; a nil uploader disables the publish endpoint.
func NewServer(cfg *config.Config, studio *usecase.Studio, uploader domain.Uploader) *Server {
	s := &Server{
		cfg:      cfg,
		studio:   studio,
		uploader: uploader,
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(loggingMiddleware)

	r.Get("/api/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	if uploader != nil {
		r.With(publishRecoverer, publishRateLimit(cfg.PublishRateLimit, time.Minute)).Post("/api/publish", s.handlePublish)
	}

	if studio != nil {
		r.Route("/api/scenes", func(r chi.Router) {
			r.Get("/", s.listScenes)
			r.Post("/", s.addScene)
			r.Post("/seed", s.seedScenes)
			r.Patch("/{id}", s.updateScene)
			r.Delete("/{id}", s.removeScene)
			r.Post("/{id}/duplicate", s.duplicateScene)
			r.Post("/{id}/move", s.moveScene)
		})
		r.Get("/api/runtime", s.handleRuntime)
		r.Post("/api/render", s.startRender)
		r.Get("/api/render", s.renderStatus)
		r.Get("/api/render/artifact", s.serveArtifact)
		r.Get("/api/status", s.handleStatus)
		r.Put("/api/publish/form", s.updateForm)
		r.Post("/api/studio/publish", s.studioPublish)
		r.Get("/api/publishes", s.listPublishes)
	}

	s.router = r
	s.server = &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins serving HTTP requests in a separate goroutine.
func (s *Server) Start() error {
	if s.cfg.ServerPort == "" {
		return fmt.Errorf("server port is not configured")
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http api server stopped with error")
		}
	}()
	logger.Info().Str("addr", s.server.Addr).Msg("HTTP API server listening")
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("elapsed", time.Since(start)).
			Msg("http request")
	})
}
