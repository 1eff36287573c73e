// Package api serves the host's status surface over HTTP: the plugin
// roster, published series, field writes, save triggers and the event
// stream. It is read-mostly and unauthenticated, intended for localhost
// tooling like the watch TUI.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/spectral-works/prism/internal/events"
	"github.com/spectral-works/prism/internal/host"
)

// SessionController is what the API needs from the running host.
type SessionController interface {
	Status() []host.PluginStatus
	ActiveCount() int
	Series(pluginName string) host.SeriesSnapshot
	SetField(pluginName, field string, value any) error
	TriggerSave(ctx context.Context) (string, error)
}

// EventSource provides backfill access to the event ring buffer.
type EventSource interface {
	SnapshotSince(lastID int64) []events.Event
}

// Config holds API server configuration.
type Config struct {
	Listen string
}

// Server is the HTTP status server.
type Server struct {
	config    Config
	session   SessionController
	eventSrc  EventSource
	logger    *slog.Logger
	server    *http.Server
	startedAt time.Time
}

// New creates an API server.
func New(config Config, session SessionController, eventSrc EventSource, logger *slog.Logger) *Server {
	return &Server{
		config:    config,
		session:   session,
		eventSrc:  eventSrc,
		logger:    logger,
		startedAt: time.Now(),
	}
}

// Start runs the HTTP server until ctx is cancelled (blocking).
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.config.Listen,
		Handler:      s.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("API server starting", "listen", s.config.Listen)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("API server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
}

// Routes configures the HTTP router.
func (s *Server) Routes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/plugins", s.handlePlugins)
		r.Get("/plugins/{plugin}/series", s.handleSeries)
		r.Post("/plugins/{plugin}/fields/{field}", s.handleSetField)
		r.Post("/save", s.handleSave)
		r.Get("/events", s.handleEvents)
	})

	return r
}

// loggingMiddleware logs HTTP requests.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
