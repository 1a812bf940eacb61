// Package api exposes the catalog over HTTP. Routes live under /api/v1,
// with aliases for the paths the original browser front end calls.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mesh-intelligence/moviedex/internal/catalog"
	"github.com/mesh-intelligence/moviedex/internal/logger"
	"github.com/mesh-intelligence/moviedex/internal/metrics"
)

// Config controls the HTTP server.
type Config struct {
	Addr               string
	CORSAllowedOrigins []string
	RateLimitRequests  int
	RateLimitWindow    time.Duration
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	ShutdownTimeout    time.Duration
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Addr:               "127.0.0.1:5000",
		CORSAllowedOrigins: []string{"http://localhost:3000"},
		RateLimitRequests:  100,
		RateLimitWindow:    time.Minute,
		ReadTimeout:        10 * time.Second,
		WriteTimeout:       15 * time.Second,
		IdleTimeout:        60 * time.Second,
		ShutdownTimeout:    10 * time.Second,
	}
}

// Server routes HTTP requests to a catalog.Service.
type Server struct {
	service *catalog.Service
	config  Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	router  chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the access and error logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMetrics records request metrics and serves them on /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// NewServer builds the router for svc.
func NewServer(svc *catalog.Service, cfg Config, opts ...Option) *Server {
	s := &Server{
		service: svc,
		config:  cfg,
		logger:  logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(s.instrument)
	r.Use(middleware.Recoverer)
	r.Use(s.corsHandler())

	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(s.rateLimit())

		r.Route("/api/v1", func(r chi.Router) {
			r.Get("/movies", s.handleSearch)
			r.Post("/movies", s.handleAdd)
			r.Get("/movies/{id}", s.handleGet)
			r.Patch("/movies/{id}", s.handleUpdate)
			r.Delete("/movies/{id}", s.handleDelete)
			r.Post("/movies/{id}/genres", s.handleAddGenre)
			r.Get("/stats/years", s.handleYearCounts)
		})

		r.Get("/movies", s.handleSearch)
		r.Get("/search_movies", s.handleSearch)
		r.Post("/add_movies", s.handleAdd)
		r.Patch("/update_movie/{id}", s.handleUpdate)
		r.Delete("/delete_movie/{id}", s.handleDelete)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{
			Message:   "route not found",
			RequestID: middleware.GetReqID(r.Context()),
		})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{
			Message:   "method not allowed",
			RequestID: middleware.GetReqID(r.Context()),
		})
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
// within the configured timeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.config.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
		// Requests keep ctx values but not its cancellation, so Shutdown
		// can drain them.
		BaseContext: func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", slog.String("addr", ln.Addr().String()))
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve http: %w", err)
	}
	return nil
}
