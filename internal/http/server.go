// Package httpserver exposes the rating graph and recommender over HTTP.
package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/Clark-Hu/moviegraph/internal/catalog"
	"github.com/Clark-Hu/moviegraph/internal/config"
	"github.com/Clark-Hu/moviegraph/internal/recommend"
	"github.com/Clark-Hu/moviegraph/internal/store"
)

// Server wires HTTP routing, middleware, and handlers.
type Server struct {
	cfg     config.Config
	store   *store.Store
	engine  *recommend.Engine
	catalog catalog.Client
	logger  zerolog.Logger
	router  chi.Router
	httpSrv *http.Server
}

// New constructs the HTTP server with base middleware and routes. st is nil
// when the graph was loaded from a file; cat is nil when no catalog is
// configured.
func New(cfg config.Config, st *store.Store, engine *recommend.Engine, cat catalog.Client, logger zerolog.Logger) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(corsHandler(cfg.AllowedOrigins()))
	if cfg.RateLimitRequests > 0 {
		r.Use(rateLimiter(cfg.RateLimitRequests, time.Duration(cfg.RateLimitWindowSecs)*time.Second))
	}

	s := &Server{
		cfg:     cfg,
		store:   st,
		engine:  engine,
		catalog: cat,
		logger:  logger,
		router:  r,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Method(http.MethodGet, "/metrics", promhttp.Handler())
	s.router.Route("/movies", func(r chi.Router) {
		r.Get("/", s.handleListMovies)
		r.Route("/{title}", func(r chi.Router) {
			r.Get("/", s.handleGetMovie)
			r.Get("/links", s.handleMovieLinks)
		})
	})
	s.router.Post("/recommendations", s.handleRecommend)
}

// Handler returns the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start boots the HTTP server and blocks until ctx ends or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.httpSrv = &http.Server{
		Addr:         ":" + s.cfg.Port,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.cfg.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(s.cfg.WriteTimeoutSecs) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.IdleTimeoutSecs) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.httpSrv.Addr).Msg("http server listening")
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpSrv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

type healthResponse struct {
	Status  string `json:"status"`
	Movies  int    `json:"movies"`
	Users   int    `json:"users"`
	Ratings int    `json:"ratings"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if s.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.store.HealthCheck(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("health check failed")
			s.respondError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Database unreachable")
			return
		}
	}
	stats := s.engine.Graph().Stats()
	s.respondJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Movies:  stats.Movies,
		Users:   stats.Users,
		Ratings: stats.Ratings,
	})
}
