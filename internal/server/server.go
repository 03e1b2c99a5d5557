// Package server provides the HTTP server implementation for the character hub.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/al3xb0/mindpal-task/internal/auth"
	"github.com/al3xb0/mindpal-task/internal/config"
	apierrors "github.com/al3xb0/mindpal-task/internal/errors"
	"github.com/al3xb0/mindpal-task/internal/gateway"
	"github.com/al3xb0/mindpal-task/internal/handler"
	"github.com/al3xb0/mindpal-task/internal/health"
	"github.com/al3xb0/mindpal-task/internal/metrics"
	"github.com/al3xb0/mindpal-task/internal/middleware"
	"github.com/al3xb0/mindpal-task/internal/session"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Server represents the HTTP server.
type Server struct {
	router       *mux.Router
	httpServer   *http.Server
	handlers     *handler.Handlers
	healthCheck  *health.HealthCheck
	errorHandler *apierrors.Handler
	jwtAuth      *auth.JWTAuth
	metrics      *metrics.Metrics
	logger       *zap.Logger
	cfg          *config.Config
}

// NewServer creates a new HTTP server. jwtAuth and m may be nil, which
// leaves every request anonymous and disables HTTP metrics respectively.
func NewServer(
	cfg *config.Config,
	gw *gateway.Gateway,
	registry *session.Registry,
	jwtAuth *auth.JWTAuth,
	healthCheck *health.HealthCheck,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Server {
	router := mux.NewRouter()
	errorHandler := apierrors.NewHandler(logger)
	handlers := handler.NewHandlers(gw, registry, errorHandler, logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Server{
		router:       router,
		httpServer:   httpServer,
		handlers:     handlers,
		healthCheck:  healthCheck,
		errorHandler: errorHandler,
		jwtAuth:      jwtAuth,
		metrics:      m,
		logger:       logger,
		cfg:          cfg,
	}
}

// SetupRoutes configures all HTTP routes.
func (s *Server) SetupRoutes() {
	middlewareChain := []func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.Recovery(s.errorHandler, s.logger),
		middleware.Logging(s.logger),
		middleware.CORS(s.cfg.Server.AllowedOrigins),
	}

	if s.metrics != nil {
		middlewareChain = append(middlewareChain, metrics.MetricsMiddleware(s.metrics))
	}

	if s.cfg.RateLimiter.Enabled {
		rateLimiter := middleware.NewRateLimiter(
			s.cfg.RateLimiter.RequestsPerSecond,
			s.cfg.RateLimiter.BurstSize,
			s.errorHandler,
			s.logger,
		)
		middlewareChain = append(middlewareChain, rateLimiter.Limit)
	}

	middlewareChain = append(middlewareChain,
		middleware.Timeout(s.cfg.Server.WriteTimeout),
		middleware.Auth(s.jwtAuth, s.logger),
	)

	chain := middleware.Chain(middlewareChain...)
	s.router.Use(func(next http.Handler) http.Handler {
		return chain(next)
	})

	// Health check endpoints
	s.router.HandleFunc("/health", s.healthCheck.LivenessHandler).Methods(http.MethodGet)
	s.router.HandleFunc("/ready", s.healthCheck.ReadinessHandler).Methods(http.MethodGet)

	v1 := s.router.PathPrefix("/v1").Subrouter()

	// Character directory
	v1.HandleFunc("/characters", s.handlers.SearchCharacters).Methods(http.MethodPost, http.MethodOptions)
	v1.HandleFunc("/characters", s.handlers.ListCharacters).Methods(http.MethodGet)

	// Favorites
	v1.HandleFunc("/favorites", s.handlers.ListFavorites).Methods(http.MethodGet, http.MethodOptions)
	v1.HandleFunc("/favorites/refetch", s.handlers.RefetchFavorites).Methods(http.MethodPost, http.MethodOptions)
	v1.HandleFunc("/favorites/toggle", s.handlers.ToggleFavorite).Methods(http.MethodPost, http.MethodOptions)
	v1.HandleFunc("/favorites/{character_id}", s.handlers.RemoveFavorite).Methods(http.MethodDelete, http.MethodOptions)
	v1.HandleFunc("/favorites/{character_id}", s.handlers.FavoriteStatus).Methods(http.MethodGet)

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.errorHandler.WriteErrorResponse(w, http.StatusNotFound, apierrors.KindInvalidRequest, "endpoint not found", nil, r.Header.Get("X-Request-ID"))
	})

	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.errorHandler.WriteErrorResponse(w, http.StatusMethodNotAllowed, apierrors.KindInvalidRequest, "method not allowed", nil, r.Header.Get("X-Request-ID"))
	})
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server",
		zap.Int("port", s.cfg.Server.Port),
	)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// GetHandler returns the http.Handler for the server.
func (s *Server) GetHandler() http.Handler {
	return s.router
}
