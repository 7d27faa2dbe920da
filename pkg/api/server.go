package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pathfinders/auth-service/pkg/config"
	"github.com/pathfinders/auth-service/pkg/httputil"
	"github.com/pathfinders/auth-service/pkg/middleware"
	"github.com/pathfinders/auth-service/pkg/observability"
	"github.com/pathfinders/auth-service/pkg/service"
)

const maxRequestBytes = 1 << 20 // 1 MiB, auth payloads are small

// Server is the HTTP front end of the auth service
type Server struct {
	router     *mux.Router
	httpServer *http.Server
	logger     *observability.Logger
}

// NewServer builds the router, middleware stack, and route table
func NewServer(
	cfg *config.Config,
	svc *service.Service,
	guard *middleware.SessionGuard,
	health *observability.HealthChecker,
	logger *observability.Logger,
	metrics *observability.Metrics,
	registry *prometheus.Registry,
) *Server {
	router := mux.NewRouter()

	// Probes and metrics bypass the API middleware chain
	router.HandleFunc("/healthz", health.Liveness).Methods("GET")
	router.HandleFunc("/readyz", health.Readiness).Methods("GET")
	if cfg.Observability.MetricsEnabled {
		router.Handle("/metrics", observability.MetricsHandler(registry)).Methods("GET")
	}

	chain := httputil.Chain(
		httputil.RequestIDMiddleware,
		httputil.LoggingMiddleware(logger),
		observability.HTTPMetricsMiddleware(metrics),
		httputil.RecoveryMiddleware(logger),
		httputil.MaxBytesMiddleware(maxRequestBytes),
	)

	v1 := router.PathPrefix("/api/v1").Subrouter()
	v1.Use(chain)

	handlers := NewAuthHandlers(svc, guard)
	handlers.RegisterRoutes(v1)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	return &Server{
		router: router,
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  cfg.Server.IdleTimeout,
		},
		logger: logger,
	}
}

// Router exposes the route table for tests
func (s *Server) Router() *mux.Router {
	return s.router
}

// ListenAndServe starts serving and blocks until shutdown or failure
func (s *Server) ListenAndServe() error {
	s.logger.WithField("addr", s.httpServer.Addr).Info("http server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
