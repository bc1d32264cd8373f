// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-companion-auth.
//
// go-companion-auth is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package rest

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jeremyhahn/go-companion-auth/pkg/auth"
	"github.com/jeremyhahn/go-companion-auth/pkg/metrics"
	"github.com/jeremyhahn/go-companion-auth/pkg/principal"
	"github.com/jeremyhahn/go-companion-auth/pkg/ratelimit"
	"github.com/jeremyhahn/go-companion-auth/pkg/token"
)

// Server represents the REST API server.
type Server struct {
	server  *http.Server
	router  *chi.Mux
	service *auth.Service
	issuer  *token.Issuer
	limiter *ratelimit.Limiter
	port    int
	version string
	logger  *slog.Logger
}

// Config holds the REST server configuration.
type Config struct {
	// Port is the HTTP port to listen on (default: 8080)
	Port int

	// Service is the authentication service (required)
	Service *auth.Service

	// Issuer verifies access tokens on protected routes (required)
	Issuer *token.Issuer

	// Limiter rate limits the authentication endpoints (optional)
	Limiter *ratelimit.Limiter

	// Version is the API version string
	Version string

	// Logger is the structured logger (optional, defaults to slog.Default)
	Logger *slog.Logger

	// ReadTimeout is the maximum duration for reading the entire request
	ReadTimeout time.Duration

	// WriteTimeout is the maximum duration before timing out writes
	WriteTimeout time.Duration

	// IdleTimeout is the maximum amount of time to wait for the next request
	IdleTimeout time.Duration
}

// NewServer creates a new REST API server.
func NewServer(cfg *Config) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.Service == nil {
		return nil, fmt.Errorf("auth service is required")
	}
	if cfg.Issuer == nil {
		return nil, fmt.Errorf("token issuer is required")
	}

	// Set defaults
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.Version == "" {
		cfg.Version = "1.0.0"
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 15 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 15 * time.Second
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 60 * time.Second
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	server := &Server{
		service: cfg.Service,
		issuer:  cfg.Issuer,
		limiter: cfg.Limiter,
		port:    cfg.Port,
		version: cfg.Version,
		logger:  logger,
	}

	server.router = server.setupRouter()

	server.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      server.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return server, nil
}

// setupRouter configures the chi router with all routes and middleware.
func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(s.RecoveryMiddleware())
	r.Use(s.CorrelationMiddleware()) // Add correlation ID before logging
	r.Use(s.LoggingMiddleware())
	r.Use(metrics.HTTPMiddleware)
	r.Use(CORSMiddleware)

	// Health endpoints (no auth required)
	r.Get("/health", s.HealthHandler)
	r.Head("/health", s.HealthHandler)
	r.Get("/health/live", s.LivenessHandler)
	r.Get("/health/ready", s.ReadinessHandler)

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Authentication ceremonies are unauthenticated but rate limited
		r.Group(func(r chi.Router) {
			if s.limiter != nil {
				r.Use(ratelimit.Middleware(s.limiter))
			}

			r.Post("/auth/register/start", s.RegisterStartHandler)
			r.Post("/auth/register/finish", s.RegisterFinishHandler)
			r.Post("/auth/login/start", s.LoginStartHandler)
			r.Post("/auth/login/finish", s.LoginFinishHandler)
			r.Post("/auth/child/login", s.ChildLoginHandler)
			r.Post("/auth/refresh", s.RefreshHandler)
		})

		// Routes requiring a valid access token
		r.Group(func(r chi.Router) {
			r.Use(s.AuthenticationMiddleware())

			r.Post("/auth/logout", s.LogoutHandler)

			// Child account management is parent-only
			r.Group(func(r chi.Router) {
				r.Use(s.RequireRole(principal.RoleParent))

				r.Post("/children", s.CreateChildHandler)
				r.Get("/children", s.ListChildrenHandler)
			})
		})
	})

	return r
}

// Handler returns the configured router, primarily for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the REST API server.
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", "port", s.port)

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	return nil
}

// Stop gracefully stops the REST API server.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down server")

	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Error("Failed to shutdown server", "error", err)
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	s.logger.Info("Server stopped")
	return nil
}

// Port returns the port the server is listening on.
func (s *Server) Port() int {
	return s.port
}
