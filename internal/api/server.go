package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/hmcts/vh-user-api-duplicate/internal/api/auth"
	"github.com/hmcts/vh-user-api-duplicate/internal/logger"
	"github.com/hmcts/vh-user-api-duplicate/pkg/config"
	"github.com/hmcts/vh-user-api-duplicate/pkg/provision"
)

// Server provides the HTTP server for the user provisioning REST API.
//
// The server exposes health probes and the account provisioning endpoints,
// and supports graceful shutdown with a configurable timeout.
type Server struct {
	server       *http.Server
	jwtService   *auth.JWTService
	config       config.APIConfig
	shutdownOnce sync.Once
}

// NewServer creates a new API HTTP server.
//
// The server is created in a stopped state. Call Start() to begin serving
// requests. The JWT secret must be configured via config or the
// USERAPI_API_JWT_SECRET environment variable.
//
// tokenProbe backs the readiness endpoint and may be nil.
func NewServer(cfg config.APIConfig, service *provision.Service, tokenProbe func(r *http.Request) error) (*Server, error) {
	jwtService, err := auth.NewJWTService(auth.JWTConfig{
		Secret:        cfg.JWTSecret,
		Issuer:        "userapi",
		TokenDuration: cfg.JWTExpiry,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}

	// The chi timeout must sit inside the write timeout or responses get
	// cut off before the handler notices the deadline.
	requestTimeout := cfg.WriteTimeout - time.Second
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}

	router := NewRouter(service, jwtService, tokenProbe, requestTimeout)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &Server{
		server:     server,
		jwtService: jwtService,
		config:     cfg,
	}, nil
}

// JWTService returns the server's JWT service, used by the token command to
// mint caller tokens with the same configuration.
func (s *Server) JWTService() *auth.JWTService {
	return s.jwtService
}

// Start starts the API HTTP server and blocks until the context is cancelled
// or an error occurs.
//
// When the context is cancelled, Start initiates graceful shutdown and
// returns nil on success.
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		logger.Info("API server listening", "port", s.config.Port)
		logger.Debug("API endpoints available",
			"health", fmt.Sprintf("http://localhost:%d/health", s.config.Port),
			"ready", fmt.Sprintf("http://localhost:%d/health/ready", s.config.Port),
		)

		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			select {
			case errChan <- err:
			default:
				// Context was cancelled, error is not needed
			}
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("API server shutdown signal received")
		// Create a fresh context for graceful shutdown - the cancelled ctx
		// would abort the shutdown immediately
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("API server failed: %w", err)
	}
}

// Stop initiates graceful shutdown of the API server.
//
// Stop is safe to call multiple times and safe to call concurrently with
// Start().
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		logger.Debug("API server shutdown initiated")

		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("API server shutdown error: %w", err)
			logger.Error("API server shutdown error", logger.KeyError, err)
		} else {
			logger.Info("API server stopped gracefully")
		}
	})
	return shutdownErr
}

// Port returns the TCP port the server is listening on.
func (s *Server) Port() int {
	return s.config.Port
}
