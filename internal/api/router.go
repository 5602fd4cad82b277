// Package api provides the REST API server for the user provisioning
// service.
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hmcts/vh-user-api-duplicate/internal/api/auth"
	"github.com/hmcts/vh-user-api-duplicate/internal/api/handlers"
	apiMiddleware "github.com/hmcts/vh-user-api-duplicate/internal/api/middleware"
	"github.com/hmcts/vh-user-api-duplicate/internal/logger"
	"github.com/hmcts/vh-user-api-duplicate/pkg/provision"
)

// NewRouter creates and configures the chi router with all middleware and routes.
//
// The router is configured with:
//   - Request ID middleware for request tracking
//   - Real IP extraction for proper client identification
//   - Custom request logging using the internal logger
//   - Panic recovery to prevent server crashes
//   - Request timeout to prevent hung requests
//
// Routes:
//   - GET /health - Liveness probe
//   - GET /health/ready - Readiness probe
//   - POST /api/v1/users - Provision a new account
//   - GET /api/v1/users?recovery_email=x - Account lookup by recovery email
//   - GET /api/v1/users/{id} - Account lookup by id or principal name
//   - DELETE /api/v1/users/{id} - Remove an account
//   - GET /api/v1/users/{id}/groups - Groups the account belongs to
//   - PATCH /api/v1/users/{id}/password - Issue a fresh one-time password
//   - PATCH /api/v1/users/{id}/recovery-email - Replace the recovery email
//   - GET /api/v1/groups?name=x - Group lookup by display name
//   - GET /api/v1/groups/{id} - Group lookup by object id
//   - POST /api/v1/groups/{id}/members - Add an account to a group
func NewRouter(service *provision.Service, jwtService *auth.JWTService, tokenProbe func(r *http.Request) error, requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	healthHandler := handlers.NewHealthHandler(tokenProbe)

	// Health routes - unauthenticated
	r.Route("/health", func(r chi.Router) {
		r.Get("/", healthHandler.Liveness)
		r.Get("/ready", healthHandler.Readiness)
	})

	// Root redirect to health for convenience
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/health", http.StatusTemporaryRedirect)
	})

	userHandler := handlers.NewUserHandler(service)
	groupHandler := handlers.NewGroupHandler(service)

	// API v1 routes - all authenticated
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(apiMiddleware.JWTAuth(jwtService))

		r.Route("/users", func(r chi.Router) {
			r.Post("/", userHandler.Create)
			r.Get("/", userHandler.GetByRecoveryEmail)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", userHandler.Get)
				r.Delete("/", userHandler.Delete)
				r.Get("/groups", userHandler.ListGroups)
				r.Patch("/password", userHandler.ResetPassword)
				r.Patch("/recovery-email", userHandler.UpdateRecoveryEmail)
			})
		})

		r.Route("/groups", func(r chi.Router) {
			r.Get("/", groupHandler.GetByName)
			r.Get("/{id}", groupHandler.Get)
			r.Post("/{id}/members", groupHandler.AddMember)
		})
	})

	return r
}

// isHealthPath returns true if the request path is a healthcheck endpoint.
func isHealthPath(path string) bool {
	return path == "/health" || strings.HasPrefix(path, "/health/")
}

// requestLogger is a custom middleware that logs requests using the internal logger.
//
// It logs:
//   - Request start (DEBUG level): method, path, remote addr
//   - Request completion (INFO level): method, path, status, duration
//   - Healthcheck requests are logged at DEBUG level to reduce noise
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		logger.Debug("API request started",
			logger.KeyRequestID, requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)

		// Wrap response writer to capture status code
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		duration := time.Since(start)

		logArgs := []any{
			logger.KeyRequestID, requestID,
			"method", r.Method,
			"path", r.URL.Path,
			logger.KeyStatus, ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", duration.String(),
		}

		// Log healthcheck requests at DEBUG to avoid polluting logs in k8s
		if isHealthPath(r.URL.Path) {
			logger.Debug("API request completed", logArgs...)
		} else {
			logger.Info("API request completed", logArgs...)
		}
	})
}
