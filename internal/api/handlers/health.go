package handlers

import (
	"net/http"
	"time"
)

// HealthHandler handles health check endpoints.
//
// Health endpoints are unauthenticated and provide:
//   - Liveness probe: Is the server process running?
//   - Readiness probe: Can the service obtain a directory access token?
type HealthHandler struct {
	tokenProbe func(r *http.Request) error
	startTime  time.Time
}

// NewHealthHandler creates a new health handler. tokenProbe checks that the
// directory token source works and may be nil, in which case readiness only
// reports process health.
func NewHealthHandler(tokenProbe func(r *http.Request) error) *HealthHandler {
	return &HealthHandler{
		tokenProbe: tokenProbe,
		startTime:  time.Now(),
	}
}

// healthResponse is the body of health endpoints.
type healthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	StartedAt string `json:"started_at"`
	Uptime    string `json:"uptime"`
	Error     string `json:"error,omitempty"`
}

// Liveness handles GET /health - simple liveness probe.
//
// Returns 200 OK if the server process is running. Designed for Kubernetes
// liveness probes; it succeeds as long as the HTTP server is responsive.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	WriteJSONOK(w, healthResponse{
		Status:    "healthy",
		Service:   "userapi",
		StartedAt: h.startTime.UTC().Format(time.RFC3339),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	})
}

// Readiness handles GET /health/ready - readiness probe.
//
// Verifies the service can authenticate against the directory, so a broken
// client secret takes the pod out of rotation instead of failing requests.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.tokenProbe != nil {
		if err := h.tokenProbe(r); err != nil {
			WriteJSON(w, http.StatusServiceUnavailable, healthResponse{
				Status:    "unhealthy",
				Service:   "userapi",
				StartedAt: h.startTime.UTC().Format(time.RFC3339),
				Uptime:    time.Since(h.startTime).Round(time.Second).String(),
				Error:     "directory authentication failed",
			})
			return
		}
	}

	WriteJSONOK(w, healthResponse{
		Status:    "healthy",
		Service:   "userapi",
		StartedAt: h.startTime.UTC().Format(time.RFC3339),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	})
}
