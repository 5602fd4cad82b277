// Package metrics provides Prometheus instrumentation for the service.
//
// Metrics are opt-in: InitRegistry must be called once at startup, otherwise
// every observation is a no-op with zero overhead. This keeps tests and
// one-shot CLI invocations free of metric registration side effects.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	mu       sync.RWMutex
	registry *prometheus.Registry

	directoryRequests *prometheus.CounterVec
	directoryDuration *prometheus.HistogramVec
	reconcileAttempts prometheus.Counter
	reconcileOutcomes *prometheus.CounterVec
	tokenCacheEvents  *prometheus.CounterVec
	accountsCreated   prometheus.Counter
)

// InitRegistry creates the metrics registry and registers all instruments.
// Safe to call more than once; subsequent calls are no-ops.
func InitRegistry() {
	mu.Lock()
	defer mu.Unlock()

	if registry != nil {
		return
	}

	registry = prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	directoryRequests = promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "userapi_directory_requests_total",
			Help: "Total outbound directory service requests by operation and HTTP status",
		},
		[]string{"operation", "status"},
	)
	directoryDuration = promauto.With(registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "userapi_directory_request_duration_seconds",
			Help:    "Duration of outbound directory service requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
	reconcileAttempts = promauto.With(registry).NewCounter(
		prometheus.CounterOpts{
			Name: "userapi_reconcile_attempts_total",
			Help: "Total attempts made by the eventual-consistency reconciler",
		},
	)
	reconcileOutcomes = promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "userapi_reconcile_outcomes_total",
			Help: "Reconciliation outcomes by result (success, timeout, error)",
		},
		[]string{"outcome"},
	)
	tokenCacheEvents = promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "userapi_token_cache_events_total",
			Help: "Token cache activity by event (hit, miss)",
		},
		[]string{"event"},
	)
	accountsCreated = promauto.With(registry).NewCounter(
		prometheus.CounterOpts{
			Name: "userapi_accounts_provisioned_total",
			Help: "Total directory accounts successfully provisioned",
		},
	)
}

// IsEnabled reports whether InitRegistry has been called.
func IsEnabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return registry != nil
}

// Handler returns the HTTP handler serving the /metrics endpoint.
// Returns nil when metrics are not enabled.
func Handler() http.Handler {
	mu.RLock()
	defer mu.RUnlock()
	if registry == nil {
		return nil
	}
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// ObserveDirectoryRequest records one outbound directory call.
func ObserveDirectoryRequest(operation string, status int, duration time.Duration) {
	mu.RLock()
	defer mu.RUnlock()
	if registry == nil {
		return
	}
	directoryRequests.WithLabelValues(operation, strconv.Itoa(status)).Inc()
	directoryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// ReconcileAttempt records one reconciler attempt.
func ReconcileAttempt() {
	mu.RLock()
	defer mu.RUnlock()
	if registry == nil {
		return
	}
	reconcileAttempts.Inc()
}

// ReconcileOutcome records the terminal result of a reconciliation.
// Outcome is one of "success", "timeout", "error".
func ReconcileOutcome(outcome string) {
	mu.RLock()
	defer mu.RUnlock()
	if registry == nil {
		return
	}
	reconcileOutcomes.WithLabelValues(outcome).Inc()
}

// TokenCacheHit records a token served from cache.
func TokenCacheHit() {
	mu.RLock()
	defer mu.RUnlock()
	if registry == nil {
		return
	}
	tokenCacheEvents.WithLabelValues("hit").Inc()
}

// TokenCacheMiss records a token that had to be fetched from the issuer.
func TokenCacheMiss() {
	mu.RLock()
	defer mu.RUnlock()
	if registry == nil {
		return
	}
	tokenCacheEvents.WithLabelValues("miss").Inc()
}

// AccountProvisioned records a successfully created directory account.
func AccountProvisioned() {
	mu.RLock()
	defer mu.RUnlock()
	if registry == nil {
		return
	}
	accountsCreated.Inc()
}
