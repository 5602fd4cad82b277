package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hmcts/vh-user-api-duplicate/internal/api"
	"github.com/hmcts/vh-user-api-duplicate/internal/logger"
	"github.com/hmcts/vh-user-api-duplicate/internal/metrics"
	"github.com/hmcts/vh-user-api-duplicate/internal/telemetry"
	"github.com/hmcts/vh-user-api-duplicate/pkg/config"
	"github.com/hmcts/vh-user-api-duplicate/pkg/graph"
	"github.com/hmcts/vh-user-api-duplicate/pkg/provision"
	"github.com/hmcts/vh-user-api-duplicate/pkg/token"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the user API server",
	Long: `Start the user API server with the specified configuration.

Use --config to specify a custom configuration file, or it will use the
default location at $XDG_CONFIG_HOME/userapi/config.yaml. The service also
runs without a config file when fully configured through USERAPI_*
environment variables.

Examples:
  # Start with default config location
  userapi start

  # Start with custom config file
  userapi start --config /etc/userapi/config.yaml

  # Start with environment variable overrides
  USERAPI_LOGGING_LEVEL=DEBUG userapi start`,
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := loadStartConfig()
	if err != nil {
		return err
	}

	if err := InitLogger(cfg); err != nil {
		return err
	}

	// Create cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry (if enabled)
	telemetryCfg := telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "userapi",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	}
	telemetryShutdown, err := telemetry.Init(ctx, telemetryCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(ctx); err != nil {
			logger.Error("telemetry shutdown error", logger.KeyError, err)
		}
	}()

	logger.Info("Log level", "level", cfg.Logging.Level, "format", cfg.Logging.Format)
	logger.Info("Configuration loaded", "source", getConfigSource(GetConfigFile()))
	if telemetry.IsEnabled() {
		logger.Info("Telemetry enabled", "endpoint", cfg.Telemetry.Endpoint, "sample_rate", cfg.Telemetry.SampleRate)
	} else {
		logger.Info("Telemetry disabled")
	}

	// Initialize metrics (if enabled)
	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		metricsServer = newMetricsServer(cfg.Metrics.Port)
		logger.Info("Metrics enabled", "port", cfg.Metrics.Port)
	} else {
		logger.Info("Metrics collection disabled")
	}

	// Token cache over the OAuth2 client-credentials issuer
	issuer := token.NewClientCredentialsIssuer(cfg.Auth.TokenURL)
	tokenCache := token.NewCache(issuer, cfg.Auth.ClientID, cfg.Auth.ClientSecret,
		token.WithMargin(cfg.Auth.CacheMargin))
	tokenSource := graph.TokenSourceFunc(tokenCache.Source(cfg.Auth.Resource))

	// Directory client and provisioning service
	directory := graph.New(cfg.Directory.BaseURL, tokenSource)

	backoff := cfg.Directory.ReconcileBackoff
	if backoff < 0 {
		backoff = 0
	}
	service := provision.NewService(directory, cfg.Directory.Domain,
		provision.WithReconciler(provision.NewReconciler(cfg.Directory.ReconcileTimeout, backoff)))

	logger.Info("Directory configured",
		"base_url", cfg.Directory.BaseURL,
		"domain", cfg.Directory.Domain,
		"reconcile_timeout", cfg.Directory.ReconcileTimeout.String(),
		"reconcile_backoff", backoff.String())

	// Readiness checks that the directory token source works
	tokenProbe := func(r *http.Request) error {
		_, err := tokenCache.Token(r.Context(), cfg.Auth.Resource)
		return err
	}

	apiServer, err := api.NewServer(cfg.API, service, tokenProbe)
	if err != nil {
		return err
	}
	logger.Info("API server enabled", "port", cfg.API.Port)

	// Start servers in background
	serverDone := make(chan error, 1)
	go func() {
		serverDone <- apiServer.Start(ctx)
	}()

	if metricsServer != nil {
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server error", logger.KeyError, err)
			}
		}()
	}

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Server is running. Press Ctrl+C to stop.")

	var runErr error
	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("Shutdown signal received, initiating graceful shutdown")
		cancel()

		if err := <-serverDone; err != nil {
			logger.Error("Server shutdown error", logger.KeyError, err)
			runErr = err
		} else {
			logger.Info("Server stopped gracefully")
		}

	case err := <-serverDone:
		signal.Stop(sigChan)
		if err != nil {
			logger.Error("Server error", logger.KeyError, err)
			runErr = err
		} else {
			logger.Info("Server stopped")
		}
	}

	if metricsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", logger.KeyError, err)
		}
	}

	return runErr
}

// loadStartConfig loads configuration for the start command. Unlike MustLoad
// it tolerates a missing config file so the service can run configured from
// the environment alone.
func loadStartConfig() (*config.Config, error) {
	configFile := GetConfigFile()
	if configFile != "" {
		if _, err := os.Stat(configFile); os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s", configFile)
		}
	}
	return config.Load(configFile)
}

// newMetricsServer builds the Prometheus scrape endpoint server.
func newMetricsServer(port int) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}
