package config

import (
	"net/url"
	"strings"
	"time"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// This function is called after loading configuration from file and
// environment variables to fill in any missing values.
//
// Default Strategy:
//   - Zero values (0, "", false, nil) are replaced with defaults
//   - Explicit values are preserved
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyShutdownTimeoutDefaults(cfg)
	applyMetricsDefaults(&cfg.Metrics)
	applyAPIDefaults(&cfg.API, cfg.Directory.ReconcileTimeout)
	applyDirectoryDefaults(&cfg.Directory)
	applyAuthDefaults(&cfg.Auth, cfg.Directory.BaseURL)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize log level to uppercase for consistent internal representation
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyTelemetryDefaults sets OpenTelemetry defaults.
func applyTelemetryDefaults(cfg *TelemetryConfig) {
	// Enabled defaults to false (opt-in for telemetry)

	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}

	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}
}

// applyShutdownTimeoutDefaults sets shutdown timeout defaults.
func applyShutdownTimeoutDefaults(cfg *Config) {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

// applyMetricsDefaults sets metrics defaults.
func applyMetricsDefaults(cfg *MetricsConfig) {
	// Enabled defaults to false (opt-in for metrics)
	// Port defaults to 9090 if metrics are enabled
	if cfg.Enabled && cfg.Port == 0 {
		cfg.Port = 9090
	}
}

// applyAPIDefaults sets REST API server defaults. The write timeout tracks
// the reconcile window so reconciled operations are never cut off mid-retry.
func applyAPIDefaults(cfg *APIConfig, reconcileTimeout time.Duration) {
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 10 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		window := reconcileTimeout
		if window == 0 {
			window = 30 * time.Second
		}
		cfg.WriteTimeout = window + 30*time.Second
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 60 * time.Second
	}
	if cfg.JWTExpiry == 0 {
		cfg.JWTExpiry = 24 * time.Hour
	}
}

// applyDirectoryDefaults sets directory connection defaults.
func applyDirectoryDefaults(cfg *DirectoryConfig) {
	if cfg.ReconcileTimeout == 0 {
		cfg.ReconcileTimeout = 30 * time.Second
	}
	if cfg.ReconcileBackoff == 0 {
		cfg.ReconcileBackoff = time.Second
	}
}

// applyAuthDefaults sets OAuth2 defaults. The token resource defaults to the
// directory base URL's origin.
func applyAuthDefaults(cfg *AuthConfig, directoryBaseURL string) {
	if cfg.Resource == "" && directoryBaseURL != "" {
		if u, err := url.Parse(directoryBaseURL); err == nil && u.Host != "" {
			cfg.Resource = u.Scheme + "://" + u.Host
		}
	}
	if cfg.CacheMargin == 0 {
		cfg.CacheMargin = time.Minute
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for generating sample configuration files, testing, and
// documentation.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
