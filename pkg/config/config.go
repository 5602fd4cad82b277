package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config represents the user API configuration.
//
// This structure captures the static configuration of the service:
//   - Logging configuration
//   - Telemetry/tracing configuration
//   - API server settings (port, timeouts, JWT auth)
//   - Directory service connection and reconcile policy
//   - OAuth2 client credentials for directory access
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (USERAPI_*)
//  3. Configuration file (YAML)
//  4. Default values (lowest priority)
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Telemetry controls OpenTelemetry distributed tracing
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`

	// Metrics contains Prometheus metrics server configuration
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// API contains the REST API server configuration
	API APIConfig `mapstructure:"api" yaml:"api"`

	// Directory configures the upstream directory service
	Directory DirectoryConfig `mapstructure:"directory" yaml:"directory"`

	// Auth configures the OAuth2 client credentials used to call the
	// directory service
	Auth AuthConfig `mapstructure:"auth" yaml:"auth"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// TelemetryConfig controls OpenTelemetry distributed tracing.
// When enabled, trace data is exported to an OTLP-compatible collector.
type TelemetryConfig struct {
	// Enabled controls whether distributed tracing is enabled
	// Default: false (opt-in for telemetry)
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the OTLP collector endpoint (host:port)
	// Default: "localhost:4317" (standard OTLP gRPC port)
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// Insecure controls whether to use insecure (non-TLS) connection
	// Default: true (for local development)
	Insecure bool `mapstructure:"insecure" yaml:"insecure"`

	// SampleRate controls the trace sampling rate (0.0 to 1.0)
	// Default: 1.0 (sample all)
	SampleRate float64 `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate"`
}

// MetricsConfig configures the Prometheus metrics HTTP server.
// When Enabled is false, no metrics are collected (zero overhead).
type MetricsConfig struct {
	// Enabled controls whether metrics collection and HTTP server are enabled
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is the HTTP port for the metrics endpoint
	// Default: 9090
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// APIConfig contains the REST API server configuration.
type APIConfig struct {
	// Port is the HTTP port for the API server
	// Default: 8080
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`

	// ReadTimeout is the maximum duration for reading the entire request
	ReadTimeout time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out response writes.
	// Must comfortably exceed the directory reconcile timeout or reconciled
	// operations get cut off mid-retry.
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`

	// IdleTimeout is the maximum time to wait for the next request
	IdleTimeout time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`

	// JWTSecret is the HMAC secret for validating caller tokens (required)
	// Override: USERAPI_API_JWT_SECRET
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=32" yaml:"jwt_secret"`

	// JWTExpiry is the lifetime of tokens issued by the token command
	// Default: 24h
	JWTExpiry time.Duration `mapstructure:"jwt_expiry" yaml:"jwt_expiry"`
}

// DirectoryConfig configures the upstream directory service the API
// provisions accounts in.
type DirectoryConfig struct {
	// BaseURL is the directory API root including the version segment,
	// e.g. "https://graph.example.net/v1.0" (required)
	BaseURL string `mapstructure:"base_url" validate:"required,url" yaml:"base_url"`

	// Domain is the UPN domain new usernames are allocated under,
	// e.g. "hearings.example.net" (required)
	Domain string `mapstructure:"domain" validate:"required,fqdn" yaml:"domain"`

	// ReconcileTimeout bounds how long reconciled writes keep retrying
	// not-found responses while the directory replicates
	// Default: 30s
	ReconcileTimeout time.Duration `mapstructure:"reconcile_timeout" yaml:"reconcile_timeout"`

	// ReconcileBackoff is the pause between reconcile retries.
	// A negative value disables the pause and retries as fast as the
	// directory answers.
	// Default: 1s
	ReconcileBackoff time.Duration `mapstructure:"reconcile_backoff" yaml:"reconcile_backoff"`
}

// AuthConfig configures the OAuth2 client-credentials grant used to obtain
// access tokens for the directory service.
type AuthConfig struct {
	// TokenURL is the OAuth2 token endpoint (required)
	TokenURL string `mapstructure:"token_url" validate:"required,url" yaml:"token_url"`

	// ClientID identifies this service to the token endpoint (required)
	// Override: USERAPI_AUTH_CLIENT_ID
	ClientID string `mapstructure:"client_id" validate:"required" yaml:"client_id"`

	// ClientSecret authenticates this service to the token endpoint (required)
	// Override: USERAPI_AUTH_CLIENT_SECRET
	ClientSecret string `mapstructure:"client_secret" validate:"required" yaml:"client_secret"`

	// Resource is the audience tokens are requested for
	// Defaults to the directory base URL's origin when empty
	Resource string `mapstructure:"resource" yaml:"resource,omitempty"`

	// CacheMargin is subtracted from a token's expiry before it is
	// considered stale
	// Default: 1m
	CacheMargin time.Duration `mapstructure:"cache_margin" yaml:"cache_margin"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (USERAPI_*)
//  2. Configuration file
//  3. Default values
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	// Without a config file the service still runs fully configured from
	// the environment.
	if _, err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration with helpful error messages.
// It checks if the config file exists and provides instructions if not.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"Please initialize a configuration file first:\n"+
				"  userapi init\n\n"+
				"Or specify a custom config file:\n"+
				"  userapi <command> --config /path/to/config.yaml",
				GetDefaultConfigPath())
		}
		configPath = GetDefaultConfigPath()
	} else {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s\n\n"+
				"Please create the configuration file:\n"+
				"  userapi init --config %s",
				configPath, configPath)
		}
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to the specified file path, YAML
// encoded.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// 0600 because the file carries the client secret and JWT secret.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// setupViper configures viper with environment variables and config file
// settings.
func setupViper(v *viper.Viper, configPath string) {
	// Environment variables use the USERAPI_ prefix and underscores
	// Example: USERAPI_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("USERAPI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		configDir := getConfigDir()
		v.AddConfigPath(configDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// bindEnvKeys registers every config key with viper. AutomaticEnv alone only
// resolves keys viper already knows about, so without this an environment
// variable for a key absent from the config file would be silently ignored.
func bindEnvKeys(v *viper.Viper) {
	for _, key := range []string{
		"logging.level", "logging.format", "logging.output",
		"telemetry.enabled", "telemetry.endpoint", "telemetry.insecure", "telemetry.sample_rate",
		"shutdown_timeout",
		"metrics.enabled", "metrics.port",
		"api.port", "api.read_timeout", "api.write_timeout", "api.idle_timeout",
		"api.jwt_secret", "api.jwt_expiry",
		"directory.base_url", "directory.domain",
		"directory.reconcile_timeout", "directory.reconcile_backoff",
		"auth.token_url", "auth.client_id", "auth.client_secret",
		"auth.resource", "auth.cache_margin",
	} {
		_ = v.BindEnv(key)
	}
}

// readConfigFile reads the configuration file if it exists.
// Returns (fileFound, error) where fileFound indicates if a config file was
// found.
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		// Also an os.PathError when an explicit config file doesn't exist
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}

	return true, nil
}

// configDecodeHooks returns a combined decode hook for all custom types.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		durationDecodeHook(),
	)
}

// durationDecodeHook returns a mapstructure decode hook that converts
// strings to time.Duration, so config files can use "30s", "5m", "1h".
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			// Assume nanoseconds for raw integers
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			// YAML often deserializes numbers as float64
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to the
// current directory if the home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "userapi")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "userapi")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists checks if a config file exists at the default location.
func DefaultConfigExists() bool {
	path := GetDefaultConfigPath()
	_, err := os.Stat(path)
	return err == nil
}

// GetConfigDir returns the configuration directory path (exposed for the
// init command).
func GetConfigDir() string {
	return getConfigDir()
}
