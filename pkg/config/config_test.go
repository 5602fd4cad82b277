package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const validConfig = `
logging:
  level: "INFO"

api:
  jwt_secret: "test-secret-key-for-testing-minimum-32-chars"

directory:
  base_url: "https://graph.example.net/v1.0"
  domain: "hearings.example.net"

auth:
  token_url: "https://login.example.net/oauth2/token"
  client_id: "test-client"
  client_secret: "test-secret"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return configPath
}

func TestLoad_DefaultsApplied(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Expected default output 'stdout', got %q", cfg.Logging.Output)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown_timeout 30s, got %v", cfg.ShutdownTimeout)
	}
	if cfg.API.Port != 8080 {
		t.Errorf("Expected default API port 8080, got %d", cfg.API.Port)
	}
	if cfg.Directory.ReconcileTimeout != 30*time.Second {
		t.Errorf("Expected default reconcile_timeout 30s, got %v", cfg.Directory.ReconcileTimeout)
	}
	if cfg.Directory.ReconcileBackoff != time.Second {
		t.Errorf("Expected default reconcile_backoff 1s, got %v", cfg.Directory.ReconcileBackoff)
	}
	if cfg.Auth.CacheMargin != time.Minute {
		t.Errorf("Expected default cache_margin 1m, got %v", cfg.Auth.CacheMargin)
	}
	// Resource defaults to the directory origin without the version segment
	if cfg.Auth.Resource != "https://graph.example.net" {
		t.Errorf("Expected derived resource, got %q", cfg.Auth.Resource)
	}
	// Write timeout must cover the reconcile window
	if cfg.API.WriteTimeout <= cfg.Directory.ReconcileTimeout {
		t.Errorf("Expected write_timeout above reconcile window, got %v", cfg.API.WriteTimeout)
	}
}

func TestLoad_MissingRequiredFields(t *testing.T) {
	configContent := `
logging:
  level: "INFO"
`
	_, err := Load(writeConfig(t, configContent))
	if err == nil {
		t.Fatal("Expected validation error for missing required fields, got nil")
	}
	if !strings.Contains(err.Error(), "directory.base_url") {
		t.Errorf("Expected error to name directory.base_url, got: %v", err)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configContent := `
logging:
  level: INFO
  invalid yaml here [[[
`
	_, err := Load(writeConfig(t, configContent))
	if err == nil {
		t.Fatal("Expected error with invalid YAML, got nil")
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("USERAPI_LOGGING_LEVEL", "DEBUG")
	t.Setenv("USERAPI_DIRECTORY_RECONCILE_TIMEOUT", "10s")

	cfg, err := Load(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected env override DEBUG, got %q", cfg.Logging.Level)
	}
	if cfg.Directory.ReconcileTimeout != 10*time.Second {
		t.Errorf("Expected env override 10s, got %v", cfg.Directory.ReconcileTimeout)
	}
}

func TestLoad_EnvOnly(t *testing.T) {
	t.Setenv("USERAPI_API_JWT_SECRET", "test-secret-key-for-testing-minimum-32-chars")
	t.Setenv("USERAPI_DIRECTORY_BASE_URL", "https://graph.example.net/v1.0")
	t.Setenv("USERAPI_DIRECTORY_DOMAIN", "hearings.example.net")
	t.Setenv("USERAPI_AUTH_TOKEN_URL", "https://login.example.net/oauth2/token")
	t.Setenv("USERAPI_AUTH_CLIENT_ID", "test-client")
	t.Setenv("USERAPI_AUTH_CLIENT_SECRET", "test-secret")

	nonExistentPath := filepath.Join(t.TempDir(), "nonexistent.yaml")
	cfg, err := Load(nonExistentPath)
	if err != nil {
		t.Fatalf("Failed to load env-only config: %v", err)
	}

	if cfg.Directory.Domain != "hearings.example.net" {
		t.Errorf("Expected env-provided domain, got %q", cfg.Directory.Domain)
	}
	if cfg.API.Port != 8080 {
		t.Errorf("Expected default API port 8080, got %d", cfg.API.Port)
	}
}

func TestValidate_ShortJWTSecret(t *testing.T) {
	configContent := strings.Replace(validConfig,
		"test-secret-key-for-testing-minimum-32-chars", "short", 1)

	_, err := Load(writeConfig(t, configContent))
	if err == nil {
		t.Fatal("Expected validation error for short JWT secret, got nil")
	}
	if !strings.Contains(err.Error(), "jwt_secret") {
		t.Errorf("Expected error to name api.jwt_secret, got: %v", err)
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	savedPath := filepath.Join(t.TempDir(), "nested", "config.yaml")
	if err := SaveConfig(cfg, savedPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	info, err := os.Stat(savedPath)
	if err != nil {
		t.Fatalf("Saved config missing: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Expected 0600 permissions, got %v", info.Mode().Perm())
	}

	reloaded, err := Load(savedPath)
	if err != nil {
		t.Fatalf("Failed to reload saved config: %v", err)
	}
	if reloaded.Directory.Domain != cfg.Directory.Domain {
		t.Errorf("Round trip lost domain: got %q, want %q",
			reloaded.Directory.Domain, cfg.Directory.Domain)
	}
	if reloaded.API.JWTSecret != cfg.API.JWTSecret {
		t.Error("Round trip lost JWT secret")
	}
}
