package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
)

// InitConfig creates a sample configuration file at the default location.
// Returns the path of the created file. Fails if the file already exists
// unless force is set.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	if err := InitConfigToPath(path, force); err != nil {
		return "", err
	}
	return path, nil
}

// InitConfigToPath creates a sample configuration file at the given path.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
		}
	}

	cfg := GetDefaultConfig()

	// Generate a random JWT secret so a freshly initialized config works
	// out of the box for development
	secret, err := generateSecret()
	if err != nil {
		return fmt.Errorf("failed to generate JWT secret: %w", err)
	}
	cfg.API.JWTSecret = secret

	// Placeholders for the values the operator has to fill in
	cfg.Directory.BaseURL = "https://graph.example.net/v1.0"
	cfg.Directory.Domain = "example.net"
	cfg.Auth.TokenURL = "https://login.example.net/oauth2/token"
	cfg.Auth.ClientID = "<client-id>"
	cfg.Auth.ClientSecret = "<client-secret>"

	return SaveConfig(cfg, path)
}

// generateSecret returns a 64-character hex string (32 bytes of entropy).
func generateSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
