package auth

import (
	"testing"
	"time"
)

func newTestService(t *testing.T) *JWTService {
	t.Helper()
	svc, err := NewJWTService(JWTConfig{
		Secret: "test-secret-key-that-is-at-least-32-characters-long",
		Issuer: "test",
	})
	if err != nil {
		t.Fatalf("failed to create JWT service: %v", err)
	}
	return svc
}

func TestNewJWTService_ShortSecret(t *testing.T) {
	_, err := NewJWTService(JWTConfig{Secret: "too-short"})
	if err != ErrInvalidSecretLength {
		t.Errorf("expected ErrInvalidSecretLength, got %v", err)
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	svc := newTestService(t)

	token, err := svc.GenerateToken("hearings-service")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("failed to validate token: %v", err)
	}

	if claims.Service != "hearings-service" {
		t.Errorf("expected service claim 'hearings-service', got %q", claims.Service)
	}
	if claims.Subject != "hearings-service" {
		t.Errorf("expected subject 'hearings-service', got %q", claims.Subject)
	}
	if claims.Issuer != "test" {
		t.Errorf("expected issuer 'test', got %q", claims.Issuer)
	}
}

func TestValidateToken_Garbage(t *testing.T) {
	svc := newTestService(t)

	if _, err := svc.ValidateToken("not-a-token"); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestValidateToken_WrongSecret(t *testing.T) {
	svc := newTestService(t)
	token, err := svc.GenerateToken("caller")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	other, err := NewJWTService(JWTConfig{
		Secret: "a-different-secret-that-is-also-32-characters-plus",
	})
	if err != nil {
		t.Fatalf("failed to create JWT service: %v", err)
	}

	if _, err := other.ValidateToken(token); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestValidateToken_Expired(t *testing.T) {
	svc, err := NewJWTService(JWTConfig{
		Secret:        "test-secret-key-that-is-at-least-32-characters-long",
		TokenDuration: -time.Minute,
	})
	if err != nil {
		t.Fatalf("failed to create JWT service: %v", err)
	}

	token, err := svc.GenerateToken("caller")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	if _, err := svc.ValidateToken(token); err != ErrExpiredToken {
		t.Errorf("expected ErrExpiredToken, got %v", err)
	}
}
