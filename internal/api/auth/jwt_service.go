package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Common errors for JWT operations.
var (
	ErrInvalidToken        = errors.New("invalid token")
	ErrExpiredToken        = errors.New("token has expired")
	ErrTokenSigningFailed  = errors.New("failed to sign token")
	ErrInvalidSecretLength = errors.New("JWT secret must be at least 32 characters")
)

// JWTConfig holds configuration for JWT token generation.
type JWTConfig struct {
	// Secret is the HMAC signing key. Must be at least 32 characters.
	Secret string

	// Issuer is the token issuer claim. Default: "userapi"
	Issuer string

	// TokenDuration is the lifetime of issued tokens. Default: 24 hours.
	TokenDuration time.Duration
}

// JWTService handles JWT token generation and validation for API callers.
type JWTService struct {
	config JWTConfig
}

// NewJWTService creates a new JWT service with the given configuration.
func NewJWTService(config JWTConfig) (*JWTService, error) {
	if len(config.Secret) < 32 {
		return nil, ErrInvalidSecretLength
	}

	if config.Issuer == "" {
		config.Issuer = "userapi"
	}
	if config.TokenDuration == 0 {
		config.TokenDuration = 24 * time.Hour
	}

	return &JWTService{config: config}, nil
}

// GenerateToken creates a signed token for the named calling service.
func (s *JWTService) GenerateToken(service string) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   service,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.TokenDuration)),
		},
		Service: service,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", ErrTokenSigningFailed
	}

	return signedToken, nil
}

// ValidateToken validates a JWT token and returns the claims.
// Returns an error if the token is invalid or expired.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// GetTokenDuration returns the configured token duration.
func (s *JWTService) GetTokenDuration() time.Duration {
	return s.config.TokenDuration
}
