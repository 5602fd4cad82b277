// Package middleware provides HTTP middleware for the user API.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/hmcts/vh-user-api-duplicate/internal/api/auth"
)

// Context key type for storing claims
type contextKey string

const claimsContextKey contextKey = "claims"

// GetClaimsFromContext retrieves JWT claims from the request context.
// Returns nil if no claims are present.
//
// This function should only be called within handler code that runs after
// the JWTAuth middleware has processed the request.
func GetClaimsFromContext(ctx context.Context) *auth.Claims {
	claims, ok := ctx.Value(claimsContextKey).(*auth.Claims)
	if !ok {
		return nil
	}
	return claims
}

// extractBearerToken extracts the token from a Bearer Authorization header.
// Returns the token string and true if successful, or empty string and false if not.
func extractBearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	return parts[1], true
}

// JWTAuth is a middleware that validates Bearer tokens in the Authorization header.
// If valid, the claims are stored in the request context.
// If invalid or missing, returns 401 Unauthorized.
func JWTAuth(jwtService *auth.JWTService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := extractBearerToken(r)
			if !ok {
				http.Error(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			claims, err := jwtService.ValidateToken(tokenString)
			if err != nil {
				http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
