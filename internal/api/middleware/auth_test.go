package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hmcts/vh-user-api-duplicate/internal/api/auth"
)

func createTestJWTService(t *testing.T) *auth.JWTService {
	t.Helper()
	svc, err := auth.NewJWTService(auth.JWTConfig{
		Secret: "test-secret-key-that-is-at-least-32-characters-long",
		Issuer: "test",
	})
	if err != nil {
		t.Fatalf("failed to create JWT service: %v", err)
	}
	return svc
}

func TestGetClaimsFromContext(t *testing.T) {
	t.Run("no claims in context", func(t *testing.T) {
		if claims := GetClaimsFromContext(context.Background()); claims != nil {
			t.Error("expected nil claims for empty context")
		}
	})

	t.Run("claims present in context", func(t *testing.T) {
		expected := &auth.Claims{Service: "hearings-service"}
		ctx := context.WithValue(context.Background(), claimsContextKey, expected)
		claims := GetClaimsFromContext(ctx)
		if claims == nil {
			t.Fatal("expected claims to be present")
		}
		if claims.Service != expected.Service {
			t.Errorf("expected service %s, got %s", expected.Service, claims.Service)
		}
	})

	t.Run("wrong type in context", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), claimsContextKey, "not-claims")
		if claims := GetClaimsFromContext(ctx); claims != nil {
			t.Error("expected nil claims for wrong type")
		}
	})
}

func TestJWTAuth(t *testing.T) {
	jwtService := createTestJWTService(t)

	var gotClaims *auth.Claims
	handler := JWTAuth(jwtService)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClaims = GetClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("missing header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("malformed header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("invalid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer garbage")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("valid token", func(t *testing.T) {
		token, err := jwtService.GenerateToken("hearings-service")
		if err != nil {
			t.Fatalf("failed to generate token: %v", err)
		}

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if gotClaims == nil || gotClaims.Service != "hearings-service" {
			t.Errorf("expected claims for hearings-service, got %+v", gotClaims)
		}
	})
}
