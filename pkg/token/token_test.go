package token

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientCredentialsIssuer(t *testing.T) {
	expiresOn := time.Now().Add(time.Hour).Unix()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		assert.Equal(t, "my-client", r.PostForm.Get("client_id"))
		assert.Equal(t, "my-secret", r.PostForm.Get("client_secret"))
		assert.Equal(t, "https://directory.example.net", r.PostForm.Get("resource"))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "issued-token",
			"expires_on":   fmt.Sprintf("%d", expiresOn),
		})
	}))
	defer server.Close()

	issuer := NewClientCredentialsIssuer(server.URL)
	tok, err := issuer.ClientAccessToken(context.Background(), "my-client", "my-secret", "https://directory.example.net")
	require.NoError(t, err)

	assert.Equal(t, "issued-token", tok.Token)
	assert.Equal(t, expiresOn, tok.ExpiresOn.Unix())
}

func TestClientCredentialsIssuerExpiresIn(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "issued-token",
			"expires_in":   3600,
		})
	}))
	defer server.Close()

	issuer := NewClientCredentialsIssuer(server.URL)
	tok, err := issuer.ClientAccessToken(context.Background(), "c", "s", "r")
	require.NoError(t, err)

	assert.WithinDuration(t, time.Now().Add(time.Hour), tok.ExpiresOn, 5*time.Second)
}

func TestClientCredentialsIssuerErrors(t *testing.T) {
	t.Run("non-200", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"invalid_client"}`, http.StatusUnauthorized)
		}))
		defer server.Close()

		issuer := NewClientCredentialsIssuer(server.URL)
		_, err := issuer.ClientAccessToken(context.Background(), "c", "s", "r")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "401")
	})

	t.Run("missing token", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{"expires_in": 3600})
		}))
		defer server.Close()

		issuer := NewClientCredentialsIssuer(server.URL)
		_, err := issuer.ClientAccessToken(context.Background(), "c", "s", "r")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no access token")
	})

	t.Run("missing expiry", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "tok"})
		}))
		defer server.Close()

		issuer := NewClientCredentialsIssuer(server.URL)
		_, err := issuer.ClientAccessToken(context.Background(), "c", "s", "r")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no expiry")
	})
}
