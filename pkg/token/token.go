// Package token acquires and caches service-to-service access tokens for the
// directory API using the OAuth2 client-credentials grant.
package token

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// AccessToken is a bearer token with its absolute expiry.
type AccessToken struct {
	Token     string
	ExpiresOn time.Time
}

// Issuer exchanges client credentials for an access token.
type Issuer interface {
	ClientAccessToken(ctx context.Context, clientID, clientSecret, resource string) (*AccessToken, error)
}

// ClientCredentialsIssuer requests tokens from an OAuth2 token endpoint using
// the client-credentials grant.
type ClientCredentialsIssuer struct {
	TokenURL   string
	HTTPClient *http.Client
}

// NewClientCredentialsIssuer creates an issuer for the given token endpoint.
func NewClientCredentialsIssuer(tokenURL string) *ClientCredentialsIssuer {
	return &ClientCredentialsIssuer{
		TokenURL: tokenURL,
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type tokenResponse struct {
	AccessToken string          `json:"access_token"`
	ExpiresIn   json.RawMessage `json:"expires_in"`
	ExpiresOn   json.RawMessage `json:"expires_on"`
}

// ClientAccessToken implements Issuer.
func (i *ClientCredentialsIssuer) ClientAccessToken(ctx context.Context, clientID, clientSecret, resource string) (*AccessToken, error) {
	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {clientID},
		"client_secret": {clientSecret},
		"resource":      {resource},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := i.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, body)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	if tr.AccessToken == "" {
		return nil, fmt.Errorf("token endpoint returned no access token")
	}

	expiresOn, err := resolveExpiry(tr)
	if err != nil {
		return nil, err
	}

	return &AccessToken{Token: tr.AccessToken, ExpiresOn: expiresOn}, nil
}

// resolveExpiry handles the two shapes token endpoints use: an absolute unix
// timestamp in expires_on or a relative lifetime in expires_in. Either field
// may arrive as a number or a quoted string.
func resolveExpiry(tr tokenResponse) (time.Time, error) {
	if secs, ok := rawSeconds(tr.ExpiresOn); ok {
		return time.Unix(secs, 0), nil
	}
	if secs, ok := rawSeconds(tr.ExpiresIn); ok {
		return time.Now().Add(time.Duration(secs) * time.Second), nil
	}
	return time.Time{}, fmt.Errorf("token response carries no expiry")
}

func rawSeconds(raw json.RawMessage) (int64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	s := strings.Trim(string(raw), `"`)
	secs, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return secs, true
}
