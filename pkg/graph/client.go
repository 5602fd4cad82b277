// Package graph provides the HTTP client for the remote directory service.
//
// The client speaks the Graph-style REST contract: JSON bodies, bearer
// authentication, paged collections wrapped in a "value" array, and OData
// filter queries. Every call takes a context and reports the raw HTTP status
// through APIError so callers can implement their own 404 semantics
// (lookup-miss vs. eventual-consistency retry).
package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/hmcts/vh-user-api-duplicate/internal/metrics"
	"github.com/hmcts/vh-user-api-duplicate/internal/telemetry"
)

// TokenSource supplies the bearer token for outbound directory calls.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenSourceFunc adapts a function to the TokenSource interface.
type TokenSourceFunc func(ctx context.Context) (string, error)

// Token implements TokenSource.
func (f TokenSourceFunc) Token(ctx context.Context) (string, error) {
	return f(ctx)
}

// Client is the directory service API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
}

// New creates a new directory client. baseURL includes the API version
// segment, e.g. "https://directory.example.net/v1.0".
func New(baseURL string, tokens TokenSource) *Client {
	return &Client{
		baseURL: baseURL,
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// WithHTTPClient returns a copy of the client using the given *http.Client.
// Use this to share a pooled transport or to shorten the per-call timeout.
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	return &Client{
		baseURL:    c.baseURL,
		tokens:     c.tokens,
		httpClient: h,
	}
}

// BaseURL returns the base URL the client was created with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do performs an HTTP request against the directory service and decodes the
// response. operation names the logical call for spans, metrics and errors.
func (c *Client) do(ctx context.Context, operation, method, path string, body, result any) error {
	ctx, span := telemetry.StartDirectorySpan(ctx, operation)

	status, err := c.roundTrip(ctx, operation, method, path, body, result)
	telemetry.EndDirectorySpan(span, status, err)
	return err
}

func (c *Client) roundTrip(ctx context.Context, operation, method, path string, body, result any) (int, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("%s: failed to marshal request body: %w", operation, err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return 0, fmt.Errorf("%s: failed to create request: %w", operation, err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("client-request-id", uuid.NewString())

	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return 0, fmt.Errorf("%s: failed to acquire access token: %w", operation, err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ObserveDirectoryRequest(operation, 0, time.Since(start))
		return 0, fmt.Errorf("%s: request failed: %w", operation, err)
	}
	defer func() { _ = resp.Body.Close() }()

	metrics.ObserveDirectoryRequest(operation, resp.StatusCode, time.Since(start))

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("%s: failed to read response body: %w", operation, err)
	}

	if resp.StatusCode >= 400 {
		return resp.StatusCode, &APIError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return resp.StatusCode, fmt.Errorf("%s: failed to decode response: %w", operation, err)
		}
	}

	return resp.StatusCode, nil
}

// queryResponse is the paged collection envelope the directory wraps
// filter-query results in.
type queryResponse[T any] struct {
	Value []T `json:"value"`
}

// queryCollection performs a GET returning a "value"-wrapped collection.
func queryCollection[T any](ctx context.Context, c *Client, operation, path string) ([]T, error) {
	var result queryResponse[T]
	if err := c.do(ctx, operation, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return result.Value, nil
}

// getResource performs a GET request and decodes the response into T.
func getResource[T any](ctx context.Context, c *Client, operation, path string) (*T, error) {
	var result T
	if err := c.do(ctx, operation, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
