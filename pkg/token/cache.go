package token

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/hmcts/vh-user-api-duplicate/internal/metrics"
)

// DefaultMargin is subtracted from a token's expiry before it is considered
// usable, so a token is never handed out moments before it lapses.
const DefaultMargin = time.Minute

// Cache caches access tokens per resource and refreshes them through the
// issuer once they reach their expiry margin. Concurrent refreshes for the
// same resource are collapsed into a single upstream call.
type Cache struct {
	issuer       Issuer
	clientID     string
	clientSecret string
	margin       time.Duration

	mu     sync.RWMutex
	tokens map[string]*AccessToken

	group singleflight.Group

	// now is swappable in tests.
	now func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithMargin overrides the expiry safety margin.
func WithMargin(margin time.Duration) Option {
	return func(c *Cache) {
		c.margin = margin
	}
}

// NewCache creates a token cache backed by the given issuer and credentials.
func NewCache(issuer Issuer, clientID, clientSecret string, opts ...Option) *Cache {
	c := &Cache{
		issuer:       issuer,
		clientID:     clientID,
		clientSecret: clientSecret,
		margin:       DefaultMargin,
		tokens:       make(map[string]*AccessToken),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Token returns a valid access token for the resource, refreshing it when the
// cached one is absent or inside the expiry margin.
func (c *Cache) Token(ctx context.Context, resource string) (string, error) {
	if tok := c.cached(resource); tok != nil {
		metrics.TokenCacheHit()
		return tok.Token, nil
	}
	metrics.TokenCacheMiss()

	v, err, _ := c.group.Do(resource, func() (any, error) {
		// Re-check under the flight: a concurrent caller may have
		// refreshed while we waited.
		if tok := c.cached(resource); tok != nil {
			return tok.Token, nil
		}

		tok, err := c.issuer.ClientAccessToken(ctx, c.clientID, c.clientSecret, resource)
		if err != nil {
			return "", err
		}

		c.mu.Lock()
		c.tokens[resource] = tok
		c.mu.Unlock()

		return tok.Token, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Source binds the cache to a single resource, yielding a per-call token
// supplier for the directory client.
func (c *Cache) Source(resource string) func(ctx context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		return c.Token(ctx, resource)
	}
}

func (c *Cache) cached(resource string) *AccessToken {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tok, ok := c.tokens[resource]
	if !ok {
		return nil
	}
	// A token is stale from the margin boundary onwards, never served at
	// the exact expiry-minus-margin instant.
	if !c.now().Before(tok.ExpiresOn.Add(-c.margin)) {
		return nil
	}
	return tok
}
