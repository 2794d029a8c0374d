package camera

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/marcosistoocommon/ReoCamara/pkg/models"
)

// DefaultTokenTTL is how long a token is trusted after login
const DefaultTokenTTL = 5 * time.Minute

// LoginFunc performs a login and returns the raw token value
type LoginFunc func(ctx context.Context) (string, error)

// TokenCache memoizes the camera session token. Concurrent refreshes are
// collapsed into a single login call.
type TokenCache struct {
	login LoginFunc
	ttl   time.Duration
	now   func() time.Time

	mu      sync.RWMutex
	current models.Token
	logins  int

	group singleflight.Group
}

// NewTokenCache creates a token cache backed by the given login function
func NewTokenCache(login LoginFunc, ttl time.Duration) *TokenCache {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenCache{
		login: login,
		ttl:   ttl,
		now:   time.Now,
	}
}

// Token returns the cached token while it is still valid, logging in again otherwise.
// On failure the previous entry is left untouched.
func (c *TokenCache) Token(ctx context.Context) (models.Token, error) {
	c.mu.RLock()
	tok := c.current
	c.mu.RUnlock()

	if tok.Valid(c.now()) {
		return tok, nil
	}
	return c.Refresh(ctx)
}

// Refresh forces a new login and replaces the cached token
func (c *TokenCache) Refresh(ctx context.Context) (models.Token, error) {
	v, err, shared := c.group.Do("token", func() (interface{}, error) {
		value, err := c.login(ctx)
		if err != nil {
			return nil, err
		}

		tok := models.Token{Value: value, ExpiresAt: c.now().Add(c.ttl)}

		c.mu.Lock()
		c.current = tok
		c.logins++
		c.mu.Unlock()

		return tok, nil
	})
	if err != nil {
		log.Warningf("Failed to acquire camera token: %v", err)
		return models.Token{}, fmt.Errorf("failed to acquire token: %w", err)
	}

	tok := v.(models.Token)
	if !shared {
		log.Infof("🔑 Camera token refreshed (valid until %s)", tok.ExpiresAt.Format(time.TimeOnly))
	}
	return tok, nil
}

// Cached returns the current entry without refreshing it
func (c *TokenCache) Cached() (models.Token, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current, c.current.Valid(c.now())
}

// Logins returns how many successful logins the cache has performed
func (c *TokenCache) Logins() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.logins
}
