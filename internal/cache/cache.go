package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/veristream/veristream/internal/model"
)

const keyPrefix = "veristream:v1:"

// ResultCache memoizes verification results by normalized statement
// text. Repeated claims within a session (speakers repeat themselves)
// skip the full agent fan-out.
type ResultCache struct {
	cache *gocache.Cache
}

// NewResultCache creates a result cache with the given TTL. Cleanup runs
// at twice the TTL.
func NewResultCache(ttl time.Duration) *ResultCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &ResultCache{
		cache: gocache.New(ttl, 2*ttl),
	}
}

// Key derives the cache key for a statement text. Case and surrounding
// whitespace are ignored so trivially restated claims hit.
func Key(text string) string {
	normalized := strings.ToLower(strings.TrimSpace(text))
	sum := sha256.Sum256([]byte(normalized))
	return keyPrefix + hex.EncodeToString(sum[:])
}

// Get returns a previously cached result for the statement text.
func (c *ResultCache) Get(text string) (*model.VerificationResult, bool) {
	val, found := c.cache.Get(Key(text))
	if !found {
		return nil, false
	}
	result, ok := val.(*model.VerificationResult)
	return result, ok
}

// Set caches a result under the statement text with the default TTL.
func (c *ResultCache) Set(text string, result *model.VerificationResult) {
	c.cache.Set(Key(text), result, gocache.DefaultExpiration)
}

// Len reports the number of cached results, expired items included.
func (c *ResultCache) Len() int {
	return c.cache.ItemCount()
}
