package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/promptarena/promptarena/internal/port/provider"
)

// CachedCompleter is a read-through cache in front of a Completer. Identical
// prompt+temperature pairs within the TTL reuse the cached completion instead
// of hitting the provider again.
type CachedCompleter struct {
	inner provider.Completer
	cache *ristretto.Cache[string, []byte]
	ttl   time.Duration
}

// NewCachedCompleter wraps inner with a ristretto cache of maxSizeMB total
// value bytes and per-entry TTL.
func NewCachedCompleter(inner provider.Completer, maxSizeMB int64, ttl time.Duration) (*CachedCompleter, error) {
	maxCost := maxSizeMB * 1024 * 1024
	cache, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: maxCost / 100 * 10, // ~10x expected items
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create completion cache: %w", err)
	}
	return &CachedCompleter{inner: inner, cache: cache, ttl: ttl}, nil
}

// Complete returns the cached completion when available, otherwise delegates
// and caches the result. Errors are never cached.
func (c *CachedCompleter) Complete(ctx context.Context, prompt string, temperature float64) (provider.Completion, error) {
	key := cacheKey(prompt, temperature)
	if data, ok := c.cache.Get(key); ok {
		var cached provider.Completion
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
	}

	out, err := c.inner.Complete(ctx, prompt, temperature)
	if err != nil {
		return provider.Completion{}, err
	}

	if data, err := json.Marshal(out); err == nil {
		c.cache.SetWithTTL(key, data, int64(len(data)), c.ttl)
	}
	return out, nil
}

// Wait blocks until pending cache writes are applied. Test hook.
func (c *CachedCompleter) Wait() {
	c.cache.Wait()
}

// Close releases the cache's resources.
func (c *CachedCompleter) Close() {
	c.cache.Close()
}

func cacheKey(prompt string, temperature float64) string {
	h := sha256.Sum256(fmt.Appendf(nil, "%s\x00%g", prompt, temperature))
	return hex.EncodeToString(h[:])
}
