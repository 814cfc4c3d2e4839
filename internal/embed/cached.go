package embed

import (
	"context"
	"encoding/json"
	"time"

	"github.com/claimtriage/checkprioritizer/internal/cache"
)

// CachedEmbedder wraps an Embedder with a content-addressed cache.
// Keys are derived from the text itself, so a text change produces a
// fresh key and the stale entry just ages out.
type CachedEmbedder struct {
	inner Embedder
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedEmbedder wraps inner with the given cache
func NewCachedEmbedder(inner Embedder, c cache.Cache, ttl time.Duration) *CachedEmbedder {
	return &CachedEmbedder{inner: inner, cache: c, ttl: ttl}
}

// Embed returns a cached vector when available, otherwise delegates and
// stores the result. Cache write failures are ignored: caching is a cost
// optimization, not a correctness requirement.
func (e *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := cache.EmbeddingKey(text)

	if data, found := e.cache.Get(key); found {
		var vector []float32
		if err := json.Unmarshal(data, &vector); err == nil && len(vector) == e.inner.Dimension() {
			return vector, nil
		}
		_ = e.cache.Delete(key)
	}

	vector, err := e.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(vector); err == nil {
		_ = e.cache.Set(key, data, e.ttl)
	}

	return vector, nil
}

// Dimension returns the wrapped embedder's vector length
func (e *CachedEmbedder) Dimension() int {
	return e.inner.Dimension()
}
