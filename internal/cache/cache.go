package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Cache defines the interface for the content-addressed caches used for
// cost control (embeddings and verdicts).
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// EmbeddingKey derives the cache key for a text's embedding.
// Keyed on content: a text change yields a different key, which is the
// invalidation rule - stale entries are simply never looked up again.
func EmbeddingKey(text string) string {
	return "checkprior:emb:v1:" + digest(text)
}

// VerdictKey derives the cache key for a claim's verdict given the exact
// ranked evidence set it was judged against.
func VerdictKey(claimText string, evidenceIDs []string) string {
	return "checkprior:verdict:v1:" + digest(claimText+"\x00"+strings.Join(evidenceIDs, "\x00"))
}

func digest(s string) string {
	hash := sha256.Sum256([]byte(s))
	return hex.EncodeToString(hash[:])
}
