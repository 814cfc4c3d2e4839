package embed

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrUnavailable indicates an upstream embedding service failure.
// Transient: callers retry per the pipeline policy.
var ErrUnavailable = errors.New("embedding service unavailable")

// Embedder maps text to a fixed-dimension vector. Implementations must be
// deterministic for identical input under the same model version.
type Embedder interface {
	// Embed returns the embedding vector for text
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimension returns the length of the vectors this embedder produces
	Dimension() int
}

// Config holds embedding client configuration
type Config struct {
	// Provider name; currently "openai" (any OpenAI-compatible endpoint)
	Provider string

	// Model is the embedding model name
	Model string

	// APIKey for the embedding endpoint
	APIKey string

	// BaseURL overrides the default endpoint (tests, local gateways)
	BaseURL string

	// Dimension the configured model produces
	Dimension int
}

// NewEmbedder creates an embedder based on configuration
func NewEmbedder(config Config) (Embedder, error) {
	switch strings.ToLower(config.Provider) {
	case "openai", "":
		return NewOpenAIEmbedder(config)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s (supported: openai)", config.Provider)
	}
}
