package embed

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// OpenAIEmbedder produces embeddings via an OpenAI-compatible endpoint
type OpenAIEmbedder struct {
	client    *openai.Client
	model     openai.EmbeddingModel
	dimension int
}

// NewOpenAIEmbedder creates a new OpenAI embedding client
func NewOpenAIEmbedder(config Config) (*OpenAIEmbedder, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("embedding API key is required")
	}
	if config.Dimension <= 0 {
		return nil, fmt.Errorf("invalid embedding dimension %d", config.Dimension)
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	model := config.Model
	if model == "" {
		model = string(openai.SmallEmbedding3)
	}

	return &OpenAIEmbedder{
		client:    openai.NewClientWithConfig(clientConfig),
		model:     openai.EmbeddingModel(model),
		dimension: config.Dimension,
	}, nil
}

// Embed returns the embedding vector for text
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("%w: empty embeddings response", ErrUnavailable)
	}

	vector := resp.Data[0].Embedding
	if len(vector) != e.dimension {
		return nil, fmt.Errorf("model %s returned %d-dimensional vector, configured %d", e.model, len(vector), e.dimension)
	}

	return vector, nil
}

// Dimension returns the configured vector length
func (e *OpenAIEmbedder) Dimension() int {
	return e.dimension
}
