package judge

import (
	"fmt"
	"strings"
)

// NewProvider creates a judgment provider based on configuration
func NewProvider(config Config) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "openai", "":
		return NewOpenAIProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	default:
		return nil, fmt.Errorf("unknown judgment provider: %s (supported: openai, ollama)", config.Provider)
	}
}
