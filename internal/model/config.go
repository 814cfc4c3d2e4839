package model

import "time"

// Config is the full application configuration.
// Populated from defaults, then ~/.checkprioritizer/config.yaml, then
// CHECKPRIOR_* environment variables, then CLI flags.
type Config struct {
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Embedding EmbeddingConfig `yaml:"embedding" mapstructure:"embedding"`
	Judge     JudgeConfig     `yaml:"judge" mapstructure:"judge"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Rate      RateConfig      `yaml:"rate" mapstructure:"rate"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
}

// PipelineConfig controls retrieval depth, prompt budget, and the
// retry/concurrency policy for external calls.
type PipelineConfig struct {
	TopKEvidence       int `yaml:"top_k_evidence" mapstructure:"top_k_evidence"`
	EvidenceCharBudget int `yaml:"evidence_char_budget" mapstructure:"evidence_char_budget"`
	MaxConcurrency     int `yaml:"max_concurrency" mapstructure:"max_concurrency"`
	RetryAttempts      int `yaml:"retry_attempts" mapstructure:"retry_attempts"`
	CallTimeoutSeconds int `yaml:"call_timeout_seconds" mapstructure:"call_timeout_seconds"`
}

// CallTimeout returns the per-external-call timeout as a duration
func (c PipelineConfig) CallTimeout() time.Duration {
	return time.Duration(c.CallTimeoutSeconds) * time.Second
}

// StoreConfig selects and parameterizes the corpus store backend
type StoreConfig struct {
	Backend   string `yaml:"backend" mapstructure:"backend"` // "memory" or "bolt"
	Path      string `yaml:"path" mapstructure:"path"`       // Bolt database file
	Dimension int    `yaml:"dimension" mapstructure:"dimension"`
}

// EmbeddingConfig configures the embedding service client
type EmbeddingConfig struct {
	Provider string `yaml:"provider" mapstructure:"provider"` // "openai" (OpenAI-compatible endpoint)
	Model    string `yaml:"model" mapstructure:"model"`
	BaseURL  string `yaml:"base_url" mapstructure:"base_url"`
	APIKey   string `yaml:"api_key" mapstructure:"api_key"` // Prefer OPENAI_API_KEY env var
}

// JudgeConfig configures the judgment service client
type JudgeConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // "openai" or "ollama"
	Model     string `yaml:"model" mapstructure:"model"`
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	APIKey    string `yaml:"api_key" mapstructure:"api_key"`
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// CacheConfig controls the content-addressed embedding/verdict caches
type CacheConfig struct {
	Enabled    bool   `yaml:"enabled" mapstructure:"enabled"`
	TTLMinutes int    `yaml:"ttl_minutes" mapstructure:"ttl_minutes"`
	Dir        string `yaml:"dir" mapstructure:"dir"` // Non-empty enables the disk layer
}

// TTL returns the cache TTL as a duration
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

// RateConfig bounds the request rate against external services
type RateConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() Config {
	return Config{
		Pipeline: PipelineConfig{
			TopKEvidence:       5,
			EvidenceCharBudget: 4000,
			MaxConcurrency:     4,
			RetryAttempts:      3,
			CallTimeoutSeconds: 30,
		},
		Store: StoreConfig{
			Backend:   "bolt",
			Path:      "corpus.db",
			Dimension: 1536,
		},
		Embedding: EmbeddingConfig{
			Provider: "openai",
			Model:    "text-embedding-3-small",
		},
		Judge: JudgeConfig{
			Provider:  "openai",
			Model:     "gpt-4o-mini",
			MaxTokens: 512,
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTLMinutes: 60,
		},
		Rate: RateConfig{
			RequestsPerSecond: 5,
			Burst:             5,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}
