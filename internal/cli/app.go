package cli

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/claimtriage/checkprioritizer/internal/cache"
	"github.com/claimtriage/checkprioritizer/internal/embed"
	"github.com/claimtriage/checkprioritizer/internal/ingest"
	"github.com/claimtriage/checkprioritizer/internal/judge"
	"github.com/claimtriage/checkprioritizer/internal/model"
	"github.com/claimtriage/checkprioritizer/internal/pipeline"
	"github.com/claimtriage/checkprioritizer/internal/retrieve"
	"github.com/claimtriage/checkprioritizer/internal/score"
	"github.com/claimtriage/checkprioritizer/internal/store"
	"github.com/claimtriage/checkprioritizer/internal/worker"
)

// loadConfig merges defaults, config file, and CHECKPRIOR_* env vars
func loadConfig() (model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("parse configuration: %w", err)
	}

	// API keys come from the standard env vars unless set explicitly
	if cfg.Embedding.APIKey == "" {
		cfg.Embedding.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.Judge.APIKey == "" {
		cfg.Judge.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	return cfg, nil
}

// app wires the configured collaborators together. Every external
// dependency enters through an interface, so tests swap in doubles.
type app struct {
	config      model.Config
	corpus      store.CorpusStore
	embedder    embed.Embedder
	indexer     *ingest.Indexer
	prioritizer *pipeline.Prioritizer
}

func newApp(cfg model.Config) (*app, error) {
	corpus, err := newCorpusStore(cfg.Store)
	if err != nil {
		return nil, err
	}

	embedder, err := embed.NewEmbedder(embed.Config{
		Provider:  cfg.Embedding.Provider,
		Model:     cfg.Embedding.Model,
		APIKey:    cfg.Embedding.APIKey,
		BaseURL:   cfg.Embedding.BaseURL,
		Dimension: cfg.Store.Dimension,
	})
	if err != nil {
		_ = corpus.Close()
		return nil, fmt.Errorf("init embedder: %w", err)
	}

	var shared cache.Cache
	if cfg.Cache.Enabled {
		if cfg.Cache.Dir != "" {
			shared = cache.NewLayeredCache(cfg.Cache.TTL(), cfg.Cache.Dir, cfg.Cache.TTL())
		} else {
			shared = cache.NewMemoryCache(cfg.Cache.TTL(), cfg.Cache.TTL())
		}
		embedder = embed.NewCachedEmbedder(embedder, shared, cfg.Cache.TTL())
	}

	provider, err := judge.NewProvider(judge.Config{
		Provider:  cfg.Judge.Provider,
		Model:     cfg.Judge.Model,
		APIKey:    cfg.Judge.APIKey,
		BaseURL:   cfg.Judge.BaseURL,
		MaxTokens: cfg.Judge.MaxTokens,
	})
	if err != nil {
		_ = corpus.Close()
		return nil, fmt.Errorf("init judgment provider: %w", err)
	}

	limiter := worker.NewLimiter(cfg.Rate.RequestsPerSecond, cfg.Rate.Burst)
	retriever := retrieve.NewRetriever(embedder, corpus)
	scorer := score.NewScorer(provider, corpus, cfg.Pipeline.EvidenceCharBudget)

	return &app{
		config:      cfg,
		corpus:      corpus,
		embedder:    embedder,
		indexer:     ingest.NewIndexer(embedder, corpus),
		prioritizer: pipeline.NewPrioritizer(retriever, scorer, limiter, shared, cfg.Pipeline),
	}, nil
}

func newCorpusStore(cfg model.StoreConfig) (store.CorpusStore, error) {
	switch cfg.Backend {
	case "memory":
		return store.NewMemoryStore(cfg.Dimension)
	case "bolt", "":
		return store.NewBoltStore(cfg.Path, cfg.Dimension)
	default:
		return nil, fmt.Errorf("unknown store backend: %s (supported: memory, bolt)", cfg.Backend)
	}
}

func (a *app) Close() {
	_ = a.corpus.Close()
}
