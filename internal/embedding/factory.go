package embedding

import (
	"context"
	"fmt"
	"time"

	"docmate/internal/config"
	"docmate/internal/models"
)

// NewEmbedder builds the embedding backend named by cfg.EmbedLLM.Provider.
func NewEmbedder(ctx context.Context, cfg *config.Config) (Embedder, error) {
	llmCfg := cfg.EmbedLLM
	dims := cfg.Embedding.Dimensions

	switch llmCfg.Provider {
	case config.ProviderGemini:
		if err := llmCfg.RequireKey(); err != nil {
			return nil, err
		}
		e, err := NewGeminiEmbedder(ctx, llmCfg.BaseURL, llmCfg.Key, llmCfg.Model, dims, cfg.Embedding.DocumentTitle)
		if err != nil {
			return nil, err
		}
		return e, nil
	case config.ProviderOpenAI:
		if err := llmCfg.RequireKey(); err != nil {
			return nil, err
		}
		return NewOpenAIEmbedder(llmCfg.Key, llmCfg.BaseURL, llmCfg.Model, dims), nil
	case config.ProviderOllama:
		return NewOllamaEmbedder(llmCfg.BaseURL, llmCfg.Model, dims)
	default:
		return nil, fmt.Errorf("%w: unsupported embedding provider %q", models.ErrConfiguration, llmCfg.Provider)
	}
}

// NewBatchEmbedderFromConfig applies the configured retry and throttle settings.
func NewBatchEmbedderFromConfig(e Embedder, cfg config.EmbeddingConfig) *BatchEmbedder {
	policy := RetryPolicy{
		MaxAttempts: cfg.MaxAttempts,
		Backoff:     seconds(cfg.BackoffSecs),
	}
	return NewBatchEmbedder(e, policy, seconds(cfg.ThrottleSecs))
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
