package llmservice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"docmate/internal/config"
	"docmate/internal/metrics"
	"docmate/internal/models"
)

// Generator produces text from a single prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, temperature float64) (string, error)
}

// Client adapts a langchaingo model to Generator.
type Client struct {
	llm   llms.Model
	model string
}

// NewClient builds a generation client for the configured provider. Gemini is
// reached through its OpenAI-compatible endpoint.
func NewClient(llmConfig config.LLMConfig) (*Client, error) {
	if err := llmConfig.RequireKey(); err != nil {
		return nil, err
	}
	log.Debug().
		Str("provider", string(llmConfig.Provider)).
		Str("base_url", llmConfig.BaseURL).
		Str("model", llmConfig.Model).
		Msg("Creating LLM client")

	var (
		llm llms.Model
		err error
	)
	switch llmConfig.Provider {
	case config.ProviderOllama:
		opts := []ollama.Option{ollama.WithModel(llmConfig.Model)}
		if llmConfig.BaseURL != "" {
			opts = append(opts, ollama.WithServerURL(llmConfig.BaseURL))
		}
		llm, err = ollama.New(opts...)
	case config.ProviderGemini, config.ProviderOpenAI:
		opts := []openai.Option{
			openai.WithToken(strings.TrimPrefix(llmConfig.Key, "Bearer ")),
			openai.WithModel(llmConfig.Model),
		}
		if llmConfig.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(llmConfig.BaseURL))
		}
		llm, err = openai.New(opts...)
	default:
		return nil, fmt.Errorf("%w: unsupported llm provider %q", models.ErrConfiguration, llmConfig.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: creating %s client: %v", models.ErrConfiguration, llmConfig.Provider, err)
	}
	return NewClientFromModel(llm, llmConfig.Model), nil
}

// NewClientFromModel wraps an existing langchaingo model.
func NewClientFromModel(llm llms.Model, model string) *Client {
	return &Client{llm: llm, model: model}
}

func (c *Client) Generate(ctx context.Context, prompt string, temperature float64) (string, error) {
	start := time.Now()
	out, err := llms.GenerateFromSinglePrompt(ctx, c.llm, prompt, llms.WithTemperature(temperature))
	metrics.ObserveCall("generate", time.Since(start).Seconds(), err)
	if err != nil {
		log.Error().Err(err).Str("model", c.model).Msg("Generation failed")
		return "", fmt.Errorf("%w: generate: %v", models.ErrRemoteCall, err)
	}
	return out, nil
}
