package embedding

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"

	"docmate/internal/models"
)

// OllamaEmbedder embeds through a local Ollama server via langchaingo.
type OllamaEmbedder struct {
	embedder   *embeddings.EmbedderImpl
	model      string
	dimensions int
}

// NewOllamaEmbedder creates an embedder for the given Ollama server and model
func NewOllamaEmbedder(serverURL, model string, dimensions int) (*OllamaEmbedder, error) {
	log.Debug().Interface("config", map[string]string{
		"base_url":        serverURL,
		"embedding_model": model,
	}).Msg("Creating ollama embedder")

	opts := []ollama.Option{ollama.WithModel(model)}
	if serverURL != "" {
		opts = append(opts, ollama.WithServerURL(serverURL))
	}
	llm, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("initializing ollama: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}
	return &OllamaEmbedder{embedder: embedder, model: model, dimensions: dimensions}, nil
}

func (e *OllamaEmbedder) Name() string    { return e.model }
func (e *OllamaEmbedder) Dimensions() int { return e.dimensions }

func (e *OllamaEmbedder) Embed(ctx context.Context, text string, task models.TaskType) ([]float32, error) {
	var (
		vec []float32
		err error
	)
	if task == models.TaskRetrievalQuery {
		vec, err = e.embedder.EmbedQuery(ctx, text)
	} else {
		var vecs [][]float32
		vecs, err = e.embedder.EmbedDocuments(ctx, []string{text})
		if err == nil && len(vecs) > 0 {
			vec = vecs[0]
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: ollama embed: %v", models.ErrRemoteCall, err)
	}
	if len(vec) == 0 {
		return nil, fmt.Errorf("%w: ollama returned empty embedding", models.ErrRemoteCall)
	}
	return vec, nil
}
