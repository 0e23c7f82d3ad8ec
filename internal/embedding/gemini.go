package embedding

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"docmate/internal/models"
)

const (
	defaultGeminiBaseURL    = "https://generativelanguage.googleapis.com/"
	defaultGeminiAPIVersion = "v1beta"
)

// GeminiEmbedder calls the Gemini embedContent API, which takes a task type
// so document and query vectors are tuned for retrieval.
type GeminiEmbedder struct {
	client     *genai.Client
	model      string
	dimensions int
	title      string
}

// NewGeminiEmbedder builds a client for the Gemini API. baseURL may carry the
// API version as its last path segment, e.g. ".../v1beta".
func NewGeminiEmbedder(ctx context.Context, baseURL, apiKey, model string, dimensions int, title string) (*GeminiEmbedder, error) {
	base, version := splitAPIVersion(baseURL)
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    base,
			APIVersion: version,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: creating gemini client: %v", models.ErrConfiguration, err)
	}
	if !strings.HasPrefix(model, "models/") {
		model = "models/" + model
	}
	return &GeminiEmbedder{
		client:     client,
		model:      model,
		dimensions: dimensions,
		title:      title,
	}, nil
}

// splitAPIVersion separates a trailing "v1", "v1beta" style segment from
// baseURL.
func splitAPIVersion(baseURL string) (string, string) {
	if baseURL == "" {
		return defaultGeminiBaseURL, defaultGeminiAPIVersion
	}
	trimmed := strings.TrimSuffix(baseURL, "/")
	i := strings.LastIndex(trimmed, "/")
	if i < 0 {
		return baseURL, defaultGeminiAPIVersion
	}
	last := trimmed[i+1:]
	if len(last) > 1 && last[0] == 'v' && last[1] >= '0' && last[1] <= '9' {
		return trimmed[:i+1], last
	}
	return trimmed + "/", defaultGeminiAPIVersion
}

func (e *GeminiEmbedder) Name() string    { return e.model }
func (e *GeminiEmbedder) Dimensions() int { return e.dimensions }

func (e *GeminiEmbedder) Embed(ctx context.Context, text string, task models.TaskType) ([]float32, error) {
	cfg := &genai.EmbedContentConfig{TaskType: strings.ToUpper(string(task))}
	// title is only accepted for document embeddings
	if task == models.TaskRetrievalDocument {
		cfg.Title = e.title
	}

	res, err := e.client.Models.EmbedContent(ctx, e.model, genai.Text(text), cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: gemini embed: %v", models.ErrRemoteCall, err)
	}
	if res == nil || len(res.Embeddings) == 0 || len(res.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("%w: gemini returned empty embedding", models.ErrRemoteCall)
	}
	return res.Embeddings[0].Values, nil
}
