package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"docmate/internal/metrics"
	"docmate/internal/models"
)

// ErrQueryEmbedding marks a failure to embed the search query.
var ErrQueryEmbedding = errors.New("embedding query")

// QueryEmbedder embeds a single search query.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// FilterByDistance keeps results strictly closer than threshold, in order.
func FilterByDistance(results []models.QueryResult, threshold float32) []models.QueryResult {
	kept := make([]models.QueryResult, 0, len(results))
	for _, r := range results {
		if r.Distance < threshold {
			kept = append(kept, r)
		}
	}
	return kept
}

// BuildContext renders results as "[Chapter: X, Page: Y]" headed blocks
// separated by blank lines. An empty input yields the no-context sentinel.
func BuildContext(results []models.QueryResult) string {
	if len(results) == 0 {
		return models.NoContextSentinel
	}
	blocks := make([]string, 0, len(results))
	for _, r := range results {
		chapter := r.Metadata[models.MetaChapter]
		if chapter == "" {
			chapter = models.UnknownChapter
		}
		page := r.Metadata[models.MetaPage]
		if page == "" {
			page = models.UnknownPage
		}
		blocks = append(blocks, fmt.Sprintf("[Chapter: %s, Page: %s]\n%s", chapter, page, strings.TrimSpace(r.Content)))
	}
	return strings.Join(blocks, models.ContextSeparator)
}

// Retriever finds the chunks relevant to an English query.
type Retriever struct {
	embedder  QueryEmbedder
	store     Store
	topK      int
	threshold float32
}

func NewRetriever(embedder QueryEmbedder, store Store, topK int, threshold float32) *Retriever {
	return &Retriever{embedder: embedder, store: store, topK: topK, threshold: threshold}
}

// Retrieve embeds the query and returns the nearest chunks under the
// distance threshold. Embedding failures match ErrQueryEmbedding.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]models.QueryResult, error) {
	emb, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryEmbedding, err)
	}

	results, err := r.store.Query(ctx, emb, r.topK, nil)
	if err != nil {
		return nil, fmt.Errorf("querying store: %w", err)
	}

	kept := FilterByDistance(results, r.threshold)
	metrics.RetrievedChunks.Observe(float64(len(kept)))
	log.Debug().
		Int("candidates", len(results)).
		Int("kept", len(kept)).
		Float32("threshold", r.threshold).
		Msg("Retrieved context")
	return kept, nil
}

// Sources lists the distinct "source p.N" references of results in order.
func Sources(results []models.QueryResult) []string {
	seen := make(map[string]bool, len(results))
	var out []string
	for _, r := range results {
		ref := r.Metadata[models.MetaSource]
		if page := r.Metadata[models.MetaPage]; page != "" && page != models.UnknownPage {
			ref = fmt.Sprintf("%s p.%s", ref, page)
		}
		if ref == "" || seen[ref] {
			continue
		}
		seen[ref] = true
		out = append(out, ref)
	}
	return out
}
