package retrieval

import (
	"context"

	"docmate/internal/models"
)

// Store is a persistent vector collection. Query returns at most topK
// results ordered by ascending cosine distance.
type Store interface {
	Upsert(ctx context.Context, records []models.Record) error
	Query(ctx context.Context, embedding []float32, topK int, filters map[string]string) ([]models.QueryResult, error)
	Count(ctx context.Context) (int, error)
	Close() error
}
