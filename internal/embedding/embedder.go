package embedding

import (
	"context"

	"docmate/internal/models"
)

// Embedder turns one text into a vector. Implementations make one remote call
// per Embed and do not retry.
type Embedder interface {
	Embed(ctx context.Context, text string, task models.TaskType) ([]float32, error)
	// Dimensions is the fixed length of every vector this embedder returns.
	Dimensions() int
	// Name identifies the embedding model.
	Name() string
}
