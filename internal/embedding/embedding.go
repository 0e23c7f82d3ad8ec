package embedding

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"docmate/internal/metrics"
	"docmate/internal/models"
)

// BatchEmbedder wraps an Embedder with the retry policy and the throttle
// delay used against rate limited APIs.
type BatchEmbedder struct {
	embedder Embedder
	policy   RetryPolicy
	throttle time.Duration
}

func NewBatchEmbedder(embedder Embedder, policy RetryPolicy, throttle time.Duration) *BatchEmbedder {
	policy.OnRetry = chainRetry(policy.OnRetry)
	return &BatchEmbedder{embedder: embedder, policy: policy, throttle: throttle}
}

func chainRetry(next func(int, error)) func(int, error) {
	return func(attempt int, err error) {
		metrics.EmbeddingRetriesTotal.Inc()
		log.Warn().Err(err).Int("attempt", attempt).Msg("Embedding failed, retrying")
		if next != nil {
			next(attempt, err)
		}
	}
}

// Dimensions of the wrapped embedder.
func (b *BatchEmbedder) Dimensions() int { return b.embedder.Dimensions() }

// Name of the wrapped embedder.
func (b *BatchEmbedder) Name() string { return b.embedder.Name() }

// EmbedDocuments returns one vector per text. A text that still fails after
// every attempt gets a zero vector so the rest of the batch goes through.
// progress, if set, is called with the number of texts handled so far.
// The only error is context cancellation.
func (b *BatchEmbedder) EmbedDocuments(ctx context.Context, texts []string, task models.TaskType, progress func(done int)) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := b.embedOne(ctx, text, task)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			metrics.EmbeddingFallbacksTotal.Inc()
			log.Error().Err(err).Int("index", i).Msg("Embedding failed after all retries, using zero vector")
			vec = make([]float32, b.embedder.Dimensions())
		} else if serr := b.policy.sleep(ctx, b.throttle); serr != nil {
			return nil, serr
		}
		vectors[i] = vec
		if progress != nil {
			progress(i + 1)
		}
	}
	return vectors, nil
}

// EmbedQuery embeds a user query under the retry policy. Unlike
// EmbedDocuments it reports failure instead of substituting a zero vector.
func (b *BatchEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return b.embedOne(ctx, text, models.TaskRetrievalQuery)
}

func (b *BatchEmbedder) embedOne(ctx context.Context, text string, task models.TaskType) ([]float32, error) {
	var vec []float32
	err := b.policy.Do(ctx, func(ctx context.Context) error {
		start := time.Now()
		v, err := b.embedder.Embed(ctx, text, task)
		metrics.ObserveCall("embed", time.Since(start).Seconds(), err)
		if err != nil {
			return err
		}
		if want := b.embedder.Dimensions(); want > 0 && len(v) != want {
			return fmt.Errorf("%w: embedding has %d dimensions, want %d", models.ErrRemoteCall, len(v), want)
		}
		vec = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return vec, nil
}
