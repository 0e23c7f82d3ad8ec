package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog/log"

	"docmate/internal/embedding"
	"docmate/internal/metrics"
	"docmate/internal/models"
)

const keyPrefix = "docmate:emb_cache:"

// store is the part of a key-value store the cache needs.
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// CachedEmbedder serves repeated texts from a key-value store. Store failures
// are logged and fall through to the inner embedder.
type CachedEmbedder struct {
	inner embedding.Embedder
	store store
}

func New(inner embedding.Embedder, s store) *CachedEmbedder {
	return &CachedEmbedder{inner: inner, store: s}
}

func (c *CachedEmbedder) Name() string    { return c.inner.Name() }
func (c *CachedEmbedder) Dimensions() int { return c.inner.Dimensions() }

func (c *CachedEmbedder) Embed(ctx context.Context, text string, task models.TaskType) ([]float32, error) {
	key := c.cacheKey(text, task)

	if vec, ok := c.getFromCache(ctx, key); ok {
		metrics.EmbeddingCacheTotal.WithLabelValues("hit").Inc()
		return vec, nil
	}
	metrics.EmbeddingCacheTotal.WithLabelValues("miss").Inc()

	vec, err := c.inner.Embed(ctx, text, task)
	if err != nil {
		return nil, err
	}

	if err := c.store.Set(ctx, key, vectorToBytes(vec)); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to cache embedding")
	}
	return vec, nil
}

func (c *CachedEmbedder) cacheKey(text string, task models.TaskType) string {
	h := sha256.New()
	h.Write([]byte(c.inner.Name()))
	h.Write([]byte{0})
	h.Write([]byte(task))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return keyPrefix + hex.EncodeToString(h.Sum(nil))
}

func (c *CachedEmbedder) getFromCache(ctx context.Context, key string) ([]float32, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrKeyNotFound) {
			log.Warn().Err(err).Str("key", key).Msg("Failed to get cached embedding")
		}
		return nil, false
	}

	vec, err := bytesToVector(data)
	if err != nil || len(vec) == 0 {
		log.Warn().Err(err).Str("key", key).Msg("Discarding unreadable cached embedding")
		return nil, false
	}
	if want := c.inner.Dimensions(); want > 0 && len(vec) != want {
		return nil, false
	}
	return vec, true
}

func vectorToBytes(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func bytesToVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding cache data: len=%d (not multiple of 4)", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}
