package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"docmate/internal/helper"
	"docmate/internal/models"
	"docmate/internal/parser"
	"docmate/internal/retrieval"
)

const upsertBatchSize = 100

// DocumentEmbedder embeds chunk texts in order, one vector per text.
type DocumentEmbedder interface {
	EmbedDocuments(ctx context.Context, texts []string, task models.TaskType, progress func(done int)) ([][]float32, error)
}

// Summary describes one ingestion run.
type Summary struct {
	Source    string
	Pages     int
	Chapters  int
	Chunks    int
	Stored    int
	Fallbacks int
	Elapsed   time.Duration
}

// Pipeline turns a document into stored chunk records.
type Pipeline struct {
	embedder     DocumentEmbedder
	store        retrieval.Store
	chunkSize    int
	chunkOverlap int
	progress     ProgressReporter
}

// NewPipeline builds a pipeline. progress may be nil.
func NewPipeline(embedder DocumentEmbedder, store retrieval.Store, chunkSize, chunkOverlap int, progress ProgressReporter) *Pipeline {
	return &Pipeline{
		embedder:     embedder,
		store:        store,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		progress:     progress,
	}
}

// Run parses, chunks, embeds and stores path. A dry run stops after chunking.
func (p *Pipeline) Run(ctx context.Context, path string, dryRun bool) (*Summary, error) {
	start := time.Now()

	doc, err := parser.ParseDocument(path)
	if err != nil {
		return nil, err
	}
	chunks, err := parser.ChunkDocument(doc, p.chunkSize, p.chunkOverlap)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		Source:   doc.Source,
		Pages:    len(doc.Pages),
		Chapters: len(doc.Chapters),
		Chunks:   len(chunks),
	}
	log.Info().
		Str("source", doc.Source).
		Int("pages", summary.Pages).
		Int("chapters", summary.Chapters).
		Int("chunks", summary.Chunks).
		Msg("Chunked document")

	if dryRun || len(chunks) == 0 {
		summary.Elapsed = time.Since(start)
		return summary, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	var onProgress func(int)
	if p.progress != nil {
		p.progress.Start(len(texts))
		onProgress = p.progress.Set
	}
	vectors, err := p.embedder.EmbedDocuments(ctx, texts, models.TaskRetrievalDocument, onProgress)
	if p.progress != nil {
		p.progress.Finish()
	}
	if err != nil {
		return nil, fmt.Errorf("embedding chunks: %w", err)
	}

	// Zero vectors have no direction and would poison cosine ranking, so
	// fallback chunks are counted but not stored.
	records := make([]models.Record, 0, len(chunks))
	for i, c := range chunks {
		if isZero(vectors[i]) {
			summary.Fallbacks++
			log.Warn().Int("chunk_id", c.ChunkID).Int("page", c.PageNumber).Msg("Skipping chunk without embedding")
			continue
		}
		record, err := helper.ChunkRecord(models.ChunkEmbedding{Chunk: c, Embedding: vectors[i]})
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	for lo := 0; lo < len(records); lo += upsertBatchSize {
		hi := min(lo+upsertBatchSize, len(records))
		if err := p.store.Upsert(ctx, records[lo:hi]); err != nil {
			return nil, fmt.Errorf("storing chunks %d-%d: %w", lo, hi-1, err)
		}
		summary.Stored = hi
	}

	summary.Elapsed = time.Since(start)
	log.Info().
		Int("stored", summary.Stored).
		Int("fallbacks", summary.Fallbacks).
		Dur("elapsed", summary.Elapsed).
		Msg("Ingestion complete")
	return summary, nil
}

func isZero(v []float32) bool {
	for _, f := range v {
		if f != 0 {
			return false
		}
	}
	return true
}
