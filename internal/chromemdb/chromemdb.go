package chromemdb

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"docmate/internal/models"
)

const metaEmbeddingModel = "embedding_model"

// errNoEmbeddingFunc guards against chromem embedding text on its own; every
// record and query arrives with a precomputed vector.
var errNoEmbeddingFunc = errors.New("chromemdb: embeddings must be precomputed")

func noEmbedding(context.Context, string) ([]float32, error) {
	return nil, errNoEmbeddingFunc
}

// VectorDBManager wraps a persistent chromem-go collection.
type VectorDBManager struct {
	db             *chromem.DB
	collection     *chromem.Collection
	dbPath         string
	compress       bool
	encryptionKey  string
	filePath       string
	embeddingModel string
	modelChecked   bool
}

// NewVectorDBManager opens the database at dbPath. An empty dbPath keeps
// everything in memory.
func NewVectorDBManager(dbPath string, compress bool, encryptionKey string) (*VectorDBManager, error) {
	var db *chromem.DB
	if dbPath == "" {
		db = chromem.NewDB()
	} else {
		var err error
		db, err = chromem.NewPersistentDB(dbPath, compress)
		if err != nil {
			return nil, fmt.Errorf("failed to create database: %w", err)
		}
	}

	return &VectorDBManager{
		db:            db,
		dbPath:        dbPath,
		compress:      compress,
		encryptionKey: encryptionKey,
	}, nil
}

// GetOrCreateCollection opens the named collection, creating it when missing.
// Records written afterwards are tagged with embeddingModel.
func (m *VectorDBManager) GetOrCreateCollection(name, embeddingModel string) error {
	c, err := m.db.GetOrCreateCollection(name, nil, noEmbedding)
	if err != nil {
		return fmt.Errorf("failed to create/get collection: %w", err)
	}
	m.use(c, name, embeddingModel)
	return nil
}

// OpenCollection opens an existing collection and fails when it is missing.
// A non-empty embeddingModel is compared against the model stored records
// were built with.
func (m *VectorDBManager) OpenCollection(name, embeddingModel string) error {
	c := m.db.GetCollection(name, noEmbedding)
	if c == nil {
		return fmt.Errorf("%w: collection %q does not exist, run ingest first", models.ErrConfiguration, name)
	}
	m.use(c, name, embeddingModel)
	return nil
}

func (m *VectorDBManager) use(c *chromem.Collection, name, embeddingModel string) {
	m.collection = c
	m.filePath = filepath.Join(m.dbPath, name+".chromem")
	m.embeddingModel = embeddingModel
	m.modelChecked = false
}

func (m *VectorDBManager) requireCollection() error {
	if m.collection == nil {
		return fmt.Errorf("%w: no collection opened", models.ErrConfiguration)
	}
	return nil
}

// Upsert adds records, replacing any with the same ID. Records whose
// embedding is all zeros are skipped: chromem normalises them to NaN, which
// breaks its top-k selection for every later query.
func (m *VectorDBManager) Upsert(ctx context.Context, records []models.Record) error {
	if err := m.requireCollection(); err != nil {
		return err
	}
	docs := make([]chromem.Document, 0, len(records))
	for _, r := range records {
		if isZero(r.Embedding) {
			log.Warn().Str("id", r.ID).Str("collection", m.collection.Name).Msg("Skipping record with zero embedding")
			continue
		}
		docs = append(docs, chromem.Document{
			ID:        r.ID,
			Content:   r.Content,
			Metadata:  m.tag(r.Metadata),
			Embedding: r.Embedding,
		})
	}
	if len(docs) == 0 {
		return nil
	}
	if err := m.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}
	return nil
}

// tag copies metadata and adds the embedding model.
func (m *VectorDBManager) tag(metadata map[string]string) map[string]string {
	if m.embeddingModel == "" {
		return metadata
	}
	out := make(map[string]string, len(metadata)+1)
	for k, v := range metadata {
		out[k] = v
	}
	out[metaEmbeddingModel] = m.embeddingModel
	return out
}

// checkModel warns once per opened collection when stored records were built
// with a different embedding model. It reports whether a mismatch was found.
func (m *VectorDBManager) checkModel(results []chromem.Result) bool {
	if m.modelChecked || m.embeddingModel == "" || len(results) == 0 {
		return false
	}
	m.modelChecked = true
	stored := results[0].Metadata[metaEmbeddingModel]
	if stored == "" || stored == m.embeddingModel {
		return false
	}
	log.Warn().
		Str("collection", m.collection.Name).
		Str("stored_model", stored).
		Str("model", m.embeddingModel).
		Msg("Collection was built with a different embedding model")
	return true
}

func isZero(v []float32) bool {
	for _, f := range v {
		if f != 0 {
			return false
		}
	}
	return true
}

// Query returns up to topK nearest records. Distance is cosine distance,
// 1 - similarity.
func (m *VectorDBManager) Query(ctx context.Context, embedding []float32, topK int, filters map[string]string) ([]models.QueryResult, error) {
	if err := m.requireCollection(); err != nil {
		return nil, err
	}
	if len(embedding) == 0 {
		return nil, fmt.Errorf("query embedding must be provided")
	}

	n := topK
	if count := m.collection.Count(); n > count {
		n = count
	}
	if n <= 0 {
		return nil, nil
	}

	results, err := m.collection.QueryEmbedding(ctx, embedding, n, filters, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %w", err)
	}
	m.checkModel(results)

	out := make([]models.QueryResult, 0, len(results))
	for _, r := range results {
		out = append(out, models.QueryResult{
			ID:       r.ID,
			Content:  r.Content,
			Distance: 1 - r.Similarity,
			Metadata: r.Metadata,
		})
	}
	return out, nil
}

func (m *VectorDBManager) Count(context.Context) (int, error) {
	if err := m.requireCollection(); err != nil {
		return 0, err
	}
	return m.collection.Count(), nil
}

// DeleteCollection drops the opened collection.
func (m *VectorDBManager) DeleteCollection() error {
	if err := m.requireCollection(); err != nil {
		return err
	}
	if err := m.db.DeleteCollection(m.collection.Name); err != nil {
		return fmt.Errorf("failed to drop collection: %w", err)
	}
	m.collection = nil
	return nil
}

// Export writes the collection to an encrypted file next to the database.
func (m *VectorDBManager) Export(ctx context.Context) (string, error) {
	if m.encryptionKey == "" {
		return "", fmt.Errorf("%w: encryption key is required", models.ErrConfiguration)
	}
	if err := m.requireCollection(); err != nil {
		return "", err
	}
	if m.dbPath == "" {
		return "", fmt.Errorf("%w: db path is required", models.ErrConfiguration)
	}

	log.Debug().
		Str("collection", m.collection.Name).
		Str("file", m.filePath).
		Bool("compress", m.compress).
		Msg("Exporting collection")
	if err := m.db.ExportToFile(m.filePath, m.compress, m.encryptionKey, m.collection.Name); err != nil {
		return "", fmt.Errorf("failed to export database: %w", err)
	}
	return m.filePath, nil
}

// Import loads a collection previously written by Export.
func (m *VectorDBManager) Import(ctx context.Context, filePath, name string) error {
	if err := m.db.ImportFromFile(filePath, m.encryptionKey, name); err != nil {
		return fmt.Errorf("failed to import database: %w", err)
	}
	return m.OpenCollection(name, m.embeddingModel)
}

func (m *VectorDBManager) Close() error { return nil }
