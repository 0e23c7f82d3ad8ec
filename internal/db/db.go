package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"docmate/internal/config"
	"docmate/internal/models"
)

// Document is one stored chunk.
type Document struct {
	bun.BaseModel `bun:"table:documents,alias:d"`

	ID         string  `bun:"id,pk"`
	Collection string  `bun:"collection,notnull"`
	Content    string  `bun:"content,notnull"`
	Source     string  `bun:"source"`
	Chapter    string  `bun:"chapter"`
	Page       string  `bun:"page"`
	ChunkID    string  `bun:"chunk_id"`
	Embedding  Vector  `bun:"embedding,notnull,type:vector"`
	Distance   float32 `bun:"distance,scanonly"`
}

func NewDB(sqldb *sql.DB, debug bool) *bun.DB {
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

// ConnectDB opens a Postgres connection with pgdriver, or lib/pq when the
// driver is "pq".
func ConnectDB(cfg config.DatabaseConfig) (*sql.DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("%w: database dsn is required", models.ErrConfiguration)
	}
	if cfg.Driver == "pq" {
		return sql.Open("postgres", cfg.DSN)
	}
	opts := []pgdriver.Option{pgdriver.WithDSN(cfg.DSN)}
	if cfg.Password != "" {
		opts = append(opts, pgdriver.WithPassword(cfg.Password))
	}
	return sql.OpenDB(pgdriver.NewConnector(opts...)), nil
}

// Store keeps chunks in a pgvector table shared by collections.
type Store struct {
	db         *bun.DB
	collection string
	dimensions int
}

func NewStore(db *bun.DB, collection string, dimensions int) *Store {
	return &Store{db: db, collection: collection, dimensions: dimensions}
}

// InitDB creates the vector extension and the documents table.
func (s *Store) InitDB(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("creating vector extension: %w", err)
	}
	_, err := s.db.NewCreateTable().Model((*Document)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return fmt.Errorf("creating documents table: %w", err)
	}
	return nil
}

func (s *Store) Upsert(ctx context.Context, records []models.Record) error {
	if len(records) == 0 {
		return nil
	}
	docs := make([]Document, 0, len(records))
	for _, r := range records {
		if s.dimensions > 0 && len(r.Embedding) != s.dimensions {
			return fmt.Errorf("%w: record %s has %d dimensions, want %d",
				models.ErrConfiguration, r.ID, len(r.Embedding), s.dimensions)
		}
		docs = append(docs, Document{
			ID:         r.ID,
			Collection: s.collection,
			Content:    r.Content,
			Source:     r.Metadata[models.MetaSource],
			Chapter:    r.Metadata[models.MetaChapter],
			Page:       r.Metadata[models.MetaPage],
			ChunkID:    r.Metadata[models.MetaChunkID],
			Embedding:  Vector(r.Embedding),
		})
	}
	_, err := s.db.NewInsert().
		Model(&docs).
		On("CONFLICT (id) DO UPDATE").
		Set("content = EXCLUDED.content").
		Set("source = EXCLUDED.source").
		Set("chapter = EXCLUDED.chapter").
		Set("page = EXCLUDED.page").
		Set("chunk_id = EXCLUDED.chunk_id").
		Set("embedding = EXCLUDED.embedding").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upserting documents: %w", err)
	}
	log.Debug().Int("count", len(docs)).Str("collection", s.collection).Msg("Stored documents")
	return nil
}

// Query orders by pgvector's cosine distance operator.
func (s *Store) Query(ctx context.Context, embedding []float32, topK int, filters map[string]string) ([]models.QueryResult, error) {
	if topK <= 0 {
		return nil, nil
	}
	var docs []Document
	q := s.db.NewSelect().
		Model(&docs).
		Column("id", "content", "source", "chapter", "page", "chunk_id").
		ColumnExpr("embedding <=> ?::vector AS distance", Vector(embedding)).
		Where("collection = ?", s.collection)
	for k, v := range filters {
		switch k {
		case models.MetaSource, models.MetaChapter, models.MetaPage, models.MetaChunkID:
			q = q.Where("? = ?", bun.Ident(k), v)
		default:
			return nil, fmt.Errorf("%w: unsupported filter %q", models.ErrConfiguration, k)
		}
	}
	err := q.OrderExpr("distance ASC").Limit(topK).Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("searching documents: %w", err)
	}

	out := make([]models.QueryResult, 0, len(docs))
	for _, d := range docs {
		out = append(out, toResult(d))
	}
	return out, nil
}

func toResult(d Document) models.QueryResult {
	return models.QueryResult{
		ID:       d.ID,
		Content:  d.Content,
		Distance: d.Distance,
		Metadata: map[string]string{
			models.MetaSource:  d.Source,
			models.MetaChapter: d.Chapter,
			models.MetaPage:    d.Page,
			models.MetaChunkID: d.ChunkID,
		},
	}
}

func (s *Store) Count(ctx context.Context) (int, error) {
	n, err := s.db.NewSelect().
		Model((*Document)(nil)).
		Where("collection = ?", s.collection).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return n, nil
}

func (s *Store) deleteCollectionQuery() *bun.DeleteQuery {
	return s.db.NewDelete().
		Model((*Document)(nil)).
		Where("collection = ?", s.collection)
}

// DeleteCollection removes this collection's rows. Other collections sharing
// the documents table are left alone.
func (s *Store) DeleteCollection(ctx context.Context) error {
	res, err := s.deleteCollectionQuery().Exec(ctx)
	if err != nil {
		return fmt.Errorf("deleting collection %q: %w", s.collection, err)
	}
	n, _ := res.RowsAffected()
	log.Info().Str("collection", s.collection).Int64("deleted", n).Msg("Cleared collection")
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
