package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"docmate/internal/chromemdb"
	"docmate/internal/config"
	"docmate/internal/db"
	"docmate/internal/embcache"
	"docmate/internal/embedding"
	"docmate/internal/llmservice"
	"docmate/internal/models"
	"docmate/internal/rag"
	"docmate/internal/retrieval"
)

// resettable stores can drop their contents before a fresh ingestion.
type resettable interface {
	Reset(ctx context.Context) error
}

type chromemStore struct {
	*chromemdb.VectorDBManager
	collection string
	model      string
}

func (s *chromemStore) Reset(context.Context) error {
	if err := s.DeleteCollection(); err != nil {
		return err
	}
	return s.GetOrCreateCollection(s.collection, s.model)
}

type pgStore struct {
	*db.Store
}

func (s *pgStore) Reset(ctx context.Context) error {
	return s.Store.DeleteCollection(ctx)
}

// openStore opens the configured backend. With create false a missing or
// empty collection is a configuration error.
func openStore(ctx context.Context, cfg *config.Config, create bool) (retrieval.Store, error) {
	var store retrieval.Store
	switch cfg.Store.Type {
	case config.StorePgvector:
		sqldb, err := db.ConnectDB(cfg.Database)
		if err != nil {
			return nil, err
		}
		s := db.NewStore(db.NewDB(sqldb, cfg.Database.Debug), cfg.Store.Collection, cfg.Embedding.Dimensions)
		if err := s.InitDB(ctx); err != nil {
			s.Close()
			return nil, fmt.Errorf("initialising database: %w", err)
		}
		store = &pgStore{Store: s}
	default:
		m, err := chromemdb.NewVectorDBManager(cfg.Store.Path, cfg.Store.Compress, cfg.Store.EncryptionKey)
		if err != nil {
			return nil, err
		}
		if create {
			err = m.GetOrCreateCollection(cfg.Store.Collection, cfg.EmbedLLM.Model)
		} else {
			err = m.OpenCollection(cfg.Store.Collection, cfg.EmbedLLM.Model)
		}
		if err != nil {
			return nil, err
		}
		store = &chromemStore{VectorDBManager: m, collection: cfg.Store.Collection, model: cfg.EmbedLLM.Model}
	}

	if create {
		return store, nil
	}
	n, err := store.Count(ctx)
	if err != nil {
		store.Close()
		return nil, err
	}
	if n == 0 {
		store.Close()
		return nil, fmt.Errorf("%w: collection %q is empty, run ingest first", models.ErrConfiguration, cfg.Store.Collection)
	}
	log.Debug().Int("records", n).Str("collection", cfg.Store.Collection).Msg("Opened vector store")
	return store, nil
}

// buildEmbedder wraps the configured embedder in the optional Redis cache and
// the retry policy.
func buildEmbedder(ctx context.Context, cfg *config.Config) (*embedding.BatchEmbedder, func(), error) {
	base, err := embedding.NewEmbedder(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {}

	var e embedding.Embedder = base
	if cfg.Cache.Enabled {
		rs, err := embcache.NewRedisStore(cfg.Cache.Addrs, cfg.Cache.Password, time.Duration(cfg.Cache.TTLSecs)*time.Second)
		if err != nil {
			return nil, nil, err
		}
		if err := rs.Ping(ctx); err != nil {
			log.Warn().Err(err).Msg("Embedding cache unreachable, continuing without it")
			rs.Close()
		} else {
			e = embcache.New(base, rs)
			cleanup = rs.Close
		}
	}
	return embedding.NewBatchEmbedderFromConfig(e, cfg.Embedding), cleanup, nil
}

// buildRAG wires the question answering pipeline over an existing collection.
func buildRAG(ctx context.Context, cfg *config.Config) (*rag.RAG, func(), error) {
	store, err := openStore(ctx, cfg, false)
	if err != nil {
		return nil, nil, err
	}
	embedder, closeCache, err := buildEmbedder(ctx, cfg)
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	gen, err := llmservice.NewClient(cfg.LLM)
	if err != nil {
		closeCache()
		store.Close()
		return nil, nil, err
	}

	retriever := retrieval.NewRetriever(embedder, store, cfg.RAG.TopK, cfg.RAG.DistanceThreshold)
	r := rag.NewRAG(gen, retriever, rag.Options{
		ForceLanguage: forceLang,
		Temperature:   cfg.RAG.Temperature,
	})
	cleanup := func() {
		closeCache()
		store.Close()
	}
	return r, cleanup, nil
}
