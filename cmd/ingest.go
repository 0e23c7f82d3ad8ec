package main

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"docmate/internal/ingest"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Parse, chunk and embed a document into the vector store",
	Args:  cobra.NoArgs,
	RunE:  runIngest,
}

func init() {
	ingestCmd.Flags().String("file", "", "document to ingest (defaults to rag.document_path)")
	ingestCmd.Flags().Bool("dry-run", false, "parse and chunk only, do not embed or store")
	ingestCmd.Flags().Bool("reset", false, "drop the collection before storing")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	path, _ := cmd.Flags().GetString("file")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	reset, _ := cmd.Flags().GetBool("reset")
	if path == "" {
		path = cfg.RAG.DocumentPath
	}

	store, err := openStore(ctx, cfg, true)
	if err != nil {
		return fatalIfConfig(err)
	}
	defer store.Close()

	if reset && !dryRun {
		if r, ok := store.(resettable); ok {
			if err := r.Reset(ctx); err != nil {
				return fmt.Errorf("resetting collection: %w", err)
			}
			log.Info().Str("collection", cfg.Store.Collection).Msg("Collection reset")
		}
	}

	embedder, closeCache, err := buildEmbedder(ctx, cfg)
	if err != nil {
		return fatalIfConfig(err)
	}
	defer closeCache()

	pipeline := ingest.NewPipeline(embedder, store, cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap, ingest.NewProgress())
	summary, err := pipeline.Run(ctx, path, dryRun)
	if err != nil {
		return fatalIfConfig(err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d pages, %d chapters, %d chunks, %d stored (%d zero-vector fallbacks) in %s\n",
		summary.Source, summary.Pages, summary.Chapters, summary.Chunks, summary.Stored, summary.Fallbacks, summary.Elapsed.Round(time.Millisecond))
	return nil
}
