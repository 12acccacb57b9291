// Package main provides the index management CLI.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"kbassist/internal/chunker"
	"kbassist/internal/config"
	"kbassist/internal/embedding"
	"kbassist/internal/knowledge"
	"kbassist/internal/storage"
)

var (
	flagCollection string
	flagCategory   string
	flagLimit      int
)

var rootCmd = &cobra.Command{
	Use:   "kbctl",
	Short: "Knowledge base index management",
	Long:  "CLI tool for building, querying and clearing the local knowledge base index.",
}

var reindexCmd = &cobra.Command{
	Use:   "reindex [folder]",
	Short: "Clear the index and re-ingest a document folder",
	Long: `Clears the existing index and rebuilds it from the documents in the given
folder (defaults to the knowledge base path). Supported formats: .txt, .pdf, .docx.

Environment variables:
  KNOWLEDGE_BASE_PATH  index and default document folder (default: ./knowledge_base)
  EMBEDDING_BASE_URL   OpenAI-compatible embeddings endpoint
  EMBEDDING_MODEL      embedding model name (default: all-minilm)`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReindex,
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Query the knowledge base",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics",
	RunE:  runStats,
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every chunk from the index",
	RunE:  runClear,
}

func init() {
	reindexCmd.Flags().StringVar(&flagCollection, "collection", "", "collection label to stamp on ingested chunks")
	searchCmd.Flags().StringVar(&flagCollection, "collection", "", "restrict results to one collection")
	searchCmd.Flags().StringVar(&flagCategory, "category", "", "prefer or restrict to one document category")
	searchCmd.Flags().IntVar(&flagLimit, "limit", 3, "maximum number of results")
	rootCmd.AddCommand(reindexCmd, searchCmd, statsCmd, clearCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newKB wires a knowledge base from the environment configuration.
func newKB() (*knowledge.KnowledgeBase, config.Config) {
	cfg := config.Load()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	embedder := embedding.NewEmbedder(embedding.NewClient(embedding.Config{
		BaseURL: cfg.EmbeddingBaseURL,
		APIKey:  cfg.EmbeddingAPIKey,
		Model:   cfg.EmbeddingModel,
	}), 0)

	store := storage.Open(cfg.KnowledgeBasePath, logger)
	kb := knowledge.New(cfg.KnowledgeBasePath, store, embedder,
		knowledge.WithChunker(chunker.NewWordWindow(cfg.ChunkSize, cfg.ChunkOverlap)),
		knowledge.WithLogger(logger),
	)
	return kb, cfg
}

func runReindex(cmd *cobra.Command, args []string) error {
	kb, cfg := newKB()
	folder := cfg.KnowledgeBasePath
	if len(args) > 0 {
		folder = args[0]
	}

	fmt.Printf("Clearing index and re-ingesting %s...\n", folder)
	kb.Clear()
	kb.IngestFolder(context.Background(), folder, flagCollection)

	stats := kb.GetStats()
	fmt.Printf("Done: %d chunks across collections [%s]\n",
		stats.TotalChunks, strings.Join(stats.Collections, ", "))
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	kb, _ := newKB()
	query := strings.Join(args, " ")

	results, err := kb.Search(context.Background(), query, knowledge.SearchOptions{
		Limit:      flagLimit,
		Collection: flagCollection,
		Category:   flagCategory,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if len(results) == 0 {
		fmt.Println("No results.")
		return nil
	}

	for i, r := range results {
		snippet := r.Content
		if len(snippet) > 200 {
			snippet = snippet[:200] + "..."
		}
		fmt.Printf("%d. distance=%.4f source=%s", i+1, r.Distance, r.Metadata.Source)
		if r.Metadata.Collection != "" {
			fmt.Printf(" collection=%s", r.Metadata.Collection)
		}
		if r.Metadata.Category != "" {
			fmt.Printf(" category=%s", r.Metadata.Category)
		}
		fmt.Printf("\n   %s\n", snippet)
	}
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	kb, cfg := newKB()
	stats := kb.GetStats()
	fmt.Printf("Index path:   %s\n", cfg.KnowledgeBasePath)
	fmt.Printf("Total chunks: %d\n", stats.TotalChunks)
	fmt.Printf("Collections:  %s\n", strings.Join(stats.Collections, ", "))
	return nil
}

func runClear(cmd *cobra.Command, args []string) error {
	kb, _ := newKB()
	kb.Clear()
	fmt.Println("Knowledge base cleared.")
	return nil
}
