// Package knowledge is the retrieval core: it ingests documents into the
// chunk index and answers similarity queries with keyword-boosted ranking.
package knowledge

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"kbassist/internal/chunker"
	"kbassist/internal/extract"
	"kbassist/internal/storage"
)

// Embedder maps text to a fixed-length dense vector, deterministic for
// identical input.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// KnowledgeBase ties the extractor, chunker, embedder and index store
// together. All operations run on the calling goroutine; concurrent use must
// be serialized by the caller.
type KnowledgeBase struct {
	path     string
	store    *storage.Store
	embedder Embedder
	strategy chunker.Strategy
	logger   *slog.Logger
}

// Option configures a KnowledgeBase at construction time.
type Option func(*KnowledgeBase)

// WithChunker selects the chunking strategy. The strategy is fixed for the
// lifetime of the knowledge base.
func WithChunker(s chunker.Strategy) Option {
	return func(kb *KnowledgeBase) { kb.strategy = s }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(kb *KnowledgeBase) { kb.logger = l }
}

// New creates a KnowledgeBase rooted at path over the given store and
// embedder. The default chunking strategy is a 500-word window with 50 words
// of overlap.
func New(path string, store *storage.Store, embedder Embedder, opts ...Option) *KnowledgeBase {
	kb := &KnowledgeBase{
		path:     path,
		store:    store,
		embedder: embedder,
		strategy: chunker.NewWordWindow(chunker.DefaultSize, chunker.DefaultOverlap),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(kb)
	}
	return kb
}

// AddText chunks, embeds and indexes one document's text. Every chunk gets a
// copy of meta with ChunkIndex set to its position within this document. The
// index is persisted once at the end; a save failure is logged, leaving the
// in-memory state ahead of disk until the next successful save.
func (kb *KnowledgeBase) AddText(ctx context.Context, text string, meta storage.ChunkMetadata) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	chunks := kb.strategy.Chunk(text)
	vectors, err := kb.embedder.EmbedTexts(ctx, chunks)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}

	before := kb.store.Len()
	for i, chunk := range chunks {
		m := meta
		if meta.Extra != nil {
			m.Extra = maps.Clone(meta.Extra)
		}
		m.ChunkIndex = i
		if err := kb.store.Append(chunk, m, vectors[i]); err != nil {
			// Documents index atomically: drop any chunks of this
			// document that made it in before the failure.
			kb.store.Truncate(before)
			return fmt.Errorf("append chunk %d: %w", i, err)
		}
	}

	if err := kb.store.Save(); err != nil {
		kb.logger.Error("saving index failed", "error", err)
	}
	kb.logger.Info("added chunks to knowledge base", "chunks", len(chunks), "source", meta.Source)
	return nil
}

// AddFile extracts one document and indexes it.
func (kb *KnowledgeBase) AddFile(ctx context.Context, path string) error {
	return kb.addFile(ctx, path, "")
}

func (kb *KnowledgeBase) addFile(ctx context.Context, path, collection string) error {
	text, meta, err := extract.File(path)
	if err != nil {
		return err
	}
	return kb.AddText(ctx, text, storage.ChunkMetadata{
		Source:     meta.Source,
		Type:       meta.Type,
		Category:   meta.Category,
		Collection: collection,
		DocID:      uuid.New().String(),
	})
}

// IngestFolder indexes every supported document in folder's immediate
// entries. It is a no-op on a non-empty store so an existing index is never
// silently re-built; per-file failures are logged and contribute zero chunks
// without aborting sibling files. Every chunk from this pass is stamped with
// a collection label: the explicit argument, else the folder's base name when
// the folder is not the knowledge base root, else nothing.
func (kb *KnowledgeBase) IngestFolder(ctx context.Context, folder, collection string) {
	if _, err := os.Stat(folder); errors.Is(err, fs.ErrNotExist) {
		if err := os.MkdirAll(folder, 0o755); err != nil {
			kb.logger.Error("creating knowledge base folder failed", "folder", folder, "error", err)
			return
		}
		kb.logger.Info("created knowledge base folder", "folder", folder)
		return
	}

	if kb.store.Len() > 0 {
		kb.logger.Warn("knowledge base already loaded, skipping re-index",
			"chunks", kb.store.Len(), "folder", folder)
		return
	}

	label := collection
	if label == "" {
		absRoot, rootErr := filepath.Abs(kb.path)
		absFolder, folderErr := filepath.Abs(folder)
		if rootErr == nil && folderErr == nil && absRoot != absFolder {
			label = filepath.Base(folder)
		}
	}

	entries, err := os.ReadDir(folder)
	if err != nil {
		kb.logger.Error("reading knowledge base folder failed", "folder", folder, "error", err)
		return
	}

	files := 0
	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == storage.LegacyIndexFile {
			continue
		}
		if !extract.Supported(filepath.Ext(entry.Name())) {
			continue
		}
		path := filepath.Join(folder, entry.Name())
		if err := kb.addFile(ctx, path, label); err != nil {
			kb.logger.Error("processing file failed", "path", path, "error", err)
			continue
		}
		files++
	}

	kb.logger.Info("folder ingestion complete",
		"folder", folder, "files", files, "chunks", kb.store.Len(), "collection", label)
}

// Stats summarizes the index.
type Stats struct {
	TotalChunks int
	Collections []string
}

// GetStats returns the chunk count and the distinct collection labels.
// Untagged chunks count under "default".
func (kb *KnowledgeBase) GetStats() Stats {
	seen := make(map[string]struct{})
	var names []string
	for i := 0; i < kb.store.Len(); i++ {
		name := kb.store.Metadata(i).Collection
		if name == "" {
			name = "default"
		}
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return Stats{TotalChunks: kb.store.Len(), Collections: names}
}

// Clear destroys the index and persists the empty state.
func (kb *KnowledgeBase) Clear() {
	if err := kb.store.Clear(); err != nil {
		kb.logger.Error("clearing index failed", "error", err)
		return
	}
	kb.logger.Info("knowledge base cleared")
}
