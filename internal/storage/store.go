// Package storage implements the on-disk chunk index: three parallel arrays
// (contents, metadata, embeddings) held in memory and rewritten wholesale to a
// JSON artifact plus a dense binary matrix on every mutation.
package storage

import (
	"encoding/gob"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
)

// Store is an append-only chunk index. Index i in documents, metadatas and
// embeddings refers to the same logical chunk. The store holds no locks: it
// assumes a single reader/writer context and callers serialize access.
type Store struct {
	dir        string
	dim        int
	documents  []string
	metadatas  []ChunkMetadata
	embeddings [][]float32
	logger     *slog.Logger
}

// Open loads the index from dir. A current-format index is trusted as is; a
// legacy combined artifact is migrated once to the two-artifact layout; any
// load failure or artifact mismatch degrades to an empty store (logged, not
// returned), so a corrupt index is always re-ingestible.
func Open(dir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{dir: dir, logger: logger}
	s.load()
	return s
}

// Dir returns the knowledge base directory this store persists into.
func (s *Store) Dir() string { return s.dir }

// Len returns the number of indexed chunks.
func (s *Store) Len() int { return len(s.documents) }

// Dimension returns the embedding width, or 0 while the store is empty.
func (s *Store) Dimension() int { return s.dim }

// Document returns the text content of chunk i.
func (s *Store) Document(i int) string { return s.documents[i] }

// Metadata returns the metadata of chunk i. The extension map is copied so
// callers cannot mutate the index through a returned result.
func (s *Store) Metadata(i int) ChunkMetadata {
	meta := s.metadatas[i]
	if meta.Extra != nil {
		meta.Extra = maps.Clone(meta.Extra)
	}
	return meta
}

// Embedding returns the embedding vector of chunk i.
func (s *Store) Embedding(i int) []float32 { return s.embeddings[i] }

// Append adds one chunk to the in-memory index. The first vector fixes the
// store dimension; later vectors must match it. Append does not persist;
// callers invoke Save once per ingested document.
func (s *Store) Append(content string, meta ChunkMetadata, vector []float32) error {
	if len(vector) == 0 {
		return fmt.Errorf("%w: empty vector", ErrDimensionMismatch)
	}
	if s.dim == 0 {
		s.dim = len(vector)
	} else if len(vector) != s.dim {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vector), s.dim)
	}
	s.documents = append(s.documents, content)
	s.metadatas = append(s.metadatas, meta)
	s.embeddings = append(s.embeddings, vector)
	return nil
}

// Truncate drops every chunk at index n and beyond, in memory only. Callers
// use it to roll back a partially appended document.
func (s *Store) Truncate(n int) {
	if n < 0 || n >= len(s.documents) {
		return
	}
	s.documents = s.documents[:n]
	s.metadatas = s.metadatas[:n]
	s.embeddings = s.embeddings[:n]
	if n == 0 {
		s.dim = 0
	}
}

// Save rewrites both artifacts from the full in-memory state.
func (s *Store) Save() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}

	payload, err := json.MarshalIndent(indexDocument{
		Documents: s.documents,
		Metadatas: s.metadatas,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, MetadataFile), payload, 0o644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}

	if err := writeEmbeddings(filepath.Join(s.dir, EmbeddingsFile), s.dim, s.embeddings); err != nil {
		return fmt.Errorf("write embeddings: %w", err)
	}

	s.logger.Debug("index saved", "chunks", len(s.documents))
	return nil
}

// Clear empties the index and persists the empty state immediately.
func (s *Store) Clear() error {
	s.documents = nil
	s.metadatas = nil
	s.embeddings = nil
	s.dim = 0
	return s.Save()
}

func (s *Store) reset() {
	s.documents = nil
	s.metadatas = nil
	s.embeddings = nil
	s.dim = 0
}

func (s *Store) load() {
	metaPath := filepath.Join(s.dir, MetadataFile)
	embPath := filepath.Join(s.dir, EmbeddingsFile)

	_, metaErr := os.Stat(metaPath)
	_, embErr := os.Stat(embPath)
	if metaErr == nil && embErr == nil {
		if err := s.loadCurrent(metaPath, embPath); err != nil {
			s.logger.Error("loading index failed, starting empty", "error", err)
			s.reset()
		} else {
			s.logger.Info("loaded index", "chunks", len(s.documents))
		}
		return
	}

	legacyPath := filepath.Join(s.dir, LegacyIndexFile)
	if _, err := os.Stat(legacyPath); err == nil {
		s.migrateLegacy(legacyPath)
		return
	}

	s.logger.Info("created new knowledge base index", "dir", s.dir)
}

func (s *Store) loadCurrent(metaPath, embPath string) error {
	raw, err := os.ReadFile(metaPath)
	if err != nil {
		return fmt.Errorf("read metadata: %w", err)
	}
	var doc indexDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("decode metadata: %w", err)
	}
	if len(doc.Documents) != len(doc.Metadatas) {
		return fmt.Errorf("%w: %d documents vs %d metadatas",
			ErrCorruptIndex, len(doc.Documents), len(doc.Metadatas))
	}

	dim, rows, err := readEmbeddings(embPath)
	if err != nil {
		return err
	}
	// A crash between artifact writes can leave mismatched chunk counts;
	// treat that as corruption.
	if len(rows) != len(doc.Documents) {
		return fmt.Errorf("%w: %d embeddings vs %d documents",
			ErrCorruptIndex, len(rows), len(doc.Documents))
	}

	s.documents = doc.Documents
	s.metadatas = doc.Metadatas
	s.embeddings = rows
	s.dim = dim
	return nil
}

// migrateLegacy converts the old combined gob artifact to the current layout
// and deletes it. One-time and one-directional.
func (s *Store) migrateLegacy(path string) {
	f, err := os.Open(path)
	if err != nil {
		s.logger.Error("opening legacy index failed, starting empty", "error", err)
		return
	}
	var old legacyIndex
	err = gob.NewDecoder(f).Decode(&old)
	f.Close()
	if err != nil {
		s.logger.Error("decoding legacy index failed, starting empty", "error", err)
		return
	}
	if len(old.Documents) != len(old.Metadatas) || len(old.Documents) != len(old.Embeddings) {
		s.logger.Error("legacy index arrays have mismatched lengths, starting empty",
			"documents", len(old.Documents), "metadatas", len(old.Metadatas), "embeddings", len(old.Embeddings))
		return
	}

	s.documents = old.Documents
	s.metadatas = old.Metadatas
	s.embeddings = old.Embeddings
	if len(old.Embeddings) > 0 {
		s.dim = len(old.Embeddings[0])
	}
	s.logger.Warn("loaded legacy index format, converting", "chunks", len(s.documents))

	if err := s.Save(); err != nil {
		// Keep the legacy artifact so the next start can retry the migration.
		s.logger.Error("saving migrated index failed", "error", err)
		return
	}
	if err := os.Remove(path); err != nil {
		s.logger.Error("removing legacy index failed", "error", err)
		return
	}
	s.logger.Info("legacy index migration complete", "chunks", len(s.documents))
}
