package storage

// Artifact names inside the knowledge base directory.
const (
	// MetadataFile holds the chunk contents and metadata as JSON.
	MetadataFile = "metadata.json"

	// EmbeddingsFile holds the dense embedding matrix (see embeddings.go).
	EmbeddingsFile = "embeddings.bin"

	// LegacyIndexFile is the old combined gob artifact. It is loaded once,
	// converted to the two-artifact layout, and deleted.
	LegacyIndexFile = "index.gob"
)

// ChunkMetadata describes one indexed chunk. ChunkIndex is always set and is
// the 0-based position of the chunk within its source document. The remaining
// fields are optional. Extra carries forward-compatible keys that do not have
// a typed field yet.
type ChunkMetadata struct {
	ChunkIndex int               `json:"chunk_index"`
	Source     string            `json:"source,omitempty"`
	Type       string            `json:"type,omitempty"`
	Category   string            `json:"category,omitempty"`
	Collection string            `json:"collection,omitempty"`
	DocID      string            `json:"doc_id,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// indexDocument is the on-disk shape of MetadataFile. The field names match
// the index layout this store migrated from.
type indexDocument struct {
	Documents []string        `json:"documents"`
	Metadatas []ChunkMetadata `json:"metadatas"`
}

// legacyIndex is the shape of the old combined gob artifact, which serialized
// all three arrays together.
type legacyIndex struct {
	Documents  []string
	Metadatas  []ChunkMetadata
	Embeddings [][]float32
}
