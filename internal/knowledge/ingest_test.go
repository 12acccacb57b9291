package knowledge

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kbassist/internal/chunker"
	"kbassist/internal/storage"
)

func writeDoc(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestAddText_BlankTextIsNoop(t *testing.T) {
	kb := newTestKB(t, &stubEmbedder{def: []float32{1, 0, 0}})
	require.NoError(t, kb.AddText(context.Background(), "   \n ", storage.ChunkMetadata{}))
	assert.Equal(t, 0, kb.GetStats().TotalChunks)
}

func TestAddText_StampsChunkIndexPerDocument(t *testing.T) {
	dir := t.TempDir()
	store := storage.Open(dir, quietLogger())
	kb := New(dir, store, &stubEmbedder{def: []float32{1, 0, 0}},
		WithLogger(quietLogger()),
		WithChunker(chunker.WordWindow{Size: 3, Overlap: 1}),
	)

	addChunk(t, kb, "one two three four five six seven",
		storage.ChunkMetadata{Source: "doc.txt", Extra: map[string]string{"lang": "en"}})

	require.Equal(t, 4, store.Len())
	for i := 0; i < store.Len(); i++ {
		meta := store.Metadata(i)
		assert.Equal(t, i, meta.ChunkIndex)
		assert.Equal(t, "doc.txt", meta.Source)
		assert.Equal(t, "en", meta.Extra["lang"])
	}

	// Each chunk carries its own copy of the extension map.
	first := store.Metadata(0)
	first.Extra["lang"] = "de"
	assert.Equal(t, "en", store.Metadata(1).Extra["lang"])
}

func TestAddText_AppendFailureRollsBackDocument(t *testing.T) {
	dir := t.TempDir()
	store := storage.Open(dir, quietLogger())
	// The second window embeds to a narrower vector, so its append fails
	// after the first window is already in the store.
	embedder := &stubEmbedder{
		def: []float32{1, 0, 0},
		vectors: map[string][]float32{
			"three four five": {1, 0},
		},
	}
	kb := New(dir, store, embedder,
		WithLogger(quietLogger()),
		WithChunker(chunker.WordWindow{Size: 3, Overlap: 1}),
	)

	addChunk(t, kb, "an earlier document", storage.ChunkMetadata{Source: "ok.txt"})
	require.Equal(t, 1, store.Len())

	err := kb.AddText(context.Background(), "one two three four five",
		storage.ChunkMetadata{Source: "bad.txt"})
	require.Error(t, err)

	// No partial document may survive the failure.
	assert.Equal(t, 1, store.Len())
	assert.Equal(t, "ok.txt", store.Metadata(0).Source)
}

func TestAddText_EmbedderErrorLeavesStoreUnchanged(t *testing.T) {
	kb := newTestKB(t, failingEmbedder{})
	err := kb.AddText(context.Background(), "some text", storage.ChunkMetadata{})
	assert.Error(t, err)
	assert.Equal(t, 0, kb.GetStats().TotalChunks)
}

func TestIngestFolder_CreatesMissingFolder(t *testing.T) {
	kb := newTestKB(t, &stubEmbedder{def: []float32{1, 0, 0}})
	folder := filepath.Join(t.TempDir(), "docs")

	kb.IngestFolder(context.Background(), folder, "")

	assert.DirExists(t, folder)
	assert.Equal(t, 0, kb.GetStats().TotalChunks)
}

func TestIngestFolder_RootFolderHasNoCollectionLabel(t *testing.T) {
	dir := t.TempDir()
	store := storage.Open(dir, quietLogger())
	kb := New(dir, store, &stubEmbedder{def: []float32{1, 0, 0}}, WithLogger(quietLogger()))

	writeDoc(t, dir, "a.txt", "first document text")
	writeDoc(t, dir, "b.txt", "second document text")
	writeDoc(t, dir, "notes.md", "ignored format")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	kb.IngestFolder(context.Background(), dir, "")

	stats := kb.GetStats()
	assert.Equal(t, 2, stats.TotalChunks)
	assert.Equal(t, []string{"default"}, stats.Collections)
}

func TestIngestFolder_SubfolderNameBecomesCollection(t *testing.T) {
	root := t.TempDir()
	folder := filepath.Join(root, "springworks")
	require.NoError(t, os.Mkdir(folder, 0o755))
	writeDoc(t, folder, "a.txt", "tenant document")

	store := storage.Open(root, quietLogger())
	kb := New(root, store, &stubEmbedder{def: []float32{1, 0, 0}}, WithLogger(quietLogger()))

	kb.IngestFolder(context.Background(), folder, "")

	require.Equal(t, 1, store.Len())
	assert.Equal(t, "springworks", store.Metadata(0).Collection)
}

func TestIngestFolder_ExplicitCollectionWins(t *testing.T) {
	root := t.TempDir()
	folder := filepath.Join(root, "docs")
	require.NoError(t, os.Mkdir(folder, 0o755))
	writeDoc(t, folder, "a.txt", "tenant document")

	store := storage.Open(root, quietLogger())
	kb := New(root, store, &stubEmbedder{def: []float32{1, 0, 0}}, WithLogger(quietLogger()))

	kb.IngestFolder(context.Background(), folder, "springworks")

	require.Equal(t, 1, store.Len())
	assert.Equal(t, "springworks", store.Metadata(0).Collection)
}

func TestIngestFolder_NoopOnNonEmptyStore(t *testing.T) {
	dir := t.TempDir()
	store := storage.Open(dir, quietLogger())
	kb := New(dir, store, &stubEmbedder{def: []float32{1, 0, 0}}, WithLogger(quietLogger()))

	writeDoc(t, dir, "a.txt", "first document")
	kb.IngestFolder(context.Background(), dir, "")
	require.Equal(t, 1, store.Len())

	// A second pass must not re-index, even with new files present.
	writeDoc(t, dir, "b.txt", "second document")
	kb.IngestFolder(context.Background(), dir, "")
	assert.Equal(t, 1, store.Len())
}

func TestIngestFolder_BadFileContributesZeroChunks(t *testing.T) {
	dir := t.TempDir()
	store := storage.Open(dir, quietLogger())
	kb := New(dir, store, &stubEmbedder{def: []float32{1, 0, 0}}, WithLogger(quietLogger()))

	writeDoc(t, dir, "good.txt", "readable document")
	writeDoc(t, dir, "broken.pdf", "this is not a pdf")

	kb.IngestFolder(context.Background(), dir, "")

	require.Equal(t, 1, store.Len())
	assert.Equal(t, "good.txt", store.Metadata(0).Source)
}

func TestIngestFolder_PersistsAcrossRestart(t *testing.T) {
	dir := t.TempDir()
	store := storage.Open(dir, quietLogger())
	kb := New(dir, store, &stubEmbedder{def: []float32{1, 0, 0}}, WithLogger(quietLogger()))

	writeDoc(t, dir, "a.txt", "employment verification process")
	kb.IngestFolder(context.Background(), dir, "")
	require.Equal(t, 1, store.Len())

	reopened := storage.Open(dir, quietLogger())
	assert.Equal(t, 1, reopened.Len())
	assert.Equal(t, "a.txt", reopened.Metadata(0).Source)
}

func TestClear_ThenReingestWorks(t *testing.T) {
	dir := t.TempDir()
	store := storage.Open(dir, quietLogger())
	kb := New(dir, store, &stubEmbedder{def: []float32{1, 0, 0}}, WithLogger(quietLogger()))

	writeDoc(t, dir, "a.txt", "first document")
	kb.IngestFolder(context.Background(), dir, "")
	require.Equal(t, 1, store.Len())

	kb.Clear()
	assert.Equal(t, 0, store.Len())

	writeDoc(t, dir, "b.txt", "second document")
	kb.IngestFolder(context.Background(), dir, "")
	assert.Equal(t, 2, store.Len())
}

func TestGetStats_DistinctSortedCollections(t *testing.T) {
	kb := newTestKB(t, &stubEmbedder{def: []float32{1, 0, 0}})
	addChunk(t, kb, "one", storage.ChunkMetadata{Collection: "zeta"})
	addChunk(t, kb, "two", storage.ChunkMetadata{Collection: "alpha"})
	addChunk(t, kb, "three", storage.ChunkMetadata{Collection: "alpha"})
	addChunk(t, kb, "four", storage.ChunkMetadata{})

	stats := kb.GetStats()
	assert.Equal(t, 4, stats.TotalChunks)
	assert.Equal(t, []string{"alpha", "default", "zeta"}, stats.Collections)
}
