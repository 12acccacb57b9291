// Package chunker splits extracted document text into overlapping windows so
// that concepts spanning a boundary are not lost to retrieval.
package chunker

import "strings"

const (
	DefaultSize    = 500
	DefaultOverlap = 50
)

// Strategy turns one document's text into indexable chunks. The knowledge
// base accepts a Strategy at construction time.
type Strategy interface {
	Chunk(text string) []string
}

// WordWindow slides a fixed-size word window over the text, advancing by
// Size-Overlap words per step. Windows are re-joined with single spaces.
type WordWindow struct {
	Size    int
	Overlap int
}

// NewWordWindow returns a WordWindow, substituting defaults for out-of-range
// parameters.
func NewWordWindow(size, overlap int) WordWindow {
	if size <= 0 {
		size = DefaultSize
	}
	if overlap < 0 {
		overlap = DefaultOverlap
	}
	return WordWindow{Size: size, Overlap: overlap}
}

// Chunk splits text on whitespace and emits overlapping windows. Whitespace-
// only windows are dropped; if nothing survives, the original text is
// returned as a single chunk.
func (w WordWindow) Chunk(text string) []string {
	words := strings.Fields(text)

	step := w.Size - w.Overlap
	if step <= 0 {
		// Overlap >= Size would stall the window; clamp to guarantee
		// forward progress.
		step = max(1, w.Size)
	}

	var chunks []string
	for i := 0; i < len(words); i += step {
		end := min(i+w.Size, len(words))
		chunk := strings.Join(words[i:end], " ")
		if strings.TrimSpace(chunk) != "" {
			chunks = append(chunks, chunk)
		}
	}

	if len(chunks) == 0 {
		return []string{text}
	}
	return chunks
}
