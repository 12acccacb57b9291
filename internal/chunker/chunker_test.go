package chunker

import (
	"fmt"
	"strings"
	"testing"
)

// words builds a deterministic n-word text.
func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(parts, " ")
}

// TestChunk_ShortTextSingleChunk tests that text shorter than one window
// yields exactly one chunk equal to the input.
func TestChunk_ShortTextSingleChunk(t *testing.T) {
	input := words(20)
	chunks := NewWordWindow(500, 50).Chunk(input)
	if len(chunks) != 1 {
		t.Fatalf("Expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != input {
		t.Errorf("Chunk content: expected %q, got %q", input, chunks[0])
	}
}

// TestChunk_WindowMath tests the sliding-window chunk count and sizes.
func TestChunk_WindowMath(t *testing.T) {
	// step = 450: windows start at 0, 450, 900.
	chunks := NewWordWindow(500, 50).Chunk(words(1000))
	if len(chunks) != 3 {
		t.Fatalf("Expected 3 chunks, got %d", len(chunks))
	}

	sizes := []int{500, 500, 100}
	for i, chunk := range chunks {
		if got := len(strings.Fields(chunk)); got != sizes[i] {
			t.Errorf("Chunk %d: expected %d words, got %d", i, sizes[i], got)
		}
	}
}

// TestChunk_AdjacentOverlap tests that adjacent full windows share exactly
// the overlap word count.
func TestChunk_AdjacentOverlap(t *testing.T) {
	chunks := NewWordWindow(500, 50).Chunk(words(1000))
	if len(chunks) < 2 {
		t.Fatalf("Expected at least 2 chunks, got %d", len(chunks))
	}

	first := strings.Fields(chunks[0])
	second := strings.Fields(chunks[1])

	tail := first[len(first)-50:]
	head := second[:50]
	for i := range tail {
		if tail[i] != head[i] {
			t.Fatalf("Overlap word %d: expected %q, got %q", i, tail[i], head[i])
		}
	}
}

// TestChunk_StepClamp tests forward progress when overlap >= size.
func TestChunk_StepClamp(t *testing.T) {
	chunks := WordWindow{Size: 10, Overlap: 10}.Chunk(words(30))
	if len(chunks) != 3 {
		t.Errorf("Expected 3 chunks with clamped step, got %d", len(chunks))
	}
}

// TestChunk_WhitespaceFallback tests that input producing no non-empty
// windows falls back to the original text as a single chunk.
func TestChunk_WhitespaceFallback(t *testing.T) {
	input := "   \n\t  "
	chunks := NewWordWindow(500, 50).Chunk(input)
	if len(chunks) != 1 {
		t.Fatalf("Expected 1 fallback chunk, got %d", len(chunks))
	}
	if chunks[0] != input {
		t.Errorf("Fallback chunk: expected original text, got %q", chunks[0])
	}
}

// TestChunk_NormalizesWhitespace tests that windows are re-joined with
// single spaces.
func TestChunk_NormalizesWhitespace(t *testing.T) {
	chunks := NewWordWindow(500, 50).Chunk("alpha \t beta\n\ngamma")
	if len(chunks) != 1 {
		t.Fatalf("Expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != "alpha beta gamma" {
		t.Errorf("Expected normalized join, got %q", chunks[0])
	}
}

// TestNewWordWindow_Defaults tests parameter substitution.
func TestNewWordWindow_Defaults(t *testing.T) {
	w := NewWordWindow(0, -1)
	if w.Size != DefaultSize {
		t.Errorf("Size: expected %d, got %d", DefaultSize, w.Size)
	}
	if w.Overlap != DefaultOverlap {
		t.Errorf("Overlap: expected %d, got %d", DefaultOverlap, w.Overlap)
	}
}
