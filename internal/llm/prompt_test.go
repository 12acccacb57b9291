package llm

import (
	"strings"
	"testing"

	"kbassist/internal/knowledge"
	"kbassist/internal/storage"
)

func TestBuildPrompt_NoResultsPassesQueryThrough(t *testing.T) {
	if got := BuildPrompt("what is the refund policy?", nil); got != "what is the refund policy?" {
		t.Errorf("Expected untouched query, got %q", got)
	}
}

func TestBuildPrompt_NumbersSources(t *testing.T) {
	results := []knowledge.Result{
		{Content: "Employment checks take two days.", Metadata: storage.ChunkMetadata{Source: "emp.txt"}},
		{Content: "Education checks need transcripts.", Metadata: storage.ChunkMetadata{Source: "edu.txt"}},
	}

	prompt := BuildPrompt("how long do checks take?", results)

	for _, want := range []string{
		"[Source 1: emp.txt]",
		"Employment checks take two days.",
		"[Source 2: edu.txt]",
		"Education checks need transcripts.",
		"Question: how long do checks take?",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("Prompt missing %q", want)
		}
	}

	if !strings.HasSuffix(prompt, "Answer:") {
		t.Errorf("Prompt should end with the answer cue, got tail %q", prompt[len(prompt)-20:])
	}
}

func TestBuildPrompt_UnknownSourceLabel(t *testing.T) {
	results := []knowledge.Result{{Content: "orphan chunk"}}
	prompt := BuildPrompt("q", results)
	if !strings.Contains(prompt, "[Source 1: Unknown]") {
		t.Errorf("Expected Unknown source label, got:\n%s", prompt)
	}
}
