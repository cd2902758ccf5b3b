package estimate

import (
	"strings"
	"testing"
)

func TestLengthEstimator(t *testing.T) {
	e := LengthEstimator{}

	tests := []struct {
		text string
		want int64
	}{
		{"", 0},
		{"ab", 1},
		{"abcd", 1},
		{strings.Repeat("x", 40), 10},
	}
	for _, tt := range tests {
		got, exact := e.Estimate("any-model", tt.text)
		if got != tt.want {
			t.Errorf("Estimate(%q) = %d, want %d", tt.text, got, tt.want)
		}
		if exact {
			t.Error("length estimator must never claim to be exact")
		}
	}
}

func TestEstimator_KnownModelUsesTokenizer(t *testing.T) {
	e := New()
	count, exact := e.Estimate("gpt-4o", "The quick brown fox jumps over the lazy dog.")
	if !exact {
		t.Fatal("expected tokenizer-backed estimate for gpt-4o")
	}
	if count <= 0 || count > 20 {
		t.Errorf("implausible token count %d for a short sentence", count)
	}
}

func TestEstimator_UnknownModelFallsBack(t *testing.T) {
	e := New()
	count, _ := e.Estimate("totally-unknown-model", strings.Repeat("word ", 100))
	if count <= 0 {
		t.Errorf("expected a positive estimate, got %d", count)
	}
}

func TestEstimator_EmbedModelGetsCommonEncoding(t *testing.T) {
	e := New()
	count, exact := e.Estimate("nomic-embed-text", "some text to embed for retrieval")
	if !exact {
		t.Fatal("expected cl100k encoding for embedding model names")
	}
	if count <= 0 {
		t.Errorf("expected a positive count, got %d", count)
	}
}
