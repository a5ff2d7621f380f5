package splitters

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"ragstack/internal/rag/schema"
)

func TestSplitTextParagraphs(t *testing.T) {
	paras := []string{
		strings.Repeat("alpha ", 130),
		strings.Repeat("bravo ", 130),
		strings.Repeat("delta ", 130),
	}
	for i := range paras {
		paras[i] = strings.TrimSpace(paras[i])
	}
	text := strings.Join(paras, "\n\n")

	s := NewRecursiveCharacterSplitter(1000, 200)
	chunks := s.SplitText(text)

	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if chunk != paras[i] {
			t.Errorf("chunk %d does not match its paragraph", i)
		}
	}
}

func TestSplitTextSizeBound(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 400; i++ {
		fmt.Fprintf(&sb, "word%03d ", i)
	}

	s := NewRecursiveCharacterSplitter(100, 20)
	chunks := s.SplitText(sb.String())

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if len(chunk) > 100 {
			t.Errorf("chunk %d has %d characters, want <= 100", i, len(chunk))
		}
	}
}

func TestSplitTextOverlap(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 100; i++ {
		fmt.Fprintf(&sb, "word%03d ", i)
	}

	s := NewRecursiveCharacterSplitter(100, 30)
	chunks := s.SplitText(sb.String())

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i := 1; i < len(chunks); i++ {
		first := strings.Fields(chunks[i])[0]
		if !strings.Contains(chunks[i-1], first) {
			t.Errorf("chunk %d does not carry overlap into chunk %d", i-1, i)
		}
	}
}

func TestSplitTextDeterministic(t *testing.T) {
	text := strings.Repeat("some sentence here. ", 200)
	s := NewRecursiveCharacterSplitter(300, 60)

	a := s.SplitText(text)
	b := s.SplitText(text)

	if len(a) != len(b) {
		t.Fatalf("chunk counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("chunk %d differs between runs", i)
		}
	}
}

func TestSplitTextOversizedAtomicUnit(t *testing.T) {
	// No separator can break this, so it must come out whole.
	text := strings.Repeat("a", 2500)

	s := NewRecursiveCharacterSplitter(1000, 200)
	chunks := s.SplitText(text)

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if len(chunks[0]) != 2500 {
		t.Errorf("expected the unit to survive whole, got %d characters", len(chunks[0]))
	}
}

func TestSplitTextBlank(t *testing.T) {
	s := NewRecursiveCharacterSplitter(1000, 200)
	if chunks := s.SplitText("   \n\n  "); chunks != nil {
		t.Errorf("expected no chunks for blank text, got %d", len(chunks))
	}
}

func TestSplitCopiesMetadata(t *testing.T) {
	doc := &schema.Document{
		ID:       "src",
		Text:     strings.Repeat("one two three four. ", 100),
		Metadata: map[string]string{schema.MetadataKeySource: "a.txt"},
	}

	s := NewRecursiveCharacterSplitter(200, 40)
	chunks, err := s.Split(context.Background(), []*schema.Document{doc})
	if err != nil {
		t.Fatalf("split failed: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	seen := make(map[string]bool)
	for _, chunk := range chunks {
		if chunk.ID == "" || seen[chunk.ID] {
			t.Errorf("chunk ids must be unique and non-empty")
		}
		seen[chunk.ID] = true
		if chunk.Metadata[schema.MetadataKeySource] != "a.txt" {
			t.Errorf("chunk lost its source metadata")
		}
	}

	chunks[0].Metadata[schema.MetadataKeySource] = "mutated"
	if doc.Metadata[schema.MetadataKeySource] != "a.txt" {
		t.Errorf("chunk metadata must not alias the source document's map")
	}
}
