package splitters

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"ragstack/internal/rag/interfaces"
	"ragstack/internal/rag/schema"
)

// defaultSeparators are tried in order: paragraph breaks first, then line
// breaks, then sentence ends, then single spaces.
var defaultSeparators = []string{"\n\n", "\n", ". ", " "}

// RecursiveCharacterSplitter cuts text into chunks of at most ChunkSize
// characters, preferring to break at the coarsest separator present.
// Consecutive chunks share up to ChunkOverlap characters of trailing
// context. An atomic piece that no separator can break is emitted whole
// even when it exceeds ChunkSize.
type RecursiveCharacterSplitter struct {
	ChunkSize    int
	ChunkOverlap int
	Separators   []string
}

// NewRecursiveCharacterSplitter returns a splitter with the given size and
// overlap. Non-positive size falls back to 1000, negative overlap to 0.
func NewRecursiveCharacterSplitter(chunkSize, chunkOverlap int) *RecursiveCharacterSplitter {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if chunkOverlap < 0 {
		chunkOverlap = 0
	}
	if chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 2
	}
	return &RecursiveCharacterSplitter{
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
		Separators:   defaultSeparators,
	}
}

// Split cuts every document into chunks. Each chunk gets a fresh id and a
// copy of its source document's metadata. Documents with blank text yield
// no chunks.
func (s *RecursiveCharacterSplitter) Split(ctx context.Context, docs []*schema.Document) ([]*schema.Document, error) {
	var out []*schema.Document
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, text := range s.SplitText(doc.Text) {
			out = append(out, &schema.Document{
				ID:       uuid.New().String(),
				Text:     text,
				Metadata: schema.CopyMetadata(doc.Metadata),
			})
		}
	}
	return out, nil
}

// SplitText splits a single text into chunk strings. Blank input yields nil.
func (s *RecursiveCharacterSplitter) SplitText(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	seps := s.Separators
	if len(seps) == 0 {
		seps = defaultSeparators
	}
	return s.splitText(text, seps)
}

// splitText picks the first separator that occurs in text, splits on it,
// recursively re-splits pieces that are still too large with the remaining
// separators, and merges the rest back into chunks with overlap.
func (s *RecursiveCharacterSplitter) splitText(text string, separators []string) []string {
	separator := ""
	var next []string
	for i, sep := range separators {
		if strings.Contains(text, sep) {
			separator = sep
			next = separators[i+1:]
			break
		}
	}

	var splits []string
	if separator == "" {
		splits = []string{text}
	} else {
		splits = strings.Split(text, separator)
	}

	var chunks []string
	var good []string
	for _, piece := range splits {
		if piece == "" {
			continue
		}
		if len(piece) <= s.ChunkSize {
			good = append(good, piece)
			continue
		}
		// Flush what fits before descending into the oversized piece so
		// chunk order follows text order.
		if len(good) > 0 {
			chunks = append(chunks, s.mergeSplits(good, separator)...)
			good = nil
		}
		if len(next) == 0 {
			chunks = append(chunks, piece)
		} else {
			chunks = append(chunks, s.splitText(piece, next)...)
		}
	}
	if len(good) > 0 {
		chunks = append(chunks, s.mergeSplits(good, separator)...)
	}
	return chunks
}

// mergeSplits greedily packs pieces into chunks up to ChunkSize, carrying
// up to ChunkOverlap characters of trailing pieces into the next chunk.
func (s *RecursiveCharacterSplitter) mergeSplits(splits []string, separator string) []string {
	sepLen := len(separator)

	var chunks []string
	var current []string
	total := 0
	for _, piece := range splits {
		extra := len(piece)
		if len(current) > 0 {
			extra += sepLen
		}
		if total+extra > s.ChunkSize && len(current) > 0 {
			if chunk := joinPieces(current, separator); chunk != "" {
				chunks = append(chunks, chunk)
			}
			// Drop pieces from the front until the carried tail fits
			// within ChunkOverlap and leaves room for the incoming piece.
			for total > s.ChunkOverlap || (total+extra > s.ChunkSize && total > 0) {
				total -= len(current[0])
				if len(current) > 1 {
					total -= sepLen
				}
				current = current[1:]
				extra = len(piece)
				if len(current) > 0 {
					extra += sepLen
				}
			}
		}
		current = append(current, piece)
		total += extra
	}
	if chunk := joinPieces(current, separator); chunk != "" {
		chunks = append(chunks, chunk)
	}
	return chunks
}

func joinPieces(pieces []string, separator string) string {
	return strings.TrimSpace(strings.Join(pieces, separator))
}

var _ interfaces.Splitter = (*RecursiveCharacterSplitter)(nil)
