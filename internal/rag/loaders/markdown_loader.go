package loaders

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"ragstack/internal/rag/interfaces"
	"ragstack/internal/rag/schema"
)

// MarkdownLoader loads markdown files. The markup is kept as-is: headings
// and list markers survive into the chunks, which preserves structure cues
// for retrieval.
type MarkdownLoader struct{}

// NewMarkdownLoader creates a markdown loader.
func NewMarkdownLoader() *MarkdownLoader {
	return &MarkdownLoader{}
}

// Load reads the markdown file as a single document.
func (l *MarkdownLoader) Load(ctx context.Context, path string) ([]*schema.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read markdown file %s: %w", path, err)
	}

	return []*schema.Document{{
		ID:   uuid.New().String(),
		Text: string(data),
		Metadata: map[string]string{
			schema.MetadataKeySource:   path,
			schema.MetadataKeyFileName: filepath.Base(path),
		},
	}}, nil
}

var _ interfaces.Loader = (*MarkdownLoader)(nil)
