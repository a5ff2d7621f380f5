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

// TextLoader loads plain text files as a single document.
type TextLoader struct{}

// NewTextLoader creates a plain text loader.
func NewTextLoader() *TextLoader {
	return &TextLoader{}
}

// Load reads the whole file as UTF-8 text.
func (l *TextLoader) Load(ctx context.Context, path string) ([]*schema.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read text file %s: %w", path, err)
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

var _ interfaces.Loader = (*TextLoader)(nil)
