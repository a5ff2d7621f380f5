package loaders

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"ragstack/internal/rag/interfaces"
	"ragstack/internal/rag/schema"
)

// JSONLoader loads JSON files as indented text. Re-indenting normalizes
// minified input so the splitter has line breaks to cut on.
type JSONLoader struct{}

// NewJSONLoader creates a JSON loader.
func NewJSONLoader() *JSONLoader {
	return &JSONLoader{}
}

// Load validates and pretty-prints the JSON document.
func (l *JSONLoader) Load(ctx context.Context, path string) ([]*schema.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read json %s: %w", path, err)
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return nil, fmt.Errorf("parse json %s: %w", path, err)
	}

	return []*schema.Document{{
		ID:   uuid.New().String(),
		Text: buf.String(),
		Metadata: map[string]string{
			schema.MetadataKeySource:   path,
			schema.MetadataKeyFileName: filepath.Base(path),
		},
	}}, nil
}

var _ interfaces.Loader = (*JSONLoader)(nil)
