package loaders

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/unidoc/unioffice/v2/document"

	"ragstack/internal/rag/interfaces"
	"ragstack/internal/rag/schema"
)

// WordLoader extracts paragraph text from .docx files.
type WordLoader struct{}

// NewWordLoader creates a Word document loader.
func NewWordLoader() *WordLoader {
	return &WordLoader{}
}

// Load concatenates the text runs of every paragraph, one line per
// paragraph, as a single document.
func (l *WordLoader) Load(ctx context.Context, path string) ([]*schema.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := document.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open docx %s: %w", path, err)
	}
	defer doc.Close()

	var sb strings.Builder
	for _, para := range doc.Paragraphs() {
		var line strings.Builder
		for _, run := range para.Runs() {
			line.WriteString(run.Text())
		}
		if line.Len() == 0 {
			continue
		}
		sb.WriteString(line.String())
		sb.WriteString("\n")
	}

	text := sb.String()
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: docx %s", ErrEmptyExtraction, path)
	}

	return []*schema.Document{{
		ID:   uuid.New().String(),
		Text: text,
		Metadata: map[string]string{
			schema.MetadataKeySource:   path,
			schema.MetadataKeyFileName: filepath.Base(path),
		},
	}}, nil
}

var _ interfaces.Loader = (*WordLoader)(nil)
