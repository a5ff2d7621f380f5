package loaders

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"

	"ragstack/internal/rag/interfaces"
	"ragstack/internal/rag/schema"
)

// PDFLoader extracts text from PDF files, one document per page so page
// provenance survives into the index.
type PDFLoader struct{}

// NewPDFLoader creates a PDF loader.
func NewPDFLoader() *PDFLoader {
	return &PDFLoader{}
}

// Load extracts the plain text of every page. Pages without extractable
// text are skipped; a PDF with no text at all yields ErrEmptyExtraction.
func (l *PDFLoader) Load(ctx context.Context, path string) ([]*schema.Document, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	var docs []*schema.Document
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract pdf page %d of %s: %w", i, path, err)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}

		docs = append(docs, &schema.Document{
			ID:   uuid.New().String(),
			Text: text,
			Metadata: map[string]string{
				schema.MetadataKeySource:    path,
				schema.MetadataKeyFileName:  filepath.Base(path),
				schema.MetadataKeyPageLabel: strconv.Itoa(i),
			},
		})
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: pdf %s", ErrEmptyExtraction, path)
	}
	return docs, nil
}

var _ interfaces.Loader = (*PDFLoader)(nil)
