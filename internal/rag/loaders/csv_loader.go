package loaders

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"ragstack/internal/rag/interfaces"
	"ragstack/internal/rag/schema"
)

// CSVLoader renders CSV files as plain text, one input row per line with
// cells joined by ", ". The header row is kept so column names stay next
// to their values in the chunks.
type CSVLoader struct{}

// NewCSVLoader creates a CSV loader.
func NewCSVLoader() *CSVLoader {
	return &CSVLoader{}
}

// Load parses the whole file and returns it as a single document.
func (l *CSVLoader) Load(ctx context.Context, path string) ([]*schema.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv %s: %w", path, err)
	}

	var sb strings.Builder
	for _, row := range rows {
		sb.WriteString(strings.Join(row, ", "))
		sb.WriteString("\n")
	}

	return []*schema.Document{{
		ID:   uuid.New().String(),
		Text: sb.String(),
		Metadata: map[string]string{
			schema.MetadataKeySource:   path,
			schema.MetadataKeyFileName: filepath.Base(path),
		},
	}}, nil
}

var _ interfaces.Loader = (*CSVLoader)(nil)
