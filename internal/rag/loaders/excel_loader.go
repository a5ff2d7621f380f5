package loaders

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"ragstack/internal/rag/interfaces"
	"ragstack/internal/rag/schema"
)

// ExcelLoader extracts text from .xlsx workbooks, one document per sheet so
// the sheet name survives as provenance.
type ExcelLoader struct{}

// NewExcelLoader creates an Excel loader.
func NewExcelLoader() *ExcelLoader {
	return &ExcelLoader{}
}

// Load renders every sheet as plain text, one row per line with cells
// joined by ", ". Sheets without content are skipped; a workbook with no
// content at all yields ErrEmptyExtraction.
func (l *ExcelLoader) Load(ctx context.Context, path string) ([]*schema.Document, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx %s: %w", path, err)
	}
	defer f.Close()

	var docs []*schema.Document
	for _, sheet := range f.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read xlsx sheet %q of %s: %w", sheet, path, err)
		}

		var sb strings.Builder
		for _, row := range rows {
			sb.WriteString(strings.Join(row, ", "))
			sb.WriteString("\n")
		}
		if strings.TrimSpace(sb.String()) == "" {
			continue
		}

		docs = append(docs, &schema.Document{
			ID:   uuid.New().String(),
			Text: sb.String(),
			Metadata: map[string]string{
				schema.MetadataKeySource:    path,
				schema.MetadataKeyFileName:  filepath.Base(path),
				schema.MetadataKeyPageLabel: sheet,
			},
		})
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: xlsx %s", ErrEmptyExtraction, path)
	}
	return docs, nil
}

var _ interfaces.Loader = (*ExcelLoader)(nil)
