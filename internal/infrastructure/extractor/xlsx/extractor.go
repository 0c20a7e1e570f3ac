package xlsx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/docqa/internal/core/domain"
)

type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract renders every sheet as "Sheet: name" followed by one line per
// non-empty row with cells separated by " | ".
func (e *Extractor) Extract(ctx context.Context, doc domain.SourceDocument) (string, error) {
	book, err := excelize.OpenReader(bytes.NewReader(doc.Body))
	if err != nil {
		return "", domain.WrapError(domain.ErrInvalidInput, "extract xlsx", fmt.Errorf("open %s: %w", doc.Name, err))
	}
	defer book.Close()

	var b strings.Builder
	for _, sheet := range book.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		rows, err := book.GetRows(sheet)
		if err != nil {
			return "", domain.WrapError(domain.ErrInvalidInput, "extract xlsx", fmt.Errorf("sheet %s: %w", sheet, err))
		}
		if len(rows) == 0 {
			continue
		}
		fmt.Fprintf(&b, "Sheet: %s\n", sheet)
		for _, row := range rows {
			cells := make([]string, 0, len(row))
			for _, cell := range row {
				if cell = strings.TrimSpace(cell); cell != "" {
					cells = append(cells, cell)
				}
			}
			if len(cells) == 0 {
				continue
			}
			b.WriteString(strings.Join(cells, " | "))
			b.WriteString(".\n")
		}
	}

	if strings.TrimSpace(b.String()) == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "extract xlsx", errors.New("workbook has no cell text"))
	}
	return b.String(), nil
}
