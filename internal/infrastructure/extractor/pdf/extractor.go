package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/kirillkom/docqa/internal/core/domain"
)

type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns the plain text of every page, each page introduced by a
// "--- Page N ---" marker. Pages without text are skipped.
func (e *Extractor) Extract(ctx context.Context, doc domain.SourceDocument) (text string, err error) {
	defer func() {
		// The parser panics on some malformed streams.
		if r := recover(); r != nil {
			text = ""
			err = domain.WrapError(domain.ErrInvalidInput, "extract pdf", fmt.Errorf("malformed pdf %s: %v", doc.Name, r))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(doc.Body), int64(len(doc.Body)))
	if err != nil {
		return "", domain.WrapError(domain.ErrInvalidInput, "extract pdf", fmt.Errorf("open %s: %w", doc.Name, err))
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", domain.WrapError(domain.ErrInvalidInput, "extract pdf", fmt.Errorf("page %d: %w", i, err))
		}
		if strings.TrimSpace(content) == "" {
			continue
		}
		fmt.Fprintf(&b, "\n--- Page %d ---\n", i)
		b.WriteString(content)
	}

	if strings.TrimSpace(b.String()) == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "extract pdf", errors.New("no extractable text"))
	}
	return b.String(), nil
}
