// Package document resolves a document source to cleaned plain text.
package document

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kirillkom/docqa/internal/core/domain"
	"github.com/kirillkom/docqa/internal/core/ports"
	"github.com/kirillkom/docqa/internal/infrastructure/extractor"
)

type Loader struct {
	fetcher   ports.DocumentFetcher
	extractor ports.TextExtractor
}

func NewLoader(fetcher ports.DocumentFetcher, extractor ports.TextExtractor) *Loader {
	return &Loader{fetcher: fetcher, extractor: extractor}
}

// Load prefers inline text; otherwise the URL is downloaded and extracted.
func (l *Loader) Load(ctx context.Context, source domain.DocumentSource) (string, error) {
	if strings.TrimSpace(source.Text) != "" {
		return extractor.CleanText(source.Text), nil
	}
	if strings.TrimSpace(source.URL) == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "load document", errors.New("document url or text is required"))
	}

	doc, err := l.fetcher.Fetch(ctx, strings.TrimSpace(source.URL))
	if err != nil {
		return "", fmt.Errorf("fetch document: %w", err)
	}

	text, err := l.extractor.Extract(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("extract text: %w", err)
	}
	text = extractor.CleanText(text)
	if text == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "extract text", errors.New("empty extracted text"))
	}

	slog.Info("document_loaded", "name", doc.Name, "bytes", len(doc.Body), "chars", len(text))
	return text, nil
}
