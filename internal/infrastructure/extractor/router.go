// Package extractor picks a format-specific text extractor for a downloaded
// document and normalizes its output.
package extractor

import (
	"context"
	"mime"
	"path"
	"strings"

	"github.com/kirillkom/docqa/internal/core/domain"
	"github.com/kirillkom/docqa/internal/core/ports"
)

type Format string

const (
	FormatPDF   Format = "pdf"
	FormatXLSX  Format = "xlsx"
	FormatPlain Format = "plain"
)

type Router struct {
	extractors map[Format]ports.TextExtractor
	fallback   ports.TextExtractor
}

// NewRouter dispatches known formats and sends everything else to fallback.
func NewRouter(extractors map[Format]ports.TextExtractor, fallback ports.TextExtractor) *Router {
	return &Router{extractors: extractors, fallback: fallback}
}

func (r *Router) Extract(ctx context.Context, doc domain.SourceDocument) (string, error) {
	target := r.fallback
	if extractor, ok := r.extractors[Detect(doc)]; ok {
		target = extractor
	}
	text, err := target.Extract(ctx, doc)
	if err != nil {
		return "", err
	}
	return CleanText(text), nil
}

// Detect trusts the MIME type first, then the file extension, then the
// leading magic bytes.
func Detect(doc domain.SourceDocument) Format {
	mediaType, _, _ := mime.ParseMediaType(doc.MimeType)
	switch mediaType {
	case "application/pdf":
		return FormatPDF
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return FormatXLSX
	}

	switch strings.ToLower(path.Ext(doc.Name)) {
	case ".pdf":
		return FormatPDF
	case ".xlsx":
		return FormatXLSX
	case ".txt", ".md", ".text":
		return FormatPlain
	}

	if strings.HasPrefix(string(doc.Body), "%PDF-") {
		return FormatPDF
	}
	return FormatPlain
}

// CleanText collapses every whitespace run into a single space and trims.
func CleanText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
