package plaintext

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/kirillkom/docqa/internal/core/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Extract(_ context.Context, doc domain.SourceDocument) (string, error) {
	raw := bytes.TrimPrefix(doc.Body, utf8BOM)
	if !utf8.Valid(raw) {
		return "", domain.WrapError(domain.ErrInvalidInput, "extract plain text", fmt.Errorf("unsupported binary format: %s", doc.Name))
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return "", domain.WrapError(domain.ErrInvalidInput, "extract plain text", errors.New("empty document"))
	}
	return string(raw), nil
}
