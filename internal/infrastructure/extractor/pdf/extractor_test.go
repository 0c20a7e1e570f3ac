package pdf

import (
	"context"
	"testing"

	"github.com/kirillkom/docqa/internal/core/domain"
)

func TestExtractRejectsNonPDF(t *testing.T) {
	_, err := NewExtractor().Extract(context.Background(), domain.SourceDocument{
		Name: "policy.pdf",
		Body: []byte("this is not a pdf"),
	})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
