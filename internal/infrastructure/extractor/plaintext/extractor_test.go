package plaintext

import (
	"context"
	"testing"

	"github.com/kirillkom/docqa/internal/core/domain"
)

func TestExtractStripsBOM(t *testing.T) {
	body := append([]byte{0xEF, 0xBB, 0xBF}, []byte("Policy text")...)
	text, err := NewExtractor().Extract(context.Background(), domain.SourceDocument{Name: "a.txt", Body: body})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if text != "Policy text" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestExtractRejectsBinaryAndEmpty(t *testing.T) {
	for _, body := range [][]byte{{0xff, 0xfe, 0x00}, []byte("  \n ")} {
		_, err := NewExtractor().Extract(context.Background(), domain.SourceDocument{Name: "a.bin", Body: body})
		if !domain.IsKind(err, domain.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput for %v, got %v", body, err)
		}
	}
}
