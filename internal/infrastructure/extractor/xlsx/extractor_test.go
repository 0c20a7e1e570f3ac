package xlsx

import (
	"context"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/docqa/internal/core/domain"
)

func TestExtractRendersRows(t *testing.T) {
	book := excelize.NewFile()
	defer book.Close()
	cells := map[string]string{
		"A1": "Benefit",
		"B1": "Limit",
		"A2": "Room rent",
		"B2": "1% of sum insured",
	}
	for cell, value := range cells {
		if err := book.SetCellValue("Sheet1", cell, value); err != nil {
			t.Fatalf("SetCellValue() error = %v", err)
		}
	}
	buf, err := book.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer() error = %v", err)
	}

	text, err := NewExtractor().Extract(context.Background(), domain.SourceDocument{Name: "limits.xlsx", Body: buf.Bytes()})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	for _, want := range []string{"Sheet: Sheet1", "Benefit | Limit", "Room rent | 1% of sum insured"} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in %q", want, text)
		}
	}
}

func TestExtractRejectsGarbage(t *testing.T) {
	_, err := NewExtractor().Extract(context.Background(), domain.SourceDocument{Name: "x.xlsx", Body: []byte("nope")})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
