package document

import (
	"context"
	"errors"
	"testing"

	"github.com/kirillkom/docqa/internal/core/domain"
)

type fetcherFake struct {
	url string
	doc domain.SourceDocument
	err error
}

func (f *fetcherFake) Fetch(_ context.Context, url string) (domain.SourceDocument, error) {
	f.url = url
	return f.doc, f.err
}

type extractorFake struct {
	text string
}

func (f extractorFake) Extract(context.Context, domain.SourceDocument) (string, error) {
	return f.text, nil
}

func TestLoadPrefersInlineText(t *testing.T) {
	fetcher := &fetcherFake{}
	loader := NewLoader(fetcher, extractorFake{})

	text, err := loader.Load(context.Background(), domain.DocumentSource{URL: "https://x/y.pdf", Text: " The  grace\nperiod "})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if text != "The grace period" || fetcher.url != "" {
		t.Fatalf("unexpected text %q / fetched %q", text, fetcher.url)
	}
}

func TestLoadFetchesAndExtracts(t *testing.T) {
	fetcher := &fetcherFake{doc: domain.SourceDocument{Name: "p.pdf", Body: []byte("%PDF")}}
	loader := NewLoader(fetcher, extractorFake{text: "--- Page 1 ---\nclause  1"})

	text, err := loader.Load(context.Background(), domain.DocumentSource{URL: " https://x/p.pdf "})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if fetcher.url != "https://x/p.pdf" || text != "--- Page 1 --- clause 1" {
		t.Fatalf("unexpected result %q from %q", text, fetcher.url)
	}
}

func TestLoadFailures(t *testing.T) {
	loader := NewLoader(&fetcherFake{}, extractorFake{text: "  "})
	if _, err := loader.Load(context.Background(), domain.DocumentSource{}); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty source, got %v", err)
	}
	if _, err := loader.Load(context.Background(), domain.DocumentSource{URL: "https://x"}); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty extraction, got %v", err)
	}

	loader = NewLoader(&fetcherFake{err: errors.New("dns")}, extractorFake{})
	if _, err := loader.Load(context.Background(), domain.DocumentSource{URL: "https://x"}); err == nil {
		t.Fatalf("expected fetch error")
	}
}
