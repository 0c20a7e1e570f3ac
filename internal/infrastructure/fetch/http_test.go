package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/docqa/internal/core/domain"
	"github.com/kirillkom/docqa/internal/infrastructure/resilience"
)

func TestFetchReturnsBodyAndMetadata(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4 body"))
	}))
	defer server.Close()

	doc, err := NewHTTPFetcher(time.Second, 0, nil).Fetch(context.Background(), server.URL+"/assets/policy.pdf?sig=abc")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if doc.Name != "policy.pdf" || doc.MimeType != "application/pdf" || string(doc.Body) != "%PDF-1.4 body" {
		t.Fatalf("unexpected document %+v", doc)
	}
}

func TestFetchRetriesServerErrors(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			http.Error(w, "busy", http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("text"))
	}))
	defer server.Close()

	executor := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     time.Millisecond,
		RetryMultiplier:     2,
	})
	if _, err := NewHTTPFetcher(time.Second, 0, executor).Fetch(context.Background(), server.URL+"/a.txt"); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestFetchFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			http.NotFound(w, r)
		case "/big":
			_, _ = w.Write([]byte(strings.Repeat("x", 64)))
		default:
			http.Error(w, "down", http.StatusServiceUnavailable)
		}
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher(time.Second, 32, nil)

	_, err := fetcher.Fetch(context.Background(), server.URL+"/missing")
	if err == nil || domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected permanent error for 404, got %v", err)
	}

	_, err = fetcher.Fetch(context.Background(), server.URL+"/down")
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected ErrTemporary for 503, got %v", err)
	}

	_, err = fetcher.Fetch(context.Background(), server.URL+"/big")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for oversized body, got %v", err)
	}

	_, err = fetcher.Fetch(context.Background(), "file:///etc/passwd")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for file url, got %v", err)
	}
}
