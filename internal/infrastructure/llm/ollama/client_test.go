package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/docqa/internal/core/domain"
	"github.com/kirillkom/docqa/internal/infrastructure/resilience"
)

func generateServer(t *testing.T, response string, capturedPrompt *string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if capturedPrompt != nil {
			*capturedPrompt, _ = payload["prompt"].(string)
		}
		if payload["format"] != "json" {
			t.Errorf("expected json format, got %v", payload["format"])
		}
		body, _ := json.Marshal(map[string]string{"response": response})
		_, _ = w.Write(body)
	}))
}

func TestExtractorReturnsVerbatimSpan(t *testing.T) {
	var prompt string
	server := generateServer(t, `{"answer":"30 days","score":0.92}`, &prompt)
	defer server.Close()

	extractor := NewExtractor(New(server.URL, "qa", "embed", nil))
	span, err := extractor.AnswerSpan(context.Background(), "What is the grace period?", "The grace period is 30   Days.")
	if err != nil {
		t.Fatalf("AnswerSpan() error = %v", err)
	}
	if span.Text != "30 days" || span.Score != 0.92 {
		t.Fatalf("unexpected span %+v", span)
	}
	if !strings.Contains(prompt, "What is the grace period?") || !strings.Contains(prompt, "The grace period is 30") {
		t.Fatalf("unexpected prompt: %s", prompt)
	}
}

func TestExtractorZeroesInventedSpans(t *testing.T) {
	server := generateServer(t, "Sure! {\"answer\":\"thirty days\",\"score\":1.7}", nil)
	defer server.Close()

	extractor := NewExtractor(New(server.URL, "qa", "embed", nil))
	span, err := extractor.AnswerSpan(context.Background(), "q", "The grace period is 30 days.")
	if err != nil {
		t.Fatalf("AnswerSpan() error = %v", err)
	}
	if span.Text != "thirty days" || span.Score != 0 {
		t.Fatalf("expected zero score for non-verbatim span, got %+v", span)
	}
}

func TestExtractorRejectsMalformedJSON(t *testing.T) {
	server := generateServer(t, "no json here", nil)
	defer server.Close()

	extractor := NewExtractor(New(server.URL, "qa", "embed", nil))
	if _, err := extractor.AnswerSpan(context.Background(), "q", "ctx"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestEmbedIncludesHTTPBodyInError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	embedder := NewEmbedder(New(server.URL, "qa", "embed", nil))
	_, err := embedder.Embed(context.Background(), []string{"hello"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "model unavailable") {
		t.Fatalf("expected response body in error, got %v", err)
	}
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected 502 to be temporary, got %v", err)
	}
}

func TestEmbedRetriesThroughExecutor(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"embeddings":[[0.1,0.2],[0.3,0.4]]}`))
	}))
	defer server.Close()

	executor := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    2,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     time.Millisecond,
		RetryMultiplier:     2,
	})
	embedder := NewEmbedder(New(server.URL, "qa", "embed", executor))
	vectors, err := embedder.Embed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(vectors) != 2 || calls != 2 {
		t.Fatalf("expected 2 vectors after 2 calls, got %d vectors / %d calls", len(vectors), calls)
	}
}
