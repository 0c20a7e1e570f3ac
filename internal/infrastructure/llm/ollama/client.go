package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/docqa/internal/core/domain"
	"github.com/kirillkom/docqa/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	qaModel    string
	embedModel string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, qaModel, embedModel string, executor *resilience.Executor) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		qaModel:    qaModel,
		embedModel: embedModel,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		executor:   executor,
	}
}

type Embedder struct {
	client *Client
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	request := map[string]any{
		"model": e.client.embedModel,
		"input": texts,
	}

	var response struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := e.client.postJSON(ctx, "/api/embed", request, &response, "embed"); err != nil {
		return nil, err
	}
	return response.Embeddings, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return vectors[0], nil
}

// Extractor asks a generative model for a verbatim answer span. Spans the
// model did not copy from the passage are kept but scored 0.
type Extractor struct {
	client *Client
}

func NewExtractor(client *Client) *Extractor {
	return &Extractor{client: client}
}

func (x *Extractor) AnswerSpan(ctx context.Context, question, passage string) (domain.AnswerSpan, error) {
	raw, err := x.client.generateJSON(ctx, buildExtractionPrompt(question, passage))
	if err != nil {
		return domain.AnswerSpan{}, err
	}

	var result struct {
		Answer string  `json:"answer"`
		Score  float64 `json:"score"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &result); err != nil {
		return domain.AnswerSpan{}, fmt.Errorf("parse answer json: %w", err)
	}

	span := domain.AnswerSpan{
		Text:  strings.TrimSpace(result.Answer),
		Score: clampScore(result.Score),
	}
	if !containsSpan(passage, span.Text) {
		span.Score = 0
	}
	return span, nil
}

func (c *Client) generateJSON(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]any{
		"model":  c.qaModel,
		"prompt": prompt,
		"stream": false,
		"format": "json",
		"options": map[string]any{
			"temperature": 0,
		},
	}

	var response struct {
		Response string `json:"response"`
	}
	if err := c.postJSON(ctx, "/api/generate", reqBody, &response, "generate"); err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Response), nil
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}

func clampScore(score float64) float64 {
	switch {
	case score < 0:
		return 0
	case score > 1:
		return 1
	default:
		return score
	}
}

func containsSpan(passage, span string) bool {
	if span == "" {
		return false
	}
	return strings.Contains(foldSpaces(passage), foldSpaces(span))
}

func foldSpaces(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
