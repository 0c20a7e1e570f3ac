// Package openai embeds text through any OpenAI-compatible embeddings API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kirillkom/docqa/internal/infrastructure/resilience"
)

// maxBatch bounds one embeddings request; larger inputs are split.
const maxBatch = 256

type Embedder struct {
	client   *openai.Client
	model    string
	executor *resilience.Executor
}

func NewEmbedder(baseURL, apiKey, model string, executor *resilience.Executor) *Embedder {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/"); baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Embedder{
		client:   openai.NewClientWithConfig(cfg),
		model:    model,
		executor: executor,
	}
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxBatch {
		end := min(start+maxBatch, len(texts))
		vectors, err := e.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}
	return out, nil
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

func (e *Embedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := resilience.Call(ctx, e.executor, "openai.embed", func(callCtx context.Context) (openai.EmbeddingResponse, error) {
		return e.client.CreateEmbeddings(callCtx, openai.EmbeddingRequest{
			Model: openai.EmbeddingModel(e.model),
			Input: texts,
		})
	}, classifyError)
	if err != nil {
		return nil, resilience.WrapTemporary("openai embed", fmt.Errorf("openai embeddings: %w", err))
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai embeddings: expected %d vectors, got %d", len(texts), len(resp.Data))
	}

	vectors := make([][]float32, len(texts))
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= len(texts) {
			return nil, fmt.Errorf("openai embeddings: index %d out of range", item.Index)
		}
		v := make([]float32, len(item.Embedding))
		for i := range item.Embedding {
			v[i] = float32(item.Embedding[i])
		}
		vectors[item.Index] = v
	}
	return vectors, nil
}

// classifyError maps the client's typed errors onto the HTTP classifier.
func classifyError(err error) resilience.ErrorClassification {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return resilience.ClassifyHTTPError(&resilience.HTTPStatusError{StatusCode: apiErr.HTTPStatusCode})
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return resilience.ClassifyHTTPError(&resilience.HTTPStatusError{StatusCode: reqErr.HTTPStatusCode})
	}
	return resilience.ClassifyHTTPError(err)
}
