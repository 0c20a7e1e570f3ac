package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/docqa/internal/core/domain"
	"github.com/kirillkom/docqa/internal/core/ports"
	"github.com/kirillkom/docqa/internal/infrastructure/vector"
)

// Index keeps one document's chunks in a dedicated Qdrant collection that
// lives exactly as long as the request that built it.
type Index struct {
	baseURL    string
	collection string
	metric     domain.SimilarityMetric
	embedder   ports.Embedder
	httpClient *http.Client

	mu        sync.RWMutex
	ready     bool
	created   bool
	dimension int
	size      int
}

type Factory struct {
	BaseURL          string
	CollectionPrefix string
	Metric           domain.SimilarityMetric
	Embedder         ports.Embedder
	HTTPClient       *http.Client
}

func (f Factory) NewIndex() ports.VectorIndex {
	prefix := f.CollectionPrefix
	if prefix == "" {
		prefix = "docqa"
	}
	return New(f.BaseURL, prefix+"_"+strings.ReplaceAll(uuid.NewString(), "-", ""), f.Metric, f.Embedder, f.HTTPClient)
}

func New(baseURL, collection string, metric domain.SimilarityMetric, embedder ports.Embedder, httpClient *http.Client) *Index {
	if metric == "" {
		metric = domain.MetricCosine
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Index{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		metric:     metric,
		embedder:   embedder,
		httpClient: httpClient,
	}
}

func (c *Index) Collection() string { return c.collection }

func (c *Index) Build(ctx context.Context, chunks []domain.Chunk) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ready {
		return domain.WrapError(domain.ErrInvalidInput, "build index", fmt.Errorf("index already built"))
	}
	if len(chunks) == 0 {
		c.ready = true
		return nil
	}

	vectors, dimension, err := vector.EmbedChunks(ctx, c.embedder, chunks)
	if err != nil {
		return err
	}

	if err := c.createCollection(ctx, dimension); err != nil {
		return err
	}
	c.created = true

	type point struct {
		ID      int            `json:"id"`
		Vector  []float32      `json:"vector"`
		Payload map[string]any `json:"payload"`
	}

	points := make([]point, 0, len(chunks))
	for i, chunk := range chunks {
		points = append(points, point{
			ID:     chunk.ID,
			Vector: vector.Prepare(vectors[i], c.metric),
			Payload: map[string]any{
				"chunk_id":     chunk.ID,
				"start_offset": chunk.StartOffset,
				"text":         chunk.Text,
			},
		})
	}

	url := fmt.Sprintf("%s/collections/%s/points?wait=true", c.baseURL, c.collection)
	if err := c.do(ctx, http.MethodPut, url, map[string]any{"points": points}, nil); err != nil {
		return fmt.Errorf("qdrant upsert: %w", err)
	}

	c.dimension = dimension
	c.size = len(chunks)
	c.ready = true
	slog.Debug("index_built", "backend", "qdrant", "collection", c.collection, "chunks", len(chunks), "dimension", dimension)
	return nil
}

func (c *Index) Search(ctx context.Context, queryVector []float32, k int) ([]domain.RetrievalResult, error) {
	c.mu.RLock()
	ready, size, dimension := c.ready, c.size, c.dimension
	c.mu.RUnlock()

	if !ready {
		return nil, domain.WrapError(domain.ErrIndexNotReady, "search index", fmt.Errorf("build has not completed"))
	}
	if size == 0 || k <= 0 {
		return []domain.RetrievalResult{}, nil
	}
	if len(queryVector) != dimension {
		return nil, domain.WrapError(
			domain.ErrInvalidInput,
			"search index",
			fmt.Errorf("query dimension mismatch: expected %d, got %d", dimension, len(queryVector)),
		)
	}

	// Every point is requested so ties at the k boundary resolve by chunk id.
	reqBody := map[string]any{
		"vector":       vector.Prepare(queryVector, c.metric),
		"limit":        size,
		"with_payload": true,
	}

	var searchResp struct {
		Result []struct {
			Score   float64 `json:"score"`
			Payload struct {
				ChunkID     int    `json:"chunk_id"`
				StartOffset int    `json:"start_offset"`
				Text        string `json:"text"`
			} `json:"payload"`
		} `json:"result"`
	}
	url := fmt.Sprintf("%s/collections/%s/points/search", c.baseURL, c.collection)
	if err := c.do(ctx, http.MethodPost, url, reqBody, &searchResp); err != nil {
		return nil, fmt.Errorf("qdrant search: %w", err)
	}

	out := make([]domain.RetrievalResult, 0, len(searchResp.Result))
	for _, r := range searchResp.Result {
		score := r.Score
		if c.metric == domain.MetricL2 {
			score = -score * score
		}
		out = append(out, domain.RetrievalResult{
			Chunk: domain.Chunk{
				ID:          r.Payload.ChunkID,
				Text:        r.Payload.Text,
				StartOffset: r.Payload.StartOffset,
			},
			Score: score,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Chunk.ID < out[j].Chunk.ID
	})
	if k < len(out) {
		out = out[:k]
	}
	return out, nil
}

func (c *Index) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.size
}

// Close drops the collection. Closing an index that never created one is a no-op.
func (c *Index) Close(ctx context.Context) error {
	c.mu.Lock()
	created := c.created
	c.created = false
	c.mu.Unlock()
	if !created {
		return nil
	}

	url := fmt.Sprintf("%s/collections/%s", c.baseURL, c.collection)
	if err := c.do(ctx, http.MethodDelete, url, nil, nil); err != nil {
		return fmt.Errorf("qdrant delete collection: %w", err)
	}
	return nil
}

func (c *Index) createCollection(ctx context.Context, vectorSize int) error {
	reqBody := map[string]any{
		"vectors": map[string]any{
			"size":     vectorSize,
			"distance": distanceFor(c.metric),
		},
	}
	url := fmt.Sprintf("%s/collections/%s", c.baseURL, c.collection)
	if err := c.do(ctx, http.MethodPut, url, reqBody, nil); err != nil {
		return fmt.Errorf("qdrant create collection: %w", err)
	}
	return nil
}

func (c *Index) do(ctx context.Context, method, url string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.WrapError(domain.ErrTemporary, "qdrant request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if text := strings.TrimSpace(string(msg)); text != "" {
			return fmt.Errorf("status %s: %s", resp.Status, text)
		}
		return fmt.Errorf("status %s", resp.Status)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Cosine is served as Dot over pre-normalized vectors, giving the same
// ordering as the in-memory backend up to float32 rounding.
func distanceFor(metric domain.SimilarityMetric) string {
	if metric == domain.MetricL2 {
		return "Euclid"
	}
	return "Dot"
}
