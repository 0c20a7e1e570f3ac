// Package memory is an exact, in-process vector index. Every search scores
// the query against all stored vectors, which is the right trade-off for the
// few hundred chunks a single policy document produces.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/kirillkom/docqa/internal/core/domain"
	"github.com/kirillkom/docqa/internal/core/ports"
	"github.com/kirillkom/docqa/internal/infrastructure/vector"
)

type Index struct {
	embedder ports.Embedder
	metric   domain.SimilarityMetric

	mu        sync.RWMutex
	ready     bool
	dimension int
	chunks    []domain.Chunk
}

func NewIndex(embedder ports.Embedder, metric domain.SimilarityMetric) *Index {
	if metric == "" {
		metric = domain.MetricCosine
	}
	return &Index{embedder: embedder, metric: metric}
}

// Factory hands out one unbuilt Index per request.
type Factory struct {
	Embedder ports.Embedder
	Metric   domain.SimilarityMetric
}

func (f Factory) NewIndex() ports.VectorIndex {
	return NewIndex(f.Embedder, f.Metric)
}

func (idx *Index) Build(ctx context.Context, chunks []domain.Chunk) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.ready {
		return domain.WrapError(domain.ErrInvalidInput, "build index", fmt.Errorf("index already built"))
	}

	if len(chunks) == 0 {
		idx.chunks = nil
		idx.ready = true
		return nil
	}

	vectors, dimension, err := vector.EmbedChunks(ctx, idx.embedder, chunks)
	if err != nil {
		return err
	}

	stored := make([]domain.Chunk, len(chunks))
	for i, chunk := range chunks {
		chunk.Embedding = vector.Prepare(vectors[i], idx.metric)
		stored[i] = chunk
	}

	idx.chunks = stored
	idx.dimension = dimension
	idx.ready = true
	slog.Debug("index_built", "backend", "memory", "chunks", len(stored), "dimension", dimension, "metric", string(idx.metric))
	return nil
}

func (idx *Index) Search(_ context.Context, queryVector []float32, k int) ([]domain.RetrievalResult, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if !idx.ready {
		return nil, domain.WrapError(domain.ErrIndexNotReady, "search index", fmt.Errorf("build has not completed"))
	}
	if len(idx.chunks) == 0 || k <= 0 {
		return []domain.RetrievalResult{}, nil
	}
	if len(queryVector) != idx.dimension {
		return nil, domain.WrapError(
			domain.ErrInvalidInput,
			"search index",
			fmt.Errorf("query dimension mismatch: expected %d, got %d", idx.dimension, len(queryVector)),
		)
	}

	query := vector.Prepare(queryVector, idx.metric)
	results := make([]domain.RetrievalResult, len(idx.chunks))
	for i, chunk := range idx.chunks {
		results[i] = domain.RetrievalResult{
			Chunk: chunk,
			Score: vector.Score(idx.metric, query, chunk.Embedding),
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Chunk.ID < results[j].Chunk.ID
	})

	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

func (idx *Index) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.chunks)
}

func (idx *Index) Close(context.Context) error { return nil }
