// Package vector holds the similarity arithmetic shared by the index backends.
package vector

import (
	"context"
	"fmt"
	"math"

	"github.com/kirillkom/docqa/internal/core/domain"
	"github.com/kirillkom/docqa/internal/core/ports"
)

// Normalize returns an L2-normalized copy of v. The zero vector stays zero.
func Normalize(v []float32) []float32 {
	out := make([]float32, len(v))
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		return out
	}
	norm = math.Sqrt(norm)
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

// Prepare applies the insertion/query transform of a metric. Cosine is an
// inner product over normalized vectors; the other metrics use raw values.
func Prepare(v []float32, metric domain.SimilarityMetric) []float32 {
	if metric == domain.MetricCosine {
		return Normalize(v)
	}
	out := make([]float32, len(v))
	copy(out, v)
	return out
}

// Score is higher-is-better for every metric: the inner product for cosine
// and ip, the negative squared euclidean distance for l2.
func Score(metric domain.SimilarityMetric, a, b []float32) float64 {
	if metric == domain.MetricL2 {
		var sum float64
		for i := range a {
			d := float64(a[i]) - float64(b[i])
			sum += d * d
		}
		return -sum
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

// EmbedChunks embeds chunk texts in one batch and checks the result shape.
func EmbedChunks(ctx context.Context, embedder ports.Embedder, chunks []domain.Chunk) ([][]float32, int, error) {
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	vectors, err := embedder.Embed(ctx, texts)
	if err != nil {
		return nil, 0, domain.WrapError(domain.ErrModelInvocation, "embed chunks", err)
	}
	if len(vectors) != len(chunks) {
		return nil, 0, domain.WrapError(
			domain.ErrModelInvocation,
			"embed chunks",
			fmt.Errorf("vectors/chunks mismatch: %d/%d", len(vectors), len(chunks)),
		)
	}

	dimension := len(vectors[0])
	if dimension == 0 {
		return nil, 0, domain.WrapError(domain.ErrModelInvocation, "embed chunks", fmt.Errorf("empty embedding"))
	}
	for i, v := range vectors {
		if len(v) != dimension {
			return nil, 0, domain.WrapError(
				domain.ErrModelInvocation,
				"embed chunks",
				fmt.Errorf("chunk %d dimension %d differs from %d", i, len(v), dimension),
			)
		}
	}
	return vectors, dimension, nil
}
