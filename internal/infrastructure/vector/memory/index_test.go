package memory

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/kirillkom/docqa/internal/core/domain"
)

type fakeEmbedder struct {
	vectors map[string][]float32
	err     error
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		out = append(out, f.vectors[text])
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return f.vectors[text], nil
}

func testChunks(texts ...string) []domain.Chunk {
	chunks := make([]domain.Chunk, 0, len(texts))
	for i, text := range texts {
		chunks = append(chunks, domain.Chunk{ID: i, Text: text, StartOffset: i * 10})
	}
	return chunks
}

func TestSearchBeforeBuildReturnsNotReady(t *testing.T) {
	idx := NewIndex(&fakeEmbedder{}, domain.MetricCosine)
	_, err := idx.Search(context.Background(), []float32{1, 0}, 3)
	if !domain.IsKind(err, domain.ErrIndexNotReady) {
		t.Fatalf("expected ErrIndexNotReady, got %v", err)
	}
}

func TestCosineSearchOrdersByScoreAndClampsK(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"alpha": {1, 0},
		"beta":  {0, 1},
		"gamma": {3, 3},
	}}
	idx := NewIndex(embedder, domain.MetricCosine)
	if err := idx.Build(context.Background(), testChunks("alpha", "beta", "gamma")); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if idx.Size() != 3 {
		t.Fatalf("expected size 3, got %d", idx.Size())
	}

	results, err := idx.Search(context.Background(), []float32{2, 0}, 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected k clamped to 3, got %d", len(results))
	}
	if results[0].Chunk.Text != "alpha" || results[1].Chunk.Text != "gamma" || results[2].Chunk.Text != "beta" {
		t.Fatalf("unexpected order: %+v", results)
	}
	if math.Abs(results[0].Score-1) > 1e-6 {
		t.Fatalf("expected cosine 1 for identical direction, got %f", results[0].Score)
	}
	if math.Abs(results[1].Score-math.Sqrt2/2) > 1e-6 {
		t.Fatalf("expected cosine ~0.707, got %f", results[1].Score)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Fatalf("results not sorted desc at %d", i)
		}
	}
}

func TestSearchBreaksTiesByLowerChunkID(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"first":  {1, 1},
		"second": {1, 1},
		"third":  {1, 1},
	}}
	idx := NewIndex(embedder, domain.MetricInnerProduct)
	chunks := testChunks("third", "first", "second")
	if err := idx.Build(context.Background(), chunks); err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	results, err := idx.Search(context.Background(), []float32{1, 1}, 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 2 || results[0].Chunk.ID != 0 || results[1].Chunk.ID != 1 {
		t.Fatalf("expected ids 0,1, got %+v", results)
	}
}

func TestL2ScoresAreNegativeSquaredDistance(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"near": {1, 1},
		"far":  {4, 5},
	}}
	idx := NewIndex(embedder, domain.MetricL2)
	if err := idx.Build(context.Background(), testChunks("far", "near")); err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	results, err := idx.Search(context.Background(), []float32{1, 2}, 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if results[0].Chunk.Text != "near" || results[0].Score != -1 {
		t.Fatalf("unexpected nearest: %+v", results[0])
	}
	if results[1].Score != -18 {
		t.Fatalf("expected -18 for far, got %f", results[1].Score)
	}
}

func TestSearchEdgeCases(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float32{"a": {1, 0}}}

	empty := NewIndex(embedder, domain.MetricCosine)
	if err := empty.Build(context.Background(), nil); err != nil {
		t.Fatalf("Build(nil) error = %v", err)
	}
	results, err := empty.Search(context.Background(), []float32{1, 0}, 5)
	if err != nil || len(results) != 0 {
		t.Fatalf("expected empty results from empty index, got %v / %v", results, err)
	}

	idx := NewIndex(embedder, domain.MetricCosine)
	if err := idx.Build(context.Background(), testChunks("a")); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	results, err = idx.Search(context.Background(), []float32{1, 0}, 0)
	if err != nil || len(results) != 0 {
		t.Fatalf("expected empty results for k=0, got %v / %v", results, err)
	}
	if _, err := idx.Search(context.Background(), []float32{1, 0, 0}, 1); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput on dimension mismatch, got %v", err)
	}
	if err := idx.Build(context.Background(), testChunks("a")); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected rebuild to be rejected, got %v", err)
	}
}

func TestBuildPropagatesEmbedderFailure(t *testing.T) {
	idx := NewIndex(&fakeEmbedder{err: errors.New("model down")}, domain.MetricCosine)
	err := idx.Build(context.Background(), testChunks("a"))
	if !domain.IsKind(err, domain.ErrModelInvocation) {
		t.Fatalf("expected ErrModelInvocation, got %v", err)
	}
	if _, err := idx.Search(context.Background(), []float32{1}, 1); !domain.IsKind(err, domain.ErrIndexNotReady) {
		t.Fatalf("failed build must leave index not ready, got %v", err)
	}
}

func TestBuildRejectsMixedDimensions(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float32{"a": {1, 0}, "b": {1, 0, 0}}}
	idx := NewIndex(embedder, domain.MetricCosine)
	if err := idx.Build(context.Background(), testChunks("a", "b")); !domain.IsKind(err, domain.ErrModelInvocation) {
		t.Fatalf("expected ErrModelInvocation, got %v", err)
	}
}

func TestFactoryReturnsIndependentIndexes(t *testing.T) {
	factory := Factory{Embedder: &fakeEmbedder{vectors: map[string][]float32{"a": {1}}}}
	first := factory.NewIndex()
	second := factory.NewIndex()
	if err := first.Build(context.Background(), testChunks("a")); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if first.Size() != 1 || second.Size() != 0 {
		t.Fatalf("factory indexes share state: %d/%d", first.Size(), second.Size())
	}
}
