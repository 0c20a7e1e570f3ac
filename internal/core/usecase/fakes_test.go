package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/kirillkom/docqa/internal/core/domain"
	"github.com/kirillkom/docqa/internal/core/ports"
)

type embedderFake struct {
	queryErr error
	batchErr error
}

// Embeddings are bag-of-letters counts, enough to make retrieval deterministic.
func letterVector(text string) []float32 {
	v := make([]float32, 26)
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'z' {
			v[r-'a']++
		}
	}
	return v
}

func (f *embedderFake) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if f.batchErr != nil {
		return nil, f.batchErr
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = letterVector(text)
	}
	return out, nil
}

func (f *embedderFake) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return letterVector(text), nil
}

type indexFake struct {
	results   []domain.RetrievalResult
	searchErr error
	buildErr  error
	lastK     int
	built     []domain.Chunk
	closed    bool
}

func (f *indexFake) Build(_ context.Context, chunks []domain.Chunk) error {
	f.built = chunks
	return f.buildErr
}

func (f *indexFake) Search(_ context.Context, _ []float32, k int) ([]domain.RetrievalResult, error) {
	f.lastK = k
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if k < len(f.results) {
		return f.results[:k], nil
	}
	return f.results, nil
}

func (f *indexFake) Size() int { return len(f.built) }

func (f *indexFake) Close(context.Context) error {
	f.closed = true
	return nil
}

type indexFactoryFake struct {
	index *indexFake
}

func (f *indexFactoryFake) NewIndex() ports.VectorIndex { return f.index }

type extractorFake struct {
	mu       sync.Mutex
	spans    map[string]domain.AnswerSpan
	errs     map[string]error
	fallback domain.AnswerSpan
	calls    int
	delay    map[string]time.Duration
}

func (f *extractorFake) AnswerSpan(_ context.Context, question, _ string) (domain.AnswerSpan, error) {
	f.mu.Lock()
	f.calls++
	delay := f.delay[question]
	err := f.errs[question]
	span, ok := f.spans[question]
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return domain.AnswerSpan{}, err
	}
	if !ok {
		return f.fallback, nil
	}
	return span, nil
}

type chunkerFake struct {
	chunks []domain.Chunk
}

func (f chunkerFake) Split(string) []domain.Chunk { return f.chunks }

type observerFake struct {
	mu       sync.Mutex
	outcomes map[string]int
	contexts int
	runs     int
}

func (f *observerFake) ObserveAnswer(outcome string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.outcomes == nil {
		f.outcomes = map[string]int{}
	}
	f.outcomes[outcome]++
}

func (f *observerFake) ObserveContext(int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.contexts++
}

func (f *observerFake) ObserveRun(int, time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs++
}
