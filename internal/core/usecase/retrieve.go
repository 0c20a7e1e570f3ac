package usecase

import (
	"context"
	"strings"

	"github.com/kirillkom/docqa/internal/core/domain"
	"github.com/kirillkom/docqa/internal/core/ports"
)

const (
	DefaultTopK        = 5
	DefaultTokenBudget = 2000
)

const contextSeparator = "\n\n"

// Retriever turns a question into an answering context under a word budget.
type Retriever struct {
	embedder ports.Embedder
}

func NewRetriever(embedder ports.Embedder) *Retriever {
	return &Retriever{embedder: embedder}
}

// Retrieve searches the top k chunks and greedily concatenates them in score
// order. A chunk that would bring the running word count to the budget or
// beyond ends assembly and is left out whole.
func (r *Retriever) Retrieve(
	ctx context.Context,
	index ports.VectorIndex,
	question string,
	k int,
	tokenBudget int,
) (domain.RetrievedContext, error) {
	if k <= 0 {
		k = DefaultTopK
	}
	if tokenBudget <= 0 {
		tokenBudget = DefaultTokenBudget
	}

	queryVector, err := r.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return domain.RetrievedContext{}, domain.WrapError(domain.ErrModelInvocation, "embed question", err)
	}

	results, err := index.Search(ctx, queryVector, k)
	if err != nil {
		return domain.RetrievedContext{}, err
	}

	var b strings.Builder
	words := 0
	included := 0
	for _, result := range results {
		chunkWords := len(strings.Fields(result.Chunk.Text))
		if words+chunkWords >= tokenBudget {
			break
		}
		if included > 0 {
			b.WriteString(contextSeparator)
		}
		b.WriteString(result.Chunk.Text)
		words += chunkWords
		included++
	}

	return domain.RetrievedContext{
		Text:     strings.TrimRight(b.String(), " \t\r\n"),
		Results:  results,
		Included: included,
		Words:    words,
	}, nil
}
