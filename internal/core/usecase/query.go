package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/docqa/internal/core/domain"
	"github.com/kirillkom/docqa/internal/core/ports"
)

const DefaultAnswerConcurrency = 4

type QueryOptions struct {
	TopK        int
	TokenBudget int
	Concurrency int
	Observer    ports.PipelineObserver
}

// QueryUseCase answers a batch of questions against one document: chunk,
// build a request-scoped index, then retrieve and synthesize per question.
type QueryUseCase struct {
	chunker     ports.Chunker
	indexes     ports.IndexFactory
	retriever   *Retriever
	synthesizer *AnswerSynthesizer
	opts        QueryOptions
}

func NewQueryUseCase(
	chunker ports.Chunker,
	indexes ports.IndexFactory,
	retriever *Retriever,
	synthesizer *AnswerSynthesizer,
	opts QueryOptions,
) *QueryUseCase {
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.TokenBudget <= 0 {
		opts.TokenBudget = DefaultTokenBudget
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultAnswerConcurrency
	}
	return &QueryUseCase{
		chunker:     chunker,
		indexes:     indexes,
		retriever:   retriever,
		synthesizer: synthesizer,
		opts:        opts,
	}
}

type progressKey struct{}

// WithProgress attaches a callback invoked once per finished question.
// Calls may come from several goroutines.
func WithProgress(ctx context.Context, fn func(position int, record domain.AnswerRecord)) context.Context {
	return context.WithValue(ctx, progressKey{}, fn)
}

func progressFrom(ctx context.Context) func(int, domain.AnswerRecord) {
	fn, _ := ctx.Value(progressKey{}).(func(int, domain.AnswerRecord))
	return fn
}

// Run returns one record per question in input order. Only invalid input
// fails the whole call; model and index failures degrade individual answers.
func (uc *QueryUseCase) Run(ctx context.Context, documentText string, questions []string) ([]domain.AnswerRecord, error) {
	if len(questions) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "run pipeline", errors.New("no questions"))
	}
	start := time.Now()
	defer func() {
		if uc.opts.Observer != nil {
			uc.opts.Observer.ObserveRun(len(questions), time.Since(start))
		}
	}()

	chunks := uc.chunker.Split(documentText)
	index := uc.indexes.NewIndex()
	defer func() {
		// The request context may already be done; collections must still be dropped.
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := index.Close(closeCtx); err != nil {
			slog.Warn("index_close_failed", "error", err)
		}
	}()

	buildErr := index.Build(ctx, chunks)
	if buildErr != nil {
		slog.Error("index_build_failed", "chunks", len(chunks), "error", buildErr)
	}

	records := make([]domain.AnswerRecord, len(questions))
	progress := progressFrom(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.opts.Concurrency)
	for i, question := range questions {
		g.Go(func() error {
			record, outcome := uc.answerOne(gctx, index, question, buildErr)
			records[i] = record
			if uc.opts.Observer != nil {
				uc.opts.Observer.ObserveAnswer(outcome)
			}
			if progress != nil {
				progress(i, record)
			}
			return nil
		})
	}
	_ = g.Wait()

	return records, nil
}

func (uc *QueryUseCase) answerOne(
	ctx context.Context,
	index ports.VectorIndex,
	question string,
	buildErr error,
) (domain.AnswerRecord, string) {
	question = strings.TrimSpace(question)
	if buildErr != nil {
		return uc.failed(question, fmt.Errorf("build index: %w", buildErr))
	}

	retrieved, err := uc.retriever.Retrieve(ctx, index, question, uc.opts.TopK, uc.opts.TokenBudget)
	if err != nil {
		return uc.failed(question, fmt.Errorf("retrieve context: %w", err))
	}
	if uc.opts.Observer != nil {
		uc.opts.Observer.ObserveContext(retrieved.Included, retrieved.Words)
	}

	return uc.synthesizer.answer(ctx, question, retrieved.Text)
}

func (uc *QueryUseCase) failed(question string, err error) (domain.AnswerRecord, string) {
	slog.Warn("question_failed", "question", question, "error", err)
	return uc.synthesizer.finish(question, ErrorAnswer(err), ""), OutcomeError
}
