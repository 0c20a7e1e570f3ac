package ports

import (
	"context"
	"io"
	"time"

	"github.com/kirillkom/docqa/internal/core/domain"
)

// Embedder builds fixed-dimension vectors for chunks (batch) and questions.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// AnswerExtractor is the extractive QA capability: it returns a span copied
// from the passage together with the model's own score.
type AnswerExtractor interface {
	AnswerSpan(ctx context.Context, question, passage string) (domain.AnswerSpan, error)
}

// Chunker splits cleaned document text into ordered chunks.
type Chunker interface {
	Split(text string) []domain.Chunk
}

// VectorIndex is built once per document and then only searched.
type VectorIndex interface {
	Build(ctx context.Context, chunks []domain.Chunk) error
	Search(ctx context.Context, queryVector []float32, k int) ([]domain.RetrievalResult, error)
	Size() int
	Close(ctx context.Context) error
}

// IndexFactory hands out a fresh, unbuilt index for every request.
type IndexFactory interface {
	NewIndex() VectorIndex
}

// DocumentFetcher downloads a raw document.
type DocumentFetcher interface {
	Fetch(ctx context.Context, url string) (domain.SourceDocument, error)
}

// TextExtractor turns a raw document into plain text.
type TextExtractor interface {
	Extract(ctx context.Context, doc domain.SourceDocument) (string, error)
}

// ObjectStorage stores inline documents of queued jobs.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// JobRepository persists asynchronous question batches.
type JobRepository interface {
	Create(ctx context.Context, job *domain.Job) error
	GetByID(ctx context.Context, id string) (*domain.Job, error)
	UpdateStatus(ctx context.Context, id string, status domain.JobStatus, errMessage string) error
	SaveAnswers(ctx context.Context, id string, answers []domain.AnswerRecord) error
}

// MessageQueue publishes/consumes job submission events.
type MessageQueue interface {
	PublishJobSubmitted(ctx context.Context, jobID string) error
	SubscribeJobSubmitted(ctx context.Context, handler func(context.Context, string) error) error
}

// PipelineObserver receives measurements from the answering pipeline.
type PipelineObserver interface {
	ObserveAnswer(outcome string)
	ObserveContext(included, words int)
	ObserveRun(questions int, duration time.Duration)
}
