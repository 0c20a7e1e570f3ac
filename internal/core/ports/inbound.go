package ports

import (
	"context"

	"github.com/kirillkom/docqa/internal/core/domain"
)

// QuestionAnswerer is the inbound contract for answering a batch of questions
// against one document text.
type QuestionAnswerer interface {
	Run(ctx context.Context, documentText string, questions []string) ([]domain.AnswerRecord, error)
}

// DocumentLoader resolves a document source to cleaned plain text.
type DocumentLoader interface {
	Load(ctx context.Context, source domain.DocumentSource) (string, error)
}

// JobSubmitter is the inbound contract for asynchronous batches.
type JobSubmitter interface {
	Submit(ctx context.Context, req domain.JobRequest) (*domain.Job, error)
}

// JobReader is the inbound read model for job state.
type JobReader interface {
	GetByID(ctx context.Context, id string) (*domain.Job, error)
}

// JobProcessor is the inbound contract for the worker.
type JobProcessor interface {
	ProcessByID(ctx context.Context, jobID string) error
}
