package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/docqa/internal/core/domain"
	"github.com/kirillkom/docqa/internal/core/ports"
)

type SubmitJobUseCase struct {
	repo    ports.JobRepository
	storage ports.ObjectStorage
	queue   ports.MessageQueue
}

func NewSubmitJobUseCase(
	repo ports.JobRepository,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
) *SubmitJobUseCase {
	return &SubmitJobUseCase{
		repo:    repo,
		storage: storage,
		queue:   queue,
	}
}

// Submit persists a queued job and announces it to the workers. Inline
// document text is parked in object storage so the job row stays small.
func (uc *SubmitJobUseCase) Submit(ctx context.Context, req domain.JobRequest) (*domain.Job, error) {
	questions, err := ValidateRequest(req.DocumentURL, req.DocumentText, req.Questions)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	now := time.Now().UTC()
	job := &domain.Job{
		ID:          id,
		DocumentURL: strings.TrimSpace(req.DocumentURL),
		Questions:   questions,
		Status:      domain.JobQueued,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if req.DocumentText != "" {
		job.StoragePath = id + ".txt"
		job.DocumentURL = ""
		if err := uc.storage.Save(ctx, job.StoragePath, strings.NewReader(req.DocumentText)); err != nil {
			return nil, fmt.Errorf("save document text: %w", err)
		}
	}

	if err := uc.repo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	if err := uc.queue.PublishJobSubmitted(ctx, job.ID); err != nil {
		return nil, fmt.Errorf("publish job event: %w", err)
	}

	return job, nil
}

// ValidateRequest checks a document/questions pair and returns the trimmed
// question list.
func ValidateRequest(documentURL, documentText string, questions []string) ([]string, error) {
	if strings.TrimSpace(documentText) == "" {
		documentURL = strings.TrimSpace(documentURL)
		if documentURL == "" {
			return nil, domain.WrapError(domain.ErrInvalidInput, "validate request", errors.New("documents url or document_text is required"))
		}
		parsed, err := url.Parse(documentURL)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			return nil, domain.WrapError(domain.ErrInvalidInput, "validate request", fmt.Errorf("invalid document url %q", documentURL))
		}
	}

	out := make([]string, 0, len(questions))
	for _, question := range questions {
		question = strings.TrimSpace(question)
		if question == "" {
			return nil, domain.WrapError(domain.ErrInvalidInput, "validate request", errors.New("questions must not be blank"))
		}
		out = append(out, question)
	}
	if len(out) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "validate request", errors.New("at least one question is required"))
	}
	return out, nil
}
