package usecase

import (
	"context"
	"fmt"
	"io"

	"github.com/kirillkom/docqa/internal/core/domain"
	"github.com/kirillkom/docqa/internal/core/ports"
)

type ProcessJobUseCase struct {
	repo     ports.JobRepository
	storage  ports.ObjectStorage
	loader   ports.DocumentLoader
	answerer ports.QuestionAnswerer
}

func NewProcessJobUseCase(
	repo ports.JobRepository,
	storage ports.ObjectStorage,
	loader ports.DocumentLoader,
	answerer ports.QuestionAnswerer,
) *ProcessJobUseCase {
	return &ProcessJobUseCase{
		repo:     repo,
		storage:  storage,
		loader:   loader,
		answerer: answerer,
	}
}

func (uc *ProcessJobUseCase) ProcessByID(ctx context.Context, jobID string) error {
	if err := uc.markStatus(ctx, jobID, domain.JobProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	answers, err := uc.processPipeline(ctx, jobID)
	if err != nil {
		if failErr := uc.markFailed(ctx, jobID, err); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.repo.SaveAnswers(ctx, jobID, answers); err != nil {
		if failErr := uc.markFailed(ctx, jobID, err); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return fmt.Errorf("save answers: %w", err)
	}

	if err := uc.markStatus(ctx, jobID, domain.JobDone, ""); err != nil {
		return fmt.Errorf("set status=done: %w", err)
	}
	return nil
}

func (uc *ProcessJobUseCase) processPipeline(ctx context.Context, jobID string) ([]domain.AnswerRecord, error) {
	job, err := uc.repo.GetByID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("fetch job by id: %w", err)
	}

	text, err := uc.loadDocument(ctx, job)
	if err != nil {
		return nil, err
	}

	answers, err := uc.answerer.Run(ctx, text, job.Questions)
	if err != nil {
		return nil, fmt.Errorf("answer questions: %w", err)
	}
	return answers, nil
}

func (uc *ProcessJobUseCase) loadDocument(ctx context.Context, job *domain.Job) (string, error) {
	if job.StoragePath == "" {
		text, err := uc.loader.Load(ctx, domain.DocumentSource{URL: job.DocumentURL})
		if err != nil {
			return "", fmt.Errorf("load document: %w", err)
		}
		return text, nil
	}

	rc, err := uc.storage.Open(ctx, job.StoragePath)
	if err != nil {
		return "", fmt.Errorf("open stored document: %w", err)
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("read stored document: %w", err)
	}
	text, err := uc.loader.Load(ctx, domain.DocumentSource{Text: string(raw)})
	if err != nil {
		return "", fmt.Errorf("load document: %w", err)
	}
	return text, nil
}

func (uc *ProcessJobUseCase) markStatus(ctx context.Context, jobID string, status domain.JobStatus, errMessage string) error {
	return uc.repo.UpdateStatus(ctx, jobID, status, errMessage)
}

func (uc *ProcessJobUseCase) markFailed(ctx context.Context, jobID string, processErr error) error {
	if processErr == nil {
		return nil
	}
	return uc.markStatus(ctx, jobID, domain.JobFailed, processErr.Error())
}
