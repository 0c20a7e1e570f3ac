package bootstrap

import (
	"context"
	"fmt"

	"github.com/kirillkom/docqa/internal/config"
	"github.com/kirillkom/docqa/internal/core/ports"
	"github.com/kirillkom/docqa/internal/core/usecase"
	"github.com/kirillkom/docqa/internal/infrastructure/queue/nats"
	"github.com/kirillkom/docqa/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/docqa/internal/infrastructure/resilience"
	"github.com/kirillkom/docqa/internal/infrastructure/storage/localfs"
)

// App is the service graph for the API and the worker: the pipeline plus the
// asynchronous job backend.
type App struct {
	Config   config.Config
	Pipeline *Pipeline

	Queue     *nats.Queue
	Jobs      ports.JobReader
	SubmitUC  ports.JobSubmitter
	ProcessUC ports.JobProcessor

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, observer ports.PipelineObserver) (*App, error) {
	pipeline, err := NewPipeline(cfg, observer)
	if err != nil {
		return nil, fmt.Errorf("init pipeline: %w", err)
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewJobRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: resilience.NewExecutor(resilience.DefaultConfig()),
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	return &App{
		Config:   cfg,
		Pipeline: pipeline,

		Queue:     queue,
		Jobs:      repo,
		SubmitUC:  usecase.NewSubmitJobUseCase(repo, storage, queue),
		ProcessUC: usecase.NewProcessJobUseCase(repo, storage, pipeline.Loader, pipeline.Answerer),

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
