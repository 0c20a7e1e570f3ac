package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/kirillkom/docqa/internal/bootstrap"
	"github.com/kirillkom/docqa/internal/config"
	"github.com/kirillkom/docqa/internal/observability/logging"
	"github.com/kirillkom/docqa/internal/observability/metrics"
)

const (
	serviceName    = "docqa-worker"
	processTimeout = 10 * time.Minute
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_invalid", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logging.NewJSONLogger(serviceName, cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	jobMetrics := metrics.NewJobMetrics(serviceName)
	pipelineMetrics := metrics.NewPipelineMetrics(serviceName, jobMetrics.Registerer())

	app, err := bootstrap.New(ctx, cfg, pipelineMetrics)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", jobMetrics.Handler())
	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           metricsMux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics_server_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	slog.Info("worker_subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeJobSubmitted(ctx, func(handlerCtx context.Context, jobID string) error {
		if job, err := app.Jobs.GetByID(handlerCtx, jobID); err == nil {
			jobMetrics.ObserveQueueLag(serviceName, time.Since(job.CreatedAt))
		}

		processCtx, cancel := context.WithTimeout(handlerCtx, processTimeout)
		defer cancel()

		start := time.Now()
		jobMetrics.StartJob()
		err := app.ProcessUC.ProcessByID(processCtx, jobID)
		jobMetrics.FinishJob(serviceName, time.Since(start), err)
		if err != nil {
			return err
		}
		slog.Info("job_processed", "job_id", jobID, "duration_ms", time.Since(start).Milliseconds())
		return nil
	})
	if err != nil {
		slog.Error("worker_subscribe_failed", "error", err)
		os.Exit(1)
	}
}
