package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vendorlens/vendorlens/internal/bootstrap"
	"github.com/vendorlens/vendorlens/internal/config"
	"github.com/vendorlens/vendorlens/internal/observability/logging"
	"github.com/vendorlens/vendorlens/internal/observability/metrics"
)

const serviceName = "vendorlens-worker"

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger(serviceName, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", workerMetrics.Handler())
		logger.Info("worker_metrics_listening", "port", cfg.WorkerMetricsPort)
		if err := http.ListenAndServe(":"+cfg.WorkerMetricsPort, mux); err != nil && err != http.ErrServerClosed {
			logger.Error("worker_metrics_server", "error", err)
		}
	}()

	logger.Info("worker_subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeJobProcess(ctx, func(handlerCtx context.Context, jobID string) error {
		processCtx, cancel := context.WithTimeout(handlerCtx, 15*time.Minute)
		defer cancel()

		workerMetrics.StartJob()
		start := time.Now()
		processErr := app.ProcessUC.ProcessJob(processCtx, jobID)
		workerMetrics.FinishJob(serviceName, time.Since(start), processErr)

		if view, err := app.JobsUC.GetStatus(processCtx, jobID); err == nil && view.Job != nil {
			workerMetrics.RecordJobUsage(serviceName, view.Job.Metrics.PagesTotal, view.Job.Metrics.CostEstimate)
		}
		return processErr
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}
