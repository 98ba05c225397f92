package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vendorlens/vendorlens/internal/canonical"
	"github.com/vendorlens/vendorlens/internal/classify"
	"github.com/vendorlens/vendorlens/internal/config"
	"github.com/vendorlens/vendorlens/internal/core/ports"
	"github.com/vendorlens/vendorlens/internal/core/usecase"
	"github.com/vendorlens/vendorlens/internal/infrastructure/llm/ollama"
	"github.com/vendorlens/vendorlens/internal/infrastructure/ocr"
	"github.com/vendorlens/vendorlens/internal/infrastructure/queue/nats"
	"github.com/vendorlens/vendorlens/internal/infrastructure/repository/postgres"
	"github.com/vendorlens/vendorlens/internal/infrastructure/resilience"
	"github.com/vendorlens/vendorlens/internal/infrastructure/storage/localfs"
	"github.com/vendorlens/vendorlens/internal/normalize"
	"github.com/vendorlens/vendorlens/internal/profile"
	"github.com/vendorlens/vendorlens/internal/rules"
)

type App struct {
	Config   config.Config
	Registry *profile.Registry

	Queue     ports.MessageQueue
	JobsUC    ports.JobService
	ProcessUC ports.JobProcessor
	SynonymUC ports.SynonymService

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	registry, err := profile.Load()
	if err != nil {
		return nil, fmt.Errorf("load domain profiles: %w", err)
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	jobRepo := postgres.NewJobRepository(db)
	extractionStore := postgres.NewExtractionStore(db)
	synonymRepo := postgres.NewSynonymRepository(db)
	if err := synonymRepo.SeedIfEmpty(ctx, canonical.Seed()); err != nil {
		return nil, fmt.Errorf("seed synonym map: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.Config{BreakerEnabled: cfg.ResilienceEnabled})

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
		Logger:             logger,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	parser := ocr.NewParser(cfg.OCRWorkerURL, storage, logger, ocr.Options{
		Timeout:            time.Duration(cfg.OCRTimeoutSecs) * time.Second,
		ResilienceExecutor: executor,
	})

	llmClient := ollama.New(cfg.OllamaURL, cfg.OllamaModel, logger, ollama.Options{
		Timeout:            time.Duration(cfg.LLMTimeoutSecs) * time.Second,
		RequestsPerSecond:  cfg.OllamaRPS,
		ResilienceExecutor: executor,
	})
	semantic := ollama.NewExtractor(llmClient)

	classifier, err := classify.New(registry)
	if err != nil {
		return nil, fmt.Errorf("init classifier: %w", err)
	}
	ruleEngine := rules.NewEngine()
	normalizer := normalize.New()

	jobsUC := usecase.NewJobUseCase(jobRepo, extractionStore, storage, queue, registry)
	processUC := usecase.NewProcessJobUseCase(
		jobRepo, extractionStore, synonymRepo,
		parser, semantic,
		registry, classifier, ruleEngine, normalizer,
		logger,
	)
	synonymUC := usecase.NewSynonymUseCase(synonymRepo)

	return &App{
		Config:   cfg,
		Registry: registry,

		Queue:     queue,
		JobsUC:    jobsUC,
		ProcessUC: processUC,
		SynonymUC: synonymUC,

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
