package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/0xcro3dile/resume-intel/internal/adapters/embedding"
	"github.com/0xcro3dile/resume-intel/internal/adapters/filestore"
	"github.com/0xcro3dile/resume-intel/internal/adapters/learning"
	"github.com/0xcro3dile/resume-intel/internal/adapters/llm"
	"github.com/0xcro3dile/resume-intel/internal/adapters/parser"
	"github.com/0xcro3dile/resume-intel/internal/adapters/retry"
	"github.com/0xcro3dile/resume-intel/internal/adapters/storage/memstore"
	"github.com/0xcro3dile/resume-intel/internal/adapters/storage/sqlstore"
	"github.com/0xcro3dile/resume-intel/internal/config"
	"github.com/0xcro3dile/resume-intel/internal/domain/ports"
	"github.com/0xcro3dile/resume-intel/internal/domain/usecases"
	"github.com/0xcro3dile/resume-intel/internal/logger"
	"github.com/0xcro3dile/resume-intel/internal/secrets"
)

// store is what both persistence backends provide.
type store interface {
	ports.ResumeRepository
	ports.EmbeddingStore
	ports.FeedbackRepository
	ports.ApplicationRepository
	ports.UserRepository
	Close() error
}

// application holds the wired services shared by serve and watch.
type application struct {
	cfg    *config.Config
	logger *zap.Logger
	store  store
	queue  *usecases.JobQueue

	resumes     *usecases.ResumeService
	suggestions *usecases.SuggestionService
	feedback    *usecases.FeedbackRecorder
	insights    *usecases.InsightsService
}

func newLogger() (*zap.Logger, error) {
	return logger.New(viper.GetBool("json"), viper.GetBool("debug"))
}

func openStore(ctx context.Context, cfg config.StorageConfig, log *zap.Logger) (store, error) {
	switch cfg.Driver {
	case "memory":
		return memstore.New(), nil
	case "sqlite":
		return sqlstore.Open(ctx, sqlstore.SQLite, cfg.DSN, log)
	case "postgres":
		return sqlstore.Open(ctx, sqlstore.Postgres, cfg.DSN, log)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func buildApp(ctx context.Context, log *zap.Logger) (*application, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	llmKey, err := secrets.LoadOptional(secrets.Source{Name: "llm api key", Value: cfg.LLM.APIKey, File: cfg.LLM.APIKeyFile})
	if err != nil {
		return nil, err
	}
	generator, err := llm.New(ctx, llm.Config{
		Provider:  cfg.LLM.Provider,
		Model:     cfg.LLM.Model,
		BaseURL:   cfg.LLM.BaseURL,
		APIKey:    llmKey,
		MaxTokens: cfg.LLM.MaxTokens,
		Retries:   retry.Config{MaxRetries: cfg.LLM.MaxRetries},
	}, log)
	if err != nil {
		return nil, fmt.Errorf("creating llm: %w", err)
	}

	embKey, err := secrets.LoadOptional(secrets.Source{Name: "embedding api key", Value: cfg.Embedding.APIKey, File: cfg.Embedding.APIKeyFile})
	if err != nil {
		return nil, err
	}
	embedder, err := embedding.New(ctx, embedding.Config{
		Provider: cfg.Embedding.Provider,
		Model:    cfg.Embedding.Model,
		BaseURL:  cfg.Embedding.BaseURL,
		APIKey:   embKey,
		Retries:  retry.Config{MaxRetries: cfg.Embedding.MaxRetries},
	}, log)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	st, err := openStore(ctx, cfg.Storage, log)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	extractor := parser.NewRouter(
		parser.NewPlainTextExtractor(),
		parser.NewServiceExtractor(cfg.Extractor.ServiceURL, cfg.Extractor.Timeout, log),
	)

	var hook ports.LearningHook = learning.NewLogHook(log)
	if cfg.Feedback.HookURL != "" {
		hook = learning.NewWebhookHook(cfg.Feedback.HookURL, cfg.Feedback.HookTimeout, retry.Config{}, log)
	}

	structurer := usecases.NewStructurer(generator, cfg.Pipeline.StructuringTemperature, log)
	structurer.SetMaxLogLength(cfg.Log.MaxLength)
	pipeline := usecases.NewIngestPipeline(structurer, embedder, st, st, cfg.Pipeline.MaxAttempts, log)
	queue := usecases.NewJobQueue(pipeline, cfg.Pipeline.Workers, cfg.Pipeline.QueueSize, log)

	app := &application{
		cfg:    cfg,
		logger: log,
		store:  st,
		queue:  queue,
		resumes: usecases.NewResumeService(
			extractor, filestore.NewOS(cfg.Files.Dir), st, st, st, queue, log),
		suggestions: usecases.NewSuggestionService(
			st, st,
			usecases.NewRetriever(embedder, st, cfg.Retrieval.TopK),
			usecases.NewSynthesizer(generator),
			usecases.NewDirectMatcher(),
			usecases.NewClassifier(cfg.Retrieval.Thresholds()),
			log),
		feedback: usecases.NewFeedbackRecorder(st, st, hook, cfg.Feedback.HookTimeout, log),
		insights: usecases.NewInsightsService(st, generator, log),
	}

	log.Info("services ready",
		zap.String("storage", cfg.Storage.Driver),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.Int("workers", cfg.Pipeline.Workers))
	return app, nil
}

// close drains background work, then releases the store.
func (a *application) close(ctx context.Context) error {
	var errs []error
	if err := a.queue.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("closing job queue: %w", err))
	}
	if err := a.feedback.Drain(ctx); err != nil {
		errs = append(errs, fmt.Errorf("draining feedback hooks: %w", err))
	}
	if err := a.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing store: %w", err))
	}
	return errors.Join(errs...)
}
