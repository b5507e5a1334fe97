package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joho/godotenv"

	"componentlab/internal/adapter/repo"
	"componentlab/internal/infra"
	"componentlab/internal/infra/credentials"
	"componentlab/internal/lifecycle"
	"componentlab/internal/providers/compiler"
	"componentlab/internal/providers/generation"
	"componentlab/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.Component(infra.NewLogger(cfg.AppEnv), "worker")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg, "worker")
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	runner := infra.NewSQLRunner(pool, logger)
	if err := infra.EnsureSchema(ctx, runner); err != nil {
		logger.Fatal().Err(err).Msg("worker: schema setup failed")
	}

	creds := credentials.NewStore(runner)
	generator := generation.NewOpenAIGenerator(generation.OpenAIOptions{
		Key:             creds.KeySource(credentials.ProviderOpenAI, cfg.OpenAIAPIKey),
		Model:           cfg.OpenAIModel,
		BaseURL:         cfg.OpenAIBaseURL,
		Organization:    cfg.OpenAIOrg,
		ReasoningEffort: cfg.OpenAIReasoningEffort,
		OutputField:     cfg.GenerationOutputField,
		HTTPClient:      &http.Client{Timeout: 2 * time.Minute},
		OnResumeRejected: func(handle string, status int) {
			logger.Warn().Str("handle", handle).Int("status", status).Msg("worker: resume handle rejected, starting fresh")
		},
	})

	opts := lifecycle.Options{
		Prompts:     repo.NewPromptRepository(runner),
		Events:      repo.NewEventLog(runner, logger),
		Generator:   generator,
		Compiler:    compiler.NewESBuildCompiler(),
		Logger:      logger,
		BatchSize:   cfg.WorkerBatchSize,
		MaxAttempts: cfg.WorkerMaxAttempts,
		CallTimeout: cfg.WorkerCallTimeout,
	}
	if cfg.StoragePath != "" {
		store, err := storage.NewFileStore(cfg.StoragePath)
		if err != nil {
			logger.Fatal().Err(err).Str("path", cfg.StoragePath).Msg("worker: storage init failed")
		}
		opts.Mirror = store
	}

	engine, err := lifecycle.NewEngine(opts)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: engine setup failed")
	}

	g, gctx := errgroup.WithContext(ctx)

	var wake <-chan struct{}
	if cfg.WorkerWakeOnNotify {
		listener, err := infra.NewWakeListener(cfg.DatabaseURL, infra.PromptQueuedChannel, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("worker: wake listener unavailable, polling only")
		} else {
			defer listener.Close()
			wake = listener.C()
			logger.Info().Str("channel", infra.PromptQueuedChannel).Msg("worker: listening for wake-ups")
			g.Go(func() error { return listener.Run(gctx) })
		}
	}

	g.Go(func() error {
		return engine.Run(gctx, cfg.WorkerPollInterval, wake)
	})

	if err := runFailure(g.Wait()); err != nil {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}

// runFailure drops the cancellation that a normal shutdown produces.
func runFailure(err error) error {
	if err == nil || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
