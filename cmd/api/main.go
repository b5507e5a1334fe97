package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"componentlab/internal/adapter/repo"
	"componentlab/internal/http/handlers"
	httpapi "componentlab/internal/http/httpapi"
	"componentlab/internal/infra"
	"componentlab/internal/infra/credentials"
	"componentlab/internal/infra/geoip"
	"componentlab/internal/providers/title"
	"componentlab/internal/storage"
)

const shutdownTimeout = 15 * time.Second

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.Component(infra.NewLogger(cfg.AppEnv), "api")
	if err := cfg.RequireAPI(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbpool, err := infra.NewDBPool(ctx, cfg, "api")
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	sqlRunner := infra.NewSQLRunner(dbpool, logger)
	if err := infra.EnsureSchema(ctx, sqlRunner); err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare schema")
	}

	creds := credentials.NewStore(sqlRunner)
	httpClient := &http.Client{Timeout: 20 * time.Second}
	onTitleFallback := func(reason string, err error) {
		logger.Debug().Err(err).Str("reason", reason).Msg("title: using fallback")
	}
	titles := title.New(title.Options{
		Provider: cfg.TitleProvider,
		OpenAI: title.OpenAIOptions{
			Key:          creds.KeySource(credentials.ProviderOpenAI, cfg.OpenAIAPIKey),
			BaseURL:      cfg.OpenAIBaseURL,
			Organization: cfg.OpenAIOrg,
			HTTPClient:   httpClient,
			OnFallback:   onTitleFallback,
		},
		Gemini: title.GeminiOptions{
			Key:        creds.KeySource(credentials.ProviderGemini, cfg.GeminiAPIKey),
			Model:      cfg.GeminiModel,
			BaseURL:    cfg.GeminiBaseURL,
			HTTPClient: httpClient,
			OnFallback: onTitleFallback,
		},
	})

	app := &handlers.App{
		Prompts:        repo.NewPromptRepository(sqlRunner),
		Events:         repo.NewEventLog(sqlRunner, logger),
		Titles:         titles,
		Notifier:       repo.NewQueueNotifier(sqlRunner),
		DB:             dbpool,
		Logger:         logger,
		StorageBaseURL: cfg.StorageBaseURL,
		EventsLimit:    cfg.PromptEventsLimit,
	}

	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	} else if resolver != nil {
		defer resolver.Close()
		app.Geo = resolver
	}

	if cfg.StoragePath != "" {
		store, err := storage.NewFileStore(cfg.StoragePath)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to open preview storage")
		}
		app.Previews = store
	}

	router := httpapi.NewRouter(app, httpapi.Options{
		JWTSecret:       cfg.JWTSecret,
		AllowedOrigins:  cfg.CORSAllowedOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
		Logger:          logger,
	})
	server := infra.NewHTTPServer(cfg, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", server.Addr()).Msg("api listening")
		return server.Start()
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("api stopped with error")
		return
	}
	logger.Info().Msg("api stopped")
}
