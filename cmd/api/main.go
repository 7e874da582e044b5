package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"genstudio/internal/adapter/repo"
	"genstudio/internal/http/handlers"
	"genstudio/internal/http/httpapi"
	"genstudio/internal/infra"
	"genstudio/internal/infra/geoip"
	"genstudio/internal/middleware"
	"genstudio/internal/notify"
	"genstudio/internal/providers/generation"
	"genstudio/internal/storage"
	"genstudio/internal/worker"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "api")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer pool.Close()

	jobs := repo.NewJobRepository(pool)
	if err := jobs.EnsureSchema(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to ensure schema")
	}

	storagePath := cfg.StoragePath
	if !filepath.IsAbs(storagePath) {
		if abs, err := filepath.Abs(storagePath); err == nil {
			storagePath = abs
		}
	}
	store, err := storage.NewFileStore(storagePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure storage")
	}

	provider, err := generation.NewClient(generation.Options{
		APIKey:     cfg.ProviderAPIKey,
		BaseURL:    cfg.ProviderBaseURL,
		Model:      cfg.ProviderModel,
		HTTPClient: &http.Client{Timeout: cfg.ProviderTimeout},
		Logger:     &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure generation provider")
	}
	if cfg.ProviderAPIKey == "" {
		logger.Warn().Str("model", provider.Model()).Msg("provider api key missing, using synthetic generation")
	}

	notifier := notify.NewMailer(cfg, logger)
	if cfg.SMTPHost == "" {
		logger.Warn().Msg("smtp not configured, outcome notifications will be logged only")
	}

	executor := worker.NewExecutor(jobs, store, provider, notifier, cfg.ProviderTimeout, logger)
	// Scheduled runs live on their own context so an interrupt does not tear
	// down work already accepted; Drain below bounds how long they get.
	runPool := worker.NewPool(context.Background(), executor, cfg.WorkerConcurrency, logger)

	var lookup middleware.CountryLookup
	if resolver, err := geoip.NewResolver(cfg.GeoIPDBPath); err != nil {
		logger.Warn().Err(err).Msg("geoip unavailable, locale detection falls back to headers")
	} else if resolver != nil {
		lookup = resolver.CountryCode
	}

	app := handlers.NewApp(cfg, logger, jobs, store, runPool)
	router := httpapi.NewRouter(app, cfg, logger, lookup)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}

	drainCtx, cancelDrain := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelDrain()
	if err := runPool.Drain(drainCtx); err != nil {
		logger.Warn().Err(err).Msg("background runs still in flight at shutdown")
	}

	logger.Info().Msg("server stopped")
}
