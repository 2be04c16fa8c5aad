package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantprep/backend/internal/catalog"
	"github.com/quantprep/backend/internal/config"
	"github.com/quantprep/backend/internal/database"
	"github.com/quantprep/backend/internal/handler"
	"github.com/quantprep/backend/internal/logger"
	"github.com/quantprep/backend/internal/repository"
	"github.com/quantprep/backend/internal/router"
	"github.com/quantprep/backend/internal/service"
	"github.com/quantprep/backend/internal/store"
	"github.com/quantprep/backend/internal/validator"
	"github.com/quantprep/backend/internal/worker"
)

func main() {
	cfg := config.Load()

	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting QuantPrep Backend")

	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The catalog is the product; refuse to start without it.
	questions, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.CatalogPath).Msg("Failed to load question catalog")
	}
	log.Info().Int("questions", len(questions)).Str("path", cfg.CatalogPath).Msg("Catalog loaded")

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	userRepo := repository.NewUserRepository(pool)
	resultRepo := repository.NewResultRepository(pool)

	sessionStore := store.NewSessionStore(rdb, 0)

	authService := service.NewAuthService(cfg, userRepo, rdb)
	syncService := service.NewSyncService(rdb, resultRepo, log)
	examService := service.NewExamService(cfg, questions, sessionStore, syncService, log)

	handlers := &router.Handlers{
		Auth:      handler.NewAuthHandler(authService),
		Catalog:   handler.NewCatalogHandler(questions),
		Exam:      handler.NewExamHandler(examService),
		Dashboard: handler.NewDashboardHandler(syncService, questions),
		WS:        handler.NewWSHandler(examService, log, cfg.AllowedOrigins),
	}

	// Background worker draining the mirror queue to PostgreSQL.
	workerCtx, workerCancel := context.WithCancel(context.Background())

	syncWorker := worker.NewSyncWorker(resultRepo, rdb, log)
	go syncWorker.Start(workerCtx)

	r := router.SetupRouter(authService, handlers, cfg)

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Checkpoint and stop live exam engines. Their snapshots stay in
	// Redis, so in-progress sessions resume after a restart.
	examService.CloseAll()

	// 3. Stop the sync worker and wait for the mirror queue to drain.
	workerCancel()
	time.Sleep(2 * time.Second) // Allow the worker to drain.

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
