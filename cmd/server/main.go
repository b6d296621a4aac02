package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/lautarok/yourstack/internal/config"
	"github.com/lautarok/yourstack/internal/database"
	"github.com/lautarok/yourstack/internal/handler"
	"github.com/lautarok/yourstack/internal/logger"
	"github.com/lautarok/yourstack/internal/repository"
	"github.com/lautarok/yourstack/internal/router"
	"github.com/lautarok/yourstack/internal/service"
	"github.com/lautarok/yourstack/internal/validator"
	"github.com/lautarok/yourstack/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("exam_source", cfg.ExamSource).
		Str("log_level", cfg.LogLevel).
		Msg("Starting YourStack exams")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Exam Source ───────────────────────────────────────────────────
	var source repository.ExamSource
	switch cfg.ExamSource {
	case config.ExamSourcePostgres:
		pool, err := database.NewPostgresPool(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
		}
		defer pool.Close()
		source = repository.NewExamRepository(pool)
	case config.ExamSourceFile:
		source = repository.NewFileExamRepository(cfg.ExamsRoot, cfg.ExamsIndex)
		log.Info().
			Str("root", cfg.ExamsRoot).
			Str("index", cfg.ExamsIndex).
			Msg("Serving exams from files")
	default:
		log.Fatal().Str("exam_source", cfg.ExamSource).Msg("Unknown EXAM_SOURCE")
	}

	// ─── Connect to Redis (optional) ───────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	if rdb != nil {
		defer rdb.Close()
	}

	// ─── Initialize Services ──────────────────────────────────────────
	examService := service.NewExamService(source, rdb, cfg.ExamCacheTTL, log)
	sessionService := service.NewSessionService(examService, service.SessionOptions{
		TTL:                cfg.SessionTTL,
		TickInterval:       cfg.TickInterval,
		RequireAllAnswered: cfg.RequireAllAnswered,
	}, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Exam:    handler.NewExamHandler(examService, log),
		Session: handler.NewSessionHandler(sessionService, log),
		WS:      handler.NewWSHandler(sessionService, log, cfg.AllowedOrigins),
		System:  handler.NewSystemHandler(rdb, sessionService, log),
	}

	// ─── Prewarm Redis Caches ─────────────────────────────────────────
	// Load every exam into Redis BEFORE accepting traffic.
	if err := examService.PrewarmAllCaches(ctx); err != nil {
		log.Warn().Err(err).Msg("Cache prewarm failed")
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	workerDone := make(chan struct{})

	if rdb != nil {
		refreshWorker := worker.NewCacheRefreshWorker(examService, cfg.CacheRefreshInterval, log)
		go func() {
			defer close(workerDone)
			refreshWorker.Start(workerCtx)
		}()
	} else {
		close(workerDone)
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
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

	// 2. Stop every countdown; open streams receive a closed event.
	sessionService.Shutdown()

	// 3. Stop background workers.
	workerCancel()
	<-workerDone

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
