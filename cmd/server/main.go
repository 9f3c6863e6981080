package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/zulumai/exam-portal/internal/config"
	"github.com/zulumai/exam-portal/internal/database"
	"github.com/zulumai/exam-portal/internal/handler"
	"github.com/zulumai/exam-portal/internal/logger"
	"github.com/zulumai/exam-portal/internal/questionbank"
	"github.com/zulumai/exam-portal/internal/repository"
	"github.com/zulumai/exam-portal/internal/router"
	"github.com/zulumai/exam-portal/internal/service"
	"github.com/zulumai/exam-portal/internal/storage"
	"github.com/zulumai/exam-portal/internal/validator"
	"github.com/zulumai/exam-portal/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting Exam Portal")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Storage ────────────────────────────────────────────
	store, err := storage.NewProvider(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize file storage")
	}

	// ─── Initialize Repositories ───────────────────────────────────────
	userRepo := repository.NewUserRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	resultRepo := repository.NewResultRepository(pool)
	paymentRepo := repository.NewPaymentRepository(pool)
	settingRepo := repository.NewSettingRepository(pool)

	// ─── Load Question Pools ───────────────────────────────────────────
	// Both pools are loaded into memory BEFORE accepting traffic; a
	// session start only shuffles, it never touches the database.
	bank, err := questionbank.Load(ctx, questionRepo, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load question pools")
	}

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, rdb, userRepo)
	settingService := service.NewSettingService(settingRepo, log)
	recorder := service.NewResultRecorder(rdb, log)
	presenter := service.NewSessionPresenter(bank, settingService, recorder, log)
	accountService := service.NewAccountService(userRepo, resultRepo, store, cfg.EmailDomain, log)
	paymentService := service.NewPaymentService(paymentRepo, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:    handler.NewAuthHandler(authService, accountService),
		Portal:  handler.NewPortalHandler(presenter, accountService),
		Payment: handler.NewPaymentHandler(paymentService),
		Admin:   handler.NewAdminHandler(accountService, settingService),
		Stream:  handler.NewStreamHandler(presenter, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	resultWorker := worker.NewResultWorker(pool, rdb, resultRepo, log)
	go resultWorker.Start(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
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

	// 2. Stop the result worker and wait for its queue to drain.
	workerCancel()
	time.Sleep(2 * time.Second) // Allow the worker to drain.

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
