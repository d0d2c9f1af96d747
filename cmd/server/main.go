package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oerms/oerms-backend/internal/config"
	"github.com/oerms/oerms-backend/internal/database"
	"github.com/oerms/oerms-backend/internal/handler"
	"github.com/oerms/oerms-backend/internal/logger"
	"github.com/oerms/oerms-backend/internal/rbac"
	"github.com/oerms/oerms-backend/internal/repository"
	"github.com/oerms/oerms-backend/internal/router"
	"github.com/oerms/oerms-backend/internal/service"
	"github.com/oerms/oerms-backend/internal/validator"
	"github.com/oerms/oerms-backend/internal/worker"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("env", cfg.AppEnv).
		Str("token_revocation", string(cfg.TokenRevocation)).
		Msg("Starting OERMS Backend")

	// ─── Initialize Validator & Permission Registry ────────────────────
	validator.Setup()

	registry := rbac.NewRegistry()
	if err := registry.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Role grant table is inconsistent")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	// ─── Initialize Repositories ───────────────────────────────────────
	accountRepo := repository.NewAccountRepository(pool)
	institutionRepo := repository.NewInstitutionRepository(pool)
	staffRepo := repository.NewStaffRepository(pool)
	studentRepo := repository.NewStudentRepository(pool)
	examRepo := repository.NewExamRepository(pool)
	registrationRepo := repository.NewRegistrationRepository(pool)
	resultRepo := repository.NewResultRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	authService, err := service.NewAuthService(cfg, registry, accountRepo, rdb, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize auth service")
	}

	cacheTTL := time.Duration(cfg.PublicCacheSeconds) * time.Second
	notificationService := service.NewNotificationService(notificationRepo, rdb)
	institutionService := service.NewInstitutionService(institutionRepo, rdb, authService, cacheTTL, log)
	staffService := service.NewStaffService(staffRepo, accountRepo, institutionRepo, authService, log)
	studentService := service.NewStudentService(studentRepo, accountRepo, institutionRepo, authService, notificationService, log)
	examService := service.NewExamService(examRepo, authService, log)
	registrationService := service.NewRegistrationService(registrationRepo, examRepo, studentRepo, notificationService, authService, log)
	resultService := service.NewResultService(resultRepo, registrationRepo, examRepo, studentRepo, notificationService, authService, log)
	analyticsService := service.NewAnalyticsService(resultRepo, registrationRepo, examRepo, staffRepo, studentRepo, institutionRepo, authService, log)
	publicService := service.NewPublicService(resultRepo, examRepo, institutionRepo, studentRepo, rdb, cacheTTL, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:         handler.NewAuthHandler(authService),
		Institution:  handler.NewInstitutionHandler(institutionService),
		Staff:        handler.NewStaffHandler(staffService),
		Student:      handler.NewStudentHandler(studentService),
		Exam:         handler.NewExamHandler(examService, resultService),
		Registration: handler.NewRegistrationHandler(registrationService),
		Result:       handler.NewResultHandler(resultService),
		Analytics:    handler.NewAnalyticsHandler(analyticsService),
		Public:       handler.NewPublicHandler(publicService),
		Notification: handler.NewNotificationHandler(notificationService),
		WS:           handler.NewWSHandler(notificationService, authService, log, cfg.AllowedOrigins),
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg, log)

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Run Server & Background Workers ──────────────────────────────
	// Workers get their own context so they can drain after the HTTP
	// server stops accepting requests.
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	notificationWorker := worker.NewNotificationWorker(notificationRepo, rdb, cfg.NotificationBatchSize, log)

	var workers errgroup.Group
	workers.Go(func() error {
		notificationWorker.Start(workerCtx)
		return nil
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down gracefully...")

		// 1. Stop accepting new HTTP requests (5s timeout).
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("HTTP server shutdown error")
		}

		// 2. Stop background workers and wait for queues to drain.
		workerCancel()
		return workers.Wait()
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server error")
		os.Exit(1)
	}
	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
