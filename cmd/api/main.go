package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dan9191/finix/internal/auth"
	"github.com/Dan9191/finix/internal/config"
	"github.com/Dan9191/finix/internal/handler"
	"github.com/Dan9191/finix/internal/insights"
	"github.com/Dan9191/finix/internal/integrations/camt"
	"github.com/Dan9191/finix/internal/jobs"
	"github.com/Dan9191/finix/internal/middleware"
	"github.com/Dan9191/finix/internal/repository"
	"github.com/Dan9191/finix/internal/service"
	"github.com/Dan9191/finix/internal/utils/email"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to open store: %v", err)
	}
	defer closeStore()

	ai, err := insights.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, logger)
	if err != nil {
		logger.Fatalf("Failed to create insights client: %v", err)
	}

	// Initialize layers
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)
	svc := service.NewService(store, logger, service.Options{
		Tokens:         tokens,
		Notifier:       email.NewSender(cfg, logger),
		Insights:       ai,
		Scanner:        ai,
		Statements:     camt.NewParser(logger),
		AlertThreshold: cfg.BudgetAlertThreshold,
	})
	h := handler.NewHandler(svc, logger)
	router := handler.NewRouter(h, tokens, middleware.NewRateLimiter(cfg.RateLimitPerHour), logger)

	queue := jobs.NewQueue(jobs.QueueConfig{
		MaxAttempts:      cfg.JobMaxAttempts,
		PerUserPerMinute: cfg.RecurringPerMinute,
	}, logger)
	scheduler, err := jobs.NewScheduler(svc, queue, jobs.Schedule{
		BudgetAlerts:   cfg.BudgetAlertCron,
		Recurring:      cfg.RecurringCron,
		MonthlyReports: cfg.MonthlyReportCron,
	}, logger)
	if err != nil {
		logger.Fatalf("Failed to create scheduler: %v", err)
	}
	if err := scheduler.Start(ctx); err != nil {
		logger.Fatalf("Failed to start scheduler: %v", err)
	}

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	go func() {
		logger.Infof("Starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("Server failed: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server shutdown failed: %v", err)
	}
	if err := scheduler.Stop(shutdownCtx); err != nil {
		logger.Errorf("Scheduler shutdown failed: %v", err)
	}
}

func openStore(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (repository.Store, func(), error) {
	if cfg.Store == config.StoreMemory {
		logger.Warn("Using in-memory store, data is lost on restart")
		return repository.NewMemory(), func() {}, nil
	}

	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return repository.NewPostgres(db), func() { db.Close() }, nil
}
