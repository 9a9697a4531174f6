package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/dentora/dentora/internal/app"
	"github.com/dentora/dentora/internal/audit"
	"github.com/dentora/dentora/internal/catalog"
	"github.com/dentora/dentora/internal/invoicing"
	"github.com/dentora/dentora/internal/observability"
	"github.com/dentora/dentora/internal/patients"
	"github.com/dentora/dentora/internal/platform/cache"
	"github.com/dentora/dentora/internal/platform/db"
	"github.com/dentora/dentora/internal/quotes"
	"github.com/dentora/dentora/internal/sequence"
	"github.com/dentora/dentora/jobs"
	"github.com/dentora/dentora/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	seq := sequence.NewService(redisClient, logger, cfg.QuoteNumberPrefix)
	auditLogger := audit.NewLogger(pool, logger)

	patientRepo := patients.NewRepository(pool)
	patientService := patients.NewService(patientRepo)
	patientHandler := patients.NewHandler(logger, patientService)

	catalogRepo := catalog.NewRepository(pool)
	catalogService := catalog.NewService(catalogRepo)
	catalogHandler := catalog.NewHandler(logger, catalogService)

	quoteRepo := quotes.NewRepository(pool)
	quoteService := quotes.NewService(quoteRepo, seq, catalogService, patientService, auditLogger, logger)
	quoteHandler := quotes.NewHandler(logger, quoteService, metrics)

	invoiceRepo := invoicing.NewRepository(pool)
	invoiceService := invoicing.NewService(invoiceRepo, quoteService, seq, logger)
	invoiceHandler := invoicing.NewHandler(logger, invoiceService)

	queueClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("connect queue", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := queueClient.Close(); err != nil {
			logger.Warn("queue client close", slog.Any("error", err))
		}
	}()

	reportClient := report.NewClient(cfg.GotenbergURL)
	reportService := report.NewService(reportClient, quoteService, patientService, redisClient, logger)
	reportHandler := report.NewHandler(reportService, queueClient, logger)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		PatientsHandler:  patientHandler,
		CatalogHandler:   catalogHandler,
		QuotesHandler:    quoteHandler,
		InvoicingHandler: invoiceHandler,
		ReportHandler:    reportHandler,
		JobsHandler:      jobsHandler,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
