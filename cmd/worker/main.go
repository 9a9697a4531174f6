package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/dentora/dentora/internal/app"
	"github.com/dentora/dentora/internal/catalog"
	"github.com/dentora/dentora/internal/invoicing"
	jobmetrics "github.com/dentora/dentora/internal/jobs"
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
		slog.Default().Info("test mode detected, skipping worker startup")
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

	seq := sequence.NewService(redisClient, logger, cfg.QuoteNumberPrefix)

	patientRepo := patients.NewRepository(pool)
	patientService := patients.NewService(patientRepo)

	catalogRepo := catalog.NewRepository(pool)
	catalogService := catalog.NewService(catalogRepo)

	quoteRepo := quotes.NewRepository(pool)
	quoteService := quotes.NewService(quoteRepo, seq, catalogService, patientService, nil, logger)

	invoiceRepo := invoicing.NewRepository(pool)
	invoiceService := invoicing.NewService(invoiceRepo, quoteService, seq, logger)

	reportClient := report.NewClient(cfg.GotenbergURL)
	reportService := report.NewService(reportClient, quoteService, patientService, redisClient, logger)

	metrics := jobmetrics.NewMetrics(nil)
	renderJob := jobs.NewRenderPDFJob(reportService, logger, metrics)
	reconcileJob := jobs.NewInvoiceReconcileJob(invoiceService, logger, metrics)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskQuoteRenderPDF, Handler: renderJob.Handle},
			{Type: jobs.TaskInvoiceReconcile, Handler: reconcileJob.Handle},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("worker starting", slog.String("redis", cfg.RedisAddr))
	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
