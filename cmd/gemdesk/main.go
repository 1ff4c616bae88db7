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

	"github.com/gemdesk/gemdesk/internal/app"
	"github.com/gemdesk/gemdesk/internal/auth"
	"github.com/gemdesk/gemdesk/internal/catalog"
	"github.com/gemdesk/gemdesk/internal/customers"
	"github.com/gemdesk/gemdesk/internal/engagement"
	"github.com/gemdesk/gemdesk/internal/insights"
	"github.com/gemdesk/gemdesk/internal/markup"
	"github.com/gemdesk/gemdesk/internal/observability"
	"github.com/gemdesk/gemdesk/internal/platform/cache"
	"github.com/gemdesk/gemdesk/internal/platform/db"
	"github.com/gemdesk/gemdesk/internal/quotation"
	"github.com/gemdesk/gemdesk/internal/shared"
	"github.com/gemdesk/gemdesk/jobs"
	"github.com/gemdesk/gemdesk/report"
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

	auditLogger := shared.NewAuditLogger(pool)
	gate, err := shared.NewBcryptGate(cfg.DiscountUnlockHash)
	if err != nil {
		logger.Error("configure discount gate", slog.Any("error", err))
		os.Exit(1)
	}

	tokens := auth.NewTokenStore(redisClient, cfg.SessionTTL)
	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, tokens)

	markupRepo := markup.NewRepository(pool)
	markupHandler := markup.NewHandler(logger, markupRepo)
	catalogRepo := catalog.NewRepository(pool)
	catalogService := catalog.NewService(catalogRepo, markupRepo, auditLogger)
	catalogHandler := catalog.NewHandler(logger, catalogService)

	customerRepo := customers.NewRepository(pool)
	customerService := customers.NewService(customerRepo)
	customerHandler := customers.NewHandler(logger, customerService)

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := asynqClient.Close(); err != nil {
			logger.Warn("asynq close", slog.Any("error", err))
		}
	}()
	publisher := jobs.NewPublisher(asynqClient)

	engagementRepo := engagement.NewRepository(pool)
	engagementService := engagement.NewService(logger, engagementRepo, customerRepo, publisher, publisher, auditLogger)
	engagementService.SetPaymentDue(time.Duration(cfg.PaymentDueHours) * time.Hour)
	engagementHandler := engagement.NewHandler(logger, engagementService)

	quotationRepo := quotation.NewRepository(pool)
	quotationService := quotation.NewService(
		logger,
		quotationRepo,
		catalogRepo,
		customerRepo,
		quotation.NewUnitOfWork(pool),
		engagementService,
		gate,
		auditLogger,
		cfg.QuotationValidDays,
	)
	quotationHandler := quotation.NewHandler(logger, quotationService)

	insightsService := insights.NewService(pool)
	insightsHandler := insights.NewHandler(logger, insightsService)

	pdfClient := report.NewClient(cfg.GotenbergURL)
	pdfRenderer, err := report.NewRenderer(pdfClient)
	if err != nil {
		logger.Error("init pdf renderer", slog.Any("error", err))
		os.Exit(1)
	}
	reportHandler := report.NewHandler(logger, pdfClient, pdfRenderer, quotationService)

	metrics := observability.NewMetrics()
	engagementHandler.SetMetrics(metrics)
	quotationHandler.SetMetrics(metrics)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		Tokens:            tokens,
		AuthHandler:       authHandler,
		CatalogHandler:    catalogHandler,
		CustomerHandler:   customerHandler,
		EngagementHandler: engagementHandler,
		QuotationHandler:  quotationHandler,
		MarkupHandler:     markupHandler,
		InsightsHandler:   insightsHandler,
		ReportHandler:     reportHandler,
		JobHandler:        jobHandler,
		Metrics:           metrics,
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
