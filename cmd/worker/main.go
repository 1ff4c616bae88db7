package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/gemdesk/gemdesk/internal/app"
	"github.com/gemdesk/gemdesk/internal/catalog"
	"github.com/gemdesk/gemdesk/internal/customers"
	"github.com/gemdesk/gemdesk/internal/engagement"
	"github.com/gemdesk/gemdesk/internal/platform/db"
	"github.com/gemdesk/gemdesk/internal/quotation"
	"github.com/gemdesk/gemdesk/internal/shared"
	"github.com/gemdesk/gemdesk/jobs"
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
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := asynqClient.Close(); err != nil {
			logger.Warn("asynq close", slog.Any("error", err))
		}
	}()
	publisher := jobs.NewPublisher(asynqClient)

	auditLogger := shared.NewAuditLogger(pool)
	gate, err := shared.NewBcryptGate(cfg.DiscountUnlockHash)
	if err != nil {
		logger.Error("init discount gate", slog.Any("error", err))
		os.Exit(1)
	}

	catalogRepo := catalog.NewRepository(pool)
	customerRepo := customers.NewRepository(pool)

	engagementRepo := engagement.NewRepository(pool)
	engagementService := engagement.NewService(logger, engagementRepo, customerRepo, publisher, publisher, auditLogger)
	engagementService.SetPaymentDue(time.Duration(cfg.PaymentDueHours) * time.Hour)

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

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers:  jobs.NewHandlers(logger, engagementService, quotationService),
		Cron:      jobs.DefaultCron(),
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
