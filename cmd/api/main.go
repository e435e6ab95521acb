package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/kursadbilgin/funnel-engine/internal/config"
	"github.com/kursadbilgin/funnel-engine/internal/handler"
	"github.com/kursadbilgin/funnel-engine/internal/infra/postgresql"
	"github.com/kursadbilgin/funnel-engine/internal/infra/postgresql/migrations"
	infraredis "github.com/kursadbilgin/funnel-engine/internal/infra/redis"
	"github.com/kursadbilgin/funnel-engine/internal/observability"
	"github.com/kursadbilgin/funnel-engine/internal/queue"
	"github.com/kursadbilgin/funnel-engine/internal/repository"
	"github.com/kursadbilgin/funnel-engine/internal/service"
	"github.com/kursadbilgin/funnel-engine/internal/transport"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config", zap.Error(err))
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal("failed to initialize logger", zap.Error(err))
	}
	defer logger.Sync() //nolint:errcheck

	db, err := postgresql.NewPostgres(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("postgres initialization failed", zap.Error(err))
	}

	if err := migrations.Migrate(db); err != nil {
		logger.Fatal("database migrations failed", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("postgres underlying db init failed", zap.Error(err))
	}
	defer sqlDB.Close()

	rdb, err := infraredis.NewRedis(cfg.RedisURL)
	if err != nil {
		logger.Fatal("redis initialization failed", zap.Error(err))
	}
	defer rdb.Close()

	locker, err := infraredis.NewRedisCallLocker(rdb, time.Duration(cfg.CallLockTTLSec)*time.Second)
	if err != nil {
		logger.Fatal("call locker initialization failed", zap.Error(err))
	}

	mq, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
	if err != nil {
		logger.Fatal("rabbitmq initialization failed", zap.Error(err))
	}
	defer mq.Close()
	publisher := queue.NewRabbitMQPublisher(mq)

	metrics := observability.NewMetrics()

	callRepo := repository.NewGormCallRepo(db)
	attemptRepo := repository.NewGormAttemptRepo(db)
	historyRepo := repository.NewGormHistoryRepo(db)
	agentRepo := repository.NewGormAgentRepo(db)
	commRepo := repository.NewGormCommunicationRepo(db)
	txm := repository.NewGormTxManager(db)

	dispositionService, err := service.NewDispositionService(txm, agentRepo, locker, cfg.NoContactLimit, logger, metrics)
	if err != nil {
		logger.Fatal("disposition service initialization failed", zap.Error(err))
	}

	assignmentService, err := service.NewAssignmentService(txm, agentRepo, logger, metrics)
	if err != nil {
		logger.Fatal("assignment service initialization failed", zap.Error(err))
	}

	callService, err := service.NewCallService(callRepo, attemptRepo, historyRepo, txm, cfg.MaxImportSize, logger)
	if err != nil {
		logger.Fatal("call service initialization failed", zap.Error(err))
	}

	communicationService, err := service.NewCommunicationService(commRepo, callRepo, agentRepo, publisher, logger, metrics)
	if err != nil {
		logger.Fatal("communication service initialization failed", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		AppName:      "funnel-engine",
		ErrorHandler: transport.ErrorHandler(logger),
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(metrics.HTTPMiddleware())

	handler.RegisterHealthRoutes(app, sqlDB, rdb)

	metricsHandler := fasthttpadaptor.NewFastHTTPHandler(metrics.Handler())
	app.Get("/metrics", func(c *fiber.Ctx) error {
		metricsHandler(c.Context())
		return nil
	})

	if err := handler.RegisterCallRoutes(app, callService, dispositionService, assignmentService); err != nil {
		logger.Fatal("call routes registration failed", zap.Error(err))
	}
	if err := handler.RegisterCommunicationRoutes(app, communicationService); err != nil {
		logger.Fatal("communication routes registration failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("funnel-engine api started", zap.Int("port", cfg.APIPort))
		return app.Listen(fmt.Sprintf(":%d", cfg.APIPort))
	})
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down")
		return app.ShutdownWithTimeout(shutdownTimeout)
	})

	if err := g.Wait(); err != nil {
		logger.Error("api stopped", zap.Error(err))
	}
}
