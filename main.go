package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Eursukkul/stay-booking/config"
	"github.com/Eursukkul/stay-booking/internal/consumer"
	"github.com/Eursukkul/stay-booking/internal/handler"
	"github.com/Eursukkul/stay-booking/internal/middleware"
	"github.com/Eursukkul/stay-booking/internal/notifier"
	"github.com/Eursukkul/stay-booking/internal/policy"
	"github.com/Eursukkul/stay-booking/internal/portone"
	"github.com/Eursukkul/stay-booking/internal/repository"
	"github.com/Eursukkul/stay-booking/internal/service"
	"github.com/Eursukkul/stay-booking/internal/webhook"
	"github.com/Eursukkul/stay-booking/pkg/cache"
	"github.com/Eursukkul/stay-booking/pkg/database"
	"github.com/Eursukkul/stay-booking/pkg/logger"
	"github.com/Eursukkul/stay-booking/pkg/rabbitmq"
	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zl, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer zl.Sync()

	db, err := database.NewPostgresDB(cfg.DSN(), cfg.DBMaxOpenConns)
	if err != nil {
		zl.Fatal("failed to open database", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	// RabbitMQ: confirmation/anomaly publishing and the support re-sync queue
	var (
		confirmations notifier.Notifier
		alerter       notifier.Alerter
		mqConsumer    *rabbitmq.Consumer
	)
	if cfg.RabbitURL != "" {
		pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.NotifyExchange, zl)
		if err != nil {
			zl.Fatal("failed to connect to RabbitMQ", zap.Error(err))
		}
		defer pub.Close()
		amqpNotifier := notifier.NewAMQPNotifier(pub, zl)
		confirmations, alerter = amqpNotifier, amqpNotifier

		mqConsumer, err = rabbitmq.NewConsumer(cfg.RabbitURL, cfg.NotifyExchange, cfg.ResyncQueue, consumer.RoutingPaymentResync, zl)
		if err != nil {
			zl.Fatal("failed to declare re-sync queue", zap.Error(err))
		}
	} else {
		zl.Warn("RABBIT_URL not set, confirmations and alerts are only logged")
		logNotifier := notifier.NewLogNotifier(zl)
		confirmations, alerter = logNotifier, logNotifier
	}

	// Redis: optional seen-delivery fast path
	var seen cache.SeenDeliveries
	if cfg.RedisAddr != "" {
		client := cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := client.Ping(ctx).Err()
		cancel()
		if err != nil {
			zl.Warn("redis unavailable, seen-delivery cache disabled", zap.Error(err))
			client.Close()
		} else {
			defer client.Close()
			seen = cache.NewSeenDeliveries(client, cfg.SeenDeliveryTTL)
		}
	}

	// Repositories
	bookingRepo := repository.NewBookingRepository(db)
	eventRepo := repository.NewWebhookEventRepository(db)

	// Services
	provider := portone.NewClient(
		cfg.PortOneAPIBase,
		cfg.PortOneAPISecret,
		cfg.PortOneTimeout,
		portone.WithRateLimit(cfg.PortOneRPS, int(cfg.PortOneRPS)),
	)
	pol := policy.New(cfg.CancellationLeadDays)
	paymentSvc := service.NewPaymentService(bookingRepo, provider, pol, confirmations, alerter, zl)
	webhookSvc := service.NewWebhookService(
		webhook.NewVerifier(cfg.WebhookSecret, cfg.WebhookTolerance),
		eventRepo,
		seen,
		paymentSvc,
		zl,
	)
	bookingSvc := service.NewBookingService(bookingRepo, pol)

	var consumerDone <-chan struct{}
	if mqConsumer != nil {
		msgs, err := mqConsumer.Consume()
		if err != nil {
			zl.Fatal("failed to start consuming", zap.Error(err))
		}
		consumerDone = consumer.NewResyncConsumer(paymentSvc, zl).Start(context.Background(), msgs)
	}

	// Echo
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.NewErrorHandler(zl)
	e.Use(echoMw.RequestID())
	e.Use(middleware.RequestLogger(zl))
	e.Use(echoMw.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "service": "stay-booking"})
	})

	handler.NewWebhookHandler(webhookSvc).RegisterRoutes(e)
	handler.NewBookingHandler(bookingSvc).RegisterRoutes(e)
	if cfg.AdminToken != "" {
		handler.NewAdminHandler(paymentSvc, webhookSvc, zl).RegisterRoutes(e, cfg.AdminToken)
	} else {
		zl.Warn("ADMIN_TOKEN not set, admin routes disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		zl.Info("stay booking service starting", zap.String("port", cfg.ServerPort))
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zl.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		zl.Error("http shutdown", zap.Error(err))
	}

	if mqConsumer != nil {
		mqConsumer.Close()
		select {
		case <-consumerDone:
		case <-shutdownCtx.Done():
			zl.Warn("re-sync consumer did not stop in time")
		}
	}
}
