package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"cybertronic/internal/config"
	"cybertronic/internal/dispatch"
	"cybertronic/internal/handlers"
	"cybertronic/internal/mailer"
	"cybertronic/internal/metrics"
	"cybertronic/internal/middleware"
	"cybertronic/internal/payments"
	"cybertronic/internal/repositories"
	"cybertronic/internal/services"
	"cybertronic/pkg/kafka"
	"cybertronic/pkg/rabbitmq"
	"cybertronic/pkg/redisx"
)

const (
	localQueueBuffer = 256
	relayBatch       = 100
)

// App holds the HTTP server, the fulfillment workers and every client they share.
type App struct {
	Fiber *fiber.App

	log          *zap.Logger
	relay        *dispatch.Relay
	startWorkers func(ctx context.Context) error
	waitWorkers  func()
	closers      []func() error
}

// NewApp builds the application from configuration. Nothing runs until Start.
func NewApp(ctx context.Context, cfg config.Config, log *zap.Logger, reg *prometheus.Registry) (_ *App, err error) {
	app := &App{log: log, waitWorkers: func() {}}
	defer func() {
		if err != nil {
			_ = app.Close()
		}
	}()

	// --- Database ---
	db, err := repositories.Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, func() error { return closeDB(db) })
	if err := repositories.Migrate(db); err != nil {
		return nil, err
	}

	productRepo := repositories.NewGORMProductRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)
	userRepo := repositories.NewGORMUserRepository(db)
	subscriberRepo := repositories.NewGORMSubscriberRepository(db)
	fulfillmentRepo := repositories.NewGORMFulfillmentRepository(db)

	m := metrics.New(reg)

	// --- Payment provider ---
	gateway := payments.NewGateway(cfg.StripeSecretKey, payments.Options{
		Currency:         cfg.Currency,
		AllowedCountries: cfg.AllowedCountries,
		SuccessURL:       cfg.SuccessURL,
		CancelURL:        cfg.CancelURL,
	})
	verifier := payments.NewVerifier(cfg.StripeWebhookSecret)

	// --- Mail ---
	var mail mailer.Mailer = mailer.NewLogMailer(log)
	if cfg.SMTPHost != "" {
		mail = mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFrom)
	}

	// --- Order events ---
	var events services.OrderEvents = services.NopOrderEvents{}
	if len(cfg.KafkaBrokers) > 0 {
		producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaOrderTopic)
		app.closers = append(app.closers, producer.Close)
		events = services.NewKafkaOrderEvents(producer, cfg.ServiceName)
		log.Info("order_events_enabled", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaOrderTopic))
	}

	// --- Webhook dedup ---
	var dedup services.EventDeduper
	if cfg.RedisAddr != "" {
		rdb := redisx.New(cfg.RedisAddr)
		app.closers = append(app.closers, rdb.Close)
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			log.Warn("redis_unreachable", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		cancel()
		dedup = redisx.NewDeduper(rdb, "webhook")
	}

	// --- Fulfillment queue ---
	var jobs services.FulfillmentJobs
	var process dispatch.Handler
	if cfg.RabbitMQURL != "" {
		client, err := rabbitmq.NewClient(rabbitmq.Config{
			URL:    cfg.RabbitMQURL,
			Queues: []string{dispatch.FulfillmentQueue},
			Logger: log,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize RabbitMQ client: %w", err)
		}
		app.closers = append(app.closers, client.Close)
		q := dispatch.NewRabbitQueue(client, dispatch.FulfillmentQueue, log)
		jobs = q
		app.startWorkers = func(ctx context.Context) error { return q.Start(ctx, process) }
	} else {
		q := dispatch.NewLocalQueue(cfg.FulfillmentWorkers, localQueueBuffer, log)
		jobs = q
		app.startWorkers = func(ctx context.Context) error {
			q.Start(ctx, process)
			return nil
		}
		app.waitWorkers = q.Wait
	}

	// --- Services ---
	authService := services.NewAuthService(userRepo, cfg.JWTSecret, log)
	productService := services.NewProductService(productRepo)
	orderService := services.NewOrderService(orderRepo, events, log)
	stockService := services.NewStockService(productRepo, m, log)
	receiptService := services.NewReceiptService(gateway, mail, log)
	fulfillmentService := services.NewFulfillmentService(
		fulfillmentRepo, orderService, stockService, receiptService, jobs,
		services.FulfillmentConfig{
			MaxAttempts: cfg.FulfillmentMaxAttempts,
			RetryBase:   cfg.FulfillmentRetryBase,
			RelayLease:  dispatch.JobTimeout,
		},
		m, log,
	)
	process = fulfillmentService.Process
	app.relay = dispatch.NewRelay(fulfillmentService, jobs, cfg.FulfillmentRelayInterval, relayBatch, log)

	if cfg.SeedCatalog {
		n, err := productService.SeedCatalog(ctx, services.DemoCatalog())
		if err != nil {
			return nil, err
		}
		log.Info("catalog_seeded", zap.Int("products", n))
	}
	if _, err := authService.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return nil, fmt.Errorf("bootstrap admin user: %w", err)
	}

	// --- HTTP ---
	f := fiber.New(fiber.Config{AppName: cfg.ServiceName})
	f.Use(recover.New())
	f.Use(logger.New())
	f.Use(middleware.RequestLogger(log))

	handlers.Routes{
		Checkout:     handlers.NewCheckoutHandler(services.NewCheckoutService(gateway, m, log)),
		Webhook:      handlers.NewWebhookHandler(verifier, fulfillmentService, dedup, m, log),
		Inventory:    handlers.NewInventoryHandler(productService, orderService, log),
		Subscription: handlers.NewSubscriptionHandler(services.NewSubscriptionService(subscriberRepo, log), log),
		Auth:         handlers.NewAuthHandler(authService, log),
		Orders:       handlers.NewOrderHandler(orderService, log),
		Fulfillments: handlers.NewFulfillmentHandler(fulfillmentService, log),
		AuthService:  authService,
		Logger:       log,
	}.Register(f)

	f.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	f.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	app.Fiber = f
	return app, nil
}

// Start launches the fulfillment workers and the relay. They stop when ctx is done.
func (a *App) Start(ctx context.Context) error {
	if err := a.startWorkers(ctx); err != nil {
		return fmt.Errorf("start fulfillment workers: %w", err)
	}
	go a.relay.Run(ctx)
	a.log.Info("fulfillment_workers_started")
	return nil
}

// Close waits for in-flight jobs and releases every client, newest first.
func (a *App) Close() error {
	a.waitWorkers()
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func closeDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
