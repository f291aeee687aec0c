package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rabbitmq/amqp091-go"

	"tasty-burger-backend/internal/config"
	"tasty-burger-backend/internal/controller"
	"tasty-burger-backend/internal/middleware"
	"tasty-burger-backend/internal/phonepe"
	"tasty-burger-backend/internal/rabbit"
	"tasty-burger-backend/internal/repository"
	"tasty-burger-backend/internal/server"
	"tasty-burger-backend/internal/service"
)

func main() {
	// .env es opcional: en producción las variables vienen del entorno
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger); err != nil {
		logger.Error("server stopped", "error", err)
		stop()
		os.Exit(1)
	}
}

// run arma el servicio y bloquea hasta que ctx se cancela. Toda la limpieza
// queda en defers de run, así un error no la saltea.
func run(ctx context.Context, logger *slog.Logger) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Conexión a MongoDB
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	mongoClient, db, err := repository.Connect(connectCtx, cfg.MongoURI, cfg.MongoDBName)
	cancel()
	if err != nil {
		return fmt.Errorf("mongo connect: %w", err)
	}
	defer mongoClient.Disconnect(context.Background())

	if err := repository.EnsureIndexes(ctx, db); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}

	// Redis para el cache de productos
	redisClient := repository.NewRedisClient(cfg.Redis)
	defer redisClient.Close()

	// Repositorios
	orderRepo := repository.NewMongoOrderRepository(db)
	userRepo := repository.NewMongoUserRepository(db)
	productRepo := repository.NewMongoProductRepository(db)
	productCache := repository.NewRedisProductCache(redisClient, cfg.Redis.TTL, logger)

	// RabbitMQ: sin broker los eventos se omiten y el barrido corre en línea
	var (
		events   service.EventPublisher
		enqueuer controller.ReconcileEnqueuer
		amqpCh   *amqp091.Channel
	)
	conn, err := amqp091.Dial(cfg.RabbitURL)
	if err != nil {
		logger.Warn("rabbitmq unavailable, events disabled", "error", err)
	} else {
		defer conn.Close()
		amqpCh, err = conn.Channel()
		if err != nil {
			return fmt.Errorf("rabbitmq channel: %w", err)
		}
		defer amqpCh.Close()
		if err := rabbit.Declare(amqpCh); err != nil {
			return fmt.Errorf("rabbitmq declare: %w", err)
		}
		pub := rabbit.NewPublisher(amqpCh, logger)
		events = pub
		enqueuer = pub
	}

	// Servicios
	signer := phonepe.NewSigner(&cfg.PhonePe)
	gateway := phonepe.NewClient(cfg, signer, logger)

	authService := service.NewAuthService(userRepo, cfg.JWT, logger)
	catalogService := service.NewCatalogService(productRepo, productCache, logger)
	cartService := service.NewCartService(userRepo, productRepo)
	orderService := service.NewOrderService(orderRepo, userRepo, productRepo, events, logger)
	userService := service.NewUserService(userRepo, orderRepo, productRepo, logger)
	paymentService := service.NewPaymentService(
		orderRepo, gateway, events, service.NewTxnIDGenerator(),
		signer, cfg.PhonePe.VerifyCallback, logger,
	)

	if amqpCh != nil {
		if err := rabbit.SetupConsumers(ctx, amqpCh, paymentService, cfg.Sweep, logger); err != nil {
			return fmt.Errorf("rabbitmq consumer: %w", err)
		}
	}
	if cfg.Sweep.Interval > 0 {
		go runSweeper(ctx, paymentService, cfg.Sweep, logger)
	}

	router := server.NewRouter(server.Deps{
		Auth:     controller.NewAuthController(authService),
		Products: controller.NewProductController(catalogService),
		Cart:     controller.NewCartController(cartService),
		Orders:   controller.NewOrderController(orderService),
		Users:    controller.NewUserController(userService),
		Payments: controller.NewPaymentController(paymentService, enqueuer, cfg.Sweep),
		Tokens:   authService,
		Limiter:  middleware.NewRateLimiter(cfg.Limits.RPS, cfg.Limits.Burst),
		Checks: map[string]server.Checker{
			"mongo": server.CheckFunc(func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) }),
			"redis": server.CheckFunc(func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }),
		},
		Logger: logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("tasty burger backend listening", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// runSweeper reconcilia periódicamente los pagos que quedaron en pending.
func runSweeper(ctx context.Context, payments *service.PaymentService, sweep config.SweepConfig, logger *slog.Logger) {
	ticker := time.NewTicker(sweep.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := payments.ReconcileStale(ctx, sweep.OlderThan, sweep.Limit); err != nil {
				logger.Error("scheduled reconcile failed", "error", err)
			}
		}
	}
}
