package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/archive"
	"storefront/internal/cache"
	"storefront/internal/cart"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/handler"
	"storefront/internal/messaging"
	"storefront/internal/metrics"
	"storefront/internal/payment"
	"storefront/internal/repository"
	"storefront/internal/router"
	"storefront/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// orderPublisher is implemented by both the Kafka producer and the log publisher.
type orderPublisher interface {
	service.EventPublisher
	Close() error
}

func run() error {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting storefront API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	pricing, err := cfg.Pricing.Parse()
	if err != nil {
		return fmt.Errorf("invalid pricing configuration: %w", err)
	}

	// Initialize repositories
	productRepo := repository.NewProductRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)

	healthChecks := map[string]handler.Pinger{"postgres": pool}

	// Cart persistence: Redis when enabled, otherwise process memory
	var persister cart.Persister
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()

		redisStore := cache.NewRedisCartStore(client, cfg.Redis.TTL())
		if err := redisStore.Ping(ctx); err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		persister = redisStore
		healthChecks["redis"] = redisStore
		logger.Info().Str("address", cfg.Redis.Addr).Msg("using redis for carts")
	} else {
		persister = cache.NewMemoryCartStore()
		logger.Warn().Msg("redis disabled, carts are kept in memory and lost on restart")
	}
	cartStore := cart.NewStore(persister, cart.Pricing(pricing), logger)

	// Order events: Kafka when enabled, otherwise the log
	var publisher orderPublisher
	if cfg.Kafka.Enabled {
		publisher = messaging.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
		logger.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("publishing order events to kafka")
	} else {
		publisher = messaging.NewLogPublisher(logger)
		logger.Info().Msg("kafka disabled, order events are only logged")
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close event publisher")
		}
	}()

	evidence := newArchiver(ctx, cfg, logger)

	m := metrics.New()
	gateway := payment.NewRazorpayClient(cfg.Gateway, logger)

	// Initialize services
	productService := service.NewProductService(productRepo, logger)
	cartService := service.NewCartService(cartStore, productRepo, logger)
	orderService := service.NewOrderService(orderRepo, cartStore.Pricing(), m, logger)
	paymentService := service.NewPaymentService(orderRepo, gateway, cartStore, publisher, evidence, m, service.PaymentConfig{
		KeyID:         cfg.Gateway.KeyID,
		KeySecret:     cfg.Gateway.KeySecret,
		WebhookSecret: cfg.Gateway.WebhookSecret,
	}, logger)

	// Initialize router
	mux := router.New(router.Handlers{
		Health:   handler.NewHealthHandler(healthChecks, logger),
		Product:  handler.NewProductHandler(productService, logger),
		Cart:     handler.NewCartHandler(cartService, logger),
		Order:    handler.NewOrderHandler(orderService, cartService, logger),
		Checkout: handler.NewCheckoutHandler(orderService, paymentService, logger),
		Webhook:  handler.NewWebhookHandler(paymentService, logger),
		Admin:    handler.NewAdminHandler(orderService, logger),
		Metrics:  m.Handler(),
	}, cfg.Auth.APIKey, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second + cfg.Gateway.TimeoutDuration(),
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		// Create a context with timeout for shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// Attempt graceful shutdown
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			// Force close
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// newArchiver stores signature evidence in S3 with a local fallback, or
// locally only when S3 is disabled or unavailable.
func newArchiver(ctx context.Context, cfg *config.Config, logger zerolog.Logger) archive.Archiver {
	fileArchiver := archive.NewFileArchiver(cfg.Archive.Dir, logger)

	if !cfg.S3.Enabled {
		logger.Info().Str("dir", cfg.Archive.Dir).Msg("using local file system for payment evidence (S3 disabled)")
		return fileArchiver
	}

	s3Archiver, err := archive.NewS3Archiver(ctx, cfg.S3.Bucket, cfg.S3.Region, cfg.S3.Prefix, logger)
	if err != nil {
		logger.Warn().
			Err(err).
			Msg("failed to initialise S3 archiver, falling back to local file system only")
		return fileArchiver
	}

	return archive.NewFallbackArchiver(s3Archiver, fileArchiver, logger)
}
