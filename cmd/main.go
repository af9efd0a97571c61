package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/VarZ-96/VibeCommerce-Cart/internal/auth"
	"github.com/VarZ-96/VibeCommerce-Cart/internal/cache"
	"github.com/VarZ-96/VibeCommerce-Cart/internal/clock"
	"github.com/VarZ-96/VibeCommerce-Cart/internal/config"
	h "github.com/VarZ-96/VibeCommerce-Cart/internal/http"
	"github.com/VarZ-96/VibeCommerce-Cart/internal/logger"
	"github.com/VarZ-96/VibeCommerce-Cart/internal/metrics"
	"github.com/VarZ-96/VibeCommerce-Cart/internal/payment"
	"github.com/VarZ-96/VibeCommerce-Cart/internal/publisher"
	"github.com/VarZ-96/VibeCommerce-Cart/internal/repository"
	"github.com/VarZ-96/VibeCommerce-Cart/internal/service"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "token" {
		os.Exit(runToken(os.Args[2:]))
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Options{Mode: cfg.LogMode, Filename: cfg.LogFile})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	creds := &repository.Credentials{
		Host:              cfg.DB.Host,
		Port:              cfg.DB.Port,
		User:              cfg.DB.User,
		Password:          cfg.DB.Password,
		DBName:            cfg.DB.Name,
		SSLMode:           cfg.DB.SSLMode,
		MigrationsDirPath: cfg.MigrationsPath,
		MaxOpenConns:      cfg.DB.MaxOpenConns,
		MaxIdleConns:      cfg.DB.MaxIdleConns,
		ConnMaxLifetime:   cfg.DB.ConnMaxLifetime,
		ConnectTimeout:    cfg.DB.ConnectTimeout,
	}
	repo, err := repository.NewRepository(creds)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer repo.Close()

	if err := repo.RunMigrations(creds); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	log.Info("database migrations completed", zap.String("host", cfg.DB.Host), zap.String("db", cfg.DB.Name))

	clk := clock.NewSystem()
	m := metrics.New()

	productCache, closeCache, err := newProductCache(ctx, cfg, clk)
	if err != nil {
		return err
	}
	defer closeCache()
	log.Info("product cache ready", zap.String("backend", cfg.ProductCache))

	gateway := payment.NewGatewayClient(payment.GatewayConfig{
		BaseURL:   cfg.Payment.GatewayURL,
		KeyID:     cfg.Payment.KeyID,
		KeySecret: cfg.Payment.KeySecret,
		Timeout:   cfg.Payment.Timeout,
	}, log.Named("gateway"))

	catalog := service.NewCatalogService(repo, productCache, m, log.Named("catalog"))
	carts := service.NewCartService(repo, repo, log.Named("cart"))
	payments := service.NewPaymentService(repo, gateway, cfg.Payment.Currency, clk, log.Named("payment"))
	checkout := service.NewCheckoutService(
		repo,
		payment.NewVerifier(cfg.Payment.KeySecret),
		catalog,
		clk,
		m,
		log.Named("checkout"),
		cfg.CheckoutTxTimeout,
	)
	orders := service.NewOrderService(repo)

	var wg sync.WaitGroup
	if len(cfg.KafkaBrokers) > 0 {
		writer := publisher.NewKafkaWriter(cfg.KafkaTopic, cfg.KafkaBrokers...)
		poller := publisher.NewOutboxPoller(repo, writer, log.Named("outbox"))
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer writer.Close()
			poller.Run(ctx)
		}()
		log.Info("outbox relay started", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
	} else {
		log.Warn("KAFKA_BROKERS not set, order events stay in the outbox")
	}

	router := h.NewRouter(h.RouterConfig{
		Products:           h.NewProductHandler(catalog, log),
		Cart:               h.NewCartHandler(carts, log),
		Payment:            h.NewPaymentHandler(payments, checkout, log),
		Orders:             h.NewOrdersHandler(orders, log),
		Auth:               auth.NewAuthenticator(cfg.JWTSecret),
		Health:             repo,
		Metrics:            m,
		Logger:             log.Named("http"),
		RequestTimeout:     cfg.RequestTimeout,
		MaxRequestBodySize: cfg.MaxRequestBodySize,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "vibecommerce-cart"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("http server starting", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		stop()
		wg.Wait()
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	wg.Wait()

	log.Info("server exited")
	return nil
}

func newProductCache(ctx context.Context, cfg *config.Config, clk clock.Clock) (cache.ProductCache, func(), error) {
	if cfg.ProductCache != "redis" {
		return cache.NewMemoryCache(clk), func() {}, nil
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		_ = redisClient.Close()
		return nil, nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return cache.NewRedisCache(redisClient), func() { _ = redisClient.Close() }, nil
}

// runToken mints a bearer token for local testing against a running server.
func runToken(args []string) int {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	userID := fs.Int64("user", 0, "user id to embed in the token")
	email := fs.String("email", "", "email to embed in the token")
	ttl := fs.Duration("ttl", time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *userID <= 0 {
		fmt.Fprintln(os.Stderr, "token: -user must be a positive id")
		return 2
	}

	secret := config.Load().JWTSecret
	if secret == "" {
		fmt.Fprintln(os.Stderr, "token: JWT_SECRET is required")
		return 1
	}

	token, err := auth.NewAuthenticator(secret).NewToken(*userID, *email, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "token: %v\n", err)
		return 1
	}
	fmt.Println(token)
	return 0
}
