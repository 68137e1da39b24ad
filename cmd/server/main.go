package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	httpAdapter "github.com/iho/orgconf/internal/adapter/http"
	"github.com/iho/orgconf/internal/adapter/http/handler"
	"github.com/iho/orgconf/internal/adapter/http/middleware"
	"github.com/iho/orgconf/internal/adapter/oracle"
	postgresRepo "github.com/iho/orgconf/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/orgconf/internal/adapter/repository/redis"
	"github.com/iho/orgconf/internal/infrastructure/config"
	"github.com/iho/orgconf/internal/infrastructure/eventpublisher"
	"github.com/iho/orgconf/internal/infrastructure/logger"
	"github.com/iho/orgconf/internal/infrastructure/logging"
	"github.com/iho/orgconf/internal/infrastructure/metrics"
	"github.com/iho/orgconf/internal/infrastructure/postgres"
	"github.com/iho/orgconf/internal/infrastructure/redis"
	"github.com/iho/orgconf/internal/usecase"
)

const serviceName = "orgconf"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: serviceName,
	})
	workerLog := logging.New(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = log.WithContext(ctx)

	if err := run(ctx, cfg, log, workerLog); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger, workerLog *logging.Logger) error {
	m := metrics.New()

	// Run migrations
	if cfg.RunMigrations {
		if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		log.Info().Str("path", cfg.MigrationsPath).Msg("migrations applied")
	}

	// Connect to PostgreSQL
	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	// Connect to Redis
	redisClient, err := redis.NewClientWithConfig(ctx, redis.ClientConfig{URL: cfg.RedisURL})
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool).WithLockTimeout(cfg.DatabaseLockTimeout)
	entityRepo := postgresRepo.NewEntityRepository(pool, m)
	dependentRepo := postgresRepo.NewDependentDataRepository(pool, m)
	outboxRepo := postgresRepo.NewOutboxRepository(pool, m)
	auditRepo := postgresRepo.NewAuditRepository(pool, m)
	sessionStore := redisRepo.NewSessionStore(redisClient, m)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)
	idGen := postgresRepo.NewULIDGenerator()

	// Location oracle
	locationOracle, err := newOracle(cfg, redisRepo.NewCache(redisClient, redisRepo.OracleNamespace, m))
	if err != nil {
		return err
	}
	log.Info().Str("mode", cfg.OracleMode).Msg("location oracle ready")

	// Initialize use cases
	resolver := usecase.NewLocationResolver(locationOracle, cfg.RichLookupCountry, m)
	guard := usecase.NewAnchorGuard(txManager, dependentRepo, dependentRepo, entityRepo, outboxRepo, auditRepo, idGen, m)
	configUC := usecase.NewEntityConfigUseCase(resolver, guard, usecase.NewUniquenessValidator(), idGen)
	sessionUC := usecase.NewSessionUseCase(
		configUC, resolver, sessionStore, entityRepo, txManager, outboxRepo, auditRepo, idGen, cfg.SessionTTL, m,
	).WithRetrier(postgresRepo.NewRetrier(workerLog.Component("retrier").Logger).WithMetrics(m))
	referenceUC := usecase.NewReferenceUseCase(locationOracle, resolver)
	entityUC := usecase.NewEntityUseCase(entityRepo, auditRepo)

	// Event publishing
	publisher, closePublisher, err := newPublisher(cfg, workerLog)
	if err != nil {
		return err
	}
	defer closePublisher()

	eventPublisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: outboxRepo,
		Publisher:  publisher,
		Logger:     workerLog.Component("outbox").Logger,
		Metrics:    m,
		BatchSize:  cfg.OutboxBatchSize,
		Interval:   cfg.OutboxInterval,
		Retention:  cfg.OutboxRetention,
	})

	// Create router
	var rateLimiter *middleware.RateLimiter
	if cfg.RateLimitRPS > 0 {
		rateLimiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, m)
	}

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		SessionHandler:   handler.NewSessionHandler(sessionUC),
		ReferenceHandler: handler.NewReferenceHandler(referenceUC),
		EntityHandler:    handler.NewEntityHandler(entityUC),
		HealthHandler: handler.NewHealthHandler(pool, handler.PingerFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})),
		IdempotencyStore: idempotencyStore,
		IdempotencyTTL:   cfg.IdempotencyTTL,
		RateLimiter:      rateLimiter,
		Logger:           log,
		Metrics:          m,
		MetricsHandler:   promhttp.Handler(),
		RequireActor:     cfg.RequireActor,
	})

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		if err := eventPublisher.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		runMaintenance(gctx, pool.Stat, rateLimiter, m)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newOracle(cfg *config.Config, cache usecase.Cache) (usecase.LocationOracle, error) {
	var base usecase.LocationOracle
	switch cfg.OracleMode {
	case config.OracleModeHTTP:
		base = oracle.NewHTTPOracle(cfg.OracleURL, cfg.OracleTimeout)
	default:
		mem, err := oracle.NewMemoryOracle()
		if err != nil {
			return nil, fmt.Errorf("load location dataset: %w", err)
		}
		base = mem
	}

	if cfg.OracleCacheTTL <= 0 {
		return base, nil
	}
	return oracle.NewCachedOracle(base, cache, cfg.OracleCacheTTL), nil
}

func newPublisher(cfg *config.Config, workerLog *logging.Logger) (eventpublisher.Publisher, func(), error) {
	if len(cfg.KafkaBrokers) == 0 {
		return eventpublisher.NewLogPublisher(workerLog.Component("events").Logger), func() {}, nil
	}

	kafka, err := eventpublisher.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	if err != nil {
		return nil, nil, fmt.Errorf("create kafka publisher: %w", err)
	}
	return kafka, kafka.Close, nil
}
