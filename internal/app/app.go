package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ecom/internal/cache"
	"github.com/vladislavdragonenkov/ecom/internal/domain"
	"github.com/vladislavdragonenkov/ecom/internal/health"
	"github.com/vladislavdragonenkov/ecom/internal/messaging/kafka"
	authsvc "github.com/vladislavdragonenkov/ecom/internal/service/auth"
	catalogsvc "github.com/vladislavdragonenkov/ecom/internal/service/catalog"
	idempotencysvc "github.com/vladislavdragonenkov/ecom/internal/service/idempotency"
	ordersvc "github.com/vladislavdragonenkov/ecom/internal/service/order"
	outboxsvc "github.com/vladislavdragonenkov/ecom/internal/service/outbox"
	reviewsvc "github.com/vladislavdragonenkov/ecom/internal/service/review"
	usersvc "github.com/vladislavdragonenkov/ecom/internal/service/user"
	"github.com/vladislavdragonenkov/ecom/internal/storage/memory"
	"github.com/vladislavdragonenkov/ecom/internal/storage/postgres"
	httptransport "github.com/vladislavdragonenkov/ecom/internal/transport/http"
	"github.com/vladislavdragonenkov/ecom/internal/version"
)

const shutdownTimeout = 5 * time.Second

// storageSet — набор репозиториев поверх выбранного драйвера хранилища.
type storageSet struct {
	uow         domain.OrderUnitOfWork
	users       domain.UserRepository
	categories  domain.CategoryRepository
	products    domain.ProductRepository
	orders      domain.OrderRepository
	reviews     domain.ReviewRepository
	outbox      domain.OutboxRepository
	idempotency domain.IdempotencyRepository
	timeline    domain.TimelineRepository

	checker health.Checker
	close   func() error
}

// Run собирает зависимости и держит HTTP- и metrics-серверы до отмены контекста.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	storage, err := buildStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if storage.close != nil {
			if err := storage.close(); err != nil {
				logger.WithError(err).Warn("failed to close storage")
			}
		}
	}()

	// Redis-кэш каталога опционален.
	var productCache *cache.ProductCache
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient, err = cache.NewClient(ctx, cfg.RedisAddr)
		if err != nil {
			logger.WithError(err).Warn("redis unavailable, continuing without product cache")
		} else {
			productCache = cache.NewProductCache(redisClient, logger.WithField("component", "product-cache"))
			logger.WithField("addr", cfg.RedisAddr).Info("redis product cache enabled")
		}
	}
	defer func() {
		if redisClient != nil {
			_ = redisClient.Close()
		}
	}()

	userSvc := usersvc.NewService(storage.users, logger.WithField("component", "user-service"))
	authSvc := authsvc.NewService(userSvc, cfg.JWTSecret, cfg.TokenTTL, logger.WithField("component", "auth-service"))
	catalogSvc := catalogsvc.NewService(storage.categories, storage.products, productCache, logger.WithField("component", "catalog-service"))
	orderSvc := ordersvc.NewService(storage.uow, storage.orders, storage.timeline, logger.WithField("component", "order-service"))
	reviewSvc := reviewsvc.NewService(storage.reviews, storage.products, orderSvc, productCache, logger.WithField("component", "review-service"))

	// Kafka producer и outbox worker опциональны: без брокеров события
	// копятся в outbox до появления publisher.
	var kafkaProducer *kafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		kafkaProducer, err = kafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
		} else {
			logger.WithField("brokers", cfg.KafkaBrokers).Info("kafka producer initialized")
		}
	}
	defer func() {
		if kafkaProducer != nil {
			if err := kafkaProducer.Close(); err != nil {
				logger.WithError(err).Warn("failed to close kafka producer")
			}
		}
	}()

	if kafkaProducer != nil {
		worker := outboxsvc.NewWorker(
			storage.outbox,
			kafka.NewOutboxPublisher(kafkaProducer, kafka.TopicOrderEvents),
			outboxsvc.WithLogger(logger.WithField("component", "outbox-worker")),
			outboxsvc.WithDLQPublisher(kafka.NewOutboxPublisher(kafkaProducer, kafka.TopicDeadLetterQueue)),
			outboxsvc.WithPollInterval(cfg.OutboxPollInterval),
			outboxsvc.WithBatchSize(cfg.OutboxBatchSize),
			outboxsvc.WithMaxAttempts(cfg.OutboxMaxAttempts),
		)
		go worker.Run(ctx)
	}

	cleanup := idempotencysvc.NewCleanupWorker(
		storage.idempotency,
		idempotencysvc.WithLogger(logger.WithField("component", "idempotency-cleanup")),
		idempotencysvc.WithInterval(cfg.IdempotencyCleanupInterval),
	)
	go cleanup.Run(ctx)

	healthHandler := health.NewHandler(version.Info().Version)
	if storage.checker != nil {
		healthHandler.RegisterChecker("storage", storage.checker)
	}
	if redisClient != nil {
		healthHandler.RegisterChecker("redis", health.NewSimpleChecker("redis", func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return redisClient.Ping(pingCtx).Err()
		}))
	}

	server := httptransport.NewServer(httptransport.Deps{
		Orders:         orderSvc,
		Catalog:        catalogSvc,
		Users:          userSvc,
		Auth:           authSvc,
		Reviews:        reviewSvc,
		Idempotency:    storage.idempotency,
		IdempotencyTTL: cfg.IdempotencyTTL,
		Health:         healthHandler,
		Logger:         logger.WithField("component", "http-server"),
	})

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	apiSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: server.Router()}
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP API слушает %s", cfg.HTTPAddr)
		errCh <- apiSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем HTTP сервер")
		shutdownHTTP(apiSrv, logger)
		shutdownHTTP(metricsSrv, logger)
		return ctx.Err()
	case err := <-errCh:
		shutdownHTTP(metricsSrv, logger)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// buildStorage инициализирует хранилище по выбранному драйверу.
func buildStorage(ctx context.Context, cfg Config, logger *log.Entry) (*storageSet, error) {
	switch cfg.StorageDriver {
	case StoragePostgres:
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			_ = store.Close()
			return nil, err
		}
		logger.Info("postgres storage initialized, migrations applied")
		return &storageSet{
			uow:         postgres.NewOrderUnitOfWork(store),
			users:       postgres.NewUserRepository(store),
			categories:  postgres.NewCategoryRepository(store),
			products:    postgres.NewProductRepository(store),
			orders:      postgres.NewOrderRepository(store),
			reviews:     postgres.NewReviewRepository(store),
			outbox:      postgres.NewOutboxRepository(store),
			idempotency: postgres.NewIdempotencyRepository(store),
			timeline:    postgres.NewTimelineRepository(store),
			checker: health.NewSimpleChecker("postgres", func() error {
				pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				return store.Ping(pingCtx)
			}),
			close: store.Close,
		}, nil
	case StorageMemory:
		store := memory.NewStore()
		outboxRepo := memory.NewOutboxRepository()
		logger.Info("in-memory storage initialized")
		return &storageSet{
			uow:         memory.NewOrderUnitOfWork(store, outboxRepo),
			users:       memory.NewUserRepository(store),
			categories:  memory.NewCategoryRepository(store),
			products:    memory.NewProductRepository(store),
			orders:      memory.NewOrderRepository(store),
			reviews:     memory.NewReviewRepository(store),
			outbox:      outboxRepo,
			idempotency: memory.NewIdempotencyRepository(),
			timeline:    memory.NewTimelineRepository(),
		}, nil
	default:
		return nil, errors.New("unsupported storage driver: " + cfg.StorageDriver)
	}
}

// startMetricsServer запускает HTTP-обработчик /metrics для Prometheus.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *health.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)
	mux.HandleFunc("/livez", health.LivenessHandler)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}
