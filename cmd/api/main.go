package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hotelbooking/internal/api"
	"hotelbooking/internal/config"
	"hotelbooking/internal/database"
	"hotelbooking/internal/domain"
	"hotelbooking/internal/events"
	"hotelbooking/internal/inventory"
	"hotelbooking/internal/logging"
	"hotelbooking/internal/metrics"
	"hotelbooking/internal/notify"
	"hotelbooking/internal/repository"
	"hotelbooking/internal/service"
	"hotelbooking/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	redisClient := initRedis(cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}
	cache := initCache(redisClient, &logger)

	notifier, notifierCloser := initNotifier(cfg, &logger)
	if notifierCloser != nil {
		defer (func() { _ = notifierCloser.Close() })()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := events.NewEventBus()
	notifications := worker.NewNotificationWorker(db, notifier, redisClient, worker.DefaultRetryPolicy(),
		cfg.Notifications.QueueSize, &logger)
	notifications.Subscribe(bus)

	svc := wireServices(cfg, db, cache, bus, &logger)

	auth := api.NewAuthenticator(&cfg.API)
	grpcServer, err := api.NewGRPCServer(&cfg.API, db, auth, &logger)
	if err != nil {
		logger.Error().Err(err).Msg("create grpc server")
		return err
	}
	httpServer := api.NewHTTPServer(cfg.API, svc, auth, &logger)

	go notifications.Start(ctx)
	go worker.NewHoldSweeper(db, cfg.Booking.SweepInterval, &logger).Start(ctx)
	if cfg.Backup.Enabled {
		go database.NewBackupService(db, cfg.Backup, &logger).Start(ctx)
	}
	startMetrics(ctx, cfg, &logger)

	return startServers(ctx, grpcServer, httpServer, cfg, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if _, err := redisClient.Ping(pingCtx).Result(); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		_ = redisClient.Close()
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

// initCache prefers Redis and falls back to process memory when it is absent
// or starts failing.
func initCache(redisClient *redis.Client, logger *zerolog.Logger) domain.CacheStore {
	memory := repository.NewMemoryStore()
	if redisClient == nil {
		return memory
	}
	return repository.NewFailoverStore(repository.NewRedisStore(redisClient, "hotelbooking"), memory, logger)
}

func initNotifier(cfg *config.Config, logger *zerolog.Logger) (domain.Notifier, io.Closer) {
	if cfg.Notifications.AMQPURL == "" {
		return notify.NewLogNotifier(logger), nil
	}

	publisher, err := notify.DialAMQP(cfg.Notifications, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("amqp init failed, notifications will only be logged")
		return notify.NewLogNotifier(logger), nil
	}

	logger.Info().Str("exchange", cfg.Notifications.Exchange).Msg("amqp connected")
	return publisher, publisher
}

func wireServices(
	cfg *config.Config,
	db *database.DB,
	cache domain.CacheStore,
	bus *events.EventBus,
	logger *zerolog.Logger,
) api.Services {
	client := inventory.NewClient(cfg.Inventory, logger)
	guests := service.NewGuestResolver(db, client, logger)

	reservations := service.NewReservationService(
		inventory.NewResolver(client, logger),
		service.NewHoldManager(db, cfg.Booking.HoldTTL, logger),
		guests,
		service.NewBookingCommitter(client, db, bus, cfg.Booking.InitialStatusID, logger),
		logger,
	)

	return api.Services{
		Reservations:  reservations,
		Cancellations: service.NewCancellationService(client, db, db, db, cache, bus, cfg.Booking, logger),
		Queries:       service.NewBookingQueryService(db, db, logger),
		Pricing:       inventory.NewPricing(client, cache, cfg.Pricing.CacheTTL, cfg.Booking.WorkerPoolSize, logger),
		Guests:        guests,
		Promotions:    service.NewPromotionService(db, logger),
		Stats:         service.NewStatsService(db, cfg.Booking.WorkerPoolSize, logger),
		Store:         db,
	}
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startServers(
	ctx context.Context,
	grpcServer *api.GRPCServer,
	httpServer *api.HTTPServer,
	cfg *config.Config,
	logger *zerolog.Logger,
) error {
	go grpcServer.RunProbe(ctx)

	go func() {
		if !cfg.API.GRPC.Enabled {
			return
		}
		if err := grpcServer.Serve(); err != nil {
			logger.Error().Err(err).Msg("grpc server stopped")
		}
	}()

	go func() {
		if !cfg.API.HTTP.Enabled {
			return
		}
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	logger.Info().Str("grpc_addr", grpcServer.Addr()).Int("http_port", cfg.API.HTTP.Port).Msg("API server started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	grpcServer.Shutdown(shutdownCtx)
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("http shutdown")
	}

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
