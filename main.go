package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"prodcat/catalogworker/config"
	"prodcat/catalogworker/internal/api"
	"prodcat/catalogworker/internal/catalog"
	"prodcat/catalogworker/internal/pipeline"
	"prodcat/catalogworker/internal/spider"
	"prodcat/catalogworker/logger"
	"prodcat/catalogworker/services/cache"
	"prodcat/catalogworker/services/dispatch"
	"prodcat/catalogworker/services/proxy"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Str("server_addr", cfg.ServerAddr).
		Int("concurrency", cfg.Concurrency).
		Msg("Starting application")

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Initialize services
	services, err := initializeServices(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer services.Cleanup()

	// Spider runtime
	registry := spider.NewRegistry(cfg, services.Proxy)
	metrics := spider.NewMetrics()
	fetcher := spider.NewFetcher(cfg.RequestTimeout, services.Cache, cfg.FetchBlockTime)
	processor := pipeline.NewProductProcessor(services.Store)
	engine := spider.NewEngine(fetcher, processor, cfg.Concurrency, metrics)

	// Job queue
	dispatcher := dispatch.NewDispatcher(services.Redis, cfg.JobQueueKey, registry)
	runner := dispatch.NewRunner(engine, registry)
	worker := dispatch.NewWorker(services.Redis, cfg.JobQueueKey, runner, cfg.JobTimeout, cfg.JobMaxAttempts)
	scheduler := dispatch.NewScheduler(dispatcher, registry, cfg.ScheduleAt)

	go worker.Start(ctx)
	go scheduler.Start(ctx)

	// HTTP API
	handlers := api.NewHandlers(services.Store, dispatcher)
	server := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: api.NewRouter(handlers, metrics.Registry),
	}

	serverDone := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.ServerAddr).Msg("HTTP server listening")
		serverDone <- server.ListenAndServe()
	}()

	// Wait for shutdown signal or server error
	select {
	case sig := <-sigChan:
		log.Info().
			Str("signal", sig.String()).
			Msg("Received shutdown signal")
	case err := <-serverDone:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("HTTP server exited with error")
		}
	}

	// Graceful shutdown
	log.Info().Msg("Shutting down gracefully...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
}

// Services holds all the initialized services
type Services struct {
	Store *catalog.PostgresStore
	Redis *redis.Client
	Cache cache.CacheService
	Proxy *proxy.Client
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.Store != nil {
		s.Store.Close()
	}
	if s.Redis != nil {
		s.Redis.Close()
	}
}

// initializeServices initializes all required services
func initializeServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	services := &Services{}

	// Catalog store
	store, err := catalog.NewPostgresStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		store.Close()
		return nil, err
	}
	services.Store = store

	logger.Info("Connected to Postgres")

	// Job queue
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		store.Close()
		return nil, err
	}
	services.Redis = rdb

	logger.Info("Connected to Redis at %s (DB: %d, Queue: %s)",
		cfg.RedisAddr, cfg.RedisDB, cfg.JobQueueKey)

	// Rate-limit block cache
	services.Cache = cache.NewMemcacheService(cfg.MemcacheAddr)

	logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)

	// Proxy allocation service
	if cfg.UseProxy {
		services.Proxy = proxy.NewClient(cfg.ProxyServiceURL)
		logger.Info("Proxy allocation enabled at %s", cfg.ProxyServiceURL)
	}

	return services, nil
}
