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

	"savings/internal/amqp"
	"savings/internal/backend"
	"savings/internal/cache"
	"savings/internal/config"
	apphttp "savings/internal/http"
	"savings/internal/log"
	"savings/internal/session"
)

// publishBuffer is how many saves may wait for the broker before new ones are dropped.
const publishBuffer = 256

func main() {
	// Load .env file if present
	_ = godotenv.Load()

	cfg := config.Load()

	// Setup structured logging
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level, _ = log.ParseLevel("info")
	}
	logConfig := log.DefaultConfig()
	logConfig.Level = level
	logger := log.New(logConfig)
	log.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", log.FieldError, err, log.FieldErrorType, log.ErrorTypeConfiguration)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Failed to initialize record store", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	result, err := backend.New(ctx, backendCfg, logger.WithComponent(log.ComponentBackend))
	if err != nil {
		logger.Error("Failed to initialize record store", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	if result.Cleanup != nil {
		defer func() {
			if err := result.Cleanup(); err != nil {
				logger.Warn("Record store cleanup failed", log.FieldError, err)
			}
		}()
	}

	metrics := apphttp.NewMetrics()
	observers := []session.SaveObserver{metrics}

	// Optional AMQP announcements of accepted saves
	var publisher *amqp.Publisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey, logger)
		if err != nil {
			logger.Warn("AMQP unavailable, saves will not be announced",
				log.FieldError, err,
				log.FieldExchange, cfg.AMQPExchange)
		} else {
			defer client.Close()
			publisher = amqp.NewPublisher(client, logger, publishBuffer)
			publisher.Start(context.Background())
			defer publisher.Close()
			observers = append(observers, publisher)
			logger.Info("AMQP publishing enabled",
				log.FieldExchange, cfg.AMQPExchange,
				log.FieldRoutingKey, cfg.AMQPRoutingKey)
		}
	}

	boards := session.NewStore(result.Store, session.StoreConfig{
		TTL: cfg.SessionTTL,
		Max: cfg.SessionMax,
	}, logger, observers...)

	cacheManager := cache.NewManager(logger)
	cacheManager.Register(boards.Cleaner())
	cacheManager.StartCleanup(time.Minute)
	defer cacheManager.Stop()

	serverCfg := apphttp.Config{
		Addr:               ":" + cfg.Port,
		Boards:             boards,
		Metrics:            metrics,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		SessionTTL:         cfg.SessionTTL,
		Logger:             logger,
	}
	if result.Pinger != nil {
		serverCfg.Pinger = result.Pinger
	}
	if publisher != nil {
		serverCfg.PublisherStats = publisher.Stats
	}

	srv, err := apphttp.NewServer(serverCfg)
	if err != nil {
		logger.Error("Failed to create server", log.FieldError, err)
		os.Exit(1)
	}

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting savings server", log.FieldOperation, log.OpStartup, log.FieldPort, cfg.Port, log.FieldBackend, cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			logger.Error("Server error", log.FieldError, err, log.FieldPort, cfg.Port)
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("Shutdown signal received", log.FieldOperation, log.OpShutdown)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", log.FieldError, err)
	}
	logger.Info("Server stopped gracefully", log.FieldOperation, log.OpShutdown, log.FieldSessions, boards.Len())
}
