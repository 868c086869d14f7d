package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sailendrachettri/polarize/internal/api"
	"github.com/sailendrachettri/polarize/internal/config"
	"github.com/sailendrachettri/polarize/internal/queue"
	"github.com/sailendrachettri/polarize/internal/ratelimit"
	"github.com/sailendrachettri/polarize/internal/storage"
	"github.com/sailendrachettri/polarize/internal/store"
	"github.com/sailendrachettri/polarize/internal/telemetry"
)

func main() {
	cfg := config.Load()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.Lmsgprefix)

	setupCtx, setupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer setupCancel()

	shutdownTracing, err := telemetry.SetupTracing(setupCtx, telemetry.TraceConfig{
		ServiceName:  "polarize-api",
		Exporter:     cfg.Telemetry.Exporter,
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		OTLPInsecure: cfg.Telemetry.OTLPInsecure,
	}, logger)
	if err != nil {
		logger.Fatalf("tracing setup failed: %v", err)
	}

	storageClient, err := storage.NewClient(storage.Config{
		Endpoint: cfg.Storage.Endpoint,
		Access:   cfg.Storage.AccessKey,
		Secret:   cfg.Storage.SecretKey,
		Bucket:   cfg.Storage.Bucket,
		UseSSL:   cfg.Storage.UseSSL,
	})
	if err != nil {
		logger.Fatalf("storage client setup failed: %v", err)
	}
	if err := storageClient.EnsureBucket(setupCtx); err != nil {
		logger.Printf("bucket check failed (uploads may not presign): %v", err)
	}

	var captureStore store.CaptureStore
	if cfg.Database.DSN != "" {
		pgStore, err := store.NewPostgresCaptureStore(setupCtx, cfg.Database.DSN)
		if err != nil {
			logger.Fatalf("postgres store setup failed: %v", err)
		}
		defer func() {
			if err := pgStore.Close(); err != nil {
				logger.Printf("postgres close error: %v", err)
			}
		}()
		captureStore = pgStore
		logger.Printf("using postgres capture store")
	} else {
		captureStore = store.NewMemoryCaptureStore()
		logger.Printf("using in-memory capture store")
	}

	queueClient := queue.NewClient(cfg.Queue.RedisClientOpt(), cfg.Queue.Name)
	defer func() {
		if err := queueClient.Close(); err != nil {
			logger.Printf("queue client close error: %v", err)
		}
	}()

	var rateLimiter api.RateLimiter
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Queue.RedisAddr,
		Password: cfg.Queue.RedisPassword,
		DB:       cfg.Queue.RedisDB,
	})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Printf("redis client close error: %v", err)
		}
	}()
	limiter, err := ratelimit.NewRedisTokenBucket(redisClient, cfg.API.RateLimitCapacity, cfg.API.RateLimitWindow, "polarize:ratelimit")
	if err != nil {
		logger.Printf("rate limiter setup failed, running without: %v", err)
	} else {
		rateLimiter = limiter
	}

	app := api.NewServer(logger, queueClient, captureStore, storageClient, cfg.API, rateLimiter)

	httpServer := &http.Server{
		Addr:         cfg.API.Addr,
		Handler:      app.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Printf("listening on %s", cfg.API.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Println("shutting down")
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	}
	if err := shutdownTracing(ctx); err != nil {
		logger.Printf("tracing shutdown failed: %v", err)
	}
}
