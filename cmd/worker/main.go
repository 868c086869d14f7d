package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/sailendrachettri/polarize/internal/config"
	"github.com/sailendrachettri/polarize/internal/pipeline"
	"github.com/sailendrachettri/polarize/internal/storage"
	"github.com/sailendrachettri/polarize/internal/store"
	"github.com/sailendrachettri/polarize/internal/telemetry"
	"github.com/sailendrachettri/polarize/internal/webhook"
	"github.com/sailendrachettri/polarize/internal/worker"
)

func main() {
	cfg := config.Load()
	logger := log.New(os.Stdout, "[worker] ", log.LstdFlags|log.Lmsgprefix)

	setupCtx, setupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer setupCancel()

	shutdownTracing, err := telemetry.SetupTracing(setupCtx, telemetry.TraceConfig{
		ServiceName:  "polarize-worker",
		Exporter:     cfg.Telemetry.Exporter,
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		OTLPInsecure: cfg.Telemetry.OTLPInsecure,
	}, logger)
	if err != nil {
		logger.Fatalf("tracing setup failed: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logger.Printf("tracing shutdown failed: %v", err)
		}
	}()

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
		logger.Printf("bucket check failed: %v", err)
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

	webhookClient := webhook.NewClient(webhook.Config{
		SigningSecret: cfg.Webhook.SigningSecret,
		Timeout:       cfg.Webhook.Timeout,
		MaxAttempts:   cfg.Webhook.MaxAttempts,
	})

	if err := pipeline.Startup(); err != nil {
		logger.Fatalf("render runtime startup failed: %v", err)
	}
	defer pipeline.Shutdown()

	srv, err := worker.NewServer(
		logger,
		cfg.Queue,
		cfg.Worker,
		storageClient,
		webhookClient,
		captureStore,
		nil,
	)
	if err != nil {
		logger.Fatalf("worker setup failed: %v", err)
	}

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", srv.MetricsHandler())
		logger.Printf("metrics listening on %s", cfg.Worker.MetricsAddr)
		if err := http.ListenAndServe(cfg.Worker.MetricsAddr, mux); err != nil {
			logger.Printf("metrics server failed: %v", err)
		}
	}()

	logger.Printf(
		"starting worker concurrency=%d max_active_captures=%d queue=%s redis=%s",
		cfg.Worker.Concurrency,
		cfg.Worker.MaxActiveCaptures,
		cfg.Queue.Name,
		cfg.Queue.RedisAddr,
	)

	if err := srv.Run(); err != nil {
		logger.Fatalf("worker failed: %v", err)
	}
}
