package worker

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sailendrachettri/polarize/internal/config"
	"github.com/sailendrachettri/polarize/internal/domain"
	"github.com/sailendrachettri/polarize/internal/pipeline"
	"github.com/sailendrachettri/polarize/internal/queue"
	"github.com/sailendrachettri/polarize/internal/storage"
	"github.com/sailendrachettri/polarize/internal/store"
	"github.com/sailendrachettri/polarize/internal/webhook"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Server consumes capture:develop tasks and runs the render pipeline. One
// semaphore slot per capture keeps memory bounded independently of asynq's
// own concurrency setting.
type Server struct {
	logger          *log.Logger
	server          *asynq.Server
	sem             chan struct{}
	localProcessor  *pipeline.Processor
	objectProcessor *pipeline.Processor
	webhookClient   webhookSender
	captureStore    store.CaptureStore
	usageStore      store.UsageStore
	metrics         *metrics
	tracer          trace.Tracer
}

type webhookSender interface {
	Send(ctx context.Context, endpoint, event string, payload any) error
}

func NewServer(
	logger *log.Logger,
	queueCfg config.QueueConfig,
	workerCfg config.WorkerConfig,
	storageClient *storage.Client,
	webhookClient *webhook.Client,
	captureStore store.CaptureStore,
	usageStore store.UsageStore,
) (*Server, error) {
	if storageClient == nil {
		return nil, fmt.Errorf("storage client is required")
	}

	localProcessor, err := pipeline.NewLocalProcessor(workerCfg.LocalOutputDir)
	if err != nil {
		return nil, fmt.Errorf("initialize local processor: %w", err)
	}

	objectProcessor, err := pipeline.NewObjectStoreProcessor(
		pipeline.ObjectStoreFetcher{Storage: storageClient},
		pipeline.ObjectStoreEmitter{Storage: storageClient, GalleryPrefix: "gallery"},
	)
	if err != nil {
		return nil, fmt.Errorf("initialize object-store processor: %w", err)
	}

	if usageStore == nil {
		if combined, ok := captureStore.(store.UsageStore); ok {
			usageStore = combined
		}
	}

	s := &Server{
		logger: logger,
		server: asynq.NewServer(
			queueCfg.RedisClientOpt(),
			asynq.Config{
				Concurrency: workerCfg.Concurrency,
				Queues: map[string]int{
					queueCfg.Name: 1,
				},
				LogLevel: asynq.InfoLevel,
				ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
					retried, _ := asynq.GetRetryCount(ctx)
					maxRetry, _ := asynq.GetMaxRetry(ctx)
					logger.Printf("task failed type=%s retry=%d/%d err=%v", task.Type(), retried, maxRetry, err)
				}),
			},
		),
		sem:             make(chan struct{}, max(1, workerCfg.MaxActiveCaptures)),
		localProcessor:  localProcessor,
		objectProcessor: objectProcessor,
		captureStore:    captureStore,
		usageStore:      usageStore,
		metrics:         newMetrics(),
		tracer:          otel.Tracer("polarize/worker"),
	}
	if webhookClient != nil {
		s.webhookClient = webhookClient
	}
	return s, nil
}

func (s *Server) Run() error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TypeDevelopCapture, s.handleDevelopCapture)
	return s.server.Run(mux)
}

func (s *Server) MetricsHandler() http.Handler {
	return s.metrics.Handler()
}

func (s *Server) handleDevelopCapture(ctx context.Context, task *asynq.Task) error {
	startedAt := time.Now()
	outcome := domain.CaptureStatusFailed

	payload, err := queue.ParseDevelopCapturePayload(task)
	if err != nil {
		return fmt.Errorf("parse payload: %v: %w", err, asynq.SkipRetry)
	}

	ctx, span := s.tracer.Start(ctx, "worker.develop_capture", trace.WithSpanKind(trace.SpanKindConsumer))
	span.SetAttributes(
		attribute.String("capture.id", payload.CaptureID),
		attribute.String("capture.source_type", payload.SourceType),
		attribute.Int("capture.renders", len(payload.Renders)),
	)
	defer span.End()
	defer func() {
		s.metrics.captureDuration.WithLabelValues(payload.SourceType, outcome).Observe(time.Since(startedAt).Seconds())
		s.metrics.capturesTotal.WithLabelValues(payload.SourceType, outcome).Inc()
	}()

	s.sem <- struct{}{}
	s.metrics.activeCaptures.Inc()
	defer func() {
		<-s.sem
		s.metrics.activeCaptures.Dec()
	}()

	s.logger.Printf(
		"Developing... capture_id=%s source_type=%s renders=%d object_key=%s",
		payload.CaptureID,
		payload.SourceType,
		len(payload.Renders),
		payload.ObjectKey,
	)

	s.updateCaptureStatus(ctx, payload.CaptureID, domain.CaptureStatusDeveloping)

	request := pipeline.Request{
		CaptureID:  payload.CaptureID,
		SourceType: payload.SourceType,
		ObjectKey:  payload.ObjectKey,
		Renders:    payload.Renders,
	}

	var result pipeline.Result
	switch payload.SourceType {
	case domain.SourceTypeLocalFile:
		result, err = s.localProcessor.Process(ctx, request)
	default:
		result, err = s.objectProcessor.Process(ctx, request)
	}
	if err != nil {
		s.updateCaptureStatus(ctx, payload.CaptureID, domain.CaptureStatusFailed)
		span.RecordError(err)
		span.SetStatus(codes.Error, "develop pipeline failed")
		s.dispatchWebhook(ctx, payload, "capture.failed", map[string]any{
			"capture_id":   payload.CaptureID,
			"status":       domain.CaptureStatusFailed,
			"source_type":  payload.SourceType,
			"object_key":   payload.ObjectKey,
			"requested_at": payload.RequestedAt,
			"failed_at":    time.Now().UTC(),
			"error":        err.Error(),
		})
		return fmt.Errorf("develop capture: %w", err)
	}

	s.logger.Printf("Developed capture_id=%s renders=%d", payload.CaptureID, len(result.Outputs))
	s.updateCaptureStatus(ctx, payload.CaptureID, domain.CaptureStatusDeveloped)
	for _, output := range result.Outputs {
		s.metrics.rendersTotal.WithLabelValues(output.Kind).Inc()
		if output.Passthrough {
			s.metrics.passthroughsTotal.Inc()
		}
	}
	s.recordUsage(ctx, payload.CaptureID, result, time.Since(startedAt))

	if err := s.dispatchWebhook(ctx, payload, "capture.developed", map[string]any{
		"capture_id":   payload.CaptureID,
		"status":       domain.CaptureStatusDeveloped,
		"source_type":  payload.SourceType,
		"object_key":   payload.ObjectKey,
		"requested_at": payload.RequestedAt,
		"developed_at": time.Now().UTC(),
		"outputs":      result.Outputs,
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "webhook dispatch failed")
		return err
	}

	outcome = domain.CaptureStatusDeveloped
	span.SetStatus(codes.Ok, "developed")
	return nil
}

func (s *Server) updateCaptureStatus(ctx context.Context, captureID, status string) {
	if s.captureStore == nil {
		return
	}
	if _, err := s.captureStore.UpdateStatus(ctx, captureID, status); err != nil {
		s.logger.Printf("capture status update failed capture_id=%s status=%s err=%v", captureID, status, err)
	}
}

func (s *Server) dispatchWebhook(ctx context.Context, payload queue.DevelopCapturePayload, event string, body map[string]any) error {
	if payload.WebhookURL == "" || s.webhookClient == nil {
		return nil
	}

	if err := s.webhookClient.Send(ctx, payload.WebhookURL, event, body); err != nil {
		s.logger.Printf("webhook delivery failed capture_id=%s event=%s err=%v", payload.CaptureID, event, err)
		return fmt.Errorf("dispatch webhook: %w", err)
	}

	return nil
}

func (s *Server) recordUsage(ctx context.Context, captureID string, result pipeline.Result, computeDuration time.Duration) {
	if s.usageStore == nil {
		return
	}

	userID := "anonymous"
	if s.captureStore != nil {
		capture, ok, err := s.captureStore.Get(ctx, captureID)
		if err != nil {
			s.logger.Printf("usage lookup failed capture_id=%s err=%v", captureID, err)
		} else if ok && strings.TrimSpace(capture.UserID) != "" {
			userID = capture.UserID
		}
	}

	var (
		pixelsProcessed int64
		bytesWritten    int64
	)
	for _, output := range result.Outputs {
		pixelsProcessed += int64(output.Width * output.Height)
		bytesWritten += int64(output.Bytes)
	}

	computeTimeMS := computeDuration.Milliseconds()
	if computeTimeMS < 1 {
		computeTimeMS = 1
	}

	usage := domain.UsageLog{
		UserID:          userID,
		CaptureID:       captureID,
		PixelsProcessed: pixelsProcessed,
		BytesWritten:    bytesWritten,
		ComputeTimeMS:   computeTimeMS,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.usageStore.CreateUsageLog(ctx, usage); err != nil {
		s.logger.Printf("usage log write failed capture_id=%s err=%v", captureID, err)
		return
	}

	s.metrics.pixelsTotal.Add(float64(pixelsProcessed))
	s.metrics.bytesWrittenTotal.Add(float64(bytesWritten))
	s.metrics.computeTimeMSTot.Add(float64(computeTimeMS))
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
