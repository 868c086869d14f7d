package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sailendrachettri/polarize/internal/config"
	"github.com/sailendrachettri/polarize/internal/domain"
	"github.com/sailendrachettri/polarize/internal/id"
	"github.com/sailendrachettri/polarize/internal/queue"
	"github.com/sailendrachettri/polarize/internal/store"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

type Server struct {
	logger                *log.Logger
	queueClient           queueEnqueuer
	captureStore          store.CaptureStore
	storage               objectStorage
	presignTTL            time.Duration
	mux                   *http.ServeMux
	metrics               *metrics
	tracer                trace.Tracer
	rateLimiter           RateLimiter
	rateLimitUserIDHeader string
}

type queueEnqueuer interface {
	EnqueueDevelopCapture(ctx context.Context, payload queue.DevelopCapturePayload) (*asynq.TaskInfo, error)
}

type objectStorage interface {
	PresignedPutURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error)
	ObjectExists(ctx context.Context, objectKey string) (bool, error)
}

func NewServer(
	logger *log.Logger,
	queueClient queueEnqueuer,
	captureStore store.CaptureStore,
	storage objectStorage,
	cfg config.APIConfig,
	rateLimiter RateLimiter,
) *Server {
	presignTTL := cfg.PresignTTL
	if presignTTL <= 0 {
		presignTTL = 15 * time.Minute
	}
	if storage == nil {
		storage = unavailableObjectStorage{}
	}

	s := &Server{
		logger:                logger,
		queueClient:           queueClient,
		captureStore:          captureStore,
		storage:               storage,
		presignTTL:            presignTTL,
		mux:                   http.NewServeMux(),
		metrics:               newMetrics(),
		tracer:                otel.Tracer("polarize/api"),
		rateLimiter:           rateLimiter,
		rateLimitUserIDHeader: cfg.UserIDHeader,
	}
	s.routes()
	return s
}

type unavailableObjectStorage struct{}

func (unavailableObjectStorage) PresignedPutURL(_ context.Context, _ string, _ time.Duration) (string, error) {
	return "", errors.New("object storage is unavailable")
}

func (unavailableObjectStorage) ObjectExists(_ context.Context, _ string) (bool, error) {
	return false, errors.New("object storage is unavailable")
}

func (s *Server) Handler() http.Handler {
	return s.metrics.withHTTPMetrics(s.withTracing(s.withRateLimit(s.mux)))
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
	s.mux.Handle("GET /metrics", s.metrics.metricsHandler())
	s.mux.HandleFunc("POST /v1/captures", s.handleCreateCapture)
	s.mux.HandleFunc("POST /v1/captures/", s.handleDevelopCapture)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateCapture(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateCaptureRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if len(req.Renders) == 0 {
		req.Renders = domain.DefaultRenders()
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	now := time.Now().UTC()
	captureID := id.New()
	sourceType := strings.ToLower(strings.TrimSpace(req.SourceType))
	objectKey := strings.TrimSpace(req.ObjectKey)
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		userID = strings.TrimSpace(r.Header.Get(s.rateLimitUserIDHeader))
	}
	uploadState := "not_required"
	presignedPutURL := ""

	if sourceType == domain.SourceTypeS3Presigned {
		objectKey = fmt.Sprintf("uploads/%s/source", captureID)
		url, err := s.storage.PresignedPutURL(r.Context(), objectKey, s.presignTTL)
		if err != nil {
			s.logger.Printf("generate presigned url failed for capture %s: %v", captureID, err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to generate upload URL"})
			return
		}
		presignedPutURL = url
		uploadState = "ready"
	}

	capture := domain.Capture{
		ID:         captureID,
		UserID:     userID,
		Status:     domain.CaptureStatusCreated,
		SourceType: sourceType,
		WebhookURL: req.WebhookURL,
		Renders:    req.Renders,
		ObjectKey:  objectKey,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.captureStore.Create(r.Context(), capture); err != nil {
		s.logger.Printf("create capture failed for capture %s: %v", capture.ID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create capture"})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"capture_id": capture.ID,
		"status":     capture.Status,
		"upload": map[string]string{
			"object_key":          capture.ObjectKey,
			"presigned_put_url":   presignedPutURL,
			"presigned_url_state": uploadState,
		},
		"develop_url": fmt.Sprintf("/v1/captures/%s/develop", capture.ID),
	})
}

func (s *Server) handleDevelopCapture(w http.ResponseWriter, r *http.Request) {
	captureID, err := extractCaptureIDFromDevelopPath(r.URL.Path)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	capture, ok, err := s.captureStore.Get(r.Context(), captureID)
	if err != nil {
		s.logger.Printf("fetch capture failed for capture %s: %v", captureID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load capture"})
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "capture not found"})
		return
	}

	if err := s.verifySourceExists(r.Context(), capture); err != nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	}

	payload := queue.DevelopCapturePayload{
		CaptureID:   capture.ID,
		SourceType:  capture.SourceType,
		WebhookURL:  capture.WebhookURL,
		ObjectKey:   capture.ObjectKey,
		Renders:     capture.Renders,
		RequestedAt: time.Now().UTC(),
	}

	taskInfo, err := s.queueClient.EnqueueDevelopCapture(r.Context(), payload)
	if err != nil {
		s.logger.Printf("enqueue failed for capture %s: %v", capture.ID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to enqueue capture"})
		return
	}
	s.metrics.queueEnqueued.WithLabelValues(taskInfo.Queue).Inc()

	if _, err := s.captureStore.UpdateStatus(r.Context(), capture.ID, domain.CaptureStatusQueued); err != nil {
		s.logger.Printf("update status failed for capture %s: %v", capture.ID, err)
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"capture_id":  capture.ID,
		"status":      domain.CaptureStatusQueued,
		"queue":       taskInfo.Queue,
		"task_id":     taskInfo.ID,
		"state":       taskInfo.State.String(),
		"enqueued_at": taskInfo.NextProcessAt,
	})
}

func (s *Server) verifySourceExists(ctx context.Context, capture domain.Capture) error {
	switch capture.SourceType {
	case domain.SourceTypeLocalFile:
		if _, err := os.Stat(capture.ObjectKey); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("source object is missing: %s", capture.ObjectKey)
			}
			return fmt.Errorf("source object check failed: %w", err)
		}
		return nil
	default:
		exists, err := s.storage.ObjectExists(ctx, capture.ObjectKey)
		if err != nil {
			return fmt.Errorf("source object check failed: %w", err)
		}
		if !exists {
			return fmt.Errorf("source object is missing: %s", capture.ObjectKey)
		}
		return nil
	}
}

func extractCaptureIDFromDevelopPath(path string) (string, error) {
	trimmed := strings.TrimPrefix(path, "/v1/captures/")
	parts := strings.Split(strings.Trim(trimmed, "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] != "develop" {
		return "", errors.New("expected path format /v1/captures/{id}/develop")
	}
	return parts[0], nil
}

func decodeJSON(r *http.Request, into any) error {
	const maxBodyBytes = 1 << 20
	limited := io.LimitReader(r.Body, maxBodyBytes)
	decoder := json.NewDecoder(limited)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(into); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return errors.New("invalid JSON body: multiple JSON values are not allowed")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
