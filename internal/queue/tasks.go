package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sailendrachettri/polarize/internal/domain"
)

const TypeDevelopCapture = "capture:develop"

type DevelopCapturePayload struct {
	CaptureID   string              `json:"capture_id"`
	SourceType  string              `json:"source_type"`
	WebhookURL  string              `json:"webhook_url,omitempty"`
	ObjectKey   string              `json:"object_key"`
	Renders     []domain.RenderStep `json:"renders"`
	RequestedAt time.Time           `json:"requested_at"`
}

func NewDevelopCaptureTask(payload DevelopCapturePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal develop payload: %w", err)
	}
	return asynq.NewTask(TypeDevelopCapture, body), nil
}

func ParseDevelopCapturePayload(task *asynq.Task) (DevelopCapturePayload, error) {
	var payload DevelopCapturePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return DevelopCapturePayload{}, fmt.Errorf("unmarshal develop payload: %w", err)
	}
	return payload, nil
}
