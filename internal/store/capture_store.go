package store

import (
	"context"

	"github.com/sailendrachettri/polarize/internal/domain"
)

type CaptureStore interface {
	Create(ctx context.Context, capture domain.Capture) error
	Get(ctx context.Context, id string) (domain.Capture, bool, error)
	UpdateStatus(ctx context.Context, id, status string) (domain.Capture, error)
}

type UsageStore interface {
	CreateUsageLog(ctx context.Context, usage domain.UsageLog) error
}
