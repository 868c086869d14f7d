package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	CaptureStatusCreated    = "created"
	CaptureStatusQueued     = "queued"
	CaptureStatusDeveloping = "developing"
	CaptureStatusDeveloped  = "developed"
	CaptureStatusFailed     = "failed"

	SourceTypeLocalFile   = "local_file"
	SourceTypeS3Presigned = "s3_presigned"

	RenderKindPolaroid  = "polaroid"
	RenderKindThumbnail = "thumbnail"
)

type CreateCaptureRequest struct {
	SourceType string       `json:"source_type"`
	UserID     string       `json:"user_id,omitempty"`
	WebhookURL string       `json:"webhook_url,omitempty"`
	ObjectKey  string       `json:"object_key,omitempty"`
	Renders    []RenderStep `json:"renders"`
}

// RenderStep describes one output to develop from a capture. The polaroid
// kind runs the full instant-film pipeline; the thumbnail kind produces the
// small gallery preview.
type RenderStep struct {
	ID        string   `json:"id"`
	Kind      string   `json:"kind"`
	Preset    string   `json:"preset,omitempty"`
	Intensity *float64 `json:"intensity,omitempty"`
	Quality   int      `json:"quality,omitempty"`
	Width     int      `json:"width,omitempty"`
}

type Capture struct {
	ID         string
	UserID     string
	Status     string
	SourceType string
	WebhookURL string
	Renders    []RenderStep
	ObjectKey  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type UsageLog struct {
	UserID          string
	CaptureID       string
	PixelsProcessed int64
	BytesWritten    int64
	ComputeTimeMS   int64
	CreatedAt       time.Time
}

func (r CreateCaptureRequest) Validate() error {
	sourceType := strings.ToLower(strings.TrimSpace(r.SourceType))
	if sourceType == "" {
		return errors.New("source_type is required")
	}
	if sourceType != SourceTypeLocalFile && sourceType != SourceTypeS3Presigned {
		return fmt.Errorf("unsupported source_type: %s", r.SourceType)
	}
	if sourceType == SourceTypeLocalFile && strings.TrimSpace(r.ObjectKey) == "" {
		return errors.New("object_key is required for source_type=local_file")
	}
	if len(r.Renders) == 0 {
		return errors.New("renders must contain at least one step")
	}
	for i, step := range r.Renders {
		if strings.TrimSpace(step.ID) == "" {
			return fmt.Errorf("renders[%d].id is required", i)
		}
		switch strings.ToLower(strings.TrimSpace(step.Kind)) {
		case RenderKindPolaroid:
			if step.Intensity != nil && *step.Intensity < 0 {
				return fmt.Errorf("renders[%d].intensity must not be negative", i)
			}
		case RenderKindThumbnail:
			if step.Width <= 0 {
				return fmt.Errorf("renders[%d].width is required for kind=thumbnail", i)
			}
		default:
			return fmt.Errorf("renders[%d].kind must be %s or %s", i, RenderKindPolaroid, RenderKindThumbnail)
		}
		if step.Quality < 0 || step.Quality > 100 {
			return fmt.Errorf("renders[%d].quality must be in [0,100]", i)
		}
	}
	return nil
}

// DefaultRenders is what a bare capture request develops into when the
// caller does not ask for anything specific: the framed print plus a gallery
// thumbnail.
func DefaultRenders() []RenderStep {
	return []RenderStep{
		{ID: "polaroid", Kind: RenderKindPolaroid},
		{ID: "thumb", Kind: RenderKindThumbnail, Width: 320},
	}
}
