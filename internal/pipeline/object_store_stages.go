package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/sailendrachettri/polarize/internal/domain"
	"github.com/sailendrachettri/polarize/internal/storage"
)

const SourceTypeS3Presigned = domain.SourceTypeS3Presigned

type ObjectStoreFetcher struct {
	Storage *storage.Client
}

func (f ObjectStoreFetcher) Fetch(ctx context.Context, req Request) ([]byte, error) {
	if f.Storage == nil {
		return nil, errors.New("storage client is required")
	}
	if strings.EqualFold(req.SourceType, SourceTypeLocalFile) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSourceType, req.SourceType)
	}
	return f.Storage.ReadObject(ctx, req.ObjectKey)
}

// ObjectStoreEmitter writes developed renders into the gallery prefix of the
// capture bucket, where the app's gallery view picks them up.
type ObjectStoreEmitter struct {
	Storage       *storage.Client
	GalleryPrefix string
}

func (e ObjectStoreEmitter) Emit(ctx context.Context, req Request, step domain.RenderStep, rendered Rendered) (Output, error) {
	if e.Storage == nil {
		return Output{}, errors.New("storage client is required")
	}
	if strings.TrimSpace(step.ID) == "" {
		return Output{}, errors.New("render step id is required")
	}

	objectKey := path.Join(
		defaultGalleryPrefix(e.GalleryPrefix),
		sanitizePathToken(req.CaptureID),
		rendered.Name,
	)

	if err := e.Storage.WriteObject(ctx, objectKey, rendered.Data, contentTypeForFormat(rendered.Format)); err != nil {
		return Output{}, err
	}

	return Output{
		RenderID:    step.ID,
		Kind:        step.Kind,
		Format:      rendered.Format,
		Path:        objectKey,
		Bytes:       len(rendered.Data),
		Width:       rendered.Width,
		Height:      rendered.Height,
		Passthrough: rendered.Passthrough,
	}, nil
}

func defaultGalleryPrefix(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return "gallery"
	}
	return prefix
}
