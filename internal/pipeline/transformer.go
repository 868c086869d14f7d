package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/sailendrachettri/polarize/internal/domain"
	"github.com/sailendrachettri/polarize/internal/effect"
)

// Rendered is one developed output ready to be emitted. When Passthrough is
// set the source bytes could not be decoded as an image and Data is the
// original input, untouched.
type Rendered struct {
	Data        []byte
	Name        string
	Format      string
	Width       int
	Height      int
	Passthrough bool
}

type Transformer interface {
	Transform(ctx context.Context, req Request, input []byte, step domain.RenderStep) (Rendered, error)
}

// renderTransformer develops the polaroid render with the pure-Go effect
// pipeline and delegates thumbnails to the build-selected scaler.
type renderTransformer struct {
	thumb thumbnailScaler
}

type thumbnailScaler func(input []byte, width, quality int) ([]byte, int, int, error)

func (t renderTransformer) Transform(ctx context.Context, req Request, input []byte, step domain.RenderStep) (Rendered, error) {
	select {
	case <-ctx.Done():
		return Rendered{}, ctx.Err()
	default:
	}

	sourceName := path.Base(req.ObjectKey)

	switch strings.ToLower(strings.TrimSpace(step.Kind)) {
	case domain.RenderKindPolaroid:
		result, err := effect.Render(input, polaroidParams(step))
		if errors.Is(err, effect.ErrDecode) {
			return passthrough(input, sourceName), nil
		}
		if err != nil {
			return Rendered{}, fmt.Errorf("develop polaroid: %w", err)
		}
		return Rendered{
			Data:   result.Data,
			Name:   effect.OutputName(sourceName),
			Format: "jpeg",
			Width:  result.Width,
			Height: result.Height,
		}, nil

	case domain.RenderKindThumbnail:
		data, w, h, err := t.thumb(input, step.Width, step.Quality)
		if err != nil {
			if errors.Is(err, effect.ErrDecode) {
				return passthrough(input, sourceName), nil
			}
			return Rendered{}, fmt.Errorf("render thumbnail: %w", err)
		}
		return Rendered{
			Data:   data,
			Name:   thumbnailName(sourceName),
			Format: "jpeg",
			Width:  w,
			Height: h,
		}, nil

	default:
		return Rendered{}, fmt.Errorf("%w: %q", ErrInvalidRenderKind, step.Kind)
	}
}

func polaroidParams(step domain.RenderStep) effect.Params {
	p := effect.PresetParams(step.Preset)
	if step.Intensity != nil {
		p.Intensity = *step.Intensity
	}
	if step.Quality > 0 {
		p.Quality = step.Quality
	}
	return p
}

func passthrough(input []byte, sourceName string) Rendered {
	return Rendered{
		Data:        input,
		Name:        sourceName,
		Format:      "bin",
		Passthrough: true,
	}
}

func thumbnailName(sourceName string) string {
	base := strings.TrimSuffix(sourceName, path.Ext(sourceName))
	if base == "" {
		base = "capture"
	}
	return base + "_thumb.jpg"
}

func contentTypeForFormat(format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "jpeg", "jpg":
		return "image/jpeg"
	case "png":
		return "image/png"
	default:
		return "application/octet-stream"
	}
}
