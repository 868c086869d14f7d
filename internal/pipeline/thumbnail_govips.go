//go:build govips && cgo

package pipeline

import (
	"fmt"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/sailendrachettri/polarize/internal/effect"
)

// newThumbnailScaler returns the libvips-backed thumbnail path.
func newThumbnailScaler() thumbnailScaler {
	return func(input []byte, width, quality int) ([]byte, int, int, error) {
		if width <= 0 {
			return nil, 0, 0, fmt.Errorf("thumbnail requires width > 0")
		}

		img, err := vips.NewImageFromBuffer(input)
		if err != nil {
			return nil, 0, 0, fmt.Errorf("%w: %v", effect.ErrDecode, err)
		}
		defer img.Close()

		if err := img.AutoRotate(); err != nil {
			return nil, 0, 0, fmt.Errorf("auto-rotate thumbnail: %w", err)
		}

		scale := float64(width) / float64(img.Width())
		if err := img.Resize(scale, vips.KernelLinear); err != nil {
			return nil, 0, 0, fmt.Errorf("resize thumbnail: %w", err)
		}

		params := vips.NewJpegExportParams()
		if quality > 0 && quality <= 100 {
			params.Quality = quality
		} else {
			params.Quality = 85
		}
		data, _, err := img.ExportJpeg(params)
		if err != nil {
			return nil, 0, 0, fmt.Errorf("%w: %v", effect.ErrEncode, err)
		}

		return data, img.Width(), img.Height(), nil
	}
}
