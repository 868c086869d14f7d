//go:build !govips || !cgo

package pipeline

import (
	"bytes"
	"fmt"
	"image/jpeg"

	"github.com/disintegration/imaging"
	"github.com/sailendrachettri/polarize/internal/effect"
)

// newThumbnailScaler returns the pure-Go thumbnail path. Height follows the
// source aspect ratio.
func newThumbnailScaler() thumbnailScaler {
	return func(input []byte, width, quality int) ([]byte, int, int, error) {
		if width <= 0 {
			return nil, 0, 0, fmt.Errorf("thumbnail requires width > 0")
		}

		src, err := imaging.Decode(bytes.NewReader(input), imaging.AutoOrientation(true))
		if err != nil {
			return nil, 0, 0, fmt.Errorf("%w: %v", effect.ErrDecode, err)
		}

		thumb := imaging.Resize(src, width, 0, imaging.Linear)

		if quality <= 0 || quality > 100 {
			quality = 85
		}
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: quality}); err != nil {
			return nil, 0, 0, fmt.Errorf("%w: %v", effect.ErrEncode, err)
		}

		bounds := thumb.Bounds()
		return buf.Bytes(), bounds.Dx(), bounds.Dy(), nil
	}
}
