// Package effect implements the polaroid development transform: a tone
// adjustment pass over the captured photo, a bilinear downscale, and the
// instant-film frame composition, encoded back to JPEG. One call owns its
// bitmaps exclusively, keeps no state between calls, and is safe to run
// concurrently for different inputs.
package effect

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	_ "image/png"
	"path"
	"strings"

	_ "golang.org/x/image/webp"
)

var (
	// ErrDecode marks input bytes that are not a recognizable image. Callers
	// recover by keeping the original bytes; nothing was lost.
	ErrDecode = errors.New("decode capture image")

	// ErrEncode marks a failure to serialize the finished canvas. There is
	// no partial output to fall back on.
	ErrEncode = errors.New("encode developed image")
)

type Result struct {
	Data   []byte
	Width  int
	Height int
}

// Render runs the full development pipeline on encoded image bytes and
// returns the framed output as JPEG.
func Render(input []byte, p Params) (Result, error) {
	p = p.normalize()

	src, _, err := image.Decode(bytes.NewReader(input))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	img := toRGBA(src)
	AdjustTone(img, p.Intensity)
	resized := Resize(img, p.ScaleW, p.ScaleH)
	canvas := Compose(resized, p.Geometry)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: p.Quality}); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrEncode, err)
	}

	bounds := canvas.Bounds()
	return Result{
		Data:   buf.Bytes(),
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}

// OutputName derives the suggested name for a developed capture by inserting
// the _polarized marker before the extension. The output is always JPEG, so
// the original extension is replaced.
func OutputName(input string) string {
	base := strings.TrimSuffix(input, path.Ext(input))
	if base == "" {
		base = "capture"
	}
	return base + "_polarized.jpg"
}

func toRGBA(src image.Image) *image.RGBA {
	if rgba, ok := src.(*image.RGBA); ok {
		return rgba
	}
	bounds := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), src, bounds.Min, draw.Src)
	return dst
}
