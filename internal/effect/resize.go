package effect

import (
	"image"

	xdraw "golang.org/x/image/draw"
)

// Resize downscales src to floor(W*scaleW) x floor(H*scaleH) using bilinear
// resampling. Dimensions are clamped to at least 1x1.
func Resize(src *image.RGBA, scaleW, scaleH float64) *image.RGBA {
	bounds := src.Bounds()
	w := int(float64(bounds.Dx()) * scaleW)
	h := int(float64(bounds.Dy()) * scaleH)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), src, bounds, xdraw.Src, nil)
	return dst
}
