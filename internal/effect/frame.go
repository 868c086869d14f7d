package effect

import (
	"image"
	"image/color"
	"image/draw"
)

var (
	marginColor = color.RGBA{A: 0xff}
	frameColor  = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	borderColor = color.RGBA{R: 180, G: 180, B: 180, A: 0xff}
)

const shadowStart = 150

// Compose lays the photo out as an instant-film print: a white frame with
// rounded corners on a dark outer margin, a soft shadow band under the photo
// edges, the photo itself, and a thin gray outline around it.
//
// The canvas is photoW + 2*SideBorder + 2*OuterMargin wide and
// photoH + TopBorder + BottomBorder + 2*OuterMargin tall.
func Compose(photo *image.RGBA, g Geometry) *image.RGBA {
	pw := photo.Bounds().Dx()
	ph := photo.Bounds().Dy()

	frameW := pw + 2*g.SideBorder
	frameH := ph + g.TopBorder + g.BottomBorder
	totalW := frameW + 2*g.OuterMargin
	totalH := frameH + 2*g.OuterMargin

	canvas := image.NewRGBA(image.Rect(0, 0, totalW, totalH))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(marginColor), image.Point{}, draw.Src)

	frameRect := image.Rect(g.OuterMargin, g.OuterMargin, g.OuterMargin+frameW, g.OuterMargin+frameH)
	draw.Draw(canvas, frameRect, image.NewUniform(frameColor), image.Point{}, draw.Src)

	maskCorners(canvas, frameRect, g.CornerRadius, g.CornerStep)

	photoRect := image.Rect(
		g.OuterMargin+g.SideBorder,
		g.OuterMargin+g.TopBorder,
		g.OuterMargin+g.SideBorder+pw,
		g.OuterMargin+g.TopBorder+ph,
	)
	drawShadow(canvas, photoRect, g.ShadowSize)

	draw.Draw(canvas, photoRect, photo, photo.Bounds().Min, draw.Src)

	drawBorder(canvas, photoRect, g.BorderThickness)

	return canvas
}

// maskCorners cuts a quarter circle of the margin color out of each corner of
// the frame rectangle. A pixel is cut when its squared distance from the
// corner's arc origin exceeds radius squared. With step > 0 the squared
// distance is quantized into buckets of that size first, which turns the arc
// into visible facets; that stepped look is one of the shipped frame styles.
func maskCorners(canvas *image.RGBA, frame image.Rectangle, radius, step int) {
	if radius <= 0 {
		return
	}
	r2 := radius * radius
	for j := 0; j < radius; j++ {
		dy := radius - j
		for i := 0; i < radius; i++ {
			dx := radius - i
			d2 := dx*dx + dy*dy
			if step > 0 {
				d2 -= d2 % step
			}
			if d2 <= r2 {
				continue
			}
			canvas.SetRGBA(frame.Min.X+i, frame.Min.Y+j, marginColor)
			canvas.SetRGBA(frame.Max.X-1-i, frame.Min.Y+j, marginColor)
			canvas.SetRGBA(frame.Min.X+i, frame.Max.Y-1-j, marginColor)
			canvas.SetRGBA(frame.Max.X-1-i, frame.Max.Y-1-j, marginColor)
		}
	}
}

// drawShadow paints a band of size rings around the photo rectangle. The
// ring touching the photo is gray 150 and the shade fades linearly to the
// frame white over the band, approximating a drop shadow under the print.
func drawShadow(canvas *image.RGBA, photo image.Rectangle, size int) {
	if size <= 0 {
		return
	}
	for d := 0; d < size; d++ {
		v := uint8(shadowStart + (255-shadowStart)*d/size)
		paintRing(canvas, photo.Inset(-(d+1)), color.RGBA{R: v, G: v, B: v, A: 0xff})
	}
}

// drawBorder draws a thickness-wide gray outline immediately surrounding the
// photo rectangle, clipped to the canvas.
func drawBorder(canvas *image.RGBA, photo image.Rectangle, thickness int) {
	for k := 1; k <= thickness; k++ {
		paintRing(canvas, photo.Inset(-k), borderColor)
	}
}

// paintRing colors the one-pixel perimeter of r, skipping anything outside
// the canvas.
func paintRing(canvas *image.RGBA, r image.Rectangle, c color.RGBA) {
	bounds := canvas.Bounds()
	for x := r.Min.X; x < r.Max.X; x++ {
		setIfInside(canvas, bounds, x, r.Min.Y, c)
		setIfInside(canvas, bounds, x, r.Max.Y-1, c)
	}
	for y := r.Min.Y + 1; y < r.Max.Y-1; y++ {
		setIfInside(canvas, bounds, r.Min.X, y, c)
		setIfInside(canvas, bounds, r.Max.X-1, y, c)
	}
}

func setIfInside(canvas *image.RGBA, bounds image.Rectangle, x, y int, c color.RGBA) {
	if (image.Point{X: x, Y: y}).In(bounds) {
		canvas.SetRGBA(x, y, c)
	}
}
