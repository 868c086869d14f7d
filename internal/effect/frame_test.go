package effect

import (
	"image"
	"image/color"
	"testing"
)

func TestComposeCanvasDimensions(t *testing.T) {
	photo := uniformRGBA(50, 40, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	g := DefaultGeometry()

	canvas := Compose(photo, g)

	wantW := 50 + 2*g.SideBorder + 2*g.OuterMargin
	wantH := 40 + g.TopBorder + g.BottomBorder + 2*g.OuterMargin
	if got := canvas.Bounds().Dx(); got != wantW {
		t.Fatalf("expected canvas width %d, got %d", wantW, got)
	}
	if got := canvas.Bounds().Dy(); got != wantH {
		t.Fatalf("expected canvas height %d, got %d", wantH, got)
	}
}

func TestComposeLayers(t *testing.T) {
	photo := uniformRGBA(60, 60, color.RGBA{R: 10, G: 200, B: 30, A: 255})
	g := DefaultGeometry()

	canvas := Compose(photo, g)

	// Outer margin stays the fill color.
	if got := canvas.RGBAAt(1, 1); got != marginColor {
		t.Fatalf("expected margin color at (1,1), got %v", got)
	}

	// The top of the frame is white between the corner cutouts and above the
	// shadow band.
	cx := canvas.Bounds().Dx() / 2
	for y := g.OuterMargin; y < g.OuterMargin+g.TopBorder-g.ShadowSize; y++ {
		if got := canvas.RGBAAt(cx, y); got != frameColor {
			t.Fatalf("expected white frame at (%d,%d), got %v", cx, y, got)
		}
	}

	// The photo itself lands at the computed offset.
	px := g.OuterMargin + g.SideBorder + 30
	py := g.OuterMargin + g.TopBorder + 30
	if got := canvas.RGBAAt(px, py); got != (color.RGBA{R: 10, G: 200, B: 30, A: 255}) {
		t.Fatalf("expected photo pixel at (%d,%d), got %v", px, py, got)
	}

	// The outline sits immediately around the photo rectangle.
	bx := g.OuterMargin + g.SideBorder - 1
	if got := canvas.RGBAAt(bx, py); got != borderColor {
		t.Fatalf("expected border color at (%d,%d), got %v", bx, py, got)
	}

	// The innermost shadow ring beyond the outline carries the darkest shade.
	sx := g.OuterMargin + g.SideBorder - g.BorderThickness - 1
	shade := canvas.RGBAAt(sx, py)
	if shade == frameColor || shade == marginColor {
		t.Fatalf("expected shadow shade at (%d,%d), got %v", sx, py, shade)
	}
	if shade.R != shade.G || shade.G != shade.B {
		t.Fatalf("expected gray shadow, got %v", shade)
	}
}

func TestComposeCornerCutout(t *testing.T) {
	photo := uniformRGBA(40, 40, color.RGBA{R: 120, G: 120, B: 120, A: 255})
	g := DefaultGeometry()

	canvas := Compose(photo, g)

	// The frame corner pixel is outside the quarter circle and must be cut
	// back to the margin color; the arc origin itself stays white.
	if got := canvas.RGBAAt(g.OuterMargin, g.OuterMargin); got != marginColor {
		t.Fatalf("expected corner cutout at frame origin, got %v", got)
	}
	if got := canvas.RGBAAt(g.OuterMargin+g.CornerRadius, g.OuterMargin+g.CornerRadius); got != frameColor {
		t.Fatalf("expected white inside corner radius, got %v", got)
	}
}

func TestComposeCornersCongruent(t *testing.T) {
	photo := uniformRGBA(48, 48, color.RGBA{R: 200, G: 100, B: 50, A: 255})

	for _, g := range []Geometry{DefaultGeometry(), PresetParams(PresetCompact).Geometry} {
		canvas := Compose(photo, g)

		fx0 := g.OuterMargin
		fy0 := g.OuterMargin
		fx1 := canvas.Bounds().Dx() - g.OuterMargin
		fy1 := canvas.Bounds().Dy() - g.OuterMargin

		for j := 0; j < g.CornerRadius; j++ {
			for i := 0; i < g.CornerRadius; i++ {
				tl := canvas.RGBAAt(fx0+i, fy0+j) == marginColor
				tr := canvas.RGBAAt(fx1-1-i, fy0+j) == marginColor
				bl := canvas.RGBAAt(fx0+i, fy1-1-j) == marginColor
				br := canvas.RGBAAt(fx1-1-i, fy1-1-j) == marginColor
				if tl != tr || tl != bl || tl != br {
					t.Fatalf("corner cutouts disagree at offset (%d,%d): tl=%v tr=%v bl=%v br=%v", i, j, tl, tr, bl, br)
				}
			}
		}
	}
}

func TestComposeQuantizedCornersDiffer(t *testing.T) {
	photo := uniformRGBA(64, 64, color.RGBA{R: 90, G: 90, B: 90, A: 255})

	smooth := DefaultGeometry()
	stepped := DefaultGeometry()
	stepped.CornerStep = 64

	a := Compose(photo, smooth)
	b := Compose(photo, stepped)

	if countMarginPixels(a, smooth) == countMarginPixels(b, stepped) {
		t.Fatal("expected quantized corner mask to change the cutout")
	}
}

func countMarginPixels(canvas *image.RGBA, g Geometry) int {
	n := 0
	for j := 0; j < g.CornerRadius; j++ {
		for i := 0; i < g.CornerRadius; i++ {
			if canvas.RGBAAt(g.OuterMargin+i, g.OuterMargin+j) == marginColor {
				n++
			}
		}
	}
	return n
}
