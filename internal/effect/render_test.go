package effect

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func TestRenderDimensionContract(t *testing.T) {
	input := encodePNG(t, uniformRGBA(200, 150, color.RGBA{R: 90, G: 80, B: 70, A: 255}))

	p := DefaultParams()
	p.ScaleW, p.ScaleH = 0.65, 0.45

	result, err := Render(input, p)
	if err != nil {
		t.Fatalf("render returned error: %v", err)
	}

	resizedW := int(200 * p.ScaleW) // 130
	resizedH := int(150 * p.ScaleH) // 67
	wantW := resizedW + 2*p.Geometry.SideBorder + 2*p.Geometry.OuterMargin
	wantH := resizedH + p.Geometry.TopBorder + p.Geometry.BottomBorder + 2*p.Geometry.OuterMargin
	if result.Width != wantW || result.Height != wantH {
		t.Fatalf("expected output %dx%d, got %dx%d", wantW, wantH, result.Width, result.Height)
	}

	decoded, _, err := image.Decode(bytes.NewReader(result.Data))
	if err != nil {
		t.Fatalf("decode rendered output: %v", err)
	}
	if decoded.Bounds().Dx() != wantW || decoded.Bounds().Dy() != wantH {
		t.Fatalf("encoded dimensions %dx%d disagree with result %dx%d",
			decoded.Bounds().Dx(), decoded.Bounds().Dy(), result.Width, result.Height)
	}
}

func TestRenderDecodeFailure(t *testing.T) {
	_, err := Render([]byte("this is not an image"), DefaultParams())
	if err == nil {
		t.Fatal("expected decode error for non-image bytes")
	}
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
}

func TestRenderEndToEnd(t *testing.T) {
	input := encodePNG(t, uniformRGBA(1000, 1500, color.RGBA{R: 100, G: 100, B: 220, A: 255}))

	result, err := Render(input, DefaultParams())
	if err != nil {
		t.Fatalf("render returned error: %v", err)
	}

	if result.Width <= 1000 || result.Height <= 1500 {
		t.Fatalf("expected framed output to exceed 1000x1500, got %dx%d", result.Width, result.Height)
	}

	decoded, _, err := image.Decode(bytes.NewReader(result.Data))
	if err != nil {
		t.Fatalf("decode rendered output: %v", err)
	}

	g := DefaultGeometry()
	cx := result.Width / 2

	// The frame rows just inside the top margin stay white (allowing for
	// JPEG noise) until the shadow band begins.
	for y := g.OuterMargin + 1; y < g.OuterMargin+g.TopBorder-g.ShadowSize; y++ {
		r, gr, b, _ := decoded.At(cx, y).RGBA()
		if r>>8 < 248 || gr>>8 < 248 || b>>8 < 248 {
			t.Fatalf("expected white frame row at y=%d, got r=%d g=%d b=%d", y, r>>8, gr>>8, b>>8)
		}
	}

	// The composited photo keeps the boosted blue channel: 220*1.42 clamps
	// to 255 before suppression is even considered.
	py := g.OuterMargin + g.TopBorder + (result.Height-g.OuterMargin*2-g.TopBorder-g.BottomBorder)/2
	r, gr, b, _ := decoded.At(cx, py).RGBA()
	if b>>8 < 248 {
		t.Fatalf("expected saturated blue channel in photo region, got %d", b>>8)
	}
	if b <= r || b <= gr {
		t.Fatalf("expected blue to dominate photo region, got r=%d g=%d b=%d", r>>8, gr>>8, b>>8)
	}
}

func TestOutputName(t *testing.T) {
	cases := map[string]string{
		"captures/IMG_0042.jpg":  "captures/IMG_0042_polarized.jpg",
		"shot.png":               "shot_polarized.jpg",
		"uploads/job-1/source":   "uploads/job-1/source_polarized.jpg",
		"":                       "capture_polarized.jpg",
		"gallery/photo.portrait": "gallery/photo_polarized.jpg",
	}
	for in, want := range cases {
		if got := OutputName(in); got != want {
			t.Fatalf("OutputName(%q) = %q, want %q", in, got, want)
		}
	}
}

func encodePNG(t *testing.T, img *image.RGBA) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode source png: %v", err)
	}
	return buf.Bytes()
}
