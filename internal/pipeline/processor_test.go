package pipeline

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sailendrachettri/polarize/internal/domain"
	"github.com/sailendrachettri/polarize/internal/effect"
)

func TestLocalProcessorDevelopsCapture(t *testing.T) {
	tmp := t.TempDir()
	inputPath := filepath.Join(tmp, "capture.png")
	outputDir := filepath.Join(tmp, "out")

	srcBytes := buildTestPNG(t, 240, 120)
	if err := os.WriteFile(inputPath, srcBytes, 0o644); err != nil {
		t.Fatalf("write input image: %v", err)
	}

	processor, err := NewLocalProcessor(outputDir)
	if err != nil {
		t.Fatalf("new local processor: %v", err)
	}

	req := Request{
		CaptureID:  "capture-local-1",
		SourceType: SourceTypeLocalFile,
		ObjectKey:  inputPath,
		Renders: []domain.RenderStep{
			{ID: "print", Kind: domain.RenderKindPolaroid, Preset: effect.PresetMini},
			{ID: "thumb", Kind: domain.RenderKindThumbnail, Width: 80, Quality: 75},
		},
	}

	result, err := processor.Process(context.Background(), req)
	if err != nil {
		t.Fatalf("process request: %v", err)
	}

	if result.SourceBytes != len(srcBytes) {
		t.Fatalf("expected source bytes %d, got %d", len(srcBytes), result.SourceBytes)
	}
	if len(result.Outputs) != 2 {
		t.Fatalf("expected 2 outputs, got %d", len(result.Outputs))
	}

	framed := result.Outputs[0]
	if !strings.HasSuffix(framed.Path, "capture_polarized.jpg") {
		t.Fatalf("expected _polarized output name, got %s", framed.Path)
	}
	p := effect.PresetParams(effect.PresetMini)
	wantW := int(240*p.ScaleW) + 2*p.Geometry.SideBorder + 2*p.Geometry.OuterMargin
	wantH := int(120*p.ScaleH) + p.Geometry.TopBorder + p.Geometry.BottomBorder + 2*p.Geometry.OuterMargin
	if framed.Width != wantW || framed.Height != wantH {
		t.Fatalf("expected print %dx%d, got %dx%d", wantW, wantH, framed.Width, framed.Height)
	}
	verifyImageWidth(t, framed.Path, wantW)

	thumb := result.Outputs[1]
	if !strings.HasSuffix(thumb.Path, "capture_thumb.jpg") {
		t.Fatalf("expected _thumb output name, got %s", thumb.Path)
	}
	verifyImageWidth(t, thumb.Path, 80)
}

func TestLocalProcessorPassthroughOnUndecodableSource(t *testing.T) {
	tmp := t.TempDir()
	inputPath := filepath.Join(tmp, "not-a-photo.bin")
	srcBytes := []byte("definitely not image data")
	if err := os.WriteFile(inputPath, srcBytes, 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}

	processor, err := NewLocalProcessor(filepath.Join(tmp, "out"))
	if err != nil {
		t.Fatalf("new local processor: %v", err)
	}

	result, err := processor.Process(context.Background(), Request{
		CaptureID:  "capture-passthrough",
		SourceType: SourceTypeLocalFile,
		ObjectKey:  inputPath,
		Renders: []domain.RenderStep{
			{ID: "print", Kind: domain.RenderKindPolaroid},
		},
	})
	if err != nil {
		t.Fatalf("expected passthrough, got error: %v", err)
	}

	if len(result.Outputs) != 1 {
		t.Fatalf("expected 1 output, got %d", len(result.Outputs))
	}
	out := result.Outputs[0]
	if !out.Passthrough {
		t.Fatal("expected passthrough output for undecodable source")
	}

	written, err := os.ReadFile(out.Path)
	if err != nil {
		t.Fatalf("read passthrough output: %v", err)
	}
	if !bytes.Equal(written, srcBytes) {
		t.Fatal("expected passthrough output to equal the original bytes")
	}
}

func TestLocalProcessorUnsupportedSourceType(t *testing.T) {
	processor, err := NewLocalProcessor(t.TempDir())
	if err != nil {
		t.Fatalf("new local processor: %v", err)
	}

	_, err = processor.Process(context.Background(), Request{
		CaptureID:  "capture-unsupported",
		SourceType: domain.SourceTypeS3Presigned,
		ObjectKey:  "uploads/capture/source",
		Renders: []domain.RenderStep{
			{ID: "print", Kind: domain.RenderKindPolaroid},
		},
	})
	if err == nil {
		t.Fatal("expected unsupported source_type error")
	}
}

func TestLocalProcessorRejectsUnknownRenderKind(t *testing.T) {
	tmp := t.TempDir()
	inputPath := filepath.Join(tmp, "capture.png")
	if err := os.WriteFile(inputPath, buildTestPNG(t, 32, 32), 0o644); err != nil {
		t.Fatalf("write input image: %v", err)
	}

	processor, err := NewLocalProcessor(filepath.Join(tmp, "out"))
	if err != nil {
		t.Fatalf("new local processor: %v", err)
	}

	_, err = processor.Process(context.Background(), Request{
		CaptureID:  "capture-bad-kind",
		SourceType: SourceTypeLocalFile,
		ObjectKey:  inputPath,
		Renders: []domain.RenderStep{
			{ID: "x", Kind: "sepia"},
		},
	})
	if err == nil {
		t.Fatal("expected invalid render kind error")
	}
}

func buildTestPNG(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8((x * 255) / w),
				G: uint8((y * 255) / h),
				B: 140,
				A: 255,
			})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode source png: %v", err)
	}
	return buf.Bytes()
}

func verifyImageWidth(t *testing.T, path string, want int) {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open image %s: %v", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		t.Fatalf("decode image %s: %v", path, err)
	}

	if got := img.Bounds().Dx(); got != want {
		t.Fatalf("expected width %d, got %d", want, got)
	}
}
