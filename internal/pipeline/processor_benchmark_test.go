package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/sailendrachettri/polarize/internal/domain"
)

func BenchmarkProcessorPolaroid(b *testing.B) {
	source := benchmarkPNG(b, 1920, 1080)
	processor, err := NewLocalProcessor(b.TempDir())
	if err != nil {
		b.Fatalf("new local processor: %v", err)
	}
	processor.fetcher = staticFetcher{data: source}
	processor.emitter = discardEmitter{}

	req := Request{
		CaptureID:  "bench",
		SourceType: SourceTypeLocalFile,
		ObjectKey:  "ignored.png",
		Renders: []domain.RenderStep{
			{ID: "print", Kind: domain.RenderKindPolaroid},
		},
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		req.CaptureID = fmt.Sprintf("bench-polaroid-%d", i)
		if _, err := processor.Process(context.Background(), req); err != nil {
			b.Fatalf("process: %v", err)
		}
	}
}

func BenchmarkProcessorThumbnail(b *testing.B) {
	source := benchmarkPNG(b, 1920, 1080)
	processor, err := NewLocalProcessor(b.TempDir())
	if err != nil {
		b.Fatalf("new local processor: %v", err)
	}
	processor.fetcher = staticFetcher{data: source}
	processor.emitter = discardEmitter{}

	req := Request{
		CaptureID:  "bench",
		SourceType: SourceTypeLocalFile,
		ObjectKey:  "ignored.png",
		Renders: []domain.RenderStep{
			{ID: "thumb", Kind: domain.RenderKindThumbnail, Width: 320, Quality: 82},
		},
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		req.CaptureID = fmt.Sprintf("bench-thumb-%d", i)
		if _, err := processor.Process(context.Background(), req); err != nil {
			b.Fatalf("process: %v", err)
		}
	}
}

type staticFetcher struct {
	data []byte
}

func (f staticFetcher) Fetch(_ context.Context, _ Request) ([]byte, error) {
	return f.data, nil
}

type discardEmitter struct{}

func (discardEmitter) Emit(_ context.Context, _ Request, step domain.RenderStep, rendered Rendered) (Output, error) {
	return Output{
		RenderID:    step.ID,
		Kind:        step.Kind,
		Format:      rendered.Format,
		Bytes:       len(rendered.Data),
		Width:       rendered.Width,
		Height:      rendered.Height,
		Passthrough: rendered.Passthrough,
	}, nil
}

func benchmarkPNG(b *testing.B, w, h int) []byte {
	b.Helper()

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
		b.Fatalf("encode source png: %v", err)
	}
	return buf.Bytes()
}
