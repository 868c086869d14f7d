package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sailendrachettri/polarize/internal/domain"
)

const SourceTypeLocalFile = domain.SourceTypeLocalFile

var (
	ErrUnsupportedSourceType = errors.New("unsupported source_type")
	ErrInvalidRenderKind     = errors.New("invalid render kind")
)

type Request struct {
	CaptureID  string
	SourceType string
	ObjectKey  string
	Renders    []domain.RenderStep
}

type Output struct {
	RenderID    string
	Kind        string
	Format      string
	Path        string
	Bytes       int
	Width       int
	Height      int
	Passthrough bool
}

type Result struct {
	SourceBytes int
	Outputs     []Output
}

type Fetcher interface {
	Fetch(ctx context.Context, req Request) ([]byte, error)
}

type Emitter interface {
	Emit(ctx context.Context, req Request, step domain.RenderStep, rendered Rendered) (Output, error)
}

type Processor struct {
	fetcher     Fetcher
	transformer Transformer
	emitter     Emitter
}

func NewLocalProcessor(outputDir string) (*Processor, error) {
	if strings.TrimSpace(outputDir) == "" {
		return nil, errors.New("output directory is required")
	}
	return &Processor{
		fetcher:     LocalFileFetcher{},
		transformer: renderTransformer{thumb: newThumbnailScaler()},
		emitter:     LocalFileEmitter{OutputDir: outputDir},
	}, nil
}

func NewObjectStoreProcessor(fetcher Fetcher, emitter Emitter) (*Processor, error) {
	if fetcher == nil || emitter == nil {
		return nil, errors.New("fetcher and emitter are required")
	}
	return &Processor{
		fetcher:     fetcher,
		transformer: renderTransformer{thumb: newThumbnailScaler()},
		emitter:     emitter,
	}, nil
}

// Process fetches the capture source once and develops every requested
// render from it. A source that fails to decode becomes a passthrough
// output rather than an error; see the transformer.
func (p *Processor) Process(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.CaptureID) == "" {
		return Result{}, errors.New("capture_id is required")
	}
	if len(req.Renders) == 0 {
		return Result{}, errors.New("at least one render step is required")
	}

	sourceBytes, err := p.fetcher.Fetch(ctx, req)
	if err != nil {
		return Result{}, fmt.Errorf("fetch stage: %w", err)
	}

	out := Result{
		SourceBytes: len(sourceBytes),
		Outputs:     make([]Output, 0, len(req.Renders)),
	}
	for _, step := range req.Renders {
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		default:
		}

		rendered, err := p.transformer.Transform(ctx, req, sourceBytes, step)
		if err != nil {
			return Result{}, fmt.Errorf("transform stage render=%s kind=%s: %w", step.ID, step.Kind, err)
		}

		written, err := p.emitter.Emit(ctx, req, step, rendered)
		if err != nil {
			return Result{}, fmt.Errorf("emit stage render=%s kind=%s: %w", step.ID, step.Kind, err)
		}
		out.Outputs = append(out.Outputs, written)
	}

	return out, nil
}

type LocalFileFetcher struct{}

func (LocalFileFetcher) Fetch(ctx context.Context, req Request) ([]byte, error) {
	if !strings.EqualFold(req.SourceType, SourceTypeLocalFile) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSourceType, req.SourceType)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	data, err := os.ReadFile(req.ObjectKey)
	if err != nil {
		return nil, fmt.Errorf("read capture file %s: %w", req.ObjectKey, err)
	}
	return data, nil
}

type LocalFileEmitter struct {
	OutputDir string
}

func (e LocalFileEmitter) Emit(_ context.Context, req Request, step domain.RenderStep, rendered Rendered) (Output, error) {
	if strings.TrimSpace(e.OutputDir) == "" {
		return Output{}, errors.New("output directory is required")
	}
	if strings.TrimSpace(step.ID) == "" {
		return Output{}, errors.New("render step id is required")
	}

	captureDir := filepath.Join(e.OutputDir, sanitizePathToken(req.CaptureID))
	if err := os.MkdirAll(captureDir, 0o755); err != nil {
		return Output{}, fmt.Errorf("create output dir: %w", err)
	}

	fullPath := filepath.Join(captureDir, rendered.Name)
	if err := os.WriteFile(fullPath, rendered.Data, 0o644); err != nil {
		return Output{}, fmt.Errorf("write output file: %w", err)
	}

	return Output{
		RenderID:    step.ID,
		Kind:        step.Kind,
		Format:      rendered.Format,
		Path:        fullPath,
		Bytes:       len(rendered.Data),
		Width:       rendered.Width,
		Height:      rendered.Height,
		Passthrough: rendered.Passthrough,
	}, nil
}

func sanitizePathToken(in string) string {
	in = strings.TrimSpace(in)
	if in == "" {
		return "unknown"
	}

	var b strings.Builder
	b.Grow(len(in))
	for _, r := range in {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
