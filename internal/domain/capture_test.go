package domain

import "testing"

func TestCreateCaptureRequestValidate(t *testing.T) {
	valid := CreateCaptureRequest{
		SourceType: SourceTypeS3Presigned,
		Renders: []RenderStep{
			{ID: "polaroid", Kind: RenderKindPolaroid, Preset: "classic"},
			{ID: "thumb", Kind: RenderKindThumbnail, Width: 320},
		},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid request, got error: %v", err)
	}

	empty := CreateCaptureRequest{}
	if err := empty.Validate(); err == nil {
		t.Fatal("expected validation error for empty request")
	}

	missingObjectKey := CreateCaptureRequest{
		SourceType: SourceTypeLocalFile,
		Renders:    DefaultRenders(),
	}
	if err := missingObjectKey.Validate(); err == nil {
		t.Fatal("expected validation error for local_file without object_key")
	}

	badKind := CreateCaptureRequest{
		SourceType: SourceTypeS3Presigned,
		Renders:    []RenderStep{{ID: "x", Kind: "sepia"}},
	}
	if err := badKind.Validate(); err == nil {
		t.Fatal("expected validation error for unknown render kind")
	}

	missingWidth := CreateCaptureRequest{
		SourceType: SourceTypeS3Presigned,
		Renders:    []RenderStep{{ID: "thumb", Kind: RenderKindThumbnail}},
	}
	if err := missingWidth.Validate(); err == nil {
		t.Fatal("expected validation error for thumbnail without width")
	}

	negativeIntensity := -0.5
	badIntensity := CreateCaptureRequest{
		SourceType: SourceTypeS3Presigned,
		Renders:    []RenderStep{{ID: "p", Kind: RenderKindPolaroid, Intensity: &negativeIntensity}},
	}
	if err := badIntensity.Validate(); err == nil {
		t.Fatal("expected validation error for negative intensity")
	}
}

func TestDefaultRendersAreValid(t *testing.T) {
	req := CreateCaptureRequest{
		SourceType: SourceTypeS3Presigned,
		Renders:    DefaultRenders(),
	}
	if err := req.Validate(); err != nil {
		t.Fatalf("expected default renders to validate, got: %v", err)
	}
}
