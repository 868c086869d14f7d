package effect

import "strings"

const (
	// DefaultIntensity is the overall strength of the tone effect.
	DefaultIntensity = 0.7

	// DefaultQuality is the JPEG quality of the developed output.
	DefaultQuality = 95
)

// Geometry holds the frame layout constants, all in output pixels.
type Geometry struct {
	TopBorder       int
	SideBorder      int
	BottomBorder    int
	CornerRadius    int
	OuterMargin     int
	ShadowSize      int
	BorderThickness int

	// CornerStep quantizes the squared corner distance into buckets of this
	// size before the radius comparison, producing a faceted arc instead of
	// a smooth one. Zero keeps the smooth arc.
	CornerStep int
}

// Params configures one full render: tone intensity, downscale factors,
// frame geometry and output encoding quality.
type Params struct {
	Intensity float64
	ScaleW    float64
	ScaleH    float64
	Geometry  Geometry
	Quality   int
}

func DefaultGeometry() Geometry {
	return Geometry{
		TopBorder:       80,
		SideBorder:      120,
		BottomBorder:    200,
		CornerRadius:    24,
		OuterMargin:     60,
		ShadowSize:      16,
		BorderThickness: 3,
	}
}

func DefaultParams() Params {
	return Params{
		Intensity: DefaultIntensity,
		ScaleW:    0.65,
		ScaleH:    0.95,
		Geometry:  DefaultGeometry(),
		Quality:   DefaultQuality,
	}
}

const (
	PresetClassic = "classic"
	PresetMini    = "mini"
	PresetCompact = "compact"
)

// PresetParams returns the named preset, falling back to the classic layout
// for empty or unknown names. The presets are the frame variants the camera
// app shipped over time; they share one algorithm and differ only in these
// constants.
func PresetParams(name string) Params {
	p := DefaultParams()
	switch strings.ToLower(strings.TrimSpace(name)) {
	case PresetMini:
		p.ScaleW, p.ScaleH = 0.65, 0.45
	case PresetCompact:
		p.ScaleW, p.ScaleH = 0.85, 0.65
		p.Geometry.CornerRadius = 18
		p.Geometry.CornerStep = 64
	}
	return p
}

func KnownPreset(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", PresetClassic, PresetMini, PresetCompact:
		return true
	default:
		return false
	}
}

// normalize fills zero values with defaults so callers can override only the
// fields they care about.
func (p Params) normalize() Params {
	if p.ScaleW <= 0 {
		p.ScaleW = 0.65
	}
	if p.ScaleH <= 0 {
		p.ScaleH = 0.95
	}
	if p.Quality <= 0 || p.Quality > 100 {
		p.Quality = DefaultQuality
	}
	if p.Geometry == (Geometry{}) {
		p.Geometry = DefaultGeometry()
	}
	return p
}
