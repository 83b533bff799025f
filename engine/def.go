package engine

// Per-capability load states.
const (
	StateUnloaded       = 0x0001
	StateLoadedPrimary  = 0x0002
	StateLoadedFallback = 0x0003
	StateUnavailable    = 0x0004
)

func StateName(state int) string {
	switch state {
	case StateUnloaded:
		return "unloaded"
	case StateLoadedPrimary:
		return "loaded-primary"
	case StateLoadedFallback:
		return "loaded-fallback"
	case StateUnavailable:
		return "unavailable"
	}
	return "unknown"
}

// ConfBand is the confidence threshold range one backend kind operates in.
// Sensitivity 0 maps to Max (strictest), 100 to Min (most permissive).
type ConfBand struct {
	Min float32 `yaml:"min"`
	Max float32 `yaml:"max"`
}

// ThresholdFor linearly interpolates the band for a 0-100 sensitivity.
func (b ConfBand) ThresholdFor(sensitivity int) float32 {
	s := min(100, max(0, sensitivity))
	return b.Max - float32(s)/100*(b.Max-b.Min)
}

// PlateFilterConfig holds the five plate filter stages. Each stage can be
// toggled independently; enabled stages intersect. Shrink always runs last.
type PlateFilterConfig struct {
	FilterByConfidence bool    `yaml:"filterByConfidence"`
	ConfidenceFloor    float32 `yaml:"confidenceFloor"`

	FilterByAspect bool    `yaml:"filterByAspect"`
	AspectMin      float64 `yaml:"aspectMin"`
	AspectMax      float64 `yaml:"aspectMax"`

	FilterByYFrac  bool    `yaml:"filterByYFrac"`
	MinCenterYFrac float64 `yaml:"minCenterYFrac"`

	FilterBySize  bool    `yaml:"filterBySize"`
	MaxWidthFrac  float64 `yaml:"maxWidthFrac"`
	MaxHeightFrac float64 `yaml:"maxHeightFrac"`

	Shrink     bool    `yaml:"shrink"`
	ShrinkFrac float64 `yaml:"shrinkFrac"`
}

// ModelPaths points at the weights for each backend. An empty path
// disables that backend so the next provider in the chain is tried.
type ModelPaths struct {
	FaceModel    string `yaml:"faceModel"`
	FaceCascade  string `yaml:"faceCascade"`
	PlateModel   string `yaml:"plateModel"`
	PlateCascade string `yaml:"plateCascade"`
}

// Config is the full detection engine configuration.
type Config struct {
	Models          ModelPaths        `yaml:"models"`
	LearnedBand     ConfBand          `yaml:"learnedBand"`
	ClassicalBand   ConfBand          `yaml:"classicalBand"`
	FacePaddingFrac float64           `yaml:"facePaddingFrac"`
	Plate           PlateFilterConfig `yaml:"plateFilter"`
	InputSize       int               `yaml:"inputSize"`
}

// DefaultConfig returns the tuned defaults. Plate thresholds came out of
// offline runs against dashcam footage; the aspect band admits both EU
// long plates and squarer US ones.
func DefaultConfig() Config {
	return Config{
		LearnedBand:     ConfBand{Min: 0.20, Max: 0.80},
		ClassicalBand:   ConfBand{Min: 0.30, Max: 0.65},
		FacePaddingFrac: 0.10,
		InputSize:       640,
		Plate: PlateFilterConfig{
			FilterByConfidence: true,
			ConfidenceFloor:    0.25,
			FilterByAspect:     true,
			AspectMin:          1.2,
			AspectMax:          6.5,
			FilterByYFrac:      true,
			MinCenterYFrac:     0.25,
			FilterBySize:       true,
			MaxWidthFrac:       0.50,
			MaxHeightFrac:      0.25,
			Shrink:             true,
			ShrinkFrac:         0.06,
		},
	}
}
