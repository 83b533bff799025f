package iface

import "fmt"

// Category is a detection task the engine can perform.
type Category string

const (
	CategoryFace         Category = "face"
	CategoryLicensePlate Category = "license_plate"
)

// BlurMode selects the redaction style applied to detected regions.
type BlurMode string

const (
	BlurGaussian   BlurMode = "gaussian"
	BlurPixelation BlurMode = "pixelation"
	BlurEmoji      BlurMode = "emoji"
)

// BoundingBox is an axis-aligned pixel rectangle, origin top-left.
type BoundingBox struct {
	X          int      `json:"x"`
	Y          int      `json:"y"`
	Width      int      `json:"width"`
	Height     int      `json:"height"`
	Confidence float32  `json:"confidence"`
	Category   Category `json:"detection_type"`
	Enabled    bool     `json:"enabled"`
}

// Clamp restricts the box to an imgW x imgH frame. The second return is
// false when nothing of the box survives inside the frame.
func (b BoundingBox) Clamp(imgW, imgH int) (BoundingBox, bool) {
	x0 := max(0, b.X)
	y0 := max(0, b.Y)
	x1 := min(imgW, b.X+b.Width)
	y1 := min(imgH, b.Y+b.Height)
	if x1-x0 <= 0 || y1-y0 <= 0 {
		return b, false
	}
	b.X, b.Y, b.Width, b.Height = x0, y0, x1-x0, y1-y0
	return b, true
}

// DetectionOptions carries the caller-facing knobs for one batch.
type DetectionOptions struct {
	BlurMode     BlurMode `json:"blur_mode"`
	Intensity    int      `json:"blur_intensity"`
	DetectFaces  bool     `json:"detect_faces"`
	DetectPlates bool     `json:"detect_plates"`
	Sensitivity  int      `json:"detection_sensitivity"`
	EmojiKey     string   `json:"emoji_key"`
}

// Normalized clamps the numeric knobs into [0,100] and defaults the mode.
func (o DetectionOptions) Normalized() DetectionOptions {
	o.Intensity = min(100, max(0, o.Intensity))
	o.Sensitivity = min(100, max(0, o.Sensitivity))
	switch o.BlurMode {
	case BlurGaussian, BlurPixelation, BlurEmoji:
	default:
		o.BlurMode = BlurGaussian
	}
	return o
}

// ProcessedResult is the per-image output of the batch orchestrator.
// Immutable once produced; holds no references into the call that made it.
type ProcessedResult struct {
	ID               string        `json:"image_id"`
	OriginalFilename string        `json:"original_filename"`
	ProcessedImage   string        `json:"processed_image_base64"`
	Detections       []BoundingBox `json:"detections"`
	ProcessingMS     float64       `json:"processing_time_ms"`
}

// DecodeError reports corrupt or unsupported image bytes. In batch context
// it is recovered by skipping the image.
type DecodeError struct {
	Filename string
	Reason   string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %s", e.Filename, e.Reason)
}

// BackendLoadError reports missing or incompatible model weights for one
// backend. Recovered by falling through the provider chain.
type BackendLoadError struct {
	Category Category
	Backend  string
	Err      error
}

func (e *BackendLoadError) Error() string {
	return fmt.Sprintf("load %s backend %s: %v", e.Category, e.Backend, e.Err)
}

func (e *BackendLoadError) Unwrap() error { return e.Err }

// BackendInferenceError reports a runtime failure during one detection
// call. Recovered by treating that capability's result as empty for the
// affected image only.
type BackendInferenceError struct {
	Category Category
	Backend  string
	Err      error
}

func (e *BackendInferenceError) Error() string {
	return fmt.Sprintf("inference %s backend %s: %v", e.Category, e.Backend, e.Err)
}

func (e *BackendInferenceError) Unwrap() error { return e.Err }

// TransformBoundsError reports a box that fell entirely outside the image
// after clamping. Recovered by skipping that box.
type TransformBoundsError struct {
	Box BoundingBox
}

func (e *TransformBoundsError) Error() string {
	return fmt.Sprintf("box %dx%d at (%d,%d) outside image bounds",
		e.Box.Width, e.Box.Height, e.Box.X, e.Box.Y)
}
