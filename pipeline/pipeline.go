package pipeline

import (
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/patcharaph/AI-Privacy-Guard/engine"
	iface "github.com/patcharaph/AI-Privacy-Guard/interface"
	"github.com/patcharaph/AI-Privacy-Guard/logger"
	"github.com/patcharaph/AI-Privacy-Guard/monitor"
	"github.com/patcharaph/AI-Privacy-Guard/transform"
)

// InputImage is one batch item: raw bytes plus the upload filename.
type InputImage struct {
	Data     []byte
	Filename string
}

// Config bounds what the orchestrator accepts and how it re-encodes.
type Config struct {
	MaxFileSizeMB     int      `yaml:"maxFileSizeMB"`
	AllowedExtensions []string `yaml:"allowedExtensions"`
	OutputFormat      string   `yaml:"outputFormat"`
}

func DefaultConfig() Config {
	return Config{
		MaxFileSizeMB:     10,
		AllowedExtensions: []string{"jpg", "jpeg", "png", "webp"},
		OutputFormat:      "png",
	}
}

// Orchestrator drives detect-then-transform per image and aggregates
// batch results. It holds no per-call state; decoded buffers live and die
// inside a single invocation.
type Orchestrator struct {
	cfg Config
	eng *engine.Engine
}

func New(cfg Config, eng *engine.Engine) *Orchestrator {
	if cfg.OutputFormat == "" {
		cfg.OutputFormat = "png"
	}
	if len(cfg.AllowedExtensions) == 0 {
		cfg.AllowedExtensions = DefaultConfig().AllowedExtensions
	}
	return &Orchestrator{cfg: cfg, eng: eng}
}

// Validate applies the upload checks for one file.
func (o *Orchestrator) Validate(data []byte, filename string) (bool, string) {
	return ValidateUpload(data, filename, o.cfg.MaxFileSizeMB, o.cfg.AllowedExtensions)
}

// ProcessSingle runs the full pipeline for one image.
func (o *Orchestrator) ProcessSingle(data []byte, filename string, opts iface.DetectionOptions) (iface.ProcessedResult, error) {
	start := time.Now()
	id := uuid.NewString()[:8]

	img, err := Decode(data, filename)
	if err != nil {
		return iface.ProcessedResult{}, err
	}
	defer img.Close()

	logger.Log().Info("processing image",
		zap.String("id", id),
		zap.String("filename", filename),
		zap.Int("width", img.Cols()),
		zap.Int("height", img.Rows()))

	boxes := o.eng.Detect(img, opts)

	working := img.Clone()
	defer working.Close()
	transform.Apply(&working, boxes, opts)

	encoded, err := Encode(working, o.cfg.OutputFormat)
	if err != nil {
		return iface.ProcessedResult{}, err
	}

	if boxes == nil {
		boxes = []iface.BoundingBox{}
	}
	return iface.ProcessedResult{
		ID:               id,
		OriginalFilename: filename,
		ProcessedImage:   encoded,
		Detections:       boxes,
		ProcessingMS:     roundMS(time.Since(start)),
	}, nil
}

// ProcessBatch processes images in order, isolating per-image failures:
// a bad file is logged and skipped, never aborting the batch. Returns the
// surviving results, total wall time in ms and the summed detection count.
func (o *Orchestrator) ProcessBatch(images []InputImage, opts iface.DetectionOptions) ([]iface.ProcessedResult, float64, int) {
	start := time.Now()
	results := make([]iface.ProcessedResult, 0, len(images))
	totalDetections := 0

	for _, in := range images {
		if ok, reason := o.Validate(in.Data, in.Filename); !ok {
			logger.Log().Warn("skipping invalid upload",
				zap.String("filename", in.Filename),
				zap.String("reason", reason))
			monitor.ImagesFailed.Inc()
			continue
		}
		result, err := o.ProcessSingle(in.Data, in.Filename, opts)
		if err != nil {
			logger.Log().Warn("skipping image after processing failure",
				zap.String("filename", in.Filename),
				zap.Error(err))
			monitor.ImagesFailed.Inc()
			continue
		}
		results = append(results, result)
		totalDetections += len(result.Detections)
		monitor.ImagesProcessed.Inc()
		monitor.DetectionsFound.Add(float64(len(result.Detections)))
	}

	return results, roundMS(time.Since(start)), totalDetections
}

func roundMS(d time.Duration) float64 {
	return math.Round(float64(d.Microseconds())/1000*100) / 100
}
