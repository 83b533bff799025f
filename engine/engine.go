package engine

import (
	"sync"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	iface "github.com/patcharaph/AI-Privacy-Guard/interface"
	"github.com/patcharaph/AI-Privacy-Guard/logger"
)

// capability owns the ordered provider chain for one detection task.
// Loading happens at most once, on first use, behind the sync.Once.
// Detect paths read active after once.Do, which orders the load's writes;
// health paths read through snapshot since they never touch the once.
type capability struct {
	category  iface.Category
	providers []iface.Backend

	once sync.Once

	mu     sync.Mutex
	active iface.Backend
	state  int
}

func (c *capability) load() {
	for i, p := range c.providers {
		if err := p.Load(); err != nil {
			loadErr := &iface.BackendLoadError{Category: c.category, Backend: p.Name(), Err: err}
			logger.Log().Warn("backend load failed, trying next provider",
				zap.String("category", string(c.category)),
				zap.String("backend", p.Name()),
				zap.Error(loadErr))
			continue
		}
		state := StateLoadedPrimary
		if i > 0 {
			state = StateLoadedFallback
		}
		c.mu.Lock()
		c.active, c.state = p, state
		c.mu.Unlock()
		logger.Log().Info("backend loaded",
			zap.String("category", string(c.category)),
			zap.String("backend", p.Name()),
			zap.String("state", StateName(state)))
		return
	}
	c.mu.Lock()
	c.state = StateUnavailable
	c.mu.Unlock()
	logger.Log().Error("no backend available, capability disabled",
		zap.String("category", string(c.category)))
}

// snapshot reads the load outcome without triggering a load.
func (c *capability) snapshot() (iface.Backend, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active, c.state
}

// Engine maps sensitivity to per-backend confidence thresholds, invokes
// the capability backends and applies the geometric post-filters.
type Engine struct {
	cfg  Config
	caps map[iface.Category]*capability
}

// New builds an engine with the standard provider chains: a learned DNN
// detector first, the classical cascade as fallback.
func New(cfg Config) *Engine {
	face := []iface.Backend{
		newDNNBackend("face-dnn", cfg.Models.FaceModel, cfg.InputSize),
		newCascadeBackend("face-cascade", cfg.Models.FaceCascade),
	}
	plate := []iface.Backend{
		newDNNBackend("plate-dnn", cfg.Models.PlateModel, cfg.InputSize),
		newCascadeBackend("plate-cascade", cfg.Models.PlateCascade),
	}
	return NewWithBackends(cfg, face, plate)
}

// NewWithBackends wires explicit provider chains; used by tests and by
// callers embedding their own detectors.
func NewWithBackends(cfg Config, face, plate []iface.Backend) *Engine {
	return &Engine{
		cfg: cfg,
		caps: map[iface.Category]*capability{
			iface.CategoryFace:         {category: iface.CategoryFace, providers: face},
			iface.CategoryLicensePlate: {category: iface.CategoryLicensePlate, providers: plate},
		},
	}
}

// Ready reports whether a backend is serving the category. It does not
// trigger loading; before first use it reports false.
func (e *Engine) Ready(category iface.Category) bool {
	c, ok := e.caps[category]
	if !ok {
		return false
	}
	active, _ := c.snapshot()
	return active != nil
}

// States returns the load state per capability, for health reporting.
func (e *Engine) States() map[iface.Category]string {
	out := make(map[iface.Category]string, len(e.caps))
	for cat, c := range e.caps {
		_, state := c.snapshot()
		if state == 0 {
			state = StateUnloaded
		}
		out[cat] = StateName(state)
	}
	return out
}

// Detect runs the enabled capabilities against one decoded image and
// returns calibrated, filtered, bounds-clamped boxes. A failure in one
// capability never aborts the other.
func (e *Engine) Detect(img gocv.Mat, opts iface.DetectionOptions) []iface.BoundingBox {
	opts = opts.Normalized()
	var out []iface.BoundingBox
	if opts.DetectFaces {
		out = append(out, e.detectCategory(img, iface.CategoryFace, opts.Sensitivity)...)
	}
	if opts.DetectPlates {
		out = append(out, e.detectCategory(img, iface.CategoryLicensePlate, opts.Sensitivity)...)
	}
	return out
}

func (e *Engine) detectCategory(img gocv.Mat, category iface.Category, sensitivity int) []iface.BoundingBox {
	c := e.caps[category]
	c.once.Do(c.load)
	if c.active == nil {
		// Capability marked unavailable at load time: silently no boxes.
		return nil
	}

	raw, err := c.active.Detect(img)
	if err != nil {
		infErr := &iface.BackendInferenceError{Category: category, Backend: c.active.Name(), Err: err}
		logger.Log().Error("inference failed, returning empty result for capability",
			zap.String("category", string(category)),
			zap.String("backend", c.active.Name()),
			zap.Error(infErr))
		return nil
	}

	band := e.bandFor(c.active.Kind())
	threshold := band.ThresholdFor(sensitivity)
	imgW, imgH := img.Cols(), img.Rows()

	boxes := make([]iface.BoundingBox, 0, len(raw))
	for _, det := range raw {
		if det.Score < threshold {
			logger.Log().Debug("detection below sensitivity threshold",
				zap.String("category", string(category)),
				zap.String("kind", c.active.Kind().String()),
				zap.Float32("score", det.Score),
				zap.Float32("threshold", threshold))
			continue
		}
		box := iface.BoundingBox{
			X:          det.Rect.Min.X,
			Y:          det.Rect.Min.Y,
			Width:      det.Rect.Dx(),
			Height:     det.Rect.Dy(),
			Confidence: det.Score,
			Category:   category,
			Enabled:    true,
		}
		box, ok := box.Clamp(imgW, imgH)
		if !ok {
			continue
		}
		switch category {
		case iface.CategoryFace:
			box = padFace(box, e.cfg.FacePaddingFrac, imgW, imgH)
		case iface.CategoryLicensePlate:
			filtered, ok, stage := e.cfg.Plate.Apply(box, imgW, imgH)
			if !ok {
				logger.Log().Debug("plate candidate rejected",
					zap.String("stage", stage),
					zap.Float32("confidence", box.Confidence),
					zap.Int("width", box.Width),
					zap.Int("height", box.Height))
				continue
			}
			box = filtered
		}
		// Every returned box is clamped to image bounds.
		box, ok = box.Clamp(imgW, imgH)
		if !ok {
			continue
		}
		boxes = append(boxes, box)
	}
	return boxes
}

func (e *Engine) bandFor(kind iface.BackendKind) ConfBand {
	if kind == iface.KindClassical {
		return e.cfg.ClassicalBand
	}
	return e.cfg.LearnedBand
}

// padFace expands a face box by a fixed fraction of its smaller side on
// every edge, for fuller coverage of hairlines and chins.
func padFace(b iface.BoundingBox, frac float64, imgW, imgH int) iface.BoundingBox {
	pad := int(float64(min(b.Width, b.Height)) * frac)
	b.X -= pad
	b.Y -= pad
	b.Width += 2 * pad
	b.Height += 2 * pad
	clamped, ok := b.Clamp(imgW, imgH)
	if !ok {
		return b
	}
	return clamped
}

// Close releases every loaded backend. Called at process exit only.
func (e *Engine) Close() {
	for _, c := range e.caps {
		for _, p := range c.providers {
			if p.Ready() {
				_ = p.Close()
			}
		}
	}
}
