package engine

import (
	"fmt"
	"image"
	"math"
	"os"
	"sync"

	"gocv.io/x/gocv"

	iface "github.com/patcharaph/AI-Privacy-Guard/interface"
)

// cascadeBackend is the lighter classical fallback: a Haar cascade run on
// the grayscale frame. Cascades report no scores, so a pseudo-confidence
// is synthesized from the detection's relative size; the classical
// sensitivity band is calibrated around that scale.
type cascadeBackend struct {
	name         string
	cascadePath  string
	minNeighbors int

	mu         sync.Mutex
	classifier gocv.CascadeClassifier
	ready      bool
}

func newCascadeBackend(name, cascadePath string) *cascadeBackend {
	return &cascadeBackend{
		name:         name,
		cascadePath:  cascadePath,
		minNeighbors: 3,
	}
}

func (c *cascadeBackend) Name() string            { return c.name }
func (c *cascadeBackend) Kind() iface.BackendKind { return iface.KindClassical }
func (c *cascadeBackend) Ready() bool             { return c.ready }

func (c *cascadeBackend) Load() error {
	if c.cascadePath == "" {
		return fmt.Errorf("no cascade path configured")
	}
	if _, err := os.Stat(c.cascadePath); err != nil {
		return err
	}
	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(c.cascadePath) {
		_ = classifier.Close()
		return fmt.Errorf("unreadable cascade %s", c.cascadePath)
	}
	c.classifier = classifier
	c.ready = true
	return nil
}

func (c *cascadeBackend) Detect(img gocv.Mat) ([]iface.RawDetection, error) {
	if !c.ready {
		return nil, fmt.Errorf("backend %s not loaded", c.name)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)

	rects := c.classifier.DetectMultiScaleWithParams(gray, 1.1, c.minNeighbors,
		0, image.Pt(24, 24), image.Pt(0, 0))

	frameArea := float64(img.Cols() * img.Rows())
	dets := make([]iface.RawDetection, 0, len(rects))
	for _, r := range rects {
		dets = append(dets, iface.RawDetection{
			Rect:  r,
			Score: synthesizeScore(float64(r.Dx()*r.Dy()), frameArea),
		})
	}
	return dets, nil
}

// synthesizeScore maps a detection's relative area into (0.45, 0.95].
// Larger cascade hits are more reliable; tiny ones sit near the classical
// band's strict end so low sensitivity rejects them.
func synthesizeScore(area, frameArea float64) float32 {
	if frameArea <= 0 || area <= 0 {
		return 0.45
	}
	rel := math.Sqrt(area / frameArea)
	return float32(0.45 + 0.5*math.Min(1, rel*4))
}

func (c *cascadeBackend) Close() error {
	if !c.ready {
		return nil
	}
	c.ready = false
	return c.classifier.Close()
}
