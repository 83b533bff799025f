package engine

import (
	"fmt"
	"image"
	"os"
	"strings"
	"sync"

	"gocv.io/x/gocv"

	iface "github.com/patcharaph/AI-Privacy-Guard/interface"
)

// dnnBackend runs a YOLO-style ONNX detector through OpenCV's DNN module.
// It keeps only low-floor candidates plus NMS; confidence calibration
// against the caller's sensitivity happens in the detection engine.
type dnnBackend struct {
	name      string
	modelPath string
	inputSize int
	candFloor float32
	nmsThresh float32

	mu    sync.Mutex
	net   gocv.Net
	ready bool
}

func newDNNBackend(name, modelPath string, inputSize int) *dnnBackend {
	if inputSize <= 0 {
		inputSize = 640
	}
	return &dnnBackend{
		name:      name,
		modelPath: modelPath,
		inputSize: inputSize,
		candFloor: 0.05,
		nmsThresh: 0.45,
	}
}

func (d *dnnBackend) Name() string            { return d.name }
func (d *dnnBackend) Kind() iface.BackendKind { return iface.KindLearned }
func (d *dnnBackend) Ready() bool             { return d.ready }

func (d *dnnBackend) Load() error {
	if d.modelPath == "" {
		return fmt.Errorf("no model path configured")
	}
	if !strings.HasSuffix(d.modelPath, ".onnx") {
		return fmt.Errorf("dnn backend only supports .onnx, got %s", d.modelPath)
	}
	if _, err := os.Stat(d.modelPath); err != nil {
		return err
	}
	net := gocv.ReadNetFromONNX(d.modelPath)
	if net.Empty() {
		return fmt.Errorf("unreadable onnx model %s", d.modelPath)
	}
	d.net = net
	d.ready = true
	return nil
}

func (d *dnnBackend) Detect(img gocv.Mat) ([]iface.RawDetection, error) {
	if !d.ready {
		return nil, fmt.Errorf("backend %s not loaded", d.name)
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	blob := gocv.BlobFromImage(img, 1.0/255.0,
		image.Pt(d.inputSize, d.inputSize), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	out := d.net.Forward("")
	defer out.Close()

	return d.decode(out, img.Cols(), img.Rows())
}

// decode unpacks a single [1, attrs, boxes] output tensor (or its
// transposed [1, boxes, attrs] layout) where attrs = cx,cy,w,h followed by
// per-class scores, then applies NMS.
func (d *dnnBackend) decode(out gocv.Mat, imgW, imgH int) ([]iface.RawDetection, error) {
	sizes := out.Size()
	if len(sizes) != 3 {
		return nil, fmt.Errorf("unexpected output rank %d", len(sizes))
	}
	attrs, boxes := sizes[1], sizes[2]
	transposed := attrs > boxes
	if transposed {
		attrs, boxes = boxes, attrs
	}
	if attrs < 5 {
		return nil, fmt.Errorf("unexpected output shape %v", sizes)
	}

	m := out.Reshape(1, sizes[1])
	defer m.Close()
	at := func(attr, box int) float32 {
		if transposed {
			return m.GetFloatAt(box, attr)
		}
		return m.GetFloatAt(attr, box)
	}

	xf := float32(imgW) / float32(d.inputSize)
	yf := float32(imgH) / float32(d.inputSize)

	var rects []image.Rectangle
	var scores []float32
	for b := 0; b < boxes; b++ {
		best := float32(0)
		for a := 4; a < attrs; a++ {
			if s := at(a, b); s > best {
				best = s
			}
		}
		if best < d.candFloor {
			continue
		}
		cx, cy := at(0, b), at(1, b)
		w, h := at(2, b), at(3, b)
		x := int((cx - w/2) * xf)
		y := int((cy - h/2) * yf)
		rects = append(rects, image.Rect(x, y, x+int(w*xf), y+int(h*yf)))
		scores = append(scores, best)
	}
	if len(rects) == 0 {
		return nil, nil
	}

	keep := gocv.NMSBoxes(rects, scores, d.candFloor, d.nmsThresh)
	dets := make([]iface.RawDetection, 0, len(keep))
	for _, i := range keep {
		dets = append(dets, iface.RawDetection{Rect: rects[i], Score: scores[i]})
	}
	return dets, nil
}

func (d *dnnBackend) Close() error {
	if !d.ready {
		return nil
	}
	d.ready = false
	return d.net.Close()
}
