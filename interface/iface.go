package iface

import (
	"image"

	"gocv.io/x/gocv"
)

// BackendKind distinguishes learned (DNN) detectors from classical
// (cascade) ones. Confidence semantics are incompatible across kinds, so
// sensitivity mapping is always resolved per kind, never shared.
type BackendKind int

const (
	KindLearned BackendKind = iota + 1
	KindClassical
)

func (k BackendKind) String() string {
	switch k {
	case KindLearned:
		return "learned"
	case KindClassical:
		return "classical"
	}
	return "unknown"
}

// RawDetection is a candidate box straight out of a backend, before any
// calibration or geometric filtering.
type RawDetection struct {
	Rect  image.Rectangle
	Score float32
}

// Backend is one concrete detector serving a capability. Load is called at
// most once per process; Detect must be safe for sequential reuse after a
// successful Load.
type Backend interface {
	Name() string
	Kind() BackendKind
	Load() error
	Ready() bool
	Detect(img gocv.Mat) ([]RawDetection, error)
	Close() error
}
