package engine

import (
	"math"

	iface "github.com/patcharaph/AI-Privacy-Guard/interface"
)

// Plate filter stages. All stages except shrink are pure predicates over
// the box and the image dimensions; shrink rewrites the box. The stages
// intersect: a box must pass every enabled stage to survive.

func passConfidence(b iface.BoundingBox, floor float32) bool {
	return b.Confidence >= floor
}

func passAspect(b iface.BoundingBox, minAspect, maxAspect float64) bool {
	if b.Height <= 0 {
		return false
	}
	aspect := float64(b.Width) / float64(b.Height)
	return aspect >= minAspect && aspect <= maxAspect
}

func passYFrac(b iface.BoundingBox, imgH int, minFrac float64) bool {
	if imgH <= 0 {
		return false
	}
	centerY := float64(b.Y) + float64(b.Height)/2
	return centerY/float64(imgH) >= minFrac
}

func passSize(b iface.BoundingBox, imgW, imgH int, maxWFrac, maxHFrac float64) bool {
	if imgW <= 0 || imgH <= 0 {
		return false
	}
	return float64(b.Width)/float64(imgW) <= maxWFrac &&
		float64(b.Height)/float64(imgH) <= maxHFrac
}

// shrinkBox erodes the box inward by frac per edge. The second return is
// false when shrinking collapses the box.
func shrinkBox(b iface.BoundingBox, frac float64) (iface.BoundingBox, bool) {
	dx := int(math.Floor(float64(b.Width) * frac))
	dy := int(math.Floor(float64(b.Height) * frac))
	b.X += dx
	b.Y += dy
	b.Width -= 2 * dx
	b.Height -= 2 * dy
	if b.Width <= 0 || b.Height <= 0 {
		return b, false
	}
	return b, true
}

// Apply runs the enabled stages against one plate box. On rejection it
// returns the name of the failing stage so callers can log it for tuning.
func (c PlateFilterConfig) Apply(b iface.BoundingBox, imgW, imgH int) (iface.BoundingBox, bool, string) {
	if c.FilterByConfidence && !passConfidence(b, c.ConfidenceFloor) {
		return b, false, "confidence_floor"
	}
	if c.FilterByAspect && !passAspect(b, c.AspectMin, c.AspectMax) {
		return b, false, "aspect"
	}
	if c.FilterByYFrac && !passYFrac(b, imgH, c.MinCenterYFrac) {
		return b, false, "y_frac"
	}
	if c.FilterBySize && !passSize(b, imgW, imgH, c.MaxWidthFrac, c.MaxHeightFrac) {
		return b, false, "size"
	}
	// Shrink runs last so it erodes the box the other stages accepted.
	if c.Shrink {
		shrunk, ok := shrinkBox(b, c.ShrinkFrac)
		if !ok {
			return b, false, "shrink"
		}
		b = shrunk
	}
	return b, true, ""
}
