package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	iface "github.com/patcharaph/AI-Privacy-Guard/interface"
)

func plateBox(x, y, w, h int, conf float32) iface.BoundingBox {
	return iface.BoundingBox{
		X: x, Y: y, Width: w, Height: h,
		Confidence: conf,
		Category:   iface.CategoryLicensePlate,
		Enabled:    true,
	}
}

func TestThresholdFor(t *testing.T) {
	learned := ConfBand{Min: 0.20, Max: 0.80}
	classical := ConfBand{Min: 0.30, Max: 0.65}

	t.Run("endpoints", func(t *testing.T) {
		assert.InDelta(t, 0.80, learned.ThresholdFor(0), 1e-6)
		assert.InDelta(t, 0.20, learned.ThresholdFor(100), 1e-6)
		assert.InDelta(t, 0.50, learned.ThresholdFor(50), 1e-6)
	})

	t.Run("monotonically decreasing in sensitivity", func(t *testing.T) {
		prev := learned.ThresholdFor(0)
		for s := 1; s <= 100; s++ {
			cur := learned.ThresholdFor(s)
			assert.LessOrEqual(t, cur, prev, "sensitivity %d", s)
			prev = cur
		}
	})

	t.Run("bands differ per backend kind", func(t *testing.T) {
		assert.NotEqual(t, learned.ThresholdFor(50), classical.ThresholdFor(50))
	})

	t.Run("out of range sensitivity clamps", func(t *testing.T) {
		assert.Equal(t, learned.ThresholdFor(0), learned.ThresholdFor(-20))
		assert.Equal(t, learned.ThresholdFor(100), learned.ThresholdFor(250))
	})
}

func TestPlateFilterStages(t *testing.T) {
	cfg := DefaultConfig().Plate
	const imgW, imgH = 1000, 800

	t.Run("good plate survives all stages", func(t *testing.T) {
		// Wide low box, 4:1, below mid-frame.
		b := plateBox(400, 600, 200, 50, 0.7)
		out, ok, stage := cfg.Apply(b, imgW, imgH)
		assert.True(t, ok, "rejected at stage %s", stage)
		assert.Greater(t, out.Width, 0)
		assert.Greater(t, out.Height, 0)
	})

	t.Run("confidence floor is absolute", func(t *testing.T) {
		b := plateBox(400, 600, 200, 50, 0.1)
		_, ok, stage := cfg.Apply(b, imgW, imgH)
		assert.False(t, ok)
		assert.Equal(t, "confidence_floor", stage)
	})

	t.Run("square box fails aspect", func(t *testing.T) {
		b := plateBox(400, 600, 60, 60, 0.7)
		_, ok, stage := cfg.Apply(b, imgW, imgH)
		assert.False(t, ok)
		assert.Equal(t, "aspect", stage)
	})

	t.Run("sky-high box fails y_frac", func(t *testing.T) {
		b := plateBox(400, 10, 200, 50, 0.7)
		_, ok, stage := cfg.Apply(b, imgW, imgH)
		assert.False(t, ok)
		assert.Equal(t, "y_frac", stage)
	})

	t.Run("whole-vehicle box fails size", func(t *testing.T) {
		b := plateBox(100, 400, 700, 350, 0.7)
		_, ok, stage := cfg.Apply(b, imgW, imgH)
		assert.False(t, ok)
		assert.Equal(t, "size", stage)
	})

	t.Run("surviving box respects aspect band", func(t *testing.T) {
		for _, b := range []iface.BoundingBox{
			plateBox(300, 500, 180, 45, 0.8),
			plateBox(100, 700, 120, 60, 0.5),
			plateBox(600, 600, 260, 40, 0.9),
		} {
			out, ok, _ := cfg.Apply(b, imgW, imgH)
			if !ok {
				continue
			}
			aspect := float64(out.Width) / float64(out.Height)
			assert.GreaterOrEqual(t, aspect, cfg.AspectMin)
			assert.LessOrEqual(t, aspect, cfg.AspectMax)
		}
	})

	t.Run("shrink erodes inward", func(t *testing.T) {
		b := plateBox(400, 600, 200, 50, 0.7)
		out, ok, _ := cfg.Apply(b, imgW, imgH)
		assert.True(t, ok)
		assert.Less(t, out.Width, b.Width)
		assert.Less(t, out.Height, b.Height)
		assert.Greater(t, out.X, b.X)
		assert.Greater(t, out.Y, b.Y)
	})

	t.Run("shrink collapse drops the box", func(t *testing.T) {
		shrunk, ok := shrinkBox(plateBox(0, 0, 2, 1, 0.9), 0.5)
		assert.False(t, ok)
		assert.LessOrEqual(t, shrunk.Width, 0)
	})

	t.Run("disabled stages are skipped", func(t *testing.T) {
		loose := cfg
		loose.FilterByAspect = false
		loose.FilterByYFrac = false
		b := plateBox(400, 10, 60, 60, 0.7) // fails aspect and y_frac
		_, ok, _ := loose.Apply(b, imgW, imgH)
		assert.True(t, ok)
	})

	t.Run("stages intersect", func(t *testing.T) {
		// Passes everything except size.
		b := plateBox(100, 600, 600, 150, 0.9)
		_, ok, stage := cfg.Apply(b, imgW, imgH)
		assert.False(t, ok)
		assert.Equal(t, "size", stage)
	})
}

func TestClamp(t *testing.T) {
	const imgW, imgH = 640, 480

	t.Run("inside box unchanged", func(t *testing.T) {
		b := plateBox(10, 10, 100, 50, 0.5)
		out, ok := b.Clamp(imgW, imgH)
		assert.True(t, ok)
		assert.Equal(t, b, out)
	})

	t.Run("overhanging box clamped to bounds", func(t *testing.T) {
		b := plateBox(-20, 450, 100, 100, 0.5)
		out, ok := b.Clamp(imgW, imgH)
		assert.True(t, ok)
		assert.GreaterOrEqual(t, out.X, 0)
		assert.GreaterOrEqual(t, out.Y, 0)
		assert.LessOrEqual(t, out.X+out.Width, imgW)
		assert.LessOrEqual(t, out.Y+out.Height, imgH)
	})

	t.Run("fully outside box rejected", func(t *testing.T) {
		_, ok := plateBox(700, 500, 100, 50, 0.5).Clamp(imgW, imgH)
		assert.False(t, ok)
	})
}
