package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	iface "github.com/patcharaph/AI-Privacy-Guard/interface"
)

// testImage builds a 200x200 BGR frame with a per-pixel color gradient so
// every redaction mode leaves a measurable trace.
func testImage(t *testing.T) gocv.Mat {
	t.Helper()
	img := gocv.NewMatWithSize(200, 200, gocv.MatTypeCV8UC3)
	t.Cleanup(func() { img.Close() })
	for y := 0; y < 200; y++ {
		for x := 0; x < 200; x++ {
			img.SetUCharAt(y, x*3+0, uint8((x*7+y*13)%256))
			img.SetUCharAt(y, x*3+1, uint8((x*3+y*5)%256))
			img.SetUCharAt(y, x*3+2, uint8((x+y*2)%256))
		}
	}
	return img
}

// checkerImage is a fine two-tone pattern, the worst case for smoothing.
func checkerImage(t *testing.T) gocv.Mat {
	t.Helper()
	img := gocv.NewMatWithSize(200, 200, gocv.MatTypeCV8UC3)
	t.Cleanup(func() { img.Close() })
	for y := 0; y < 200; y++ {
		for x := 0; x < 200; x++ {
			var v uint8
			if (x+y)%2 == 0 {
				v = 255
			}
			img.SetUCharAt(y, x*3+0, v)
			img.SetUCharAt(y, x*3+1, v)
			img.SetUCharAt(y, x*3+2, v)
		}
	}
	return img
}

// sharpness is the mean squared horizontal neighbor difference of the
// green channel inside a box. Smoothing always lowers it.
func sharpness(img gocv.Mat, b iface.BoundingBox) float64 {
	var sum float64
	var n int
	for y := b.Y; y < b.Y+b.Height; y++ {
		for x := b.X; x < b.X+b.Width-1; x++ {
			d := float64(img.GetUCharAt(y, x*3+1)) - float64(img.GetUCharAt(y, (x+1)*3+1))
			sum += d * d
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func distinctColors(img gocv.Mat, b iface.BoundingBox) int {
	seen := make(map[[3]uint8]struct{})
	for y := b.Y; y < b.Y+b.Height; y++ {
		for x := b.X; x < b.X+b.Width; x++ {
			seen[[3]uint8{
				img.GetUCharAt(y, x*3+0),
				img.GetUCharAt(y, x*3+1),
				img.GetUCharAt(y, x*3+2),
			}] = struct{}{}
		}
	}
	return len(seen)
}

func enabledBox(x, y, w, h int) iface.BoundingBox {
	return iface.BoundingBox{X: x, Y: y, Width: w, Height: h, Enabled: true}
}

func optsFor(mode iface.BlurMode, intensity int, key string) iface.DetectionOptions {
	return iface.DetectionOptions{BlurMode: mode, Intensity: intensity, EmojiKey: key}
}

func TestApplyGaussian(t *testing.T) {
	box := enabledBox(20, 20, 100, 100)

	t.Run("deterministic for identical inputs", func(t *testing.T) {
		a := checkerImage(t)
		b := checkerImage(t)
		Apply(&a, []iface.BoundingBox{box}, optsFor(iface.BlurGaussian, 80, ""))
		Apply(&b, []iface.BoundingBox{box}, optsFor(iface.BlurGaussian, 80, ""))
		assert.Equal(t, a.ToBytes(), b.ToBytes())
	})

	t.Run("smooths the region", func(t *testing.T) {
		img := checkerImage(t)
		before := sharpness(img, box)
		Apply(&img, []iface.BoundingBox{box}, optsFor(iface.BlurGaussian, 50, ""))
		assert.Less(t, sharpness(img, box), before)
	})

	t.Run("higher intensity smooths at least as much", func(t *testing.T) {
		low := checkerImage(t)
		high := checkerImage(t)
		Apply(&low, []iface.BoundingBox{box}, optsFor(iface.BlurGaussian, 30, ""))
		Apply(&high, []iface.BoundingBox{box}, optsFor(iface.BlurGaussian, 90, ""))
		assert.LessOrEqual(t, sharpness(high, box), sharpness(low, box))
	})

	t.Run("pixels outside the box are untouched", func(t *testing.T) {
		img := testImage(t)
		ref := testImage(t)
		Apply(&img, []iface.BoundingBox{box}, optsFor(iface.BlurGaussian, 80, ""))
		for _, p := range [][2]int{{5, 5}, {150, 150}, {199, 0}, {0, 199}} {
			y, x := p[0], p[1]
			for c := 0; c < 3; c++ {
				assert.Equal(t, ref.GetUCharAt(y, x*3+c), img.GetUCharAt(y, x*3+c),
					"pixel (%d,%d) channel %d", x, y, c)
			}
		}
	})

	t.Run("tiny region does not panic", func(t *testing.T) {
		img := testImage(t)
		Apply(&img, []iface.BoundingBox{enabledBox(10, 10, 3, 3)}, optsFor(iface.BlurGaussian, 100, ""))
	})
}

func TestApplyPixelation(t *testing.T) {
	box := enabledBox(10, 10, 100, 100)

	t.Run("quantizes the region into blocks", func(t *testing.T) {
		img := testImage(t)
		before := distinctColors(img, box)
		Apply(&img, []iface.BoundingBox{box}, optsFor(iface.BlurPixelation, 100, ""))
		after := distinctColors(img, box)
		assert.Greater(t, before, 1000)
		assert.LessOrEqual(t, after, 64)
	})

	t.Run("lower intensity keeps more detail", func(t *testing.T) {
		coarse := testImage(t)
		fine := testImage(t)
		Apply(&coarse, []iface.BoundingBox{box}, optsFor(iface.BlurPixelation, 100, ""))
		Apply(&fine, []iface.BoundingBox{box}, optsFor(iface.BlurPixelation, 20, ""))
		assert.GreaterOrEqual(t, distinctColors(fine, box), distinctColors(coarse, box))
	})
}

func TestApplyEmoji(t *testing.T) {
	box := enabledBox(40, 40, 80, 80)

	t.Run("intensity zero leaves the image unchanged", func(t *testing.T) {
		img := testImage(t)
		ref := testImage(t)
		Apply(&img, []iface.BoundingBox{box}, optsFor(iface.BlurEmoji, 0, StyleSmile))
		assert.Equal(t, ref.ToBytes(), img.ToBytes())
	})

	t.Run("full intensity paints the glyph opaquely", func(t *testing.T) {
		img := testImage(t)
		// Unknown key falls back to a plain filled circle, so the box
		// center carries the fill color exactly (stored BGR).
		Apply(&img, []iface.BoundingBox{box}, optsFor(iface.BlurEmoji, 100, "no-such-style"))
		cy, cx := box.Y+box.Height/2, box.X+box.Width/2
		assert.Equal(t, uint8(0), img.GetUCharAt(cy, cx*3+0))
		assert.Equal(t, uint8(200), img.GetUCharAt(cy, cx*3+1))
		assert.Equal(t, uint8(255), img.GetUCharAt(cy, cx*3+2))
	})

	t.Run("half intensity blends with the background", func(t *testing.T) {
		img := testImage(t)
		ref := testImage(t)
		Apply(&img, []iface.BoundingBox{box}, optsFor(iface.BlurEmoji, 50, StyleSmile))
		cy, cx := box.Y+box.Height/2, box.X+box.Width/2
		assert.NotEqual(t, ref.GetUCharAt(cy, cx*3+2), img.GetUCharAt(cy, cx*3+2))
	})

	t.Run("every style key draws", func(t *testing.T) {
		for _, key := range StyleKeys() {
			img := testImage(t)
			ref := testImage(t)
			Apply(&img, []iface.BoundingBox{box}, optsFor(iface.BlurEmoji, 100, key))
			assert.NotEqual(t, ref.ToBytes(), img.ToBytes(), "style %s", key)
		}
	})
}

func TestApplyBoxHandling(t *testing.T) {
	t.Run("disabled boxes are skipped", func(t *testing.T) {
		img := testImage(t)
		ref := testImage(t)
		off := enabledBox(20, 20, 100, 100)
		off.Enabled = false
		Apply(&img, []iface.BoundingBox{off}, optsFor(iface.BlurGaussian, 100, ""))
		assert.Equal(t, ref.ToBytes(), img.ToBytes())
	})

	t.Run("box outside the image is a no-op", func(t *testing.T) {
		img := testImage(t)
		ref := testImage(t)
		Apply(&img, []iface.BoundingBox{enabledBox(500, 500, 50, 50)},
			optsFor(iface.BlurGaussian, 100, ""))
		assert.Equal(t, ref.ToBytes(), img.ToBytes())
	})

	t.Run("overhanging box is clamped then redacted", func(t *testing.T) {
		img := testImage(t)
		inside := iface.BoundingBox{X: 160, Y: 160, Width: 40, Height: 40}
		before := distinctColors(img, inside)
		Apply(&img, []iface.BoundingBox{enabledBox(160, 160, 100, 100)},
			optsFor(iface.BlurPixelation, 100, ""))
		assert.Greater(t, before, 500)
		assert.LessOrEqual(t, distinctColors(img, inside), 32)
	})

	t.Run("overlapping boxes compose in order", func(t *testing.T) {
		img := testImage(t)
		a := enabledBox(20, 20, 80, 80)
		b := enabledBox(60, 60, 80, 80)
		Apply(&img, []iface.BoundingBox{a, b}, optsFor(iface.BlurEmoji, 100, "no-such-style"))
		// Second box's circle center lands inside the overlap and wins.
		cy, cx := b.Y+b.Height/2, b.X+b.Width/2
		require.Equal(t, uint8(255), img.GetUCharAt(cy, cx*3+2))
		assert.Equal(t, uint8(200), img.GetUCharAt(cy, cx*3+1))
	})
}
