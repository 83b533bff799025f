package transform

import (
	"image"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	iface "github.com/patcharaph/AI-Privacy-Guard/interface"
	"github.com/patcharaph/AI-Privacy-Guard/logger"
)

// Apply redacts every enabled box on img in place, in the order supplied,
// so overlapping boxes compose sequentially. Each mode clamps its box
// first and no-ops when nothing of it lies inside the image.
func Apply(img *gocv.Mat, boxes []iface.BoundingBox, opts iface.DetectionOptions) {
	opts = opts.Normalized()
	imgW, imgH := img.Cols(), img.Rows()
	for _, b := range boxes {
		if !b.Enabled {
			continue
		}
		clamped, ok := b.Clamp(imgW, imgH)
		if !ok {
			logger.Log().Debug("skipping box outside image",
				zap.String("mode", string(opts.BlurMode)),
				zap.Error(&iface.TransformBoundsError{Box: b}))
			continue
		}
		switch opts.BlurMode {
		case iface.BlurPixelation:
			pixelate(img, clamped, opts.Intensity)
		case iface.BlurEmoji:
			emojiOverlay(img, clamped, opts.Intensity, opts.EmojiKey)
		default:
			gaussianBlur(img, clamped, opts.Intensity)
		}
	}
}

func regionOf(img *gocv.Mat, b iface.BoundingBox) gocv.Mat {
	return img.Region(image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height))
}

// gaussianBlur blurs the region with an intensity-scaled odd kernel.
// Above intensity 50 it runs extra passes: iterated smaller-kernel passes
// obscure more at a fixed region scale than one larger kernel.
func gaussianBlur(img *gocv.Mat, b iface.BoundingBox, intensity int) {
	region := regionOf(img, b)
	defer region.Close()

	k := max(3, min(b.Width, b.Height)*intensity/100)
	if k%2 == 0 {
		k++
	}
	gocv.GaussianBlur(region, &region, image.Pt(k, k), 0, 0, gocv.BorderDefault)
	if intensity > 50 {
		passes := (intensity-50)/25 + 1
		for i := 0; i < passes; i++ {
			gocv.GaussianBlur(region, &region, image.Pt(k, k), 0, 0, gocv.BorderDefault)
		}
	}
}

// pixelate downsamples the region then restores it with nearest-neighbor
// interpolation, keeping the block edges visible.
func pixelate(img *gocv.Mat, b iface.BoundingBox, intensity int) {
	region := regionOf(img, b)
	defer region.Close()

	block := max(2, min(b.Width, b.Height)*intensity/100/4)
	smallW := max(1, b.Width/block)
	smallH := max(1, b.Height/block)

	small := gocv.NewMat()
	defer small.Close()
	gocv.Resize(region, &small, image.Pt(smallW, smallH), 0, 0, gocv.InterpolationLinear)
	gocv.Resize(small, &region, image.Pt(b.Width, b.Height), 0, 0, gocv.InterpolationNearestNeighbor)
}

// emojiOverlay alpha-blends a procedurally drawn glyph over the region.
// Intensity 0 leaves the region untouched; 100 is fully opaque.
func emojiOverlay(img *gocv.Mat, b iface.BoundingBox, intensity int, styleKey string) {
	if intensity <= 0 {
		return
	}
	region := regionOf(img, b)
	defer region.Close()

	overlay := region.Clone()
	defer overlay.Close()
	glyphFor(styleKey)(&overlay, b.Width, b.Height)

	alpha := float64(intensity) / 100
	gocv.AddWeighted(overlay, alpha, region, 1-alpha, 0, &region)
}
