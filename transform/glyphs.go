package transform

import (
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"
)

var (
	faceYellow   = color.RGBA{255, 220, 0, 0}
	faceBorder   = color.RGBA{220, 180, 0, 0}
	inkBlack     = color.RGBA{0, 0, 0, 0}
	monkeyBrown  = color.RGBA{200, 130, 80, 0}
	monkeyBorder = color.RGBA{160, 100, 60, 0}
	monkeyHands  = color.RGBA{220, 160, 100, 0}
	starGold     = color.RGBA{255, 215, 0, 0}
	starBorder   = color.RGBA{200, 165, 0, 0}
	heartRed     = color.RGBA{220, 0, 0, 0}
	lockBody     = color.RGBA{50, 150, 200, 0}
	lockBorder   = color.RGBA{30, 100, 150, 0}
	lockShackle  = color.RGBA{100, 100, 100, 0}
	lockKeyhole  = color.RGBA{50, 50, 50, 0}
	plainAmber   = color.RGBA{255, 200, 0, 0}
)

func glyphGeometry(w, h int) (center image.Point, radius int) {
	return image.Pt(w/2, h/2), min(w, h) / 2
}

func drawPlainCircle(overlay *gocv.Mat, w, h int) {
	center, radius := glyphGeometry(w, h)
	gocv.Circle(overlay, center, radius, plainAmber, -1)
}

func drawSmile(overlay *gocv.Mat, w, h int) {
	center, radius := glyphGeometry(w, h)
	gocv.Circle(overlay, center, radius, faceYellow, -1)
	gocv.Circle(overlay, center, radius, faceBorder, 3)
	eyeR := max(3, radius/6)
	gocv.Circle(overlay, image.Pt(center.X-radius/3, center.Y-radius/4), eyeR, inkBlack, -1)
	gocv.Circle(overlay, image.Pt(center.X+radius/3, center.Y-radius/4), eyeR, inkBlack, -1)
	gocv.Ellipse(overlay, image.Pt(center.X, center.Y+radius/6),
		image.Pt(radius/2, radius/3), 0, 0, 180, inkBlack, max(2, radius/15))
}

func drawCool(overlay *gocv.Mat, w, h int) {
	center, radius := glyphGeometry(w, h)
	gocv.Circle(overlay, center, radius, faceYellow, -1)
	gocv.Circle(overlay, center, radius, faceBorder, 3)
	// Sunglasses band across the upper half.
	glassY := center.Y - radius/4
	glassH := max(4, radius/4)
	gocv.Rectangle(overlay, image.Rect(
		center.X-radius+radius/6, glassY-glassH/2,
		center.X+radius-radius/6, glassY+glassH/2), inkBlack, -1)
	gocv.Ellipse(overlay, image.Pt(center.X, center.Y+radius/3),
		image.Pt(radius/3, radius/6), 0, 0, 180, inkBlack, max(2, radius/15))
}

func drawMonkey(overlay *gocv.Mat, w, h int) {
	center, radius := glyphGeometry(w, h)
	gocv.Circle(overlay, center, radius, monkeyBrown, -1)
	gocv.Circle(overlay, center, radius, monkeyBorder, 3)
	earR := radius / 3
	gocv.Circle(overlay, image.Pt(center.X-radius, center.Y-radius/2), earR, monkeyBorder, -1)
	gocv.Circle(overlay, image.Pt(center.X+radius, center.Y-radius/2), earR, monkeyBorder, -1)
	// Hands over the eyes.
	gocv.Ellipse(overlay, image.Pt(center.X-radius/3, center.Y-radius/6),
		image.Pt(radius/2, radius/3), 0, 0, 360, monkeyHands, -1)
	gocv.Ellipse(overlay, image.Pt(center.X+radius/3, center.Y-radius/6),
		image.Pt(radius/2, radius/3), 0, 0, 360, monkeyHands, -1)
}

func drawStar(overlay *gocv.Mat, w, h int) {
	center, radius := glyphGeometry(w, h)
	pts := make([]image.Point, 0, 10)
	for i := 0; i < 5; i++ {
		outer := float64(i*72-90) * math.Pi / 180
		pts = append(pts, image.Pt(
			center.X+int(float64(radius)*0.95*math.Cos(outer)),
			center.Y+int(float64(radius)*0.95*math.Sin(outer))))
		inner := outer + 36*math.Pi/180
		pts = append(pts, image.Pt(
			center.X+int(float64(radius)*0.4*math.Cos(inner)),
			center.Y+int(float64(radius)*0.4*math.Sin(inner))))
	}
	poly := gocv.NewPointsVectorFromPoints([][]image.Point{pts})
	defer poly.Close()
	gocv.FillPoly(overlay, poly, starGold)
	gocv.Polylines(overlay, poly, true, starBorder, 2)
}

func drawHeart(overlay *gocv.Mat, w, h int) {
	center, radius := glyphGeometry(w, h)
	hr := radius * 2 / 3
	gocv.Circle(overlay, image.Pt(center.X-hr/2, center.Y-hr/3), hr/2+2, heartRed, -1)
	gocv.Circle(overlay, image.Pt(center.X+hr/2, center.Y-hr/3), hr/2+2, heartRed, -1)
	tri := [][]image.Point{{
		image.Pt(center.X-radius+radius/6, center.Y-radius/6),
		image.Pt(center.X, center.Y+radius-radius/6),
		image.Pt(center.X+radius-radius/6, center.Y-radius/6),
	}}
	poly := gocv.NewPointsVectorFromPoints(tri)
	defer poly.Close()
	gocv.FillPoly(overlay, poly, heartRed)
}

func drawLock(overlay *gocv.Mat, w, h int) {
	center, radius := glyphGeometry(w, h)
	bodyW, bodyH := radius, radius
	bodyX := center.X - bodyW/2
	bodyY := center.Y
	gocv.Rectangle(overlay, image.Rect(bodyX, bodyY, bodyX+bodyW, bodyY+bodyH), lockBody, -1)
	gocv.Rectangle(overlay, image.Rect(bodyX, bodyY, bodyX+bodyW, bodyY+bodyH), lockBorder, 3)
	// Shackle arc on top of the body.
	gocv.Ellipse(overlay, image.Pt(center.X, bodyY),
		image.Pt(bodyW/3, bodyH/2), 0, 180, 360, lockShackle, max(3, radius/8))
	gocv.Circle(overlay, image.Pt(center.X, bodyY+bodyH/3), max(2, radius/8), lockKeyhole, -1)
	gocv.Rectangle(overlay, image.Rect(
		center.X-max(1, radius/12), bodyY+bodyH/3,
		center.X+max(1, radius/12), bodyY+bodyH*2/3), lockKeyhole, -1)
}
