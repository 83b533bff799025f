package transform

import "gocv.io/x/gocv"

// Style keys for the emoji overlay mode.
const (
	StyleSmile  = "smile"
	StyleCool   = "cool"
	StyleMonkey = "monkey"
	StyleStar   = "star"
	StyleHeart  = "heart"
	StyleLock   = "lock"
)

// glyphFunc draws one vector glyph onto a w x h region-local overlay.
type glyphFunc func(overlay *gocv.Mat, w, h int)

// glyphs is the closed dispatch table for style keys. Unknown keys fall
// back to a plain filled circle via glyphFor.
var glyphs = map[string]glyphFunc{
	StyleSmile:  drawSmile,
	StyleCool:   drawCool,
	StyleMonkey: drawMonkey,
	StyleStar:   drawStar,
	StyleHeart:  drawHeart,
	StyleLock:   drawLock,
}

func glyphFor(key string) glyphFunc {
	if g, ok := glyphs[key]; ok {
		return g
	}
	return drawPlainCircle
}

// StyleKeys lists the supported emoji style keys.
func StyleKeys() []string {
	return []string{StyleSmile, StyleCool, StyleMonkey, StyleStar, StyleHeart, StyleLock}
}
