package rating

import (
	"fmt"
	"strconv"
)

// Color is an sRGB color with alpha in [0,1].
type Color struct {
	R, G, B uint8
	A       float64
}

// RGBA builds a Color.
func RGBA(r, g, b uint8, a float64) Color {
	return Color{R: r, G: g, B: b, A: a}
}

// White is the default page background.
var White = Color{R: 255, G: 255, B: 255, A: 1}

// Hex returns #rrggbb, ignoring alpha.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// CSS returns a CSS color value.
func (c Color) CSS() string {
	if c.A >= 1 {
		return c.Hex()
	}
	a := strconv.FormatFloat(c.A, 'f', -1, 64)
	return fmt.Sprintf("rgba(%d,%d,%d,%s)", c.R, c.G, c.B, a)
}

// Over composites c onto an opaque background.
func (c Color) Over(bg Color) Color {
	a := c.A
	if a >= 1 {
		return Color{R: c.R, G: c.G, B: c.B, A: 1}
	}
	if a < 0 {
		a = 0
	}
	mix := func(fg, back uint8) uint8 {
		v := a*float64(fg) + (1-a)*float64(back)
		return uint8(v + 0.5)
	}
	return Color{R: mix(c.R, bg.R), G: mix(c.G, bg.G), B: mix(c.B, bg.B), A: 1}
}
