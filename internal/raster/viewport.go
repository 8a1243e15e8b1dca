package raster

// Point is a position in display or buffer coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Viewport describes the on-screen size at which a buffer is shown. Pointer
// positions arrive in this space and are scaled to buffer pixels. A zero
// Viewport means display and buffer coordinates coincide.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// IsZero reports whether v leaves coordinates unscaled.
func (v Viewport) IsZero() bool {
	return v.Width <= 0 || v.Height <= 0
}

// ToBuffer maps a display point onto a w×h buffer.
func (v Viewport) ToBuffer(p Point, w, h int) Point {
	if v.IsZero() {
		return p
	}
	return Point{X: p.X * float64(w) / v.Width, Y: p.Y * float64(h) / v.Height}
}

// Size returns the display size, falling back to w×h for a zero Viewport.
func (v Viewport) Size(w, h int) (float64, float64) {
	if v.IsZero() {
		return float64(w), float64(h)
	}
	return v.Width, v.Height
}
