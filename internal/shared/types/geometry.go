package types

// Point represents an absolute position in host coordinates
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size represents surface dimensions
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Rect represents surface bounds relative to the primary window's origin
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Origin returns the relative offset of the rect
func (r Rect) Origin() Point {
	return Point{X: r.X, Y: r.Y}
}

// Size returns the dimensions of the rect
func (r Rect) Size() Size {
	return Size{Width: r.Width, Height: r.Height}
}

// Add offsets the point by another point
func (p Point) Add(o Point) Point {
	return Point{X: p.X + o.X, Y: p.Y + o.Y}
}
