package block

import "math"

// Point is a position in workspace units.
type Point struct {
	X float64
	Y float64
}

// Add returns the point translated by delta.
func (p Point) Add(delta Point) Point {
	return Point{X: p.X + delta.X, Y: p.Y + delta.Y}
}

// Sub returns the vector from other to p.
func (p Point) Sub(other Point) Point {
	return Point{X: p.X - other.X, Y: p.Y - other.Y}
}

// DistanceTo returns the Euclidean distance between two points.
func (p Point) DistanceTo(other Point) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Nominal geometry used to place connection anchors relative to a block's
// origin. Real rendering lives outside the engine; these constants only
// give the spatial index stable, distinct anchor points.
const (
	rowHeight  = 24.0 // vertical spacing per input row
	blockWidth = 64.0 // horizontal offset of value/statement anchors
)
