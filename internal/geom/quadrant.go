package geom

import "math"

// Quadrant identifies which corner of an un-rotated box faces "up and right"
// on screen once the box is rotated. Each quadrant spans π/2, offset by π/4.
type Quadrant int

const (
	QuadrantTopRight Quadrant = iota
	QuadrantTopLeft
	QuadrantBottomLeft
	QuadrantBottomRight
)

func (q Quadrant) String() string {
	switch q {
	case QuadrantTopLeft:
		return "top-left"
	case QuadrantBottomLeft:
		return "bottom-left"
	case QuadrantBottomRight:
		return "bottom-right"
	default:
		return "top-right"
	}
}

// ClassifyQuadrant maps a clockwise rotation to the label quadrant.
//
//	[π/4, 3π/4)   top-left
//	[3π/4, 5π/4)  bottom-left
//	[5π/4, 7π/4)  bottom-right
//	otherwise     top-right
func ClassifyQuadrant(angle float64) Quadrant {
	a := NormalizeTurn(angle)
	switch {
	case a >= math.Pi/4 && a < 3*math.Pi/4:
		return QuadrantTopLeft
	case a >= 3*math.Pi/4 && a < 5*math.Pi/4:
		return QuadrantBottomLeft
	case a >= 5*math.Pi/4 && a < 7*math.Pi/4:
		return QuadrantBottomRight
	default:
		return QuadrantTopRight
	}
}

// IsRotated90 reports whether a box rotated by angle presents its height as
// its on-screen width: angle ∈ (π/4, 3π/4) ∪ (5π/4, 7π/4). The bounds are open.
func IsRotated90(angle float64) bool {
	a := NormalizeTurn(angle)
	return (a > math.Pi/4 && a < 3*math.Pi/4) ||
		(a > 5*math.Pi/4 && a < 7*math.Pi/4)
}
