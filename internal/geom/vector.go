package geom

import "math"

// Vector is a 2D point or displacement in scene space.
type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Vec is shorthand for Vector{x, y}.
func Vec(x, y float64) Vector {
	return Vector{X: x, Y: y}
}

// Add returns v + o.
func (v Vector) Add(o Vector) Vector {
	return Vector{X: v.X + o.X, Y: v.Y + o.Y}
}

// Sub returns v - o.
func (v Vector) Sub(o Vector) Vector {
	return Vector{X: v.X - o.X, Y: v.Y - o.Y}
}

// Len returns the Euclidean norm of v.
func (v Vector) Len() float64 {
	return math.Hypot(v.X, v.Y)
}

// RotateVector applies the standard rotation matrix to v.
// Positive angles rotate clockwise on a y-down canvas.
func RotateVector(v Vector, angle float64) Vector {
	sin, cos := math.Sincos(angle)
	return Vector{
		X: cos*v.X - sin*v.Y,
		Y: sin*v.X + cos*v.Y,
	}
}

// RotatePoint rotates p about pivot by angle.
func RotatePoint(p, pivot Vector, angle float64) Vector {
	return pivot.Add(RotateVector(p.Sub(pivot), angle))
}

// NormalizeAngle reduces angle to the half-open range (-π, π].
func NormalizeAngle(angle float64) float64 {
	a := math.Mod(angle, 2*math.Pi)
	if a > math.Pi {
		a -= 2 * math.Pi
	} else if a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// NormalizeTurn reduces angle to [0, 2π).
func NormalizeTurn(angle float64) float64 {
	a := math.Mod(angle, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	if a >= 2*math.Pi {
		a = 0
	}
	return a
}

// Center returns the midpoint of an axis-aligned box.
func Center(x, y, width, height float64) Vector {
	return Vector{X: x + width/2, Y: y + height/2}
}

// PathCenter returns the center of a path-anchored shape. Width and height are
// unsigned extents, so the center is taken toward whichever side the path's
// second point extends from the anchor.
func PathCenter(x, y, width, height float64, second Vector) Vector {
	c := Vector{X: x + width/2, Y: y + height/2}
	if second.X < 0 {
		c.X = x - width/2
	}
	if second.Y < 0 {
		c.Y = y - height/2
	}
	return c
}
