package geom

// Rect is an axis-aligned bounding box.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// RectFromBounds builds a Rect from [x1, y1, x2, y2] corners.
func RectFromBounds(x1, y1, x2, y2 float64) Rect {
	return Rect{X: min(x1, x2), Y: min(y1, y2), Width: abs(x2 - x1), Height: abs(y2 - y1)}
}

// BoundsOf returns the smallest rect containing every point.
func BoundsOf(points ...Vector) Rect {
	if len(points) == 0 {
		return Rect{}
	}
	minX, minY := points[0].X, points[0].Y
	maxX, maxY := minX, minY
	for _, p := range points[1:] {
		minX = min(minX, p.X)
		minY = min(minY, p.Y)
		maxX = max(maxX, p.X)
		maxY = max(maxY, p.Y)
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// MaxX returns the right edge.
func (r Rect) MaxX() float64 { return r.X + r.Width }

// MaxY returns the bottom edge.
func (r Rect) MaxY() float64 { return r.Y + r.Height }

// Contains checks if a point is inside the rect.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.MaxX() && y >= r.Y && y <= r.MaxY()
}

// ContainsRect reports whether other lies entirely inside r.
func (r Rect) ContainsRect(other Rect) bool {
	return other.X >= r.X && other.MaxX() <= r.MaxX() &&
		other.Y >= r.Y && other.MaxY() <= r.MaxY()
}

// Intersects reports whether the two rects share any area or edge.
func (r Rect) Intersects(other Rect) bool {
	return r.X <= other.MaxX() && other.X <= r.MaxX() &&
		r.Y <= other.MaxY() && other.Y <= r.MaxY()
}

// IsEmpty checks if the rect has zero or negative area.
func (r Rect) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Union returns the smallest rect containing both rects.
func (r Rect) Union(other Rect) Rect {
	if r.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return r
	}

	minX := min(r.X, other.X)
	minY := min(r.Y, other.Y)
	maxX := max(r.MaxX(), other.MaxX())
	maxY := max(r.MaxY(), other.MaxY())

	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Center returns the center point of the rect.
func (r Rect) Center() Vector {
	return Vector{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
