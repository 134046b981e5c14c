package annotate

import (
	"math"

	"github.com/inamate/scenerender/internal/geom"
)

// Box is the un-rotated geometry shared by rectangle-like shapes.
type Box struct {
	X, Y          float64
	Width, Height float64
	Angle         float64
	StrokeColor   string
}

func (b Box) center() geom.Vector {
	return geom.Center(b.X, b.Y, b.Width, b.Height)
}

// Corner returns the un-rotated corner the label hangs off, pushed outward by
// offset. The corner is picked by the rotation quadrant so that it is the one
// facing up and right on screen.
func (b Box) Corner(offset float64) geom.Vector {
	switch geom.ClassifyQuadrant(b.Angle) {
	case geom.QuadrantTopLeft:
		return geom.Vec(b.X-offset, b.Y-offset)
	case geom.QuadrantBottomLeft:
		return geom.Vec(b.X-offset, b.Y+b.Height+offset)
	case geom.QuadrantBottomRight:
		return geom.Vec(b.X+b.Width+offset, b.Y+b.Height+offset)
	default:
		return geom.Vec(b.X+b.Width+offset, b.Y-offset)
	}
}

func (b Box) Anchor(offset float64) geom.Vector {
	return geom.RotatePoint(b.Corner(offset), b.center(), b.Angle)
}

// ApparentSize returns width and height as seen on screen: swapped when the
// box is turned roughly a quarter.
func (b Box) ApparentSize() (float64, float64) {
	if geom.IsRotated90(b.Angle) {
		return b.Height, b.Width
	}
	return b.Width, b.Height
}

func (b Box) boxLabel(color string, g Grid) Label {
	w, h := b.ApparentSize()
	return Label{Text: SizeText(w, h, g), Color: color, FontSize: boxFontSize, Shadow: true}
}

type Rectangle struct{ Box }

func (r Rectangle) label(g Grid) (Label, bool) {
	return r.boxLabel(r.StrokeColor, g), true
}

type Ellipse struct{ Box }

func (e Ellipse) label(g Grid) (Label, bool) {
	return e.boxLabel(e.StrokeColor, g), true
}

// Image labels are always black; image stroke colors are not meaningful.
type Image struct{ Box }

func (i Image) label(g Grid) (Label, bool) {
	return i.boxLabel(imageColor, g), true
}

// Line is a path shape with at most two points. Points are relative to X, Y.
// Linear selects a single length value instead of width by height.
type Line struct {
	X, Y          float64
	Width, Height float64
	Angle         float64
	Points        []geom.Vector
	StrokeColor   string
	Linear        bool
}

func (l Line) center() geom.Vector {
	var second geom.Vector
	if len(l.Points) > 1 {
		second = l.Points[1]
	}
	return geom.PathCenter(l.X, l.Y, l.Width, l.Height, second)
}

// RightPoint returns the endpoint the label follows: the last point while it
// lies right of the first and the line is not turned upside down, otherwise
// the first.
func (l Line) RightPoint() geom.Vector {
	if len(l.Points) == 0 {
		return geom.Vec(l.X, l.Y)
	}
	first, last := l.Points[0], l.Points[len(l.Points)-1]

	initialAngle := math.Atan2(l.Height, l.Width)
	absoluteAngle := geom.NormalizeAngle(initialAngle + l.Angle)

	if last.X > first.X && math.Abs(absoluteAngle) <= math.Pi/2 {
		return geom.Vec(l.X+last.X, l.Y+last.Y)
	}
	return geom.Vec(l.X+first.X, l.Y+first.Y)
}

func (l Line) Anchor(offset float64) geom.Vector {
	p := geom.RotatePoint(l.RightPoint(), l.center(), l.Angle)
	return geom.Vec(p.X+offset, p.Y-offset)
}

func (l Line) label(g Grid) (Label, bool) {
	if len(l.Points) != 2 {
		return Label{}, false
	}
	text := SizeText(l.Width, l.Height, g)
	if l.Linear {
		text = LengthText(math.Hypot(l.Width, l.Height), g)
	}
	return Label{Text: text, Color: l.StrokeColor, FontSize: flatFontSize}, true
}

// Group is the axis-aligned union of a multi-shape selection.
type Group struct {
	X1, Y1, X2, Y2 float64
	StrokeColor   string
}

// GroupFromRect builds a group subject from a selection rectangle.
func GroupFromRect(r geom.Rect, strokeColor string) Group {
	return Group{X1: r.X, Y1: r.Y, X2: r.MaxX(), Y2: r.MaxY(), StrokeColor: strokeColor}
}

func (g Group) Anchor(offset float64) geom.Vector {
	return geom.Vec(g.X2+offset, g.Y1-offset)
}

func (g Group) label(grid Grid) (Label, bool) {
	text := SizeText(g.X2-g.X1, g.Y2-g.Y1, grid)
	return Label{Text: text, Color: g.StrokeColor, FontSize: flatFontSize}, true
}

var (
	_ Subject = Rectangle{}
	_ Subject = Ellipse{}
	_ Subject = Image{}
	_ Subject = Line{}
	_ Subject = Group{}
)
