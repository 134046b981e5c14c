// Package annotate computes size labels for selected shapes: the text in grid
// units and the scene-space point it is anchored at, both tracking the shape's
// rotation. Computation is pure; Draw writes a computed label to a canvas.
package annotate

import (
	"math"
	"strconv"

	"github.com/inamate/scenerender/internal/canvas"
	"github.com/inamate/scenerender/internal/geom"
)

const (
	UnitSuffix = "м"

	boxFontSize  = 18
	flatFontSize = 16
	shadowColor  = "#ffffff"
	shadowBlur   = 4
	imageColor   = "#000"
)

// Grid is the measurement grid: GridSize * GridStep scene pixels make one metre.
type Grid struct {
	Size float64
	Step int
}

// MetreSize returns the scene length of one display unit.
func (g Grid) MetreSize() float64 {
	return g.Size * float64(g.Step)
}

// Metres converts a scene length to display units, truncated to one decimal.
// A non-positive metre size yields 0.
func Metres(pixels, metreSize float64) float64 {
	if metreSize <= 0 {
		return 0
	}
	return math.Floor(10*pixels/metreSize) / 10
}

func formatMetres(v float64) string {
	if v == 0 {
		v = 0 // drop negative zero
	}
	return strconv.FormatFloat(v, 'f', -1, 64) + UnitSuffix
}

// SizeText formats two extents as "Wм x Hм".
func SizeText(width, height float64, g Grid) string {
	m := g.MetreSize()
	return formatMetres(Metres(width, m)) + " x " + formatMetres(Metres(height, m))
}

// LengthText formats a single length as "Lм".
func LengthText(length float64, g Grid) string {
	return formatMetres(Metres(length, g.MetreSize()))
}

// Label is a computed size annotation in scene coordinates.
type Label struct {
	Text     string      `json:"text"`
	Position geom.Vector `json:"position"`
	Color    string      `json:"color"`
	FontSize float64     `json:"fontSize"`
	Shadow   bool        `json:"shadow"`
}

// Subject is a shape that can carry a size label. The set of implementations
// is closed: Rectangle, Ellipse, Image, Line and Group.
type Subject interface {
	// Anchor returns the scene-space point the label's top-left sits at, given
	// the outward offset from the shape.
	Anchor(offset float64) geom.Vector
	label(g Grid) (Label, bool)
}

// Compute returns the label for s, anchored gridSize pixels off the shape.
// The second result is false when the shape has no well-defined size label.
func Compute(s Subject, g Grid) (Label, bool) {
	l, ok := s.label(g)
	if !ok {
		return Label{}, false
	}
	l.Position = s.Anchor(g.Size)
	return l, true
}

// Draw writes a computed label to ctx in the current transform.
func Draw(ctx canvas.Context, l Label) {
	ctx.Save()
	defer ctx.Restore()

	ctx.SetFillStyle(l.Color)
	ctx.SetFont(canvas.SansSerif(l.FontSize))
	ctx.SetTextAlign(canvas.AlignLeft)
	ctx.SetTextBaseline(canvas.BaselineTop)
	if l.Shadow {
		ctx.SetShadow(shadowColor, shadowBlur)
	}
	ctx.FillText(l.Text, l.Position.X, l.Position.Y)
}

// Render computes and draws the label for s. It reports whether anything was drawn.
func Render(ctx canvas.Context, s Subject, g Grid) bool {
	l, ok := Compute(s, g)
	if !ok {
		return false
	}
	Draw(ctx, l)
	return true
}
