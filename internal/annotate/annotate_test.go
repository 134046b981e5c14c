package annotate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/scenerender/internal/canvas"
	"github.com/inamate/scenerender/internal/geom"
	"github.com/inamate/scenerender/internal/scene"
)

func TestMetresTruncates(t *testing.T) {
	assert.Equal(t, 1.4, Metres(149, 100))
	assert.Equal(t, 0.9, Metres(199.99, 200))
	assert.Equal(t, 0.0, Metres(50, 0))
	assert.Equal(t, 0.0, Metres(50, -10))
}

func TestSizeTextFormatting(t *testing.T) {
	g := Grid{Size: 20, Step: 5}
	assert.Equal(t, "1.4м x 2м", SizeText(149, 200, g))
	assert.Equal(t, "0м x 0м", SizeText(0, 0, g))
	assert.Equal(t, "12.3м", LengthText(1234, g))
}

func TestRectangleUnrotated(t *testing.T) {
	r := Rectangle{Box{X: 0, Y: 0, Width: 200, Height: 100, StrokeColor: "#1e1e1e"}}
	l, ok := Compute(r, Grid{Size: 20, Step: 10})
	require.True(t, ok)

	assert.Equal(t, "1м x 0.5м", l.Text)
	assert.InDelta(t, 220, l.Position.X, 1e-9)
	assert.InDelta(t, -20, l.Position.Y, 1e-9)
	assert.Equal(t, "#1e1e1e", l.Color)
	assert.Equal(t, 18.0, l.FontSize)
	assert.True(t, l.Shadow)
}

func TestRectangleQuarterTurnSwapsAndTracks(t *testing.T) {
	r := Rectangle{Box{X: 0, Y: 0, Width: 200, Height: 100, Angle: math.Pi / 2}}
	l, ok := Compute(r, Grid{Size: 20, Step: 10})
	require.True(t, ok)

	assert.Equal(t, "0.5м x 1м", l.Text)
	// Top-left corner turned a quarter lands at the visual top-right.
	assert.InDelta(t, 170, l.Position.X, 1e-9)
	assert.InDelta(t, -70, l.Position.Y, 1e-9)
}

func TestSwapBoundaries(t *testing.T) {
	g := Grid{Size: 20, Step: 10}
	cases := []struct {
		angle float64
		text  string
	}{
		{0, "1м x 0.5м"},
		{math.Pi / 4, "1м x 0.5м"},
		{math.Pi/4 + 0.01, "0.5м x 1м"},
		{math.Pi, "1м x 0.5м"},
		{3 * math.Pi / 2, "0.5м x 1м"},
		{-math.Pi / 2, "0.5м x 1м"},
	}
	for _, tc := range cases {
		l, ok := Compute(Ellipse{Box{Width: 200, Height: 100, Angle: tc.angle}}, g)
		require.True(t, ok)
		assert.Equal(t, tc.text, l.Text, "angle %v", tc.angle)
	}
}

func TestCornerByQuadrant(t *testing.T) {
	b := Box{X: 0, Y: 0, Width: 10, Height: 10}
	cases := map[float64]geom.Vector{
		0:               geom.Vec(12, -2),
		math.Pi / 2:     geom.Vec(-2, -2),
		math.Pi:         geom.Vec(-2, 12),
		3 * math.Pi / 2: geom.Vec(12, 12),
	}
	for angle, want := range cases {
		b.Angle = angle
		assert.Equal(t, want, b.Corner(2), "angle %v", angle)
	}
}

func TestImageLabelIsBlack(t *testing.T) {
	l, ok := Compute(Image{Box{Width: 100, Height: 100, StrokeColor: "red"}}, Grid{Size: 20, Step: 5})
	require.True(t, ok)
	assert.Equal(t, "#000", l.Color)
}

func TestLineLabel(t *testing.T) {
	line := Line{
		X: 10, Y: 10, Width: 100, Height: 0,
		Points:      []geom.Vector{geom.Vec(0, 0), geom.Vec(100, 0)},
		StrokeColor: "blue",
		Linear:      true,
	}
	g := Grid{Size: 20, Step: 5}

	l, ok := Compute(line, g)
	require.True(t, ok)
	assert.Equal(t, "1м", l.Text)
	assert.InDelta(t, 130, l.Position.X, 1e-9)
	assert.InDelta(t, -10, l.Position.Y, 1e-9)
	assert.Equal(t, 16.0, l.FontSize)
	assert.False(t, l.Shadow)

	// Turned upside down the first point becomes the visual right end.
	line.Angle = math.Pi
	assert.Equal(t, geom.Vec(10, 10), line.RightPoint())
	l, ok = Compute(line, g)
	require.True(t, ok)
	assert.InDelta(t, 130, l.Position.X, 1e-9)
	assert.InDelta(t, -10, l.Position.Y, 1e-9)

	line.Linear = false
	l, _ = Compute(line, g)
	assert.Equal(t, "1м x 0м", l.Text)
}

func TestLineLabelDrawnUpAndLeft(t *testing.T) {
	line := Line{
		X: 10, Y: 10, Width: 100, Height: 50,
		Points:      []geom.Vector{geom.Vec(0, 0), geom.Vec(-100, -50)},
		StrokeColor: "blue",
		Linear:      true,
	}
	g := Grid{Size: 20, Step: 5}

	assert.Equal(t, geom.Vec(-40, -15), line.center())

	l, ok := Compute(line, g)
	require.True(t, ok)
	assert.Equal(t, "1.1м", l.Text)
	assert.InDelta(t, 30, l.Position.X, 1e-9)
	assert.InDelta(t, -10, l.Position.Y, 1e-9)

	// Rotation pivots about the center on the drawn side of the anchor.
	line.Angle = math.Pi
	l, ok = Compute(line, g)
	require.True(t, ok)
	assert.InDelta(t, -70, l.Position.X, 1e-9)
	assert.InDelta(t, -60, l.Position.Y, 1e-9)
}

func TestLineWithMoreThanTwoPointsHasNoLabel(t *testing.T) {
	line := Line{Width: 10, Height: 10, Points: []geom.Vector{geom.Vec(0, 0), geom.Vec(5, 5), geom.Vec(10, 10)}}
	_, ok := Compute(line, Grid{Size: 20, Step: 5})
	assert.False(t, ok)
}

func TestGroupLabel(t *testing.T) {
	g := GroupFromRect(geom.Rect{X: 0, Y: 0, Width: 300, Height: 200}, "#6965db")
	l, ok := Compute(g, Grid{Size: 20, Step: 5})
	require.True(t, ok)

	assert.Equal(t, "3м x 2м", l.Text)
	assert.Equal(t, geom.Vec(320, -20), l.Position)
	assert.Equal(t, 16.0, l.FontSize)
}

func TestFromElement(t *testing.T) {
	s, ok := FromElement(scene.Element{Type: scene.TypeRectangle, Width: 1})
	require.True(t, ok)
	assert.IsType(t, Rectangle{}, s)

	s, ok = FromElement(scene.Element{Type: scene.TypeArrow})
	require.True(t, ok)
	assert.True(t, s.(Line).Linear)

	_, ok = FromElement(scene.Element{Type: scene.TypeText})
	assert.False(t, ok)
}

func TestGroupFromElements(t *testing.T) {
	g, ok := GroupFromElements([]scene.Element{
		{Type: scene.TypeRectangle, X: 0, Y: 0, Width: 10, Height: 10},
		{Type: scene.TypeRectangle, X: 50, Y: 20, Width: 10, Height: 30},
	}, "black")
	require.True(t, ok)
	assert.Equal(t, Group{X1: 0, Y1: 0, X2: 60, Y2: 50, StrokeColor: "black"}, g)

	_, ok = GroupFromElements(nil, "black")
	assert.False(t, ok)
}

func TestDrawWritesLabel(t *testing.T) {
	rec := canvas.NewRecorder(100, 100)
	Draw(rec, Label{Text: "1м", Position: geom.Vec(5, 6), Color: "red", FontSize: 18, Shadow: true})

	cmds := rec.Commands()
	texts := canvas.Select(cmds, "fillText")
	require.Len(t, texts, 1)
	assert.Equal(t, "1м", texts[0].Text)
	assert.Equal(t, "red", texts[0].Style)
	assert.Equal(t, []float64{5, 6, 18}, texts[0].Args)
	assert.Equal(t, 1, canvas.Count(cmds, "shadow"))
	assert.Equal(t, 0, rec.Depth())
}

func TestRenderSkipsUnlabelledLines(t *testing.T) {
	rec := canvas.NewRecorder(100, 100)
	drawn := Render(rec, Line{Points: []geom.Vector{geom.Vec(0, 0)}}, Grid{Size: 20, Step: 5})
	assert.False(t, drawn)
	assert.Empty(t, rec.Commands())
}
