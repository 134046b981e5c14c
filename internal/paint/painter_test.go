package paint

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/scenerender/internal/canvas"
	"github.com/inamate/scenerender/internal/engine"
	"github.com/inamate/scenerender/internal/geom"
	"github.com/inamate/scenerender/internal/scene"
)

var _ engine.ElementRenderer = (*Painter)(nil)
var _ engine.FileLoader = (*Painter)(nil)

func newPainter(src ImageSource) *Painter {
	return New(src, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func render(t *testing.T, p *Painter, el scene.Element, state scene.AppState) *canvas.Recorder {
	t.Helper()
	rec := canvas.NewRecorder(500, 500)
	require.NoError(t, p.RenderElement(rec, el, nil, nil, engine.DefaultRenderConfig(), state))
	assert.Equal(t, 0, rec.Depth())
	return rec
}

func TestRenderElementPlacesShapeAtCenter(t *testing.T) {
	state := scene.DefaultAppState()
	state.ScrollX, state.ScrollY = 10, 20
	el := scene.Element{ID: "r", Type: scene.TypeRectangle, X: 100, Y: 50, Width: 40, Height: 20, Angle: math.Pi / 2, StrokeColor: "#000", BackgroundColor: "#f00"}

	rec := render(t, newPainter(nil), el, state)
	cmds := rec.Commands()

	tr := canvas.Select(cmds, "translate")
	require.Len(t, tr, 1)
	assert.Equal(t, []float64{130, 80}, tr[0].Args)
	rot := canvas.Select(cmds, "rotate")
	require.Len(t, rot, 1)
	assert.Equal(t, math.Pi/2, rot[0].Args[0])

	moves := canvas.Select(cmds, "moveTo")
	require.NotEmpty(t, moves)
	assert.Equal(t, []float64{-20, -10}, moves[0].Args)

	fill := canvas.Select(cmds, "fill")
	require.Len(t, fill, 1)
	assert.Equal(t, "#f00", fill[0].Style)
	assert.Equal(t, 1, canvas.Count(cmds, "stroke"))
}

func TestRenderElementTransparentBackgroundNotFilled(t *testing.T) {
	el := scene.Element{ID: "e", Type: scene.TypeEllipse, Width: 40, Height: 20, StrokeColor: "#000", BackgroundColor: "transparent"}
	rec := render(t, newPainter(nil), el, scene.DefaultAppState())

	assert.Zero(t, canvas.Count(rec.Commands(), "fill"))
	assert.Equal(t, 4, canvas.Count(rec.Commands(), "bezierCurveTo"))
}

func TestRenderElementDashes(t *testing.T) {
	tests := []struct {
		style string
		want  []float64
	}{
		{"solid", nil},
		{"dashed", []float64{8, 10}},
		{"dotted", []float64{1.5, 8}},
	}
	for _, tt := range tests {
		t.Run(tt.style, func(t *testing.T) {
			el := scene.Element{ID: "d", Type: scene.TypeDiamond, Width: 40, Height: 40, StrokeColor: "#000", StrokeWidth: 2, StrokeStyle: tt.style}
			rec := render(t, newPainter(nil), el, scene.DefaultAppState())
			dash := canvas.Select(rec.Commands(), "setLineDash")
			require.Len(t, dash, 1)
			assert.Equal(t, tt.want, dash[0].Args)
		})
	}
}

func TestCornerRadius(t *testing.T) {
	assert.Equal(t, 25.0, cornerRadius(100, roundnessAdaptive))
	assert.Equal(t, 32.0, cornerRadius(400, roundnessAdaptive))
	assert.Equal(t, 100.0, cornerRadius(400, roundnessProportional))
}

func TestRenderElementRoundedRectangle(t *testing.T) {
	el := scene.Element{ID: "r", Type: scene.TypeRectangle, Width: 100, Height: 100, StrokeColor: "#000", Roundness: &scene.Roundness{Type: roundnessAdaptive}}
	rec := render(t, newPainter(nil), el, scene.DefaultAppState())
	assert.Equal(t, 4, canvas.Count(rec.Commands(), "bezierCurveTo"))
}

func TestRenderElementArrow(t *testing.T) {
	el := scene.Element{
		ID: "a", Type: scene.TypeArrow, X: 0, Y: 0, Width: 100, Height: 0, StrokeColor: "#000", StrokeWidth: 1, StrokeStyle: "dashed",
		Points: scene.Points{geom.Vec(0, 0), geom.Vec(100, 0)},
	}
	rec := render(t, newPainter(nil), el, scene.DefaultAppState())
	cmds := rec.Commands()

	assert.Equal(t, 2, canvas.Count(cmds, "stroke"))
	moves := canvas.Select(cmds, "moveTo")
	require.Len(t, moves, 2)
	// Points are relative to the center at (50, 0).
	assert.Equal(t, []float64{-50, 0}, moves[0].Args)

	// Barbs sit behind the tip, length capped at half the segment.
	barb := moves[1].Args
	assert.InDelta(t, 50-31*math.Cos(math.Pi/9), barb[0], 1e-9)
}

func TestRenderElementClosedLineFilled(t *testing.T) {
	el := scene.Element{
		ID: "l", Type: scene.TypeLine, Width: 10, Height: 10, StrokeColor: "#000", BackgroundColor: "#0f0",
		Points: scene.Points{geom.Vec(0, 0), geom.Vec(10, 0), geom.Vec(10, 10), geom.Vec(0, 0)},
	}
	rec := render(t, newPainter(nil), el, scene.DefaultAppState())
	assert.Equal(t, 1, canvas.Count(rec.Commands(), "fill"))
}

func TestRenderElementText(t *testing.T) {
	el := scene.Element{ID: "t", Type: scene.TypeText, X: 0, Y: 0, Width: 100, Height: 50, Text: "one\ntwo", FontSize: 20, TextAlign: "center", StrokeColor: "#123456"}
	rec := render(t, newPainter(nil), el, scene.DefaultAppState())

	texts := canvas.Select(rec.Commands(), "fillText")
	require.Len(t, texts, 2)
	assert.Equal(t, "one", texts[0].Text)
	assert.Equal(t, []float64{0, -25, 20}, texts[0].Args)
	assert.Equal(t, []float64{0, 0, 20}, texts[1].Args)
	assert.Equal(t, "#123456", texts[1].Style)
}

func TestRenderElementPlaceholderLabel(t *testing.T) {
	embed := scene.Element{ID: "e", Type: scene.TypeEmbeddable, X: 0, Y: 0, Width: 300, Height: 100}
	label := scene.PlaceholderEmbeddableLabel(embed)

	rec := render(t, newPainter(nil), label, scene.DefaultAppState())
	cmds := rec.Commands()
	tr := canvas.Select(cmds, "translate")
	require.Len(t, tr, 1)
	assert.Equal(t, []float64{150, 50}, tr[0].Args)

	texts := canvas.Select(cmds, "fillText")
	require.Len(t, texts, 1)
	assert.Equal(t, "Empty Web-Embed", texts[0].Text)
	assert.InDelta(t, -label.FontSize*lineHeight/2, texts[0].Args[1], 1e-9)
}

type mapSource map[string]image.Image

func (m mapSource) Image(id string) (image.Image, error) {
	if img, ok := m[id]; ok {
		return img, nil
	}
	return nil, ErrImageNotFound
}

func TestRenderElementImage(t *testing.T) {
	src := mapSource{"f1": image.NewRGBA(image.Rect(0, 0, 8, 4))}
	p := newPainter(src)

	el := scene.Element{ID: "i", Type: scene.TypeImage, Width: 80, Height: 40, FileID: "f1"}
	rec := render(t, p, el, scene.DefaultAppState())
	imgs := canvas.Select(rec.Commands(), "drawImage")
	require.Len(t, imgs, 1)
	assert.Equal(t, "8x4", imgs[0].Text)
	assert.Equal(t, []float64{-40, -20, 80, 40}, imgs[0].Args)

	el.FileID = "missing"
	rec = render(t, p, el, scene.DefaultAppState())
	assert.Zero(t, canvas.Count(rec.Commands(), "drawImage"))
	fills := canvas.Select(rec.Commands(), "fillRect")
	require.Len(t, fills, 1)
	assert.Equal(t, imagePlaceholder, fills[0].Style)
}

func pngDataURL(t *testing.T) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestRenderElementSnapshotFiles(t *testing.T) {
	p := newPainter(mapSource{"f1": image.NewRGBA(image.Rect(0, 0, 8, 8))})
	p.LoadFiles(map[string]scene.BinaryFile{
		"f1": {ID: "f1", MimeType: "image/png", DataURL: pngDataURL(t)},
	})

	el := scene.Element{ID: "i", Type: scene.TypeImage, Width: 30, Height: 20, FileID: "f1"}
	rec := render(t, p, el, scene.DefaultAppState())
	imgs := canvas.Select(rec.Commands(), "drawImage")
	require.Len(t, imgs, 1)
	assert.Equal(t, "3x2", imgs[0].Text)
}

func TestRenderElementFrame(t *testing.T) {
	el := scene.Element{ID: "f", Type: scene.TypeFrame, Width: 200, Height: 100, Name: "Room"}

	state := scene.DefaultAppState()
	state.Zoom.Value = 2
	rec := render(t, newPainter(nil), el, state)
	cmds := rec.Commands()

	strokes := canvas.Select(cmds, "stroke")
	require.Len(t, strokes, 1)
	assert.Equal(t, 0.5, strokes[0].Args[0])
	texts := canvas.Select(cmds, "fillText")
	require.Len(t, texts, 1)
	assert.Equal(t, "Room", texts[0].Text)
	assert.Equal(t, []float64{-100, -53, 7}, texts[0].Args)

	state.FrameRendering.Outline = false
	state.FrameRendering.Name = false
	rec = render(t, newPainter(nil), el, state)
	assert.Zero(t, canvas.Count(rec.Commands(), "stroke"))
	assert.Zero(t, canvas.Count(rec.Commands(), "fillText"))
}

func TestRenderElementUnsupported(t *testing.T) {
	rec := canvas.NewRecorder(10, 10)
	err := newPainter(nil).RenderElement(rec, scene.Element{ID: "x", Type: "sticker"}, nil, nil, engine.DefaultRenderConfig(), scene.DefaultAppState())
	assert.ErrorIs(t, err, ErrUnsupportedElement)
	assert.Equal(t, 0, rec.Depth())
}

func TestSources(t *testing.T) {
	a := mapSource{"x": image.NewRGBA(image.Rect(0, 0, 1, 1))}
	b := mapSource{"y": image.NewRGBA(image.Rect(0, 0, 2, 2))}

	img, err := Sources{nil, a, b}.Image("y")
	require.NoError(t, err)
	assert.Equal(t, 2, img.Bounds().Dx())

	_, err = Sources{a, b}.Image("z")
	assert.ErrorIs(t, err, ErrImageNotFound)
}

type brokenSource struct{}

func (brokenSource) Image(string) (image.Image, error) { return nil, errors.New("disk on fire") }

func TestSourcesFallThroughFailures(t *testing.T) {
	img, err := Sources{brokenSource{}, mapSource{"x": image.NewRGBA(image.Rect(0, 0, 1, 1))}}.Image("x")
	require.NoError(t, err)
	assert.NotNil(t, img)

	_, err = Sources{brokenSource{}, mapSource{}}.Image("y")
	assert.ErrorIs(t, err, ErrImageNotFound)
	assert.ErrorContains(t, err, "disk on fire")
}

func TestFileImagesCachesDecode(t *testing.T) {
	f := NewFileImages(map[string]scene.BinaryFile{
		"ok":  {ID: "ok", DataURL: pngDataURL(t)},
		"bad": {ID: "bad", DataURL: "data:image/png;base64,!!!"},
	})

	first, err := f.Image("ok")
	require.NoError(t, err)
	second, err := f.Image("ok")
	require.NoError(t, err)
	assert.Same(t, first, second)

	_, err = f.Image("bad")
	assert.Error(t, err)
	_, err = f.Image("none")
	assert.ErrorIs(t, err, ErrImageNotFound)
}

func TestTraceSkipsMalformedCommands(t *testing.T) {
	rec := canvas.NewRecorder(10, 10)
	trace(rec, []PathCommand{{Op: "M"}, {Op: "L", Args: []float64{1, 2}}, {Op: "C", Args: []float64{1}}, {Op: "Z"}})
	ops := []string{}
	for _, c := range rec.Commands() {
		ops = append(ops, c.Op)
	}
	assert.Equal(t, []string{"lineTo", "closePath"}, ops)
}
