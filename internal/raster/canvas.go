// Package raster implements canvas.Context on top of the gg 2D library so
// scenes can be rendered to PNG or JPEG on the server.
package raster

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"log/slog"
	"math"

	"github.com/gogpu/gg"

	"github.com/inamate/scenerender/internal/canvas"
	"github.com/inamate/scenerender/internal/colorfx"
	"github.com/inamate/scenerender/internal/geom"
)

var ErrCanvasTooLarge = errors.New("canvas exceeds pixel limit")

// SetLogger routes the raster library's diagnostics to l.
func SetLogger(l *slog.Logger) {
	gg.SetLogger(l)
}

type style struct {
	fill       color.NRGBA
	stroke     color.NRGBA
	lineWidth  float64
	dash       []float64
	font       canvas.Font
	align      canvas.TextAlign
	baseline   canvas.TextBaseline
	shadow     color.NRGBA
	shadowBlur float64
}

// Canvas is a gg-backed raster context. gg's Push and Pop only cover transform
// and clip, so paint state is kept on a parallel stack here.
type Canvas struct {
	dc    *gg.Context
	st    style
	stack []style
	err   error
}

// New creates a transparent canvas of the given pixel size.
func New(width, height int) *Canvas {
	c := &Canvas{
		dc: gg.NewContext(width, height),
		st: style{
			fill:      color.NRGBA{A: 255},
			stroke:    color.NRGBA{A: 255},
			lineWidth: 1,
			font:      canvas.SansSerif(10),
			align:     canvas.AlignLeft,
			baseline:  canvas.BaselineAlphabetic,
		},
	}
	c.dc.SetLineWidth(1)
	return c
}

// NewBounded creates a canvas after checking it against a pixel budget.
func NewBounded(width, height, maxPixels int) (*Canvas, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("create canvas %dx%d: invalid size", width, height)
	}
	if maxPixels > 0 && width*height > maxPixels {
		return nil, fmt.Errorf("create canvas %dx%d: %w", width, height, ErrCanvasTooLarge)
	}
	return New(width, height), nil
}

// Err returns the first rasterization error since creation.
func (c *Canvas) Err() error {
	return c.err
}

func (c *Canvas) record(err error) {
	if err != nil && c.err == nil {
		c.err = err
	}
}

func (c *Canvas) Width() int  { return c.dc.Width() }
func (c *Canvas) Height() int { return c.dc.Height() }

func (c *Canvas) Save() {
	c.dc.Push()
	saved := c.st
	saved.dash = append([]float64(nil), c.st.dash...)
	c.stack = append(c.stack, saved)
}

func (c *Canvas) Restore() {
	if len(c.stack) == 0 {
		return
	}
	c.dc.Pop()
	c.st = c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
	c.dc.SetLineWidth(c.st.lineWidth)
	c.applyDash()
}

// SetTransform takes Canvas2D order [a b c d e f].
func (c *Canvas) SetTransform(a, b, cc, d, e, f float64) {
	c.dc.SetTransform(gg.Matrix{A: a, B: cc, C: e, D: b, E: d, F: f})
}

func (c *Canvas) Scale(x, y float64)     { c.dc.Scale(x, y) }
func (c *Canvas) Translate(x, y float64) { c.dc.Translate(x, y) }
func (c *Canvas) Rotate(angle float64)   { c.dc.Rotate(angle) }

// SetFilter reports false: gg has no CSS filter pipeline. Callers fall back
// to post-processing Pix.
func (c *Canvas) SetFilter(string) bool { return false }

func (c *Canvas) SetFillStyle(s string) {
	if col, err := colorfx.Parse(s); err == nil {
		c.st.fill = col
	}
}

func (c *Canvas) SetStrokeStyle(s string) {
	if col, err := colorfx.Parse(s); err == nil {
		c.st.stroke = col
	}
}

func (c *Canvas) SetLineWidth(width float64) {
	c.st.lineWidth = width
	c.dc.SetLineWidth(width)
}

func (c *Canvas) SetLineDash(segments []float64) {
	c.st.dash = append([]float64(nil), segments...)
	c.applyDash()
}

func (c *Canvas) applyDash() {
	if len(c.st.dash) == 0 {
		c.dc.ClearDash()
		return
	}
	c.dc.SetDash(c.st.dash...)
}

func (c *Canvas) SetFont(font canvas.Font)              { c.st.font = font }
func (c *Canvas) SetTextAlign(align canvas.TextAlign)   { c.st.align = align }
func (c *Canvas) SetTextBaseline(b canvas.TextBaseline) { c.st.baseline = b }

func (c *Canvas) SetShadow(s string, blur float64) {
	col, err := colorfx.Parse(s)
	if err != nil {
		return
	}
	c.st.shadow = col
	c.st.shadowBlur = blur
}

func (c *Canvas) transform() geom.Matrix2D {
	m := c.dc.GetTransform()
	return geom.Matrix2D{m.A, m.D, m.B, m.E, m.C, m.F}
}

// ClearRect resets the covered device pixels to transparent. Rotated
// transforms clear the axis-aligned bounds.
func (c *Canvas) ClearRect(x, y, w, h float64) {
	r := c.transform().ApplyRect(geom.Rect{X: x, Y: y, Width: w, Height: h})
	x0 := max(0, int(math.Floor(r.X)))
	y0 := max(0, int(math.Floor(r.Y)))
	x1 := min(c.Width(), int(math.Ceil(r.MaxX())))
	y1 := min(c.Height(), int(math.Ceil(r.MaxY())))
	if x0 >= x1 || y0 >= y1 {
		return
	}
	pix := c.Pix()
	stride := c.Width() * 4
	for py := y0; py < y1; py++ {
		row := pix[py*stride+x0*4 : py*stride+x1*4]
		clear(row)
	}
}

func (c *Canvas) FillRect(x, y, w, h float64) {
	c.dc.ClearPath()
	c.dc.DrawRectangle(x, y, w, h)
	c.dc.SetColor(c.st.fill)
	c.record(c.dc.Fill())
}

func (c *Canvas) BeginPath()          { c.dc.ClearPath() }
func (c *Canvas) MoveTo(x, y float64) { c.dc.MoveTo(x, y) }
func (c *Canvas) LineTo(x, y float64) { c.dc.LineTo(x, y) }
func (c *Canvas) ClosePath()          { c.dc.ClosePath() }

func (c *Canvas) BezierCurveTo(c1x, c1y, c2x, c2y, x, y float64) {
	c.dc.CubicTo(c1x, c1y, c2x, c2y, x, y)
}

func (c *Canvas) Rect(x, y, w, h float64) {
	c.dc.DrawRectangle(x, y, w, h)
}

// RoundRect adds a rounded rectangle through the current transform.
func (c *Canvas) RoundRect(x, y, w, h, radius float64) {
	radius = min(radius, w/2, h/2)
	if radius <= 0 {
		c.dc.DrawRectangle(x, y, w, h)
		return
	}
	const k = 0.5522847498307936
	o := radius * k
	c.dc.MoveTo(x+radius, y)
	c.dc.LineTo(x+w-radius, y)
	c.dc.CubicTo(x+w-radius+o, y, x+w, y+radius-o, x+w, y+radius)
	c.dc.LineTo(x+w, y+h-radius)
	c.dc.CubicTo(x+w, y+h-radius+o, x+w-radius+o, y+h, x+w-radius, y+h)
	c.dc.LineTo(x+radius, y+h)
	c.dc.CubicTo(x+radius-o, y+h, x, y+h-radius+o, x, y+h-radius)
	c.dc.LineTo(x, y+radius)
	c.dc.CubicTo(x, y+radius-o, x+radius-o, y, x+radius, y)
	c.dc.ClosePath()
}

func (c *Canvas) Ellipse(cx, cy, rx, ry float64) {
	c.dc.DrawEllipse(cx, cy, rx, ry)
}

// Fill and Stroke keep the path, as Canvas2D does.
func (c *Canvas) Fill() {
	c.dc.SetColor(c.st.fill)
	c.record(c.dc.FillPreserve())
}

func (c *Canvas) Stroke() {
	c.dc.SetColor(c.st.stroke)
	c.record(c.dc.StrokePreserve())
}

func (c *Canvas) Clip() {
	c.dc.ClipPreserve()
}

// FillText draws text at the transformed anchor. gg draws glyphs in device
// space, so the font is scaled by the transform and rotation is not applied.
func (c *Canvas) FillText(s string, x, y float64) {
	m := c.transform()
	scale := m.ScaleFactor()
	face, err := sansSerif.face(c.st.font.Size * scale)
	if err != nil {
		c.record(err)
		return
	}
	c.dc.SetFont(face)

	p := m.Apply(geom.Vec(x, y))
	w, _ := c.dc.MeasureString(s)
	switch c.st.align {
	case canvas.AlignCenter:
		p.X -= w / 2
	case canvas.AlignRight:
		p.X -= w
	}
	metrics := face.Metrics()
	switch c.st.baseline {
	case canvas.BaselineTop:
		p.Y += metrics.Ascent
	case canvas.BaselineMiddle:
		p.Y += (metrics.Ascent - metrics.Descent) / 2
	case canvas.BaselineBottom:
		p.Y -= metrics.Descent
	}

	if c.st.shadow.A > 0 {
		c.dc.SetColor(c.st.shadow)
		d := max(1, c.st.shadowBlur/4)
		for _, off := range [][2]float64{{-d, -d}, {d, -d}, {-d, d}, {d, d}} {
			c.dc.DrawString(s, p.X+off[0], p.Y+off[1])
		}
	}
	c.dc.SetColor(c.st.fill)
	c.dc.DrawString(s, p.X, p.Y)
}

// DrawImage scales img into the destination rect. The transform maps the
// rect's corners; rotation is not applied to the bitmap.
func (c *Canvas) DrawImage(img image.Image, x, y, w, h float64) {
	if img == nil {
		return
	}
	c.dc.DrawImageEx(gg.ImageBufFromImage(img), gg.DrawImageOptions{
		X:         x,
		Y:         y,
		DstWidth:  w,
		DstHeight: h,
	})
}

func (c *Canvas) NewOffscreen(width, height int) canvas.Offscreen {
	return New(max(1, width), max(1, height))
}

// Image returns a copy of the current pixels.
func (c *Canvas) Image() image.Image {
	return c.dc.Image()
}

// Pix exposes the RGBA pixel memory for in-place filters.
func (c *Canvas) Pix() []uint8 {
	c.record(c.dc.FlushGPU())
	return c.dc.ResizeTarget().Data()
}

func (c *Canvas) EncodePNG(w io.Writer) error {
	if err := c.dc.EncodePNG(w); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

func (c *Canvas) EncodeJPEG(w io.Writer, quality int) error {
	if err := c.dc.EncodeJPEG(w, quality); err != nil {
		return fmt.Errorf("encode jpeg: %w", err)
	}
	return nil
}

var (
	_ canvas.Context     = (*Canvas)(nil)
	_ canvas.Offscreen   = (*Canvas)(nil)
	_ canvas.RoundRecter = (*Canvas)(nil)
	_ canvas.PixelBuffer = (*Canvas)(nil)
)
